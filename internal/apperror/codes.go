package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	// General validation
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"
	CodeZeroAddress     Code = "ZERO_ADDRESS"

	// Configuration
	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	// External service errors
	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	// System errors
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Routing and fee-engine error codes
const (
	// Path / conversion errors
	CodeUnsupportedPath  Code = "UNSUPPORTED_PATH"
	CodePathTooLong      Code = "PATH_TOO_LONG"
	CodeConversionFailed Code = "CONVERSION_FAILED"

	// Execution errors
	CodeSlippageExceeded      Code = "SLIPPAGE_EXCEEDED"
	CodeInsufficientLiquidity Code = "INSUFFICIENT_LIQUIDITY"
	CodeExchangeDepleted      Code = "EXCHANGE_DEPLETED"
	CodeInsufficientBalance   Code = "INSUFFICIENT_BALANCE"

	// Fee / referral errors
	CodeInvalidRate    Code = "INVALID_RATE"
	CodeNothingToClaim Code = "NOTHING_TO_CLAIM"

	// Authorization errors
	CodeInsufficientAllowance Code = "INSUFFICIENT_ALLOWANCE"
	CodeAdminOnly             Code = "ADMIN_ONLY"

	// Versioning errors
	CodeVersionMismatch Code = "VERSION_MISMATCH"

	// Blockchain/Ethereum errors
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"

	// Venue errors
	CodeVenueNotFound Code = "VENUE_NOT_FOUND"
	CodeInvalidQuote  Code = "INVALID_QUOTE"

	// Circuit breaker errors
	CodeCircuitOpen Code = "CIRCUIT_OPEN"
)
