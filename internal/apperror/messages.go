package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	// General validation
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",
	CodeZeroAddress:     "Zero address where a real address is required",

	// Configuration
	CodeConfigurationError: "Configuration error",

	// External service errors
	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	// System errors
	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	// Path / conversion errors
	CodeUnsupportedPath:  "Conversion path endpoints do not match the held and required currencies",
	CodePathTooLong:      "Conversion path exceeds the maximum hop count",
	CodeConversionFailed: "Multi-hop conversion failed",

	// Execution errors
	CodeSlippageExceeded:      "Realized amount fell outside the caller-supplied bound",
	CodeInsufficientLiquidity: "Venue cannot satisfy the requested amount",
	CodeExchangeDepleted:      "Fixed-rate exchange has insufficient remaining supply",
	CodeInsufficientBalance:   "Insufficient balance",

	// Fee / referral errors
	CodeInvalidRate:    "Fee rate exceeds the allowed bound",
	CodeNothingToClaim: "No accrued referral fees to claim",

	// Authorization errors
	CodeInsufficientAllowance: "Caller has not approved the router for the required amount",
	CodeAdminOnly:             "Operation restricted to the registered admin",

	// Versioning errors
	CodeVersionMismatch: "Component versions are not compatible",

	// Blockchain/Ethereum errors
	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeContractCallFailed:       "Smart contract call failed",

	// Venue errors
	CodeVenueNotFound: "Venue not found",
	CodeInvalidQuote:  "Invalid quote data",

	// Circuit breaker errors
	CodeCircuitOpen: "Circuit breaker is open",
}
