package api

import (
	"github.com/ethereum/go-ethereum/common"

	routingdomain "github.com/dataxfi/datax-router/business/routing/domain"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
)

// stakeQuoteRequest is the JSON body of the stake quote endpoints.
// Amounts are decimal strings in human units; token and path entries
// are token addresses.
type stakeQuoteRequest struct {
	Pool      string   `json:"pool" binding:"required"`
	Staker    string   `json:"staker" binding:"required"`
	Referrer  string   `json:"referrer"`
	Token     string   `json:"token" binding:"required"`
	AmountIn  string   `json:"amountIn" binding:"required"`
	RefFeeBps uint64   `json:"refFeeBps"`
	Path      []string `json:"path" binding:"required"`
}

// tradeQuoteRequest is the JSON body of the trade quote endpoints.
// Amount carries amountIn on exact-in quotes and amountOut on
// exact-out quotes.
type tradeQuoteRequest struct {
	Kind       string   `json:"kind" binding:"required"`
	Venue      string   `json:"venue" binding:"required"`
	ExchangeID string   `json:"exchangeId"`
	Trader     string   `json:"trader" binding:"required"`
	Referrer   string   `json:"referrer"`
	Token      string   `json:"token" binding:"required"`
	Amount     string   `json:"amount" binding:"required"`
	RefFeeBps  uint64   `json:"refFeeBps"`
	Path       []string `json:"path" binding:"required"`
}

// quoteResponse reports a quote. Only the fields the direction
// produces are present; amounts are decimal strings.
type quoteResponse struct {
	PoolAmountOut    string `json:"poolAmountOut,omitempty"`
	BaseAmountOut    string `json:"baseAmountOut,omitempty"`
	DtAmountOut      string `json:"dtAmountOut,omitempty"`
	DtAmountIn       string `json:"dtAmountIn,omitempty"`
	TokenAmountIn    string `json:"tokenAmountIn,omitempty"`
	TokenAmountOut   string `json:"tokenAmountOut,omitempty"`
	BaseAmountNeeded string `json:"baseAmountNeeded,omitempty"`
	DataxFee         string `json:"dataxFee,omitempty"`
	RefFee           string `json:"refFee,omitempty"`
}

// referralBalanceResponse reports one ledger entry.
type referralBalanceResponse struct {
	Referrer string `json:"referrer"`
	Token    string `json:"token"`
	Balance  string `json:"balance"`
}

// versionResponse reports the service build and component versions.
type versionResponse struct {
	Service    string           `json:"service"`
	Mode       string           `json:"mode"`
	Components map[string]uint8 `json:"components"`
}

func fmtAmount(a asset.Amount) string {
	if a.Asset() == nil {
		return ""
	}
	return a.ToDecimal().String()
}

// resolveAddress parses a hex address, rejecting malformed input.
func resolveAddress(field, s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext(field+" is not a valid address"))
	}
	return common.HexToAddress(s), nil
}

// resolveAsset looks a token address up in the asset registry.
func (s *Server) resolveAsset(addr string) (*asset.Asset, error) {
	address, err := resolveAddress("token", addr)
	if err != nil {
		return nil, err
	}
	a, ok := s.assets.GetToken(s.chainID, address)
	if !ok {
		return nil, apperror.New(apperror.CodeNotFound,
			apperror.WithContext("unknown token "+addr))
	}
	return a, nil
}

// resolvePath maps a list of token addresses to a conversion path.
func (s *Server) resolvePath(addrs []string) (routingdomain.Path, error) {
	path := make(routingdomain.Path, 0, len(addrs))
	for _, addr := range addrs {
		a, err := s.resolveAsset(addr)
		if err != nil {
			return nil, err
		}
		path = append(path, a)
	}
	return path, nil
}

// resolveAmount parses a decimal string in the given token.
func resolveAmount(a *asset.Asset, value string) (asset.Amount, error) {
	amount, err := asset.ParseString(a, value)
	if err != nil {
		return asset.Amount{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithCause(err), apperror.WithContext("bad amount "+value))
	}
	return amount, nil
}
