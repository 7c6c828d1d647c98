// Package domain holds the trade request and quote result types.
package domain

import (
	"github.com/ethereum/go-ethereum/common"

	routingdomain "github.com/dataxfi/datax-router/business/routing/domain"
	venueapp "github.com/dataxfi/datax-router/business/venue/app"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
)

// Request describes one swap against a datatoken venue. Exact-in
// operations fill AmountIn, exact-out operations fill AmountOut; Bound
// is the caller's slippage limit on the opposite side. Path carries
// the conversion hops between the trader's currency and the venue's
// base token, with a single-element path meaning no conversion.
type Request struct {
	Venue     venueapp.Ref
	Trader    common.Address
	Referrer  common.Address
	AmountIn  asset.Amount
	AmountOut asset.Amount
	Bound     asset.Amount
	RefFeeBps uint64
	Path      routingdomain.Path
}

// Validate checks the fields shared by every swap direction. The
// primary amount is direction-specific and checked by the caller.
func (r Request) Validate() error {
	if r.Trader == (common.Address{}) {
		return apperror.New(apperror.CodeZeroAddress, apperror.WithContext("trader"))
	}
	if r.Venue.Venue == (common.Address{}) {
		return apperror.New(apperror.CodeZeroAddress, apperror.WithContext("venue"))
	}
	if r.RefFeeBps > asset.BpsDenominator {
		return apperror.New(apperror.CodeInvalidRate,
			apperror.WithContext("referral fee above 100%"))
	}
	return nil
}

// CalcResult reports a trade quote. Exactly one of the four primary
// amounts is set depending on the direction; BaseAmountNeeded is the
// gross fee-inclusive amount in the venue's base token.
type CalcResult struct {
	DtAmountOut    asset.Amount
	TokenAmountIn  asset.Amount
	TokenAmountOut asset.Amount
	DtAmountIn     asset.Amount

	BaseAmountNeeded asset.Amount
	DataxFee         asset.Amount
	RefFee           asset.Amount
}
