// Package domain contains the staking request and result shapes.
package domain

import (
	"github.com/ethereum/go-ethereum/common"

	routingdomain "github.com/dataxfi/datax-router/business/routing/domain"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
)

// Request describes one stake or unstake call. AmountIn is the held
// currency on stakes and the share amount on unstakes; Bound is the
// minimum shares to mint or the minimum base to receive. Path routes
// the held currency to the pool's base token (stakes) or the base
// token to the desired output currency (unstakes).
type Request struct {
	Pool     common.Address
	Staker   common.Address
	Referrer common.Address

	AmountIn  asset.Amount
	Bound     asset.Amount
	RefFeeBps uint64

	Path routingdomain.Path
}

// Validate rejects requests no execution path could accept.
func (r Request) Validate() error {
	if r.Staker == (common.Address{}) {
		return apperror.New(apperror.CodeZeroAddress,
			apperror.WithContext("staker"))
	}
	if r.Pool == (common.Address{}) {
		return apperror.New(apperror.CodeZeroAddress,
			apperror.WithContext("pool"))
	}
	if !r.AmountIn.IsPositive() {
		return apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("amountIn must be positive"))
	}
	if r.RefFeeBps > asset.BpsDenominator {
		return apperror.New(apperror.CodeInvalidRate,
			apperror.WithContext("referral fee above 100%"))
	}
	return nil
}

// CalcResult is the quote and execution outcome of a staking call.
// PoolAmountOut is set on stakes, BaseAmountOut on unstakes.
type CalcResult struct {
	PoolAmountOut    asset.Amount
	BaseAmountOut    asset.Amount
	BaseAmountNeeded asset.Amount
	DataxFee         asset.Amount
	RefFee           asset.Amount
}
