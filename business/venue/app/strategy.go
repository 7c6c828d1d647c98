// Package app contains the venue strategies: one pricing and execution
// service per venue kind, behind a common Strategy interface.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dataxfi/datax-router/internal/asset"
)

// Strategy prices and settles swaps against one venue kind. Direction
// is inferred from the asset of the amount passed in: an amount in the
// venue's base token trades base to datatoken and vice versa.
type Strategy interface {
	// PriceOutGivenIn quotes the output for an exact input.
	PriceOutGivenIn(ctx context.Context, ref Ref, amountIn asset.Amount) (asset.Amount, error)

	// PriceInGivenOut quotes the input required for an exact output.
	PriceInGivenOut(ctx context.Context, ref Ref, amountOut asset.Amount) (asset.Amount, error)

	// SwapExactIn spends amountIn from the from account and credits
	// the output to the to account.
	SwapExactIn(ctx context.Context, ref Ref, from common.Address, amountIn asset.Amount, to common.Address) (asset.Amount, error)

	// SwapExactOut delivers exactly amountOut to the to account and
	// returns the input spent from the from account.
	SwapExactOut(ctx context.Context, ref Ref, from common.Address, amountOut asset.Amount, to common.Address) (asset.Amount, error)

	// Version reports the strategy's interface version for the
	// component registry compatibility check.
	Version() uint8
}
