package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dataxfi/datax-router/business/routing/domain"
	"github.com/dataxfi/datax-router/internal/asset"
)

// Quoter prices multi-hop conversions. Implementations exist for the
// in-memory hop table and for on-chain AMM routers.
type Quoter interface {
	// AmountsOut returns the running amounts along the path for an
	// exact input, ending with the final output.
	AmountsOut(ctx context.Context, amountIn asset.Amount, path domain.Path) ([]asset.Amount, error)

	// AmountsIn returns the running amounts along the path for an
	// exact output, starting with the required input.
	AmountsIn(ctx context.Context, amountOut asset.Amount, path domain.Path) ([]asset.Amount, error)
}

// Executor settles conversions on the value ledger.
type Executor interface {
	// SwapExactIn converts amountIn along the path and credits the
	// output to the to account.
	SwapExactIn(ctx context.Context, from common.Address, amountIn asset.Amount, path domain.Path, to common.Address) (asset.Amount, error)

	// SwapExactOut delivers exactly amountOut to the to account and
	// returns the input spent.
	SwapExactOut(ctx context.Context, from common.Address, amountOut asset.Amount, path domain.Path, to common.Address) (asset.Amount, error)
}
