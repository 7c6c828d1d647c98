package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dataxfi/datax-router/business/venue/domain"
	"github.com/dataxfi/datax-router/internal/asset"
)

// PoolInfo describes a pool venue: the assets on each side, the share
// token it mints, and a snapshot of its reserves.
type PoolInfo struct {
	Base  *asset.Asset
	Dt    *asset.Asset
	Share *asset.Asset
	State domain.PoolState
}

// ExchangeInfo describes a fixed-rate exchange listing.
type ExchangeInfo struct {
	Base  *asset.Asset
	Dt    *asset.Asset
	State domain.ExchangeState
}

// PoolReader provides read access to pool state. Implementations exist
// for the in-memory paper venues and for on-chain pools.
type PoolReader interface {
	Pool(ctx context.Context, pool common.Address) (PoolInfo, error)
}

// PoolExecutor settles swaps, joins and exits against a pool. The
// execution arithmetic must match what PoolReader-based quotes predict.
type PoolExecutor interface {
	PoolReader

	// Swap spends amountIn from the from account and credits the
	// other side of the pool to the to account.
	Swap(ctx context.Context, pool, from common.Address, amountIn asset.Amount, to common.Address) (asset.Amount, error)

	// SwapForExact delivers exactly amountOut to the to account and
	// returns the input spent from the from account.
	SwapForExact(ctx context.Context, pool, from common.Address, amountOut asset.Amount, to common.Address) (asset.Amount, error)

	// Join deposits base single-sided and mints pool shares to the
	// to account.
	Join(ctx context.Context, pool, from common.Address, amountIn asset.Amount, to common.Address) (asset.Amount, error)

	// Exit burns pool shares from the from account and releases base
	// to the to account.
	Exit(ctx context.Context, pool, from common.Address, sharesIn asset.Amount, to common.Address) (asset.Amount, error)
}

// ExchangeReader provides read access to fixed-rate exchange listings.
type ExchangeReader interface {
	Exchange(ctx context.Context, venue common.Address, id common.Hash) (ExchangeInfo, error)
}

// ExchangeExecutor settles buys and sells against a fixed-rate
// exchange listing.
type ExchangeExecutor interface {
	ExchangeReader

	// Swap spends amountIn (base or datatoken) from the from account
	// at the posted rate and credits the counter asset to the to
	// account.
	Swap(ctx context.Context, venue common.Address, id common.Hash, from common.Address, amountIn asset.Amount, to common.Address) (asset.Amount, error)

	// SwapForExact delivers exactly amountOut to the to account and
	// returns the input spent from the from account.
	SwapForExact(ctx context.Context, venue common.Address, id common.Hash, from common.Address, amountOut asset.Amount, to common.Address) (asset.Amount, error)
}
