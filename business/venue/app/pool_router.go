package app

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dataxfi/datax-router/business/venue/domain"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/logger"
)

// PoolRouterVersion is the interface version published to the
// component registry.
const PoolRouterVersion uint8 = 1

// PoolRouter is the Strategy for constant-product pool venues. On top
// of the swap surface it exposes single-sided joins and exits, which
// the staking entry points build on.
type PoolRouter struct {
	executor PoolExecutor
	log      logger.LoggerInterface
}

// NewPoolRouter creates a pool strategy over the given executor.
func NewPoolRouter(executor PoolExecutor, log logger.LoggerInterface) *PoolRouter {
	return &PoolRouter{executor: executor, log: log}
}

// Version implements Strategy.
func (r *PoolRouter) Version() uint8 {
	return PoolRouterVersion
}

// orient resolves swap direction from the input asset: reserves are
// returned in (in, out) order along with the output asset.
func orient(info PoolInfo, in *asset.Asset) (reserveIn, reserveOut *big.Int, out *asset.Asset, err error) {
	switch {
	case in.Equals(info.Base):
		return info.State.BaseReserve, info.State.DtReserve, info.Dt, nil
	case in.Equals(info.Dt):
		return info.State.DtReserve, info.State.BaseReserve, info.Base, nil
	default:
		return nil, nil, nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("asset "+in.Symbol()+" is not a side of the pool"))
	}
}

// PriceOutGivenIn implements Strategy.
func (r *PoolRouter) PriceOutGivenIn(ctx context.Context, ref Ref, amountIn asset.Amount) (asset.Amount, error) {
	info, err := r.executor.Pool(ctx, ref.Venue)
	if err != nil {
		return asset.Amount{}, err
	}

	reserveIn, reserveOut, outAsset, err := orient(info, amountIn.Asset())
	if err != nil {
		return asset.Amount{}, err
	}

	raw, err := domain.OutGivenIn(amountIn.Raw(), reserveIn, reserveOut, info.State.SwapFeeBps)
	if err != nil {
		return asset.Amount{}, err
	}
	return asset.NewAmount(outAsset, raw), nil
}

// PriceInGivenOut implements Strategy.
func (r *PoolRouter) PriceInGivenOut(ctx context.Context, ref Ref, amountOut asset.Amount) (asset.Amount, error) {
	info, err := r.executor.Pool(ctx, ref.Venue)
	if err != nil {
		return asset.Amount{}, err
	}

	// The output asset orients the swap; reserves swap roles.
	reserveOut, reserveIn, inAsset, err := orient(info, amountOut.Asset())
	if err != nil {
		return asset.Amount{}, err
	}

	raw, err := domain.InGivenOut(amountOut.Raw(), reserveIn, reserveOut, info.State.SwapFeeBps)
	if err != nil {
		return asset.Amount{}, err
	}
	return asset.NewAmount(inAsset, raw), nil
}

// SwapExactIn implements Strategy.
func (r *PoolRouter) SwapExactIn(ctx context.Context, ref Ref, from common.Address, amountIn asset.Amount, to common.Address) (asset.Amount, error) {
	out, err := r.executor.Swap(ctx, ref.Venue, from, amountIn, to)
	if err != nil {
		return asset.Amount{}, err
	}
	r.log.Debug(ctx, "pool swap settled",
		"pool", ref.Venue.Hex(), "in", amountIn.String(), "out", out.String())
	return out, nil
}

// SwapExactOut implements Strategy.
func (r *PoolRouter) SwapExactOut(ctx context.Context, ref Ref, from common.Address, amountOut asset.Amount, to common.Address) (asset.Amount, error) {
	in, err := r.executor.SwapForExact(ctx, ref.Venue, from, amountOut, to)
	if err != nil {
		return asset.Amount{}, err
	}
	r.log.Debug(ctx, "pool swap settled",
		"pool", ref.Venue.Hex(), "in", in.String(), "out", amountOut.String())
	return in, nil
}

// PriceJoin quotes the pool shares minted for a single-sided base
// deposit.
func (r *PoolRouter) PriceJoin(ctx context.Context, ref Ref, amountIn asset.Amount) (asset.Amount, error) {
	info, err := r.executor.Pool(ctx, ref.Venue)
	if err != nil {
		return asset.Amount{}, err
	}
	if !amountIn.Asset().Equals(info.Base) {
		return asset.Amount{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("joins accept the pool's base token only"))
	}

	raw, err := domain.PoolOutGivenSingleIn(amountIn.Raw(), info.State)
	if err != nil {
		return asset.Amount{}, err
	}
	return asset.NewAmount(info.Share, raw), nil
}

// PriceExit quotes the base released for burning pool shares.
func (r *PoolRouter) PriceExit(ctx context.Context, ref Ref, sharesIn asset.Amount) (asset.Amount, error) {
	info, err := r.executor.Pool(ctx, ref.Venue)
	if err != nil {
		return asset.Amount{}, err
	}
	if !sharesIn.Asset().Equals(info.Share) {
		return asset.Amount{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("exits burn the pool's share token only"))
	}

	raw, err := domain.SingleOutGivenPoolIn(sharesIn.Raw(), info.State)
	if err != nil {
		return asset.Amount{}, err
	}
	return asset.NewAmount(info.Base, raw), nil
}

// Join deposits base single-sided and mints pool shares to the to
// account.
func (r *PoolRouter) Join(ctx context.Context, ref Ref, from common.Address, amountIn asset.Amount, to common.Address) (asset.Amount, error) {
	shares, err := r.executor.Join(ctx, ref.Venue, from, amountIn, to)
	if err != nil {
		return asset.Amount{}, err
	}
	r.log.Debug(ctx, "pool join settled",
		"pool", ref.Venue.Hex(), "in", amountIn.String(), "shares", shares.String())
	return shares, nil
}

// Exit burns pool shares from the from account and releases base to
// the to account.
func (r *PoolRouter) Exit(ctx context.Context, ref Ref, from common.Address, sharesIn asset.Amount, to common.Address) (asset.Amount, error) {
	base, err := r.executor.Exit(ctx, ref.Venue, from, sharesIn, to)
	if err != nil {
		return asset.Amount{}, err
	}
	r.log.Debug(ctx, "pool exit settled",
		"pool", ref.Venue.Hex(), "shares", sharesIn.String(), "out", base.String())
	return base, nil
}
