package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dataxfi/datax-router/business/venue/domain"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/logger"
)

// FRERouterVersion is the interface version published to the
// component registry.
const FRERouterVersion uint8 = 1

// FRERouter is the Strategy for fixed-rate exchange venues.
type FRERouter struct {
	executor ExchangeExecutor
	log      logger.LoggerInterface
}

// NewFRERouter creates a fixed-rate strategy over the given executor.
func NewFRERouter(executor ExchangeExecutor, log logger.LoggerInterface) *FRERouter {
	return &FRERouter{executor: executor, log: log}
}

// Version implements Strategy.
func (r *FRERouter) Version() uint8 {
	return FRERouterVersion
}

// PriceOutGivenIn implements Strategy.
func (r *FRERouter) PriceOutGivenIn(ctx context.Context, ref Ref, amountIn asset.Amount) (asset.Amount, error) {
	info, err := r.executor.Exchange(ctx, ref.Venue, ref.ExchangeID)
	if err != nil {
		return asset.Amount{}, err
	}

	switch {
	case amountIn.Asset().Equals(info.Base):
		raw, err := domain.DatatokenOutForBase(amountIn.Raw(), info.State)
		if err != nil {
			return asset.Amount{}, err
		}
		return asset.NewAmount(info.Dt, raw), nil
	case amountIn.Asset().Equals(info.Dt):
		raw, err := domain.BaseOutForDatatoken(amountIn.Raw(), info.State)
		if err != nil {
			return asset.Amount{}, err
		}
		return asset.NewAmount(info.Base, raw), nil
	default:
		return asset.Amount{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("asset "+amountIn.Asset().Symbol()+" is not traded on the exchange"))
	}
}

// PriceInGivenOut implements Strategy.
func (r *FRERouter) PriceInGivenOut(ctx context.Context, ref Ref, amountOut asset.Amount) (asset.Amount, error) {
	info, err := r.executor.Exchange(ctx, ref.Venue, ref.ExchangeID)
	if err != nil {
		return asset.Amount{}, err
	}

	switch {
	case amountOut.Asset().Equals(info.Dt):
		raw, err := domain.BaseNeededForDatatoken(amountOut.Raw(), info.State)
		if err != nil {
			return asset.Amount{}, err
		}
		return asset.NewAmount(info.Base, raw), nil
	case amountOut.Asset().Equals(info.Base):
		raw, err := domain.DatatokenInForBase(amountOut.Raw(), info.State)
		if err != nil {
			return asset.Amount{}, err
		}
		return asset.NewAmount(info.Dt, raw), nil
	default:
		return asset.Amount{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("asset "+amountOut.Asset().Symbol()+" is not traded on the exchange"))
	}
}

// SwapExactIn implements Strategy.
func (r *FRERouter) SwapExactIn(ctx context.Context, ref Ref, from common.Address, amountIn asset.Amount, to common.Address) (asset.Amount, error) {
	out, err := r.executor.Swap(ctx, ref.Venue, ref.ExchangeID, from, amountIn, to)
	if err != nil {
		return asset.Amount{}, err
	}
	r.log.Debug(ctx, "fixed-rate swap settled",
		"exchange", ref.ExchangeID.Hex(), "in", amountIn.String(), "out", out.String())
	return out, nil
}

// SwapExactOut implements Strategy.
func (r *FRERouter) SwapExactOut(ctx context.Context, ref Ref, from common.Address, amountOut asset.Amount, to common.Address) (asset.Amount, error) {
	in, err := r.executor.SwapForExact(ctx, ref.Venue, ref.ExchangeID, from, amountOut, to)
	if err != nil {
		return asset.Amount{}, err
	}
	r.log.Debug(ctx, "fixed-rate swap settled",
		"exchange", ref.ExchangeID.Hex(), "in", in.String(), "out", amountOut.String())
	return in, nil
}
