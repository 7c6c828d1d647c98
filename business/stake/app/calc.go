// Package app implements the staking quote and execution services.
package app

import (
	"context"

	feesapp "github.com/dataxfi/datax-router/business/fees/app"
	feesdomain "github.com/dataxfi/datax-router/business/fees/domain"
	routingapp "github.com/dataxfi/datax-router/business/routing/app"
	"github.com/dataxfi/datax-router/business/stake/domain"
	venueapp "github.com/dataxfi/datax-router/business/venue/app"
	venuedomain "github.com/dataxfi/datax-router/business/venue/domain"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
)

// Calc is the stateless staking quote layer. It reads venue state,
// resolves the conversion path, and reports the shares or base the
// matching execution will produce along with the fees it will deduct.
type Calc struct {
	pools   venueapp.PoolReader
	adapter *routingapp.Adapter
	fees    *feesapp.FeeCalc
}

// NewCalc creates the staking quote service.
func NewCalc(pools venueapp.PoolReader, adapter *routingapp.Adapter, fees *feesapp.FeeCalc) *Calc {
	return &Calc{pools: pools, adapter: adapter, fees: fees}
}

// CalcPoolOutGivenTokenIn quotes a stake: exact held-currency input,
// shares out. BaseAmountNeeded is the gross base the path conversion
// yields; fees come off that gross and the net is what joins the pool.
func (c *Calc) CalcPoolOutGivenTokenIn(ctx context.Context, req domain.Request) (domain.CalcResult, error) {
	if err := req.Validate(); err != nil {
		return domain.CalcResult{}, err
	}

	info, err := c.pools.Pool(ctx, req.Pool)
	if err != nil {
		return domain.CalcResult{}, err
	}
	if err := req.Path.Validate(req.AmountIn.Asset(), info.Base, c.adapter.MaxHops()); err != nil {
		return domain.CalcResult{}, err
	}

	gross, err := c.adapter.QuoteOut(ctx, req.AmountIn, req.Path)
	if err != nil {
		return domain.CalcResult{}, err
	}

	dataxFee, refFee, net, err := c.fees.Split(feesdomain.KindStake, gross, req.RefFeeBps, req.Referrer)
	if err != nil {
		return domain.CalcResult{}, err
	}

	sharesRaw, err := venuedomain.PoolOutGivenSingleIn(net.Raw(), info.State)
	if err != nil {
		return domain.CalcResult{}, err
	}

	return domain.CalcResult{
		PoolAmountOut:    asset.NewAmount(info.Share, sharesRaw),
		BaseAmountNeeded: gross,
		DataxFee:         dataxFee,
		RefFee:           refFee,
	}, nil
}

// CalcTokenOutGivenPoolIn quotes an unstake: exact shares in, output
// currency out net of fees. Fees come off the gross base redemption
// before the path conversion.
func (c *Calc) CalcTokenOutGivenPoolIn(ctx context.Context, req domain.Request) (domain.CalcResult, error) {
	if err := req.Validate(); err != nil {
		return domain.CalcResult{}, err
	}

	info, err := c.pools.Pool(ctx, req.Pool)
	if err != nil {
		return domain.CalcResult{}, err
	}
	if !req.AmountIn.Asset().Equals(info.Share) {
		return domain.CalcResult{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("unstakes burn the pool's share token"))
	}
	if len(req.Path) == 0 || !req.Path[0].Equals(info.Base) {
		return domain.CalcResult{}, apperror.New(apperror.CodeUnsupportedPath,
			apperror.WithContext("unstake path must start at "+info.Base.Symbol()))
	}

	grossRaw, err := venuedomain.SingleOutGivenPoolIn(req.AmountIn.Raw(), info.State)
	if err != nil {
		return domain.CalcResult{}, err
	}
	gross := asset.NewAmount(info.Base, grossRaw)

	dataxFee, refFee, net, err := c.fees.Split(feesdomain.KindStake, gross, req.RefFeeBps, req.Referrer)
	if err != nil {
		return domain.CalcResult{}, err
	}

	out, err := c.adapter.QuoteOut(ctx, net, req.Path)
	if err != nil {
		return domain.CalcResult{}, err
	}

	return domain.CalcResult{
		BaseAmountOut: out,
		DataxFee:      dataxFee,
		RefFee:        refFee,
	}, nil
}
