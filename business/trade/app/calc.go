// Package app implements the trade quote and execution services.
package app

import (
	"context"

	feesapp "github.com/dataxfi/datax-router/business/fees/app"
	feesdomain "github.com/dataxfi/datax-router/business/fees/domain"
	routingapp "github.com/dataxfi/datax-router/business/routing/app"
	"github.com/dataxfi/datax-router/business/trade/domain"
	venueapp "github.com/dataxfi/datax-router/business/venue/app"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
)

// Calc is the stateless trade quote layer. It resolves the venue's
// token pair, prices the swap through the matching strategy, and
// reports what execution will move. Exact-in quotes return net output
// amounts; exact-out quotes return gross fee-inclusive input amounts.
type Calc struct {
	pool      venueapp.Strategy
	fre       venueapp.Strategy
	pools     venueapp.PoolReader
	exchanges venueapp.ExchangeReader
	adapter   *routingapp.Adapter
	fees      *feesapp.FeeCalc
}

// NewCalc creates the trade quote service. The two strategies form the
// closed set of venue kinds; dispatch is by the request's Kind tag.
func NewCalc(
	pool, fre venueapp.Strategy,
	pools venueapp.PoolReader,
	exchanges venueapp.ExchangeReader,
	adapter *routingapp.Adapter,
	fees *feesapp.FeeCalc,
) *Calc {
	return &Calc{pool: pool, fre: fre, pools: pools, exchanges: exchanges, adapter: adapter, fees: fees}
}

func (c *Calc) strategyFor(kind venueapp.Kind) (venueapp.Strategy, error) {
	switch kind {
	case venueapp.KindPool:
		return c.pool, nil
	case venueapp.KindFRE:
		return c.fre, nil
	default:
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("unknown venue kind "+string(kind)))
	}
}

// pair resolves the venue's base and datatoken assets.
func (c *Calc) pair(ctx context.Context, ref venueapp.Ref) (base, dt *asset.Asset, err error) {
	switch ref.Kind {
	case venueapp.KindPool:
		info, err := c.pools.Pool(ctx, ref.Venue)
		if err != nil {
			return nil, nil, err
		}
		return info.Base, info.Dt, nil
	case venueapp.KindFRE:
		info, err := c.exchanges.Exchange(ctx, ref.Venue, ref.ExchangeID)
		if err != nil {
			return nil, nil, err
		}
		return info.Base, info.Dt, nil
	default:
		return nil, nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("unknown venue kind "+string(ref.Kind)))
	}
}

// CalcDatatokenOutGivenTokenIn quotes a buy: exact held-currency input,
// datatokens out. The path converts the input to the venue's base
// token; fees come off that gross base and the net buys the datatoken.
func (c *Calc) CalcDatatokenOutGivenTokenIn(ctx context.Context, req domain.Request) (domain.CalcResult, error) {
	if err := req.Validate(); err != nil {
		return domain.CalcResult{}, err
	}
	if !req.AmountIn.IsPositive() {
		return domain.CalcResult{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("amountIn must be positive"))
	}

	strategy, err := c.strategyFor(req.Venue.Kind)
	if err != nil {
		return domain.CalcResult{}, err
	}
	base, _, err := c.pair(ctx, req.Venue)
	if err != nil {
		return domain.CalcResult{}, err
	}
	if err := req.Path.Validate(req.AmountIn.Asset(), base, c.adapter.MaxHops()); err != nil {
		return domain.CalcResult{}, err
	}

	gross, err := c.adapter.QuoteOut(ctx, req.AmountIn, req.Path)
	if err != nil {
		return domain.CalcResult{}, err
	}

	dataxFee, refFee, net, err := c.fees.Split(feesdomain.KindTrade, gross, req.RefFeeBps, req.Referrer)
	if err != nil {
		return domain.CalcResult{}, err
	}

	dtOut, err := strategy.PriceOutGivenIn(ctx, req.Venue, net)
	if err != nil {
		return domain.CalcResult{}, err
	}

	return domain.CalcResult{
		DtAmountOut:      dtOut,
		BaseAmountNeeded: gross,
		DataxFee:         dataxFee,
		RefFee:           refFee,
	}, nil
}

// CalcTokenInGivenDatatokenOut quotes a buy for an exact datatoken
// output: the gross base the venue price implies plus fees, walked
// backwards through the path to the held-currency input required.
func (c *Calc) CalcTokenInGivenDatatokenOut(ctx context.Context, req domain.Request) (domain.CalcResult, error) {
	if err := req.Validate(); err != nil {
		return domain.CalcResult{}, err
	}
	if !req.AmountOut.IsPositive() {
		return domain.CalcResult{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("amountOut must be positive"))
	}

	strategy, err := c.strategyFor(req.Venue.Kind)
	if err != nil {
		return domain.CalcResult{}, err
	}
	base, dt, err := c.pair(ctx, req.Venue)
	if err != nil {
		return domain.CalcResult{}, err
	}
	if !req.AmountOut.Asset().Equals(dt) {
		return domain.CalcResult{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("amountOut must be the venue's datatoken"))
	}
	if len(req.Path) == 0 || !req.Path[len(req.Path)-1].Equals(base) {
		return domain.CalcResult{}, apperror.New(apperror.CodeUnsupportedPath,
			apperror.WithContext("path must end at "+base.Symbol()))
	}
	if err := req.Path.Validate(req.Path[0], base, c.adapter.MaxHops()); err != nil {
		return domain.CalcResult{}, err
	}

	netBase, err := strategy.PriceInGivenOut(ctx, req.Venue, req.AmountOut)
	if err != nil {
		return domain.CalcResult{}, err
	}
	gross, err := c.fees.GrossFromNet(feesdomain.KindTrade, netBase, req.RefFeeBps, req.Referrer)
	if err != nil {
		return domain.CalcResult{}, err
	}
	dataxFee, refFee, _, err := c.fees.Split(feesdomain.KindTrade, gross, req.RefFeeBps, req.Referrer)
	if err != nil {
		return domain.CalcResult{}, err
	}

	tokenIn, err := c.adapter.QuoteIn(ctx, gross, req.Path)
	if err != nil {
		return domain.CalcResult{}, err
	}

	return domain.CalcResult{
		TokenAmountIn:    tokenIn,
		BaseAmountNeeded: gross,
		DataxFee:         dataxFee,
		RefFee:           refFee,
	}, nil
}

// CalcTokenOutGivenDatatokenIn quotes a sell: exact datatoken input,
// output currency out net of fees. Fees come off the gross base the
// venue pays before the path conversion.
func (c *Calc) CalcTokenOutGivenDatatokenIn(ctx context.Context, req domain.Request) (domain.CalcResult, error) {
	if err := req.Validate(); err != nil {
		return domain.CalcResult{}, err
	}
	if !req.AmountIn.IsPositive() {
		return domain.CalcResult{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("amountIn must be positive"))
	}

	strategy, err := c.strategyFor(req.Venue.Kind)
	if err != nil {
		return domain.CalcResult{}, err
	}
	base, dt, err := c.pair(ctx, req.Venue)
	if err != nil {
		return domain.CalcResult{}, err
	}
	if !req.AmountIn.Asset().Equals(dt) {
		return domain.CalcResult{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("amountIn must be the venue's datatoken"))
	}
	if len(req.Path) == 0 || !req.Path[0].Equals(base) {
		return domain.CalcResult{}, apperror.New(apperror.CodeUnsupportedPath,
			apperror.WithContext("path must start at "+base.Symbol()))
	}

	gross, err := strategy.PriceOutGivenIn(ctx, req.Venue, req.AmountIn)
	if err != nil {
		return domain.CalcResult{}, err
	}

	dataxFee, refFee, net, err := c.fees.Split(feesdomain.KindTrade, gross, req.RefFeeBps, req.Referrer)
	if err != nil {
		return domain.CalcResult{}, err
	}

	out, err := c.adapter.QuoteOut(ctx, net, req.Path)
	if err != nil {
		return domain.CalcResult{}, err
	}

	return domain.CalcResult{
		TokenAmountOut:   out,
		BaseAmountNeeded: gross,
		DataxFee:         dataxFee,
		RefFee:           refFee,
	}, nil
}

// CalcDatatokenInGivenTokenOut quotes a sell for an exact
// held-currency output: the net base the path requires, grossed up for
// fees, priced back through the venue to the datatoken input needed.
func (c *Calc) CalcDatatokenInGivenTokenOut(ctx context.Context, req domain.Request) (domain.CalcResult, error) {
	if err := req.Validate(); err != nil {
		return domain.CalcResult{}, err
	}
	if !req.AmountOut.IsPositive() {
		return domain.CalcResult{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("amountOut must be positive"))
	}

	strategy, err := c.strategyFor(req.Venue.Kind)
	if err != nil {
		return domain.CalcResult{}, err
	}
	base, _, err := c.pair(ctx, req.Venue)
	if err != nil {
		return domain.CalcResult{}, err
	}
	if len(req.Path) == 0 || !req.Path[0].Equals(base) {
		return domain.CalcResult{}, apperror.New(apperror.CodeUnsupportedPath,
			apperror.WithContext("path must start at "+base.Symbol()))
	}
	if err := req.Path.Validate(base, req.AmountOut.Asset(), c.adapter.MaxHops()); err != nil {
		return domain.CalcResult{}, err
	}

	netBase, err := c.adapter.QuoteIn(ctx, req.AmountOut, req.Path)
	if err != nil {
		return domain.CalcResult{}, err
	}
	gross, err := c.fees.GrossFromNet(feesdomain.KindTrade, netBase, req.RefFeeBps, req.Referrer)
	if err != nil {
		return domain.CalcResult{}, err
	}
	dataxFee, refFee, _, err := c.fees.Split(feesdomain.KindTrade, gross, req.RefFeeBps, req.Referrer)
	if err != nil {
		return domain.CalcResult{}, err
	}

	dtIn, err := strategy.PriceInGivenOut(ctx, req.Venue, gross)
	if err != nil {
		return domain.CalcResult{}, err
	}

	return domain.CalcResult{
		DtAmountIn:       dtIn,
		BaseAmountNeeded: gross,
		DataxFee:         dataxFee,
		RefFee:           refFee,
	}, nil
}
