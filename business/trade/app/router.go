package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	feesapp "github.com/dataxfi/datax-router/business/fees/app"
	feesdomain "github.com/dataxfi/datax-router/business/fees/domain"
	routingapp "github.com/dataxfi/datax-router/business/routing/app"
	"github.com/dataxfi/datax-router/business/trade/domain"
	tokenapp "github.com/dataxfi/datax-router/business/token/app"
	venueapp "github.com/dataxfi/datax-router/business/venue/app"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/logger"
)

// RouterVersion is the interface version published to the component
// registry.
const RouterVersion uint8 = 1

type phase string

const (
	phaseValidating phase = "validating"
	phaseConverting phase = "converting"
	phaseExecuting  phase = "executing"
	phaseSettling   phase = "settling"
)

// Router executes swaps between held currencies and datatokens. Every
// entry point re-derives its quote inside the unit of work, enforces
// the caller's bound, and rolls the whole call back on any failure.
// Exact-out variants refund unused input when rounding leaves a
// surplus; an unfavorable price move fails the call instead of
// overcharging.
type Router struct {
	calc      *Calc
	pool      venueapp.Strategy
	fre       venueapp.Strategy
	adapter   *routingapp.Adapter
	ledger    tokenapp.Ledger
	uow       tokenapp.UnitOfWork
	fees      *feesapp.FeeCalc
	refLedger *feesdomain.Ledger

	self      common.Address
	collector common.Address
	native    *asset.Asset
	wrapped   *asset.Asset

	log logger.LoggerInterface
}

// NewRouter creates the trade executor. self is the router's own
// ledger account, the address traders approve and the custodian of
// funds mid-call.
func NewRouter(
	calc *Calc,
	pool, fre venueapp.Strategy,
	adapter *routingapp.Adapter,
	ledger tokenapp.Ledger,
	uow tokenapp.UnitOfWork,
	fees *feesapp.FeeCalc,
	refLedger *feesdomain.Ledger,
	self, collector common.Address,
	native, wrapped *asset.Asset,
	log logger.LoggerInterface,
) *Router {
	return &Router{
		calc:      calc,
		pool:      pool,
		fre:       fre,
		adapter:   adapter,
		ledger:    ledger,
		uow:       uow,
		fees:      fees,
		refLedger: refLedger,
		self:      self,
		collector: collector,
		native:    native,
		wrapped:   wrapped,
		log:       log,
	}
}

// Version reports the router's interface version.
func (r *Router) Version() uint8 {
	return RouterVersion
}

func (r *Router) enter(ctx context.Context, op string, p phase) {
	r.log.Debug(ctx, "trade call", "op", op, "phase", string(p))
}

func (r *Router) strategyFor(kind venueapp.Kind) (venueapp.Strategy, error) {
	switch kind {
	case venueapp.KindPool:
		return r.pool, nil
	case venueapp.KindFRE:
		return r.fre, nil
	default:
		return nil, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("unknown venue kind "+string(kind)))
	}
}

func (r *Router) accrue(referrer common.Address, refFee asset.Amount) error {
	if referrer == (common.Address{}) {
		return nil
	}
	return r.refLedger.Accrue(referrer, refFee)
}

// SwapExactTokenToDatatoken spends an exact held-currency input and
// credits the trader with datatokens. Bound is the minimum acceptable
// datatoken output.
func (r *Router) SwapExactTokenToDatatoken(ctx context.Context, req domain.Request) (domain.CalcResult, error) {
	var result domain.CalcResult
	err := r.uow.Run(ctx, func(ctx context.Context) error {
		r.enter(ctx, "swapExactToken", phaseValidating)
		quote, err := r.calc.CalcDatatokenOutGivenTokenIn(ctx, req)
		if err != nil {
			return err
		}
		if err := r.ledger.TransferFrom(ctx, r.self, req.Trader, r.self, req.AmountIn); err != nil {
			return err
		}

		result, err = r.buyHeld(ctx, "swapExactToken", req, quote)
		return err
	})
	return result, err
}

// SwapExactETHToDatatoken is the native-currency variant: the input is
// wrapped first, so the path must start at the wrapped asset.
func (r *Router) SwapExactETHToDatatoken(ctx context.Context, req domain.Request) (domain.CalcResult, error) {
	if !req.AmountIn.Asset().Equals(r.native) {
		return domain.CalcResult{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("expected the native asset"))
	}

	var result domain.CalcResult
	err := r.uow.Run(ctx, func(ctx context.Context) error {
		if err := r.ledger.TransferFrom(ctx, r.self, req.Trader, r.self, req.AmountIn); err != nil {
			return err
		}
		wrapped, err := r.ledger.Wrap(ctx, r.self, req.AmountIn)
		if err != nil {
			return err
		}

		wrappedReq := req
		wrappedReq.AmountIn = wrapped
		quote, err := r.calc.CalcDatatokenOutGivenTokenIn(ctx, wrappedReq)
		if err != nil {
			return err
		}
		result, err = r.buyHeld(ctx, "swapExactETH", wrappedReq, quote)
		return err
	})
	return result, err
}

// buyHeld runs the exact-in buy once the input sits in the router's
// account: convert along the path, take fees off the gross base, swap
// the net through the venue.
func (r *Router) buyHeld(ctx context.Context, op string, req domain.Request, quote domain.CalcResult) (domain.CalcResult, error) {
	strategy, err := r.strategyFor(req.Venue.Kind)
	if err != nil {
		return domain.CalcResult{}, err
	}

	r.enter(ctx, op, phaseConverting)
	gross := req.AmountIn
	if !req.Path.IsIdentity() {
		gross, err = r.adapter.ConvertExactIn(ctx, r.self, req.AmountIn, req.Path, quote.BaseAmountNeeded, r.self)
		if err != nil {
			return domain.CalcResult{}, err
		}
	}

	dataxFee, refFee, net, err := r.fees.Split(feesdomain.KindTrade, gross, req.RefFeeBps, req.Referrer)
	if err != nil {
		return domain.CalcResult{}, err
	}
	if err := r.ledger.Transfer(ctx, r.self, r.collector, dataxFee); err != nil {
		return domain.CalcResult{}, err
	}

	r.enter(ctx, op, phaseExecuting)
	dtOut, err := strategy.SwapExactIn(ctx, req.Venue, r.self, net, req.Trader)
	if err != nil {
		return domain.CalcResult{}, err
	}

	ok, err := dtOut.GreaterThanOrEqual(req.Bound)
	if err != nil {
		return domain.CalcResult{}, err
	}
	if !ok {
		return domain.CalcResult{}, apperror.New(apperror.CodeSlippageExceeded,
			apperror.WithContext("received "+dtOut.String()+", floor "+req.Bound.String()))
	}

	r.enter(ctx, op, phaseSettling)
	if err := r.accrue(req.Referrer, refFee); err != nil {
		return domain.CalcResult{}, err
	}

	r.log.Info(ctx, "trade settled",
		"op", op, "venue", req.Venue.Venue.Hex(), "trader", req.Trader.Hex(),
		"dt_out", dtOut.String(), "datax_fee", dataxFee.String(), "ref_fee", refFee.String())

	return domain.CalcResult{
		DtAmountOut:      dtOut,
		BaseAmountNeeded: gross,
		DataxFee:         dataxFee,
		RefFee:           refFee,
	}, nil
}

// SwapTokenToExactDatatoken delivers exactly AmountOut datatokens to
// the trader. Bound is the maximum held-currency input; rounding
// surpluses are refunded, an unfavorable price move fails the call.
func (r *Router) SwapTokenToExactDatatoken(ctx context.Context, req domain.Request) (domain.CalcResult, error) {
	var result domain.CalcResult
	err := r.uow.Run(ctx, func(ctx context.Context) error {
		r.enter(ctx, "swapToExactDt", phaseValidating)
		quote, err := r.calc.CalcTokenInGivenDatatokenOut(ctx, req)
		if err != nil {
			return err
		}
		if !req.Bound.IsZero() {
			over, err := req.Bound.LessThan(quote.TokenAmountIn)
			if err != nil {
				return err
			}
			if over {
				return apperror.New(apperror.CodeSlippageExceeded,
					apperror.WithContext("needs "+quote.TokenAmountIn.String()+", ceiling "+req.Bound.String()))
			}
		}

		if err := r.ledger.TransferFrom(ctx, r.self, req.Trader, r.self, quote.TokenAmountIn); err != nil {
			return err
		}
		result, err = r.buyExactHeld(ctx, "swapToExactDt", req, quote, false)
		return err
	})
	return result, err
}

// SwapETHToExactDatatoken is the native-currency variant: the required
// input is pulled in native currency and wrapped, and any unspent
// input is unwrapped before refund. Bound is the maximum native input.
func (r *Router) SwapETHToExactDatatoken(ctx context.Context, req domain.Request) (domain.CalcResult, error) {
	if len(req.Path) == 0 || !req.Path[0].Equals(r.wrapped) {
		return domain.CalcResult{}, apperror.New(apperror.CodeUnsupportedPath,
			apperror.WithContext("path must start at "+r.wrapped.Symbol()))
	}

	var result domain.CalcResult
	err := r.uow.Run(ctx, func(ctx context.Context) error {
		r.enter(ctx, "swapETHToExactDt", phaseValidating)
		quote, err := r.calc.CalcTokenInGivenDatatokenOut(ctx, req)
		if err != nil {
			return err
		}
		// Native and wrapped share decimals, so the raw figures compare.
		if !req.Bound.IsZero() && req.Bound.Raw().Cmp(quote.TokenAmountIn.Raw()) < 0 {
			return apperror.New(apperror.CodeSlippageExceeded,
				apperror.WithContext("needs "+quote.TokenAmountIn.String()+", ceiling "+req.Bound.String()))
		}

		pull := asset.NewAmount(r.native, quote.TokenAmountIn.Raw())
		if err := r.ledger.TransferFrom(ctx, r.self, req.Trader, r.self, pull); err != nil {
			return err
		}
		if _, err := r.ledger.Wrap(ctx, r.self, pull); err != nil {
			return err
		}
		result, err = r.buyExactHeld(ctx, "swapETHToExactDt", req, quote, true)
		return err
	})
	return result, err
}

// buyExactHeld runs the exact-out buy once the quoted input sits in
// the router's account. refundNative unwraps any unspent path input
// before refunding it.
func (r *Router) buyExactHeld(ctx context.Context, op string, req domain.Request, quote domain.CalcResult, refundNative bool) (domain.CalcResult, error) {
	strategy, err := r.strategyFor(req.Venue.Kind)
	if err != nil {
		return domain.CalcResult{}, err
	}

	r.enter(ctx, op, phaseConverting)
	spent := quote.TokenAmountIn
	if !req.Path.IsIdentity() {
		spent, err = r.adapter.ConvertExactOut(ctx, r.self, quote.BaseAmountNeeded, req.Path, quote.TokenAmountIn, r.self)
		if err != nil {
			return domain.CalcResult{}, err
		}
		unspent, err := quote.TokenAmountIn.Sub(spent)
		if err != nil {
			return domain.CalcResult{}, err
		}
		if err := r.refund(ctx, req.Trader, unspent, refundNative); err != nil {
			return domain.CalcResult{}, err
		}
	}

	dataxFee, refFee, net, err := r.fees.Split(feesdomain.KindTrade, quote.BaseAmountNeeded, req.RefFeeBps, req.Referrer)
	if err != nil {
		return domain.CalcResult{}, err
	}
	if err := r.ledger.Transfer(ctx, r.self, r.collector, dataxFee); err != nil {
		return domain.CalcResult{}, err
	}

	r.enter(ctx, op, phaseExecuting)
	needIn, err := strategy.PriceInGivenOut(ctx, req.Venue, req.AmountOut)
	if err != nil {
		return domain.CalcResult{}, err
	}
	covered, err := net.GreaterThanOrEqual(needIn)
	if err != nil {
		return domain.CalcResult{}, err
	}
	if !covered {
		return domain.CalcResult{}, apperror.New(apperror.CodeSlippageExceeded,
			apperror.WithContext("venue needs "+needIn.String()+", net input "+net.String()))
	}
	if _, err := strategy.SwapExactOut(ctx, req.Venue, r.self, req.AmountOut, req.Trader); err != nil {
		return domain.CalcResult{}, err
	}

	// Fee round-up can leave a few wei of base behind; return them.
	surplus, err := net.Sub(needIn)
	if err != nil {
		return domain.CalcResult{}, err
	}
	if err := r.refund(ctx, req.Trader, surplus, false); err != nil {
		return domain.CalcResult{}, err
	}

	r.enter(ctx, op, phaseSettling)
	if err := r.accrue(req.Referrer, refFee); err != nil {
		return domain.CalcResult{}, err
	}

	r.log.Info(ctx, "trade settled",
		"op", op, "venue", req.Venue.Venue.Hex(), "trader", req.Trader.Hex(),
		"dt_out", req.AmountOut.String(), "token_in", spent.String(),
		"datax_fee", dataxFee.String(), "ref_fee", refFee.String())

	return domain.CalcResult{
		DtAmountOut:      req.AmountOut,
		TokenAmountIn:    spent,
		BaseAmountNeeded: quote.BaseAmountNeeded,
		DataxFee:         dataxFee,
		RefFee:           refFee,
	}, nil
}

// SwapExactDatatokenToToken spends an exact datatoken input and pays
// the trader in the currency the path ends at, net of fees taken from
// the gross base proceeds. Bound is the minimum acceptable output.
func (r *Router) SwapExactDatatokenToToken(ctx context.Context, req domain.Request) (domain.CalcResult, error) {
	var result domain.CalcResult
	err := r.uow.Run(ctx, func(ctx context.Context) error {
		var err error
		result, err = r.sell(ctx, "swapExactDt", req, false)
		return err
	})
	return result, err
}

// SwapExactDatatokenToETH sells datatokens for native currency; the
// path must end at the wrapped asset, which is unwrapped before the
// final transfer.
func (r *Router) SwapExactDatatokenToETH(ctx context.Context, req domain.Request) (domain.CalcResult, error) {
	if len(req.Path) == 0 || !req.Path[len(req.Path)-1].Equals(r.wrapped) {
		return domain.CalcResult{}, apperror.New(apperror.CodeUnsupportedPath,
			apperror.WithContext("path must end at "+r.wrapped.Symbol()))
	}

	var result domain.CalcResult
	err := r.uow.Run(ctx, func(ctx context.Context) error {
		var err error
		result, err = r.sell(ctx, "swapExactDtToETH", req, true)
		return err
	})
	return result, err
}

func (r *Router) sell(ctx context.Context, op string, req domain.Request, unwrap bool) (domain.CalcResult, error) {
	r.enter(ctx, op, phaseValidating)
	if _, err := r.calc.CalcTokenOutGivenDatatokenIn(ctx, req); err != nil {
		return domain.CalcResult{}, err
	}
	strategy, err := r.strategyFor(req.Venue.Kind)
	if err != nil {
		return domain.CalcResult{}, err
	}

	if err := r.ledger.TransferFrom(ctx, r.self, req.Trader, r.self, req.AmountIn); err != nil {
		return domain.CalcResult{}, err
	}

	r.enter(ctx, op, phaseExecuting)
	gross, err := strategy.SwapExactIn(ctx, req.Venue, r.self, req.AmountIn, r.self)
	if err != nil {
		return domain.CalcResult{}, err
	}

	dataxFee, refFee, net, err := r.fees.Split(feesdomain.KindTrade, gross, req.RefFeeBps, req.Referrer)
	if err != nil {
		return domain.CalcResult{}, err
	}
	if err := r.ledger.Transfer(ctx, r.self, r.collector, dataxFee); err != nil {
		return domain.CalcResult{}, err
	}

	r.enter(ctx, op, phaseConverting)
	out := net
	if !req.Path.IsIdentity() {
		out, err = r.adapter.ConvertExactIn(ctx, r.self, net, req.Path, req.Bound, r.self)
		if err != nil {
			return domain.CalcResult{}, err
		}
	}

	ok, err := out.GreaterThanOrEqual(req.Bound)
	if err != nil {
		return domain.CalcResult{}, err
	}
	if !ok {
		return domain.CalcResult{}, apperror.New(apperror.CodeSlippageExceeded,
			apperror.WithContext("received "+out.String()+", floor "+req.Bound.String()))
	}

	if unwrap {
		out, err = r.ledger.Unwrap(ctx, r.self, out)
		if err != nil {
			return domain.CalcResult{}, err
		}
	}
	if err := r.ledger.Transfer(ctx, r.self, req.Trader, out); err != nil {
		return domain.CalcResult{}, err
	}

	r.enter(ctx, op, phaseSettling)
	if err := r.accrue(req.Referrer, refFee); err != nil {
		return domain.CalcResult{}, err
	}

	r.log.Info(ctx, "trade settled",
		"op", op, "venue", req.Venue.Venue.Hex(), "trader", req.Trader.Hex(),
		"out", out.String(), "datax_fee", dataxFee.String(), "ref_fee", refFee.String())

	return domain.CalcResult{
		TokenAmountOut:   out,
		BaseAmountNeeded: gross,
		DataxFee:         dataxFee,
		RefFee:           refFee,
	}, nil
}

// SwapDatatokenToExactToken delivers exactly AmountOut of the
// currency the path ends at, spending datatokens. Bound is the maximum
// datatoken input; rounding surpluses are refunded in the base token.
func (r *Router) SwapDatatokenToExactToken(ctx context.Context, req domain.Request) (domain.CalcResult, error) {
	var result domain.CalcResult
	err := r.uow.Run(ctx, func(ctx context.Context) error {
		r.enter(ctx, "swapDtToExact", phaseValidating)
		quote, err := r.calc.CalcDatatokenInGivenTokenOut(ctx, req)
		if err != nil {
			return err
		}
		strategy, err := r.strategyFor(req.Venue.Kind)
		if err != nil {
			return err
		}
		if !req.Bound.IsZero() {
			over, err := req.Bound.LessThan(quote.DtAmountIn)
			if err != nil {
				return err
			}
			if over {
				return apperror.New(apperror.CodeSlippageExceeded,
					apperror.WithContext("needs "+quote.DtAmountIn.String()+", ceiling "+req.Bound.String()))
			}
		}

		if err := r.ledger.TransferFrom(ctx, r.self, req.Trader, r.self, quote.DtAmountIn); err != nil {
			return err
		}

		r.enter(ctx, "swapDtToExact", phaseExecuting)
		if _, err := strategy.SwapExactOut(ctx, req.Venue, r.self, quote.BaseAmountNeeded, r.self); err != nil {
			return err
		}

		dataxFee, refFee, net, err := r.fees.Split(feesdomain.KindTrade, quote.BaseAmountNeeded, req.RefFeeBps, req.Referrer)
		if err != nil {
			return err
		}
		if err := r.ledger.Transfer(ctx, r.self, r.collector, dataxFee); err != nil {
			return err
		}

		r.enter(ctx, "swapDtToExact", phaseConverting)
		if req.Path.IsIdentity() {
			covered, err := net.GreaterThanOrEqual(req.AmountOut)
			if err != nil {
				return err
			}
			if !covered {
				return apperror.New(apperror.CodeSlippageExceeded,
					apperror.WithContext("net "+net.String()+" below requested "+req.AmountOut.String()))
			}
			if err := r.ledger.Transfer(ctx, r.self, req.Trader, req.AmountOut); err != nil {
				return err
			}
			surplus, err := net.Sub(req.AmountOut)
			if err != nil {
				return err
			}
			if err := r.refund(ctx, req.Trader, surplus, false); err != nil {
				return err
			}
		} else {
			spent, err := r.adapter.ConvertExactOut(ctx, r.self, req.AmountOut, req.Path, net, req.Trader)
			if err != nil {
				return err
			}
			surplus, err := net.Sub(spent)
			if err != nil {
				return err
			}
			if err := r.refund(ctx, req.Trader, surplus, false); err != nil {
				return err
			}
		}

		r.enter(ctx, "swapDtToExact", phaseSettling)
		if err := r.accrue(req.Referrer, refFee); err != nil {
			return err
		}

		r.log.Info(ctx, "trade settled",
			"op", "swapDtToExact", "venue", req.Venue.Venue.Hex(), "trader", req.Trader.Hex(),
			"token_out", req.AmountOut.String(), "dt_in", quote.DtAmountIn.String(),
			"datax_fee", dataxFee.String(), "ref_fee", refFee.String())

		result = domain.CalcResult{
			DtAmountIn:       quote.DtAmountIn,
			TokenAmountOut:   req.AmountOut,
			BaseAmountNeeded: quote.BaseAmountNeeded,
			DataxFee:         dataxFee,
			RefFee:           refFee,
		}
		return nil
	})
	return result, err
}

// refund returns leftover funds to the trader, skipping zero amounts.
func (r *Router) refund(ctx context.Context, trader common.Address, amount asset.Amount, unwrap bool) error {
	if amount.IsZero() {
		return nil
	}
	if unwrap {
		var err error
		amount, err = r.ledger.Unwrap(ctx, r.self, amount)
		if err != nil {
			return err
		}
	}
	return r.ledger.Transfer(ctx, r.self, trader, amount)
}
