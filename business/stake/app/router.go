package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	feesapp "github.com/dataxfi/datax-router/business/fees/app"
	feesdomain "github.com/dataxfi/datax-router/business/fees/domain"
	routingapp "github.com/dataxfi/datax-router/business/routing/app"
	"github.com/dataxfi/datax-router/business/stake/domain"
	tokenapp "github.com/dataxfi/datax-router/business/token/app"
	venueapp "github.com/dataxfi/datax-router/business/venue/app"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/logger"
)

// RouterVersion is the interface version published to the component
// registry.
const RouterVersion uint8 = 1

// phase names the steps of a staking call, logged as it progresses.
type phase string

const (
	phaseValidating phase = "validating"
	phaseConverting phase = "converting"
	phaseExecuting  phase = "executing"
	phaseSettling   phase = "settling"
)

// Router executes stakes and unstakes. Every entry point re-derives
// its quote inside the unit of work, so the executed amounts match
// what Calc reported against the same venue state, and any failure
// rolls the whole call back.
type Router struct {
	calc      *Calc
	pools     *venueapp.PoolRouter
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

// NewRouter creates the staking executor. self is the router's own
// ledger account: the address stakers approve and the custodian of
// funds mid-call and of accrued referral fees until claim.
func NewRouter(
	calc *Calc,
	pools *venueapp.PoolRouter,
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
		pools:     pools,
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
	r.log.Debug(ctx, "stake call", "op", op, "phase", string(p))
}

// StakeTokenInDTPool stakes a held token into a pool: pulls AmountIn
// from the staker, converts along the path, deducts fees from the
// gross base, joins the pool single-sided, and credits the shares to
// the staker. Fails with SLIPPAGE_EXCEEDED when minted shares fall
// below the bound.
func (r *Router) StakeTokenInDTPool(ctx context.Context, req domain.Request) (domain.CalcResult, error) {
	var result domain.CalcResult
	err := r.uow.Run(ctx, func(ctx context.Context) error {
		var err error
		result, err = r.stake(ctx, "stakeToken", req)
		return err
	})
	return result, err
}

// StakeETHInDTPool stakes native currency: it is wrapped first and
// then follows the token flow, so the path must start at the wrapped
// asset.
func (r *Router) StakeETHInDTPool(ctx context.Context, req domain.Request) (domain.CalcResult, error) {
	if !req.AmountIn.Asset().Equals(r.native) {
		return domain.CalcResult{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("expected the native asset"))
	}

	var result domain.CalcResult
	err := r.uow.Run(ctx, func(ctx context.Context) error {
		if err := r.ledger.TransferFrom(ctx, r.self, req.Staker, r.self, req.AmountIn); err != nil {
			return err
		}
		wrapped, err := r.ledger.Wrap(ctx, r.self, req.AmountIn)
		if err != nil {
			return err
		}

		wrappedReq := req
		wrappedReq.AmountIn = wrapped
		result, err = r.stakeHeld(ctx, "stakeETH", wrappedReq)
		return err
	})
	return result, err
}

// stake pulls the input from the staker and continues with stakeHeld.
func (r *Router) stake(ctx context.Context, op string, req domain.Request) (domain.CalcResult, error) {
	r.enter(ctx, op, phaseValidating)
	if err := req.Validate(); err != nil {
		return domain.CalcResult{}, err
	}
	if err := r.ledger.TransferFrom(ctx, r.self, req.Staker, r.self, req.AmountIn); err != nil {
		return domain.CalcResult{}, err
	}
	return r.stakeHeld(ctx, op, req)
}

// stakeHeld runs the staking flow once the input sits in the router's
// account.
func (r *Router) stakeHeld(ctx context.Context, op string, req domain.Request) (domain.CalcResult, error) {
	quote, err := r.calc.CalcPoolOutGivenTokenIn(ctx, req)
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

	dataxFee, refFee, net, err := r.fees.Split(feesdomain.KindStake, gross, req.RefFeeBps, req.Referrer)
	if err != nil {
		return domain.CalcResult{}, err
	}
	if err := r.ledger.Transfer(ctx, r.self, r.collector, dataxFee); err != nil {
		return domain.CalcResult{}, err
	}

	r.enter(ctx, op, phaseExecuting)
	ref := venueapp.Ref{Kind: venueapp.KindPool, Venue: req.Pool}
	shares, err := r.pools.Join(ctx, ref, r.self, net, req.Staker)
	if err != nil {
		return domain.CalcResult{}, err
	}

	ok, err := shares.GreaterThanOrEqual(req.Bound)
	if err != nil {
		return domain.CalcResult{}, err
	}
	if !ok {
		return domain.CalcResult{}, apperror.New(apperror.CodeSlippageExceeded,
			apperror.WithContext("minted "+shares.String()+", floor "+req.Bound.String()))
	}

	// Accrual is the final step: the ledger sits outside the rollback
	// snapshot, so nothing fallible may follow it.
	r.enter(ctx, op, phaseSettling)
	if req.Referrer != (common.Address{}) {
		if err := r.refLedger.Accrue(req.Referrer, refFee); err != nil {
			return domain.CalcResult{}, err
		}
	}

	r.log.Info(ctx, "stake settled",
		"pool", req.Pool.Hex(), "staker", req.Staker.Hex(),
		"shares", shares.String(), "datax_fee", dataxFee.String(), "ref_fee", refFee.String())

	return domain.CalcResult{
		PoolAmountOut:    shares,
		BaseAmountNeeded: gross,
		DataxFee:         dataxFee,
		RefFee:           refFee,
	}, nil
}

// UnstakeTokenFromDTPool burns pool shares and pays the staker in the
// output currency the path ends at, net of fees taken from the gross
// base redemption.
func (r *Router) UnstakeTokenFromDTPool(ctx context.Context, req domain.Request) (domain.CalcResult, error) {
	var result domain.CalcResult
	err := r.uow.Run(ctx, func(ctx context.Context) error {
		var err error
		result, err = r.unstake(ctx, "unstakeToken", req, false)
		return err
	})
	return result, err
}

// UnstakeETHFromDTPool burns pool shares and pays out native
// currency; the path must end at the wrapped asset, which is unwrapped
// before the final transfer.
func (r *Router) UnstakeETHFromDTPool(ctx context.Context, req domain.Request) (domain.CalcResult, error) {
	if len(req.Path) == 0 || !req.Path[len(req.Path)-1].Equals(r.wrapped) {
		return domain.CalcResult{}, apperror.New(apperror.CodeUnsupportedPath,
			apperror.WithContext("path must end at "+r.wrapped.Symbol()))
	}

	var result domain.CalcResult
	err := r.uow.Run(ctx, func(ctx context.Context) error {
		var err error
		result, err = r.unstake(ctx, "unstakeETH", req, true)
		return err
	})
	return result, err
}

func (r *Router) unstake(ctx context.Context, op string, req domain.Request, unwrap bool) (domain.CalcResult, error) {
	r.enter(ctx, op, phaseValidating)
	// The quote re-derivation doubles as request validation; its
	// amounts are reproduced below step by step.
	if _, err := r.calc.CalcTokenOutGivenPoolIn(ctx, req); err != nil {
		return domain.CalcResult{}, err
	}

	if err := r.ledger.TransferFrom(ctx, r.self, req.Staker, r.self, req.AmountIn); err != nil {
		return domain.CalcResult{}, err
	}

	r.enter(ctx, op, phaseExecuting)
	ref := venueapp.Ref{Kind: venueapp.KindPool, Venue: req.Pool}
	grossBase, err := r.pools.Exit(ctx, ref, r.self, req.AmountIn, r.self)
	if err != nil {
		return domain.CalcResult{}, err
	}

	dataxFee, refFee, net, err := r.fees.Split(feesdomain.KindStake, grossBase, req.RefFeeBps, req.Referrer)
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
			apperror.WithContext("redeemed "+out.String()+", floor "+req.Bound.String()))
	}

	if unwrap {
		out, err = r.ledger.Unwrap(ctx, r.self, out)
		if err != nil {
			return domain.CalcResult{}, err
		}
	}
	if err := r.ledger.Transfer(ctx, r.self, req.Staker, out); err != nil {
		return domain.CalcResult{}, err
	}

	r.enter(ctx, op, phaseSettling)
	if req.Referrer != (common.Address{}) {
		if err := r.refLedger.Accrue(req.Referrer, refFee); err != nil {
			return domain.CalcResult{}, err
		}
	}

	r.log.Info(ctx, "unstake settled",
		"pool", req.Pool.Hex(), "staker", req.Staker.Hex(),
		"out", out.String(), "datax_fee", dataxFee.String(), "ref_fee", refFee.String())

	return domain.CalcResult{
		BaseAmountOut: out,
		DataxFee:      dataxFee,
		RefFee:        refFee,
	}, nil
}

// ClaimRefFees pays a referrer their entire accrued balance in one
// currency. Callable on behalf of any referrer; funds always go to
// the referrer's own address.
func (r *Router) ClaimRefFees(ctx context.Context, referrer common.Address, a *asset.Asset) (asset.Amount, error) {
	var claimed asset.Amount
	err := r.uow.Run(ctx, func(ctx context.Context) error {
		balance := r.refLedger.Balance(referrer, a)
		if balance.IsZero() {
			return apperror.New(apperror.CodeNothingToClaim,
				apperror.WithContext(referrer.Hex()+" "+a.Symbol()))
		}

		if err := r.ledger.Transfer(ctx, r.self, referrer, balance); err != nil {
			return err
		}

		// Zero the entry last: the referral ledger sits outside the
		// rollback snapshot.
		if _, err := r.refLedger.Claim(referrer, a); err != nil {
			return err
		}
		claimed = balance
		return nil
	})
	if err != nil {
		return asset.Amount{}, err
	}

	r.log.Info(ctx, "referral fees claimed",
		"referrer", referrer.Hex(), "asset", a.Symbol(), "amount", claimed.String())
	return claimed, nil
}
