// Package app implements the multi-hop conversion adapter. The stake
// and trade routers hand it any held token plus a path, and get back
// the token their venue actually trades.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dataxfi/datax-router/business/routing/domain"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/logger"
)

// AdapterVersion is the interface version published to the component
// registry.
const AdapterVersion uint8 = 1

// Adapter quotes and executes token conversions along caller-supplied
// paths. Identity paths pass amounts through untouched.
type Adapter struct {
	quoter   Quoter
	executor Executor
	maxHops  int
	log      logger.LoggerInterface
}

// NewAdapter creates an adapter with the given hop limit.
func NewAdapter(quoter Quoter, executor Executor, maxHops int, log logger.LoggerInterface) *Adapter {
	if maxHops <= 0 {
		maxHops = domain.DefaultMaxHops
	}
	return &Adapter{quoter: quoter, executor: executor, maxHops: maxHops, log: log}
}

// Version reports the adapter's interface version.
func (a *Adapter) Version() uint8 {
	return AdapterVersion
}

// MaxHops returns the configured hop limit.
func (a *Adapter) MaxHops() int {
	return a.maxHops
}

// QuoteOut prices converting amountIn along the path, returning the
// final output.
func (a *Adapter) QuoteOut(ctx context.Context, amountIn asset.Amount, path domain.Path) (asset.Amount, error) {
	if err := a.validate(amountIn.Asset(), path); err != nil {
		return asset.Amount{}, err
	}
	if path.IsIdentity() {
		return amountIn, nil
	}

	amounts, err := a.quoter.AmountsOut(ctx, amountIn, path)
	if err != nil {
		return asset.Amount{}, wrapConversion(err, path)
	}
	return amounts[len(amounts)-1], nil
}

// QuoteIn prices the input required for an exact output along the
// path.
func (a *Adapter) QuoteIn(ctx context.Context, amountOut asset.Amount, path domain.Path) (asset.Amount, error) {
	if err := a.validateOut(amountOut.Asset(), path); err != nil {
		return asset.Amount{}, err
	}
	if path.IsIdentity() {
		return amountOut, nil
	}

	amounts, err := a.quoter.AmountsIn(ctx, amountOut, path)
	if err != nil {
		return asset.Amount{}, wrapConversion(err, path)
	}
	return amounts[0], nil
}

// ConvertExactIn converts amountIn along the path and enforces the
// caller's minimum output.
func (a *Adapter) ConvertExactIn(ctx context.Context, from common.Address, amountIn asset.Amount, path domain.Path, minOut asset.Amount, to common.Address) (asset.Amount, error) {
	if err := a.validate(amountIn.Asset(), path); err != nil {
		return asset.Amount{}, err
	}
	if path.IsIdentity() {
		return amountIn, nil
	}

	out, err := a.executor.SwapExactIn(ctx, from, amountIn, path, to)
	if err != nil {
		return asset.Amount{}, wrapConversion(err, path)
	}

	ok, err := out.GreaterThanOrEqual(minOut)
	if err != nil {
		return asset.Amount{}, err
	}
	if !ok {
		return asset.Amount{}, apperror.New(apperror.CodeSlippageExceeded,
			apperror.WithContext("conversion yielded "+out.String()+", floor "+minOut.String()))
	}

	a.log.Debug(ctx, "conversion settled",
		"path", path.String(), "in", amountIn.String(), "out", out.String())
	return out, nil
}

// ConvertExactOut delivers exactly amountOut and enforces the caller's
// input ceiling, returning the input spent.
func (a *Adapter) ConvertExactOut(ctx context.Context, from common.Address, amountOut asset.Amount, path domain.Path, maxIn asset.Amount, to common.Address) (asset.Amount, error) {
	if err := a.validateOut(amountOut.Asset(), path); err != nil {
		return asset.Amount{}, err
	}
	if path.IsIdentity() {
		return amountOut, nil
	}

	in, err := a.executor.SwapExactOut(ctx, from, amountOut, path, to)
	if err != nil {
		return asset.Amount{}, wrapConversion(err, path)
	}

	cmp, err := in.Cmp(maxIn)
	if err != nil {
		return asset.Amount{}, err
	}
	if cmp > 0 {
		return asset.Amount{}, apperror.New(apperror.CodeSlippageExceeded,
			apperror.WithContext("conversion cost "+in.String()+", ceiling "+maxIn.String()))
	}

	a.log.Debug(ctx, "conversion settled",
		"path", path.String(), "in", in.String(), "out", amountOut.String())
	return in, nil
}

func (a *Adapter) validate(from *asset.Asset, path domain.Path) error {
	if len(path) == 0 {
		return apperror.New(apperror.CodeUnsupportedPath,
			apperror.WithContext("empty path"))
	}
	return path.Validate(from, path[len(path)-1], a.maxHops)
}

func (a *Adapter) validateOut(to *asset.Asset, path domain.Path) error {
	if len(path) == 0 {
		return apperror.New(apperror.CodeUnsupportedPath,
			apperror.WithContext("empty path"))
	}
	return path.Validate(path[0], to, a.maxHops)
}

// wrapConversion tags backend failures as conversion errors while
// letting typed routing errors pass through for precise handling.
func wrapConversion(err error, path domain.Path) error {
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.New(apperror.CodeConversionFailed,
		apperror.WithCause(err), apperror.WithContext(path.String()))
}
