// Package memory implements the conversion backend as a fixed-rate
// hop table over the in-memory token store. It simulates an external
// AMM for paper mode: inputs are parked at a reservoir address and
// outputs are minted, so converted value enters the ledger the same
// way a real swap would deliver it.
package memory

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dataxfi/datax-router/business/routing/app"
	"github.com/dataxfi/datax-router/business/routing/domain"
	tokenmemory "github.com/dataxfi/datax-router/business/token/infra/memory"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
)

var (
	_ app.Quoter   = (*Table)(nil)
	_ app.Executor = (*Table)(nil)
)

// reservoir absorbs the input side of paper conversions.
var reservoir = common.HexToAddress("0x00000000000000000000000000000000000AD417")

var pricePrecision = new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(asset.PricePrecision)), nil)

type pairKey struct {
	in  asset.AssetID
	out asset.AssetID
}

// Table is a directory of fixed conversion rates between token pairs.
type Table struct {
	mu    sync.RWMutex
	store *tokenmemory.Store
	rates map[pairKey]asset.Price
}

// NewTable creates an empty hop table bound to the store.
func NewTable(store *tokenmemory.Store) *Table {
	return &Table{
		store: store,
		rates: make(map[pairKey]asset.Price),
	}
}

// SetRate registers the conversion rate for one direction of a pair.
// Register the inverse explicitly if both directions are needed.
func (t *Table) SetRate(p asset.Price) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rates[pairKey{in: p.Base().ID(), out: p.Quote().ID()}] = p
}

func (t *Table) rate(in, out *asset.Asset) (asset.Price, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	p, ok := t.rates[pairKey{in: in.ID(), out: out.ID()}]
	if !ok {
		return asset.Price{}, apperror.New(apperror.CodeUnsupportedPath,
			apperror.WithContext("no rate for "+in.Symbol()+" -> "+out.Symbol()))
	}
	return p, nil
}

// AmountsOut implements app.Quoter.
func (t *Table) AmountsOut(ctx context.Context, amountIn asset.Amount, path domain.Path) ([]asset.Amount, error) {
	amounts := make([]asset.Amount, 0, len(path))
	amounts = append(amounts, amountIn)

	current := amountIn
	for i := 1; i < len(path); i++ {
		p, err := t.rate(path[i-1], path[i])
		if err != nil {
			return nil, err
		}
		current, err = p.Convert(current)
		if err != nil {
			return nil, err
		}
		amounts = append(amounts, current)
	}
	return amounts, nil
}

// AmountsIn implements app.Quoter. Inputs are rounded up per hop so
// the forward execution of the returned amounts covers the requested
// output.
func (t *Table) AmountsIn(ctx context.Context, amountOut asset.Amount, path domain.Path) ([]asset.Amount, error) {
	amounts := make([]asset.Amount, len(path))
	amounts[len(path)-1] = amountOut

	current := amountOut
	for i := len(path) - 1; i > 0; i-- {
		p, err := t.rate(path[i-1], path[i])
		if err != nil {
			return nil, err
		}
		current, err = requiredIn(p, current)
		if err != nil {
			return nil, err
		}
		amounts[i-1] = current
	}
	return amounts, nil
}

// SwapExactIn implements app.Executor.
func (t *Table) SwapExactIn(ctx context.Context, from common.Address, amountIn asset.Amount, path domain.Path, to common.Address) (asset.Amount, error) {
	amounts, err := t.AmountsOut(ctx, amountIn, path)
	if err != nil {
		return asset.Amount{}, err
	}
	out := amounts[len(amounts)-1]

	if err := t.store.Transfer(ctx, from, reservoir, amountIn); err != nil {
		return asset.Amount{}, err
	}
	t.store.Mint(to, out)
	return out, nil
}

// SwapExactOut implements app.Executor.
func (t *Table) SwapExactOut(ctx context.Context, from common.Address, amountOut asset.Amount, path domain.Path, to common.Address) (asset.Amount, error) {
	amounts, err := t.AmountsIn(ctx, amountOut, path)
	if err != nil {
		return asset.Amount{}, err
	}
	in := amounts[0]

	if err := t.store.Transfer(ctx, from, reservoir, in); err != nil {
		return asset.Amount{}, err
	}
	t.store.Mint(to, amountOut)
	return in, nil
}

// requiredIn solves Convert for the base amount, rounding up at each
// step Convert floors, so converting the result forward always covers
// the requested output.
func requiredIn(p asset.Price, out asset.Amount) (asset.Amount, error) {
	if p.IsZero() {
		return asset.Amount{}, apperror.New(apperror.CodeInvalidRate,
			apperror.WithContext(p.Pair()))
	}

	baseDec := int64(p.Base().Decimals())
	quoteDec := int64(p.Quote().Decimals())
	shift := quoteDec - baseDec

	// Undo the decimal shift first, mirroring Convert in reverse
	target := new(big.Int).Set(out.Raw())
	if shift > 0 {
		target = ceilDiv(target, new(big.Int).Exp(big.NewInt(10), big.NewInt(shift), nil))
	} else if shift < 0 {
		target.Mul(target, new(big.Int).Exp(big.NewInt(10), big.NewInt(-shift), nil))
	}

	in := ceilDiv(new(big.Int).Mul(target, pricePrecision), p.RateRaw())
	return asset.NewAmount(p.Base(), in), nil
}

func ceilDiv(numerator, denominator *big.Int) *big.Int {
	out := new(big.Int).Add(numerator, new(big.Int).Sub(denominator, big.NewInt(1)))
	return out.Div(out, denominator)
}
