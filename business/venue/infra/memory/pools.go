// Package memory implements pool and fixed-rate exchange venues over
// the in-memory token store. It backs paper mode: the same domain math
// that prices quotes also settles executions, and venue balances live
// at the venue's own address in the store.
package memory

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	tokenmemory "github.com/dataxfi/datax-router/business/token/infra/memory"
	"github.com/dataxfi/datax-router/business/venue/app"
	"github.com/dataxfi/datax-router/business/venue/domain"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
)

var _ app.PoolExecutor = (*PoolVenues)(nil)

type poolRecord struct {
	base        *asset.Asset
	dt          *asset.Asset
	share       *asset.Asset
	totalShares *big.Int
	feeBps      uint64
}

// PoolVenues is the paper-mode pool directory. Reserves live in the
// token store at each pool's address; only the share supply counters
// live here, so PoolVenues registers as a snapshotter and rolls back
// together with balances.
type PoolVenues struct {
	mu    sync.Mutex
	store *tokenmemory.Store
	pools map[common.Address]*poolRecord
}

// NewPoolVenues creates an empty pool directory bound to the store.
func NewPoolVenues(store *tokenmemory.Store) *PoolVenues {
	v := &PoolVenues{
		store: store,
		pools: make(map[common.Address]*poolRecord),
	}
	store.RegisterSnapshotter(v)
	return v
}

// Snapshot implements tokenmemory.Snapshotter.
func (v *PoolVenues) Snapshot() any {
	v.mu.Lock()
	defer v.mu.Unlock()

	shares := make(map[common.Address]*big.Int, len(v.pools))
	for addr, rec := range v.pools {
		shares[addr] = new(big.Int).Set(rec.totalShares)
	}
	return shares
}

// Restore implements tokenmemory.Snapshotter.
func (v *PoolVenues) Restore(snapshot any) {
	shares := snapshot.(map[common.Address]*big.Int)

	v.mu.Lock()
	defer v.mu.Unlock()
	for addr, rec := range v.pools {
		if s, ok := shares[addr]; ok {
			rec.totalShares = new(big.Int).Set(s)
		}
	}
}

// CreatePool seeds a pool venue. Reserves are minted to the pool
// address and the initial share supply to the controller. The share
// token is issued at the pool's own address.
func (v *PoolVenues) CreatePool(pool, controller common.Address, base, dt *asset.Asset, baseReserve, dtReserve, initialShares *big.Int, feeBps uint64) *asset.Asset {
	share := asset.MustNewToken(base.ChainID(), pool,
		base.Symbol()+"-"+dt.Symbol()+"-BPT", dt.Symbol()+" Pool Shares", 18)

	v.mu.Lock()
	v.pools[pool] = &poolRecord{
		base:        base,
		dt:          dt,
		share:       share,
		totalShares: new(big.Int).Set(initialShares),
		feeBps:      feeBps,
	}
	v.mu.Unlock()

	v.store.Mint(pool, asset.NewAmount(base, new(big.Int).Set(baseReserve)))
	v.store.Mint(pool, asset.NewAmount(dt, new(big.Int).Set(dtReserve)))
	v.store.Mint(controller, asset.NewAmount(share, new(big.Int).Set(initialShares)))
	return share
}

// Pool implements app.PoolReader. Reserves are read from the store so
// quotes always see the balance the next execution will act on.
func (v *PoolVenues) Pool(ctx context.Context, pool common.Address) (app.PoolInfo, error) {
	v.mu.Lock()
	rec, ok := v.pools[pool]
	var totalShares *big.Int
	if ok {
		totalShares = new(big.Int).Set(rec.totalShares)
	}
	v.mu.Unlock()

	if !ok {
		return app.PoolInfo{}, apperror.New(apperror.CodeVenueNotFound,
			apperror.WithContext("pool "+pool.Hex()))
	}

	baseReserve, err := v.store.BalanceOf(ctx, pool, rec.base)
	if err != nil {
		return app.PoolInfo{}, err
	}
	dtReserve, err := v.store.BalanceOf(ctx, pool, rec.dt)
	if err != nil {
		return app.PoolInfo{}, err
	}

	return app.PoolInfo{
		Base:  rec.base,
		Dt:    rec.dt,
		Share: rec.share,
		State: domain.PoolState{
			BaseReserve: baseReserve.Raw(),
			DtReserve:   dtReserve.Raw(),
			TotalShares: totalShares,
			SwapFeeBps:  rec.feeBps,
		},
	}, nil
}

// Swap implements app.PoolExecutor.
func (v *PoolVenues) Swap(ctx context.Context, pool, from common.Address, amountIn asset.Amount, to common.Address) (asset.Amount, error) {
	info, err := v.Pool(ctx, pool)
	if err != nil {
		return asset.Amount{}, err
	}

	var reserveIn, reserveOut *big.Int
	var outAsset *asset.Asset
	switch {
	case amountIn.Asset().Equals(info.Base):
		reserveIn, reserveOut, outAsset = info.State.BaseReserve, info.State.DtReserve, info.Dt
	case amountIn.Asset().Equals(info.Dt):
		reserveIn, reserveOut, outAsset = info.State.DtReserve, info.State.BaseReserve, info.Base
	default:
		return asset.Amount{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("asset "+amountIn.Asset().Symbol()+" is not a side of the pool"))
	}

	raw, err := domain.OutGivenIn(amountIn.Raw(), reserveIn, reserveOut, info.State.SwapFeeBps)
	if err != nil {
		return asset.Amount{}, err
	}
	out := asset.NewAmount(outAsset, raw)

	if err := v.store.Transfer(ctx, from, pool, amountIn); err != nil {
		return asset.Amount{}, err
	}
	if err := v.store.Transfer(ctx, pool, to, out); err != nil {
		return asset.Amount{}, err
	}
	return out, nil
}

// SwapForExact implements app.PoolExecutor.
func (v *PoolVenues) SwapForExact(ctx context.Context, pool, from common.Address, amountOut asset.Amount, to common.Address) (asset.Amount, error) {
	info, err := v.Pool(ctx, pool)
	if err != nil {
		return asset.Amount{}, err
	}

	var reserveIn, reserveOut *big.Int
	var inAsset *asset.Asset
	switch {
	case amountOut.Asset().Equals(info.Dt):
		reserveIn, reserveOut, inAsset = info.State.BaseReserve, info.State.DtReserve, info.Base
	case amountOut.Asset().Equals(info.Base):
		reserveIn, reserveOut, inAsset = info.State.DtReserve, info.State.BaseReserve, info.Dt
	default:
		return asset.Amount{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("asset "+amountOut.Asset().Symbol()+" is not a side of the pool"))
	}

	raw, err := domain.InGivenOut(amountOut.Raw(), reserveIn, reserveOut, info.State.SwapFeeBps)
	if err != nil {
		return asset.Amount{}, err
	}
	in := asset.NewAmount(inAsset, raw)

	if err := v.store.Transfer(ctx, from, pool, in); err != nil {
		return asset.Amount{}, err
	}
	if err := v.store.Transfer(ctx, pool, to, amountOut); err != nil {
		return asset.Amount{}, err
	}
	return in, nil
}

// Join implements app.PoolExecutor. Shares are minted against the
// deposit and the supply counter advances with them.
func (v *PoolVenues) Join(ctx context.Context, pool, from common.Address, amountIn asset.Amount, to common.Address) (asset.Amount, error) {
	info, err := v.Pool(ctx, pool)
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
	shares := asset.NewAmount(info.Share, raw)

	if err := v.store.Transfer(ctx, from, pool, amountIn); err != nil {
		return asset.Amount{}, err
	}
	v.store.Mint(to, shares)

	v.mu.Lock()
	rec := v.pools[pool]
	rec.totalShares = new(big.Int).Add(rec.totalShares, raw)
	v.mu.Unlock()

	return shares, nil
}

// Exit implements app.PoolExecutor. Burned shares are parked at the
// pool address and retired from the supply counter.
func (v *PoolVenues) Exit(ctx context.Context, pool, from common.Address, sharesIn asset.Amount, to common.Address) (asset.Amount, error) {
	info, err := v.Pool(ctx, pool)
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
	base := asset.NewAmount(info.Base, raw)

	if err := v.store.Transfer(ctx, from, pool, sharesIn); err != nil {
		return asset.Amount{}, err
	}
	if err := v.store.Transfer(ctx, pool, to, base); err != nil {
		return asset.Amount{}, err
	}

	v.mu.Lock()
	rec := v.pools[pool]
	rec.totalShares = new(big.Int).Sub(rec.totalShares, sharesIn.Raw())
	v.mu.Unlock()

	return base, nil
}
