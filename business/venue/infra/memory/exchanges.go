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

var _ app.ExchangeExecutor = (*ExchangeVenues)(nil)

type exchangeKey struct {
	venue common.Address
	id    common.Hash
}

type exchangeRecord struct {
	base *asset.Asset
	dt   *asset.Asset
	rate *big.Int
}

// ExchangeVenues is the paper-mode fixed-rate exchange directory.
// Listings are immutable after creation and the remaining datatoken
// supply is the exchange's balance in the token store, so no snapshot
// registration is needed: all mutable state rolls back with the store.
type ExchangeVenues struct {
	mu        sync.Mutex
	store     *tokenmemory.Store
	exchanges map[exchangeKey]*exchangeRecord
}

// NewExchangeVenues creates an empty exchange directory bound to the
// store.
func NewExchangeVenues(store *tokenmemory.Store) *ExchangeVenues {
	return &ExchangeVenues{
		store:     store,
		exchanges: make(map[exchangeKey]*exchangeRecord),
	}
}

// CreateExchange seeds a fixed-rate listing. The datatoken inventory
// is minted to the exchange address; base proceeds accrue there too.
func (v *ExchangeVenues) CreateExchange(venue common.Address, id common.Hash, base, dt *asset.Asset, rate, dtSupply *big.Int) {
	v.mu.Lock()
	v.exchanges[exchangeKey{venue: venue, id: id}] = &exchangeRecord{
		base: base,
		dt:   dt,
		rate: new(big.Int).Set(rate),
	}
	v.mu.Unlock()

	v.store.Mint(venue, asset.NewAmount(dt, new(big.Int).Set(dtSupply)))
}

// FundExchange credits base to the exchange address so it can pay
// datatoken sellers.
func (v *ExchangeVenues) FundExchange(venue common.Address, base asset.Amount) {
	v.store.Mint(venue, base)
}

// Exchange implements app.ExchangeReader. The remaining supply is the
// exchange's datatoken balance in the store.
func (v *ExchangeVenues) Exchange(ctx context.Context, venue common.Address, id common.Hash) (app.ExchangeInfo, error) {
	v.mu.Lock()
	rec, ok := v.exchanges[exchangeKey{venue: venue, id: id}]
	v.mu.Unlock()

	if !ok {
		return app.ExchangeInfo{}, apperror.New(apperror.CodeVenueNotFound,
			apperror.WithContext("exchange "+id.Hex()))
	}

	supply, err := v.store.BalanceOf(ctx, venue, rec.dt)
	if err != nil {
		return app.ExchangeInfo{}, err
	}

	return app.ExchangeInfo{
		Base: rec.base,
		Dt:   rec.dt,
		State: domain.ExchangeState{
			Rate:     new(big.Int).Set(rec.rate),
			DtSupply: supply.Raw(),
		},
	}, nil
}

// Swap implements app.ExchangeExecutor for exact input.
func (v *ExchangeVenues) Swap(ctx context.Context, venue common.Address, id common.Hash, from common.Address, amountIn asset.Amount, to common.Address) (asset.Amount, error) {
	info, err := v.Exchange(ctx, venue, id)
	if err != nil {
		return asset.Amount{}, err
	}

	var out asset.Amount
	switch {
	case amountIn.Asset().Equals(info.Base):
		raw, err := domain.DatatokenOutForBase(amountIn.Raw(), info.State)
		if err != nil {
			return asset.Amount{}, err
		}
		out = asset.NewAmount(info.Dt, raw)
	case amountIn.Asset().Equals(info.Dt):
		raw, err := domain.BaseOutForDatatoken(amountIn.Raw(), info.State)
		if err != nil {
			return asset.Amount{}, err
		}
		out = asset.NewAmount(info.Base, raw)
	default:
		return asset.Amount{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("asset "+amountIn.Asset().Symbol()+" is not traded on the exchange"))
	}

	return out, v.settle(ctx, venue, from, to, amountIn, out)
}

// SwapForExact implements app.ExchangeExecutor for exact output.
func (v *ExchangeVenues) SwapForExact(ctx context.Context, venue common.Address, id common.Hash, from common.Address, amountOut asset.Amount, to common.Address) (asset.Amount, error) {
	info, err := v.Exchange(ctx, venue, id)
	if err != nil {
		return asset.Amount{}, err
	}

	var in asset.Amount
	switch {
	case amountOut.Asset().Equals(info.Dt):
		raw, err := domain.BaseNeededForDatatoken(amountOut.Raw(), info.State)
		if err != nil {
			return asset.Amount{}, err
		}
		in = asset.NewAmount(info.Base, raw)
	case amountOut.Asset().Equals(info.Base):
		raw, err := domain.DatatokenInForBase(amountOut.Raw(), info.State)
		if err != nil {
			return asset.Amount{}, err
		}
		in = asset.NewAmount(info.Dt, raw)
	default:
		return asset.Amount{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("asset "+amountOut.Asset().Symbol()+" is not traded on the exchange"))
	}

	return in, v.settle(ctx, venue, from, to, in, amountOut)
}

// settle pulls the input from the trader and pays the output from the
// exchange's inventory.
func (v *ExchangeVenues) settle(ctx context.Context, venue, from, to common.Address, in, out asset.Amount) error {
	if err := v.store.Transfer(ctx, from, venue, in); err != nil {
		return err
	}
	return v.store.Transfer(ctx, venue, to, out)
}
