package app_test

import (
	"context"
	"errors"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	tokenmemory "github.com/dataxfi/datax-router/business/token/infra/memory"
	"github.com/dataxfi/datax-router/business/venue/app"
	venuememory "github.com/dataxfi/datax-router/business/venue/infra/memory"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/logger"
)

var (
	poolAddr   = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	freAddr    = common.HexToAddress("0x00000000000000000000000000000000000000B1")
	exchangeID = common.HexToHash("0x01")
	trader     = common.HexToAddress("0x00000000000000000000000000000000000000C1")
	controller = common.HexToAddress("0x00000000000000000000000000000000000000C2")
)

func bi(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big.Int literal: " + s)
	}
	return v
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

type fixture struct {
	store *tokenmemory.Store
	pools *venuememory.PoolVenues
	fres  *venuememory.ExchangeVenues
	base  *asset.Asset
	dt    *asset.Asset
	share *asset.Asset
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := tokenmemory.NewStore(asset.ETH, asset.WETH)
	base := asset.OCEAN
	dt := asset.NewDatatoken(asset.ChainIDEthereum,
		common.HexToAddress("0x00000000000000000000000000000000000000D1"), "DT1")

	pools := venuememory.NewPoolVenues(store)
	share := pools.CreatePool(poolAddr, controller, base, dt,
		bi("100000000000000000000"), bi("50000000000000000000"), bi("100000000000000000000"), 30)

	fres := venuememory.NewExchangeVenues(store)
	fres.CreateExchange(freAddr, exchangeID, base, dt,
		bi("2500000000000000000"), bi("1000000000000000000000"))

	return &fixture{store: store, pools: pools, fres: fres, base: base, dt: dt, share: share}
}

func TestPoolRouter_QuoteMatchesExecution(t *testing.T) {
	fx := newFixture(t)
	router := app.NewPoolRouter(fx.pools, testLogger())
	ref := app.Ref{Kind: app.KindPool, Venue: poolAddr}
	ctx := context.Background()

	in := asset.NewAmount(fx.base, bi("1000000000000000000"))
	fx.store.Mint(trader, in)

	quoted, err := router.PriceOutGivenIn(ctx, ref, in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := router.SwapExactIn(ctx, ref, trader, in, trader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equals(quoted) {
		t.Errorf("execution %s diverges from quote %s", got.String(), quoted.String())
	}

	balance, err := fx.store.BalanceOf(ctx, trader, fx.dt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equals(quoted) {
		t.Errorf("trader holds %s, expected %s", balance.String(), quoted.String())
	}
}

func TestPoolRouter_SwapExactOut(t *testing.T) {
	fx := newFixture(t)
	router := app.NewPoolRouter(fx.pools, testLogger())
	ref := app.Ref{Kind: app.KindPool, Venue: poolAddr}
	ctx := context.Background()

	want := asset.NewAmount(fx.dt, bi("1000000000000000000"))

	quotedIn, err := router.PriceInGivenOut(ctx, ref, want)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fx.store.Mint(trader, quotedIn)
	spent, err := router.SwapExactOut(ctx, ref, trader, want, trader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !spent.Equals(quotedIn) {
		t.Errorf("spent %s diverges from quote %s", spent.String(), quotedIn.String())
	}

	balance, err := fx.store.BalanceOf(ctx, trader, fx.dt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equals(want) {
		t.Errorf("trader holds %s, expected exactly %s", balance.String(), want.String())
	}
}

func TestPoolRouter_JoinThenExit(t *testing.T) {
	fx := newFixture(t)
	router := app.NewPoolRouter(fx.pools, testLogger())
	ref := app.Ref{Kind: app.KindPool, Venue: poolAddr}
	ctx := context.Background()

	deposit := asset.NewAmount(fx.base, bi("10000000000000000000"))
	fx.store.Mint(trader, deposit)

	quotedShares, err := router.PriceJoin(ctx, ref, deposit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	shares, err := router.Join(ctx, ref, trader, deposit, trader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !shares.Equals(quotedShares) {
		t.Errorf("minted %s diverges from quote %s", shares.String(), quotedShares.String())
	}

	back, err := router.Exit(ctx, ref, trader, shares, trader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmp, err := back.Cmp(deposit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmp > 0 {
		t.Errorf("join/exit round trip profits: %s back for %s in", back.String(), deposit.String())
	}
}

func TestPoolRouter_UnknownVenue(t *testing.T) {
	fx := newFixture(t)
	router := app.NewPoolRouter(fx.pools, testLogger())
	ref := app.Ref{Kind: app.KindPool, Venue: common.HexToAddress("0xdead")}

	_, err := router.PriceOutGivenIn(context.Background(), ref, asset.NewAmount(fx.base, bi("1")))
	if apperror.GetCode(err) != apperror.CodeVenueNotFound {
		t.Errorf("expected VENUE_NOT_FOUND, got %v", err)
	}
}

func TestPoolRouter_AssetNotInPool(t *testing.T) {
	fx := newFixture(t)
	router := app.NewPoolRouter(fx.pools, testLogger())
	ref := app.Ref{Kind: app.KindPool, Venue: poolAddr}

	_, err := router.PriceOutGivenIn(context.Background(), ref, asset.NewAmount(asset.USDC, bi("1000000")))
	if apperror.GetCode(err) != apperror.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestFRERouter_BuyAndSell(t *testing.T) {
	fx := newFixture(t)
	router := app.NewFRERouter(fx.fres, testLogger())
	ref := app.Ref{Kind: app.KindFRE, Venue: freAddr, ExchangeID: exchangeID}
	ctx := context.Background()

	// Buy exactly 4 DT at rate 2.5: costs 10 base
	want := asset.NewAmount(fx.dt, bi("4000000000000000000"))
	quotedIn, err := router.PriceInGivenOut(ctx, ref, want)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quotedIn.Raw().String() != "10000000000000000000" {
		t.Fatalf("expected 10e18 base, got %s", quotedIn.Raw().String())
	}

	fx.store.Mint(trader, quotedIn)
	spent, err := router.SwapExactOut(ctx, ref, trader, want, trader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !spent.Equals(quotedIn) {
		t.Errorf("spent %s diverges from quote %s", spent.String(), quotedIn.String())
	}

	// Sell the 4 DT back: the exchange pays 10 base from its inventory
	proceeds, err := router.SwapExactIn(ctx, ref, trader, want, trader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if proceeds.Raw().String() != "10000000000000000000" {
		t.Errorf("expected 10e18 proceeds, got %s", proceeds.Raw().String())
	}
}

func TestFRERouter_DepletedLeavesBalancesUntouched(t *testing.T) {
	fx := newFixture(t)
	router := app.NewFRERouter(fx.fres, testLogger())
	ref := app.Ref{Kind: app.KindFRE, Venue: freAddr, ExchangeID: exchangeID}
	ctx := context.Background()

	funds := asset.NewAmount(fx.base, bi("1000000000000000000"))
	fx.store.Mint(trader, funds)

	// More datatokens than the listing holds
	tooMany := asset.NewAmount(fx.dt, bi("2000000000000000000000"))

	err := fx.store.Run(ctx, func(ctx context.Context) error {
		_, err := router.SwapExactOut(ctx, ref, trader, tooMany, trader)
		return err
	})
	if apperror.GetCode(err) != apperror.CodeExchangeDepleted {
		t.Fatalf("expected EXCHANGE_DEPLETED, got %v", err)
	}

	balance, err := fx.store.BalanceOf(ctx, trader, fx.base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equals(funds) {
		t.Errorf("trader balance changed: %s, expected %s", balance.String(), funds.String())
	}
}

func TestPoolVenues_RollbackRestoresShareSupply(t *testing.T) {
	fx := newFixture(t)
	router := app.NewPoolRouter(fx.pools, testLogger())
	ref := app.Ref{Kind: app.KindPool, Venue: poolAddr}
	ctx := context.Background()

	before, err := fx.pools.Pool(ctx, poolAddr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deposit := asset.NewAmount(fx.base, bi("10000000000000000000"))
	fx.store.Mint(trader, deposit)

	boom := errors.New("boom")
	err = fx.store.Run(ctx, func(ctx context.Context) error {
		if _, err := router.Join(ctx, ref, trader, deposit, trader); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	after, err := fx.pools.Pool(ctx, poolAddr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.State.TotalShares.Cmp(before.State.TotalShares) != 0 {
		t.Errorf("share supply not rolled back: %s != %s",
			after.State.TotalShares, before.State.TotalShares)
	}

	balance, err := fx.store.BalanceOf(ctx, trader, fx.base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equals(deposit) {
		t.Errorf("deposit not rolled back: trader holds %s", balance.String())
	}
}

func TestRouterVersions(t *testing.T) {
	fx := newFixture(t)

	if v := app.NewPoolRouter(fx.pools, testLogger()).Version(); v != app.PoolRouterVersion {
		t.Errorf("pool router version %d", v)
	}
	if v := app.NewFRERouter(fx.fres, testLogger()).Version(); v != app.FRERouterVersion {
		t.Errorf("fre router version %d", v)
	}
}
