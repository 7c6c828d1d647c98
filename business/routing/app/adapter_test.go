package app_test

import (
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/dataxfi/datax-router/business/routing/app"
	"github.com/dataxfi/datax-router/business/routing/domain"
	routingmemory "github.com/dataxfi/datax-router/business/routing/infra/memory"
	tokenmemory "github.com/dataxfi/datax-router/business/token/infra/memory"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/logger"
)

var trader = common.HexToAddress("0x00000000000000000000000000000000000000C1")

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

// newAdapter builds an adapter over a hop table with USDT -> WETH at
// 0.0005 and WETH -> OCEAN at 2000, both directions registered.
func newAdapter(t *testing.T) (*app.Adapter, *tokenmemory.Store) {
	t.Helper()

	store := tokenmemory.NewStore(asset.ETH, asset.WETH)
	table := routingmemory.NewTable(store)

	table.SetRate(asset.NewPriceNow(asset.USDT, asset.WETH, decimal.RequireFromString("0.0005")))
	table.SetRate(asset.NewPriceNow(asset.WETH, asset.USDT, decimal.RequireFromString("2000")))
	table.SetRate(asset.NewPriceNow(asset.WETH, asset.OCEAN, decimal.RequireFromString("2000")))
	table.SetRate(asset.NewPriceNow(asset.OCEAN, asset.WETH, decimal.RequireFromString("0.0005")))

	return app.NewAdapter(table, table, 4, testLogger()), store
}

func TestAdapter_IdentityPath(t *testing.T) {
	adapter, _ := newAdapter(t)
	in := asset.NewAmount(asset.OCEAN, bi("1000000000000000000"))

	out, err := adapter.QuoteOut(context.Background(), in, domain.Path{asset.OCEAN})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Equals(in) {
		t.Errorf("identity path changed the amount: %s", out.String())
	}
}

func TestAdapter_MultiHopQuote(t *testing.T) {
	adapter, _ := newAdapter(t)

	// 10 USDT -> 0.005 WETH -> 10 OCEAN
	in := asset.NewAmount(asset.USDT, bi("10000000"))
	out, err := adapter.QuoteOut(context.Background(), in, domain.Path{asset.USDT, asset.WETH, asset.OCEAN})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Raw().String() != "10000000000000000000" {
		t.Errorf("expected 10e18 OCEAN, got %s", out.Raw().String())
	}
	if !out.Asset().Equals(asset.OCEAN) {
		t.Errorf("expected OCEAN output, got %s", out.Asset().Symbol())
	}
}

func TestAdapter_QuoteInCoversOutput(t *testing.T) {
	adapter, _ := newAdapter(t)
	ctx := context.Background()
	path := domain.Path{asset.USDT, asset.WETH, asset.OCEAN}

	want := asset.NewAmount(asset.OCEAN, bi("3333333333333333333"))
	in, err := adapter.QuoteIn(ctx, want, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	forward, err := adapter.QuoteOut(ctx, in, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, err := forward.GreaterThanOrEqual(want)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Errorf("quoted input %s yields only %s", in.String(), forward.String())
	}
}

func TestAdapter_ConvertExactIn(t *testing.T) {
	adapter, store := newAdapter(t)
	ctx := context.Background()
	path := domain.Path{asset.USDT, asset.WETH, asset.OCEAN}

	in := asset.NewAmount(asset.USDT, bi("10000000"))
	store.Mint(trader, in)

	quoted, err := adapter.QuoteOut(ctx, in, path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out, err := adapter.ConvertExactIn(ctx, trader, in, path, quoted, trader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Equals(quoted) {
		t.Errorf("execution %s diverges from quote %s", out.String(), quoted.String())
	}

	balance, err := store.BalanceOf(ctx, trader, asset.OCEAN)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equals(quoted) {
		t.Errorf("trader holds %s, expected %s", balance.String(), quoted.String())
	}

	usdtLeft, err := store.BalanceOf(ctx, trader, asset.USDT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !usdtLeft.IsZero() {
		t.Errorf("input not fully spent: %s", usdtLeft.String())
	}
}

func TestAdapter_ConvertExactIn_SlippageFloor(t *testing.T) {
	adapter, store := newAdapter(t)
	ctx := context.Background()
	path := domain.Path{asset.USDT, asset.OCEAN}

	// No direct USDT -> OCEAN rate registered
	in := asset.NewAmount(asset.USDT, bi("10000000"))
	store.Mint(trader, in)

	_, err := adapter.ConvertExactIn(ctx, trader, in, path, asset.Zero(asset.OCEAN), trader)
	if apperror.GetCode(err) != apperror.CodeUnsupportedPath {
		t.Fatalf("expected UNSUPPORTED_PATH, got %v", err)
	}

	// A floor above the achievable output trips the slippage check
	path = domain.Path{asset.USDT, asset.WETH, asset.OCEAN}
	floor := asset.NewAmount(asset.OCEAN, bi("10000000000000000001"))
	_, err = adapter.ConvertExactIn(ctx, trader, in, path, floor, trader)
	if apperror.GetCode(err) != apperror.CodeSlippageExceeded {
		t.Errorf("expected SLIPPAGE_EXCEEDED, got %v", err)
	}
}

func TestAdapter_ConvertExactOut(t *testing.T) {
	adapter, store := newAdapter(t)
	ctx := context.Background()
	path := domain.Path{asset.USDT, asset.WETH, asset.OCEAN}

	want := asset.NewAmount(asset.OCEAN, bi("10000000000000000000"))
	ceiling := asset.NewAmount(asset.USDT, bi("10000000"))
	store.Mint(trader, ceiling)

	spent, err := adapter.ConvertExactOut(ctx, trader, want, path, ceiling, trader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	balance, err := store.BalanceOf(ctx, trader, asset.OCEAN)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equals(want) {
		t.Errorf("trader holds %s, expected exactly %s", balance.String(), want.String())
	}

	cmp, err := spent.Cmp(ceiling)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmp > 0 {
		t.Errorf("spent %s above ceiling %s", spent.String(), ceiling.String())
	}
}

func TestAdapter_ConvertExactOut_CeilingExceeded(t *testing.T) {
	adapter, store := newAdapter(t)
	ctx := context.Background()
	path := domain.Path{asset.USDT, asset.WETH, asset.OCEAN}

	want := asset.NewAmount(asset.OCEAN, bi("10000000000000000000"))
	store.Mint(trader, asset.NewAmount(asset.USDT, bi("10000000")))

	tight := asset.NewAmount(asset.USDT, bi("9999999"))
	_, err := adapter.ConvertExactOut(ctx, trader, want, path, tight, trader)
	if apperror.GetCode(err) != apperror.CodeSlippageExceeded {
		t.Errorf("expected SLIPPAGE_EXCEEDED, got %v", err)
	}
}

func TestAdapter_PathTooLong(t *testing.T) {
	adapter, _ := newAdapter(t)
	in := asset.NewAmount(asset.USDT, bi("1000000"))

	long := domain.Path{asset.USDT, asset.WETH, asset.DAI, asset.USDC, asset.ETH, asset.OCEAN}
	_, err := adapter.QuoteOut(context.Background(), in, long)
	if apperror.GetCode(err) != apperror.CodePathTooLong {
		t.Errorf("expected PATH_TOO_LONG, got %v", err)
	}
}

func TestAdapter_Version(t *testing.T) {
	adapter, _ := newAdapter(t)
	if adapter.Version() != app.AdapterVersion {
		t.Errorf("version %d", adapter.Version())
	}
}
