package app_test

import (
	"context"
	"io"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	feesapp "github.com/dataxfi/datax-router/business/fees/app"
	feesdomain "github.com/dataxfi/datax-router/business/fees/domain"
	registrydomain "github.com/dataxfi/datax-router/business/registry/domain"
	routingapp "github.com/dataxfi/datax-router/business/routing/app"
	routingdomain "github.com/dataxfi/datax-router/business/routing/domain"
	routingmemory "github.com/dataxfi/datax-router/business/routing/infra/memory"
	tokenmemory "github.com/dataxfi/datax-router/business/token/infra/memory"
	"github.com/dataxfi/datax-router/business/trade/app"
	"github.com/dataxfi/datax-router/business/trade/domain"
	venueapp "github.com/dataxfi/datax-router/business/venue/app"
	venuememory "github.com/dataxfi/datax-router/business/venue/infra/memory"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/logger"
)

var (
	admin      = common.HexToAddress("0x00000000000000000000000000000000000000AA")
	collector  = common.HexToAddress("0x00000000000000000000000000000000000000CC")
	routerAcct = common.HexToAddress("0x00000000000000000000000000000000000000DD")
	trader     = common.HexToAddress("0x00000000000000000000000000000000000000E2")
	referrer   = common.HexToAddress("0x00000000000000000000000000000000000000F1")
	poolAddr   = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	controller = common.HexToAddress("0x00000000000000000000000000000000000000A2")
	freAddr    = common.HexToAddress("0x00000000000000000000000000000000000000A3")
	exchangeID = common.HexToHash("0x01")
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
	store     *tokenmemory.Store
	refLedger *feesdomain.Ledger
	calc      *app.Calc
	router    *app.Router
	base      *asset.Asset
	dt        *asset.Asset
	poolRef   venueapp.Ref
	freRef    venueapp.Ref
}

// newFixture seeds an OCEAN/DT1 pool (100 base, 50 dt, no swap fee)
// and a fixed-rate exchange (rate 2.5, supply 1000 dt), a 20 bps trade
// protocol fee with a 5% ref ceiling, and USDT/WETH/OCEAN conversion
// rates.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := tokenmemory.NewStore(asset.ETH, asset.WETH)
	base := asset.OCEAN
	dt := asset.NewDatatoken(asset.ChainIDEthereum,
		common.HexToAddress("0x00000000000000000000000000000000000000D1"), "DT1")

	pools := venuememory.NewPoolVenues(store)
	pools.CreatePool(poolAddr, controller, base, dt,
		bi("100000000000000000000"), bi("50000000000000000000"), bi("100000000000000000000"), 0)

	exchanges := venuememory.NewExchangeVenues(store)
	exchanges.CreateExchange(freAddr, exchangeID, base, dt,
		bi("2500000000000000000"), bi("1000000000000000000000"))

	table := routingmemory.NewTable(store)
	table.SetRate(asset.NewPriceNow(asset.USDT, asset.WETH, decimal.RequireFromString("0.0005")))
	table.SetRate(asset.NewPriceNow(asset.WETH, asset.USDT, decimal.RequireFromString("2000")))
	table.SetRate(asset.NewPriceNow(asset.WETH, base, decimal.RequireFromString("2000")))
	table.SetRate(asset.NewPriceNow(base, asset.WETH, decimal.RequireFromString("0.0005")))
	table.SetRate(asset.NewPriceNow(asset.USDT, base, decimal.RequireFromString("1")))
	table.SetRate(asset.NewPriceNow(base, asset.USDT, decimal.RequireFromString("1")))

	adapter := routingapp.NewAdapter(table, table, 4, testLogger())

	storage, err := registrydomain.NewStorage(admin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	feeAdmin := feesdomain.NewFeeAdmin(storage, 10, 20, 500)
	feeCalc := feesapp.NewFeeCalc(feeAdmin)
	refLedger := feesdomain.NewLedger()

	poolRouter := venueapp.NewPoolRouter(pools, testLogger())
	freRouter := venueapp.NewFRERouter(exchanges, testLogger())

	calc := app.NewCalc(poolRouter, freRouter, pools, exchanges, adapter, feeCalc)
	router := app.NewRouter(calc, poolRouter, freRouter, adapter,
		store, store, feeCalc, refLedger, routerAcct, collector, asset.ETH, asset.WETH, testLogger())

	return &fixture{
		store: store, refLedger: refLedger, calc: calc, router: router,
		base: base, dt: dt,
		poolRef: venueapp.Ref{Kind: venueapp.KindPool, Venue: poolAddr},
		freRef:  venueapp.Ref{Kind: venueapp.KindFRE, Venue: freAddr, ExchangeID: exchangeID},
	}
}

func (fx *fixture) fund(owner common.Address, amount asset.Amount) {
	fx.store.Mint(owner, amount)
	fx.store.Approve(owner, routerAcct, amount)
}

func TestSwapExactTokenToDatatoken_MultiHop(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// 10 USDT through USDT -> WETH -> OCEAN into the pool
	in := asset.NewAmount(asset.USDT, bi("10000000"))
	fx.fund(trader, in)

	req := domain.Request{
		Venue: fx.poolRef, Trader: trader,
		AmountIn: in, Bound: asset.Zero(fx.dt),
		Path: routingdomain.Path{asset.USDT, asset.WETH, fx.base},
	}

	quote, err := fx.calc.CalcDatatokenOutGivenTokenIn(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.BaseAmountNeeded.Raw().String() != "10000000000000000000" {
		t.Fatalf("expected 10e18 gross base, got %s", quote.BaseAmountNeeded.Raw().String())
	}

	result, err := fx.router.SwapExactTokenToDatatoken(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.DtAmountOut.Equals(quote.DtAmountOut) {
		t.Errorf("executed %s, quoted %s", result.DtAmountOut.String(), quote.DtAmountOut.String())
	}
	if !result.BaseAmountNeeded.Equals(quote.BaseAmountNeeded) {
		t.Errorf("gross %s, quoted %s",
			result.BaseAmountNeeded.String(), quote.BaseAmountNeeded.String())
	}

	held, err := fx.store.BalanceOf(ctx, trader, fx.dt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !held.Equals(quote.DtAmountOut) {
		t.Errorf("trader holds %s, expected %s", held.String(), quote.DtAmountOut.String())
	}
}

func TestSwapExactTokenToDatatoken_FRE(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// 10 OCEAN at rate 2.5 with a 20 bps fee: net 9.98 buys 3.992 dt
	in := asset.NewAmount(fx.base, bi("10000000000000000000"))
	fx.fund(trader, in)

	req := domain.Request{
		Venue: fx.freRef, Trader: trader,
		AmountIn: in, Bound: asset.Zero(fx.dt),
		Path: routingdomain.Path{fx.base},
	}

	result, err := fx.router.SwapExactTokenToDatatoken(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DtAmountOut.Raw().String() != "3992000000000000000" {
		t.Errorf("expected 3.992e18 dt, got %s", result.DtAmountOut.Raw().String())
	}
	if result.DataxFee.Raw().String() != "20000000000000000" {
		t.Errorf("expected 2e16 fee, got %s", result.DataxFee.Raw().String())
	}
}

func TestSwapTokenToExactDatatoken(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	funded := asset.NewAmount(fx.base, bi("20000000000000000000"))
	fx.fund(trader, funded)

	out := asset.NewAmount(fx.dt, bi("4000000000000000000"))
	req := domain.Request{
		Venue: fx.freRef, Trader: trader, Referrer: referrer,
		AmountOut: out, RefFeeBps: 100,
		Bound: asset.NewAmount(fx.base, bi("11000000000000000000")),
		Path:  routingdomain.Path{fx.base},
	}

	quote, err := fx.calc.CalcTokenInGivenDatatokenOut(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := fx.router.SwapTokenToExactDatatoken(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Output is exactly what was asked, never "at least"
	held, err := fx.store.BalanceOf(ctx, trader, fx.dt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !held.Equals(out) {
		t.Errorf("trader holds %s dt, requested exactly %s", held.String(), out.String())
	}

	// Realized input never exceeds the quoted input
	rest, err := fx.store.BalanceOf(ctx, trader, fx.base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	charged := new(big.Int).Sub(funded.Raw(), rest.Raw())
	if charged.Cmp(quote.TokenAmountIn.Raw()) > 0 {
		t.Errorf("charged %s, quoted %s", charged.String(), quote.TokenAmountIn.Raw().String())
	}

	// What remains at the router is exactly the accrued referral fee
	selfHeld, err := fx.store.BalanceOf(ctx, routerAcct, fx.base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !selfHeld.Equals(result.RefFee) {
		t.Errorf("router holds %s, ref fee %s", selfHeld.String(), result.RefFee.String())
	}
	if !fx.refLedger.Balance(referrer, fx.base).Equals(result.RefFee) {
		t.Error("ledger does not match the accrued referral fee")
	}
}

func TestSwapTokenToExactDatatoken_CeilingExceeded(t *testing.T) {
	fx := newFixture(t)

	fx.fund(trader, asset.NewAmount(fx.base, bi("20000000000000000000")))

	req := domain.Request{
		Venue: fx.freRef, Trader: trader,
		AmountOut: asset.NewAmount(fx.dt, bi("4000000000000000000")),
		// 4 dt at rate 2.5 needs 10 base before fees; 9 cannot cover it
		Bound: asset.NewAmount(fx.base, bi("9000000000000000000")),
		Path:  routingdomain.Path{fx.base},
	}

	_, err := fx.router.SwapTokenToExactDatatoken(context.Background(), req)
	if apperror.GetCode(err) != apperror.CodeSlippageExceeded {
		t.Errorf("expected SLIPPAGE_EXCEEDED, got %v", err)
	}
}

func TestSwapExactDatatokenToToken(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	in := asset.NewAmount(fx.dt, bi("1000000000000000000"))
	fx.fund(trader, in)

	req := domain.Request{
		Venue: fx.poolRef, Trader: trader,
		AmountIn: in, Bound: asset.Zero(asset.USDT),
		Path: routingdomain.Path{fx.base, asset.USDT},
	}

	quote, err := fx.calc.CalcTokenOutGivenDatatokenIn(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := fx.router.SwapExactDatatokenToToken(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.TokenAmountOut.Equals(quote.TokenAmountOut) {
		t.Errorf("executed %s, quoted %s",
			result.TokenAmountOut.String(), quote.TokenAmountOut.String())
	}

	held, err := fx.store.BalanceOf(ctx, trader, asset.USDT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !held.Equals(quote.TokenAmountOut) {
		t.Errorf("trader holds %s, expected %s", held.String(), quote.TokenAmountOut.String())
	}
}

func TestSwapDatatokenToExactToken(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	funded := asset.NewAmount(fx.dt, bi("10000000000000000000"))
	fx.fund(trader, funded)

	out := asset.NewAmount(asset.USDT, bi("5000000"))
	req := domain.Request{
		Venue: fx.poolRef, Trader: trader,
		AmountOut: out, Bound: asset.NewAmount(fx.dt, bi("10000000000000000000")),
		Path: routingdomain.Path{fx.base, asset.USDT},
	}

	quote, err := fx.calc.CalcDatatokenInGivenTokenOut(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := fx.router.SwapDatatokenToExactToken(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.DtAmountIn.Equals(quote.DtAmountIn) {
		t.Errorf("spent %s dt, quoted %s", result.DtAmountIn.String(), quote.DtAmountIn.String())
	}

	held, err := fx.store.BalanceOf(ctx, trader, asset.USDT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !held.Equals(out) {
		t.Errorf("trader holds %s, requested exactly %s", held.String(), out.String())
	}

	rest, err := fx.store.BalanceOf(ctx, trader, fx.dt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	charged := new(big.Int).Sub(funded.Raw(), rest.Raw())
	if charged.Cmp(quote.DtAmountIn.Raw()) != 0 {
		t.Errorf("charged %s dt, quoted %s", charged.String(), quote.DtAmountIn.Raw().String())
	}
}

func TestSwapExactETHToDatatoken(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// 0.005 ETH wraps and converts to 10 OCEAN
	in := asset.NewAmount(asset.ETH, bi("5000000000000000"))
	fx.fund(trader, in)

	req := domain.Request{
		Venue: fx.poolRef, Trader: trader,
		AmountIn: in, Bound: asset.Zero(fx.dt),
		Path: routingdomain.Path{asset.WETH, fx.base},
	}

	result, err := fx.router.SwapExactETHToDatatoken(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.BaseAmountNeeded.Raw().String() != "10000000000000000000" {
		t.Errorf("expected 10e18 gross base, got %s", result.BaseAmountNeeded.Raw().String())
	}

	held, err := fx.store.BalanceOf(ctx, trader, fx.dt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !held.Equals(result.DtAmountOut) {
		t.Errorf("trader holds %s, expected %s", held.String(), result.DtAmountOut.String())
	}
}

func TestSwapETHToExactDatatoken(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	funded := asset.NewAmount(asset.ETH, bi("1000000000000000000"))
	fx.fund(trader, funded)

	out := asset.NewAmount(fx.dt, bi("1000000000000000000"))
	req := domain.Request{
		Venue: fx.poolRef, Trader: trader,
		AmountOut: out, Bound: funded,
		Path: routingdomain.Path{asset.WETH, fx.base},
	}

	_, err := fx.router.SwapETHToExactDatatoken(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	held, err := fx.store.BalanceOf(ctx, trader, fx.dt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !held.Equals(out) {
		t.Errorf("trader holds %s dt, requested exactly %s", held.String(), out.String())
	}

	rest, err := fx.store.BalanceOf(ctx, trader, asset.ETH)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rest.Raw().Cmp(new(big.Int).Sub(funded.Raw(), req.Bound.Raw())) < 0 {
		t.Errorf("charged more native than the ceiling: %s left", rest.Raw().String())
	}
}

func TestSwapExactDatatokenToETH(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	in := asset.NewAmount(fx.dt, bi("1000000000000000000"))
	fx.fund(trader, in)

	req := domain.Request{
		Venue: fx.poolRef, Trader: trader,
		AmountIn: in, Bound: asset.Zero(asset.WETH),
		Path: routingdomain.Path{fx.base, asset.WETH},
	}

	result, err := fx.router.SwapExactDatatokenToETH(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.TokenAmountOut.Asset().Equals(asset.ETH) {
		t.Fatalf("expected native payout, got %s", result.TokenAmountOut.Asset().Symbol())
	}

	held, err := fx.store.BalanceOf(ctx, trader, asset.ETH)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !held.Equals(result.TokenAmountOut) {
		t.Errorf("trader holds %s native, expected %s", held.String(), result.TokenAmountOut.String())
	}
}

func TestSwapTokenToExactDatatoken_Depleted(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	funded := asset.NewAmount(fx.base, bi("10000000000000000000000"))
	fx.fund(trader, funded)

	req := domain.Request{
		Venue: fx.freRef, Trader: trader,
		// Twice the exchange's remaining supply
		AmountOut: asset.NewAmount(fx.dt, bi("2000000000000000000000")),
		Bound:     asset.Zero(fx.base),
		Path:      routingdomain.Path{fx.base},
	}

	_, err := fx.router.SwapTokenToExactDatatoken(ctx, req)
	if apperror.GetCode(err) != apperror.CodeExchangeDepleted {
		t.Fatalf("expected EXCHANGE_DEPLETED, got %v", err)
	}

	// Balances untouched
	rest, err := fx.store.BalanceOf(ctx, trader, fx.base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rest.Equals(funded) {
		t.Errorf("trader balance %s, expected %s", rest.String(), funded.String())
	}
}

func TestSwap_UnknownVenueKind(t *testing.T) {
	fx := newFixture(t)

	in := asset.NewAmount(fx.base, bi("1000000000000000000"))
	fx.fund(trader, in)

	req := domain.Request{
		Venue:  venueapp.Ref{Kind: venueapp.Kind("lending"), Venue: poolAddr},
		Trader: trader, AmountIn: in, Bound: asset.Zero(fx.dt),
		Path: routingdomain.Path{fx.base},
	}

	_, err := fx.router.SwapExactTokenToDatatoken(context.Background(), req)
	if apperror.GetCode(err) != apperror.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestRouterVersion(t *testing.T) {
	fx := newFixture(t)
	if fx.router.Version() != 1 {
		t.Errorf("unexpected version %d", fx.router.Version())
	}
}
