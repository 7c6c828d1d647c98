package app_test

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/dataxfi/datax-router/business/pricing/app"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/logger"
)

type stubProvider struct {
	name  string
	rates []asset.Price
	err   error
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Rates(ctx context.Context) ([]asset.Price, error) {
	return s.rates, s.err
}

type captureSink struct {
	rates []asset.Price
}

func (c *captureSink) SetRate(p asset.Price) {
	c.rates = append(c.rates, p)
}

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func TestRateFeed_RefreshPushesBothDirections(t *testing.T) {
	provider := &stubProvider{
		name:  "stub",
		rates: []asset.Price{asset.NewPriceNow(asset.WETH, asset.USDT, decimal.RequireFromString("2000"))},
	}
	sink := &captureSink{}
	feed := app.NewRateFeed([]app.Provider{provider}, sink, testLogger())

	if err := feed.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sink.rates) != 2 {
		t.Fatalf("expected the rate and its inverse, got %d entries", len(sink.rates))
	}
	if !sink.rates[0].Base().Equals(asset.WETH) || !sink.rates[1].Base().Equals(asset.USDT) {
		t.Errorf("expected WETH/USDT then USDT/WETH, got %s then %s",
			sink.rates[0].Pair(), sink.rates[1].Pair())
	}
	if sink.rates[1].Rate().String() != "0.0005" {
		t.Errorf("expected inverted rate 0.0005, got %s", sink.rates[1].Rate().String())
	}
}

func TestRateFeed_SkipsFailedProvider(t *testing.T) {
	broken := &stubProvider{name: "broken", err: apperror.New(apperror.CodeExternalServiceError)}
	working := &stubProvider{
		name:  "working",
		rates: []asset.Price{asset.NewPriceNow(asset.OCEAN, asset.USDT, decimal.RequireFromString("1"))},
	}
	sink := &captureSink{}
	feed := app.NewRateFeed([]app.Provider{broken, working}, sink, testLogger())

	if err := feed.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.rates) != 2 {
		t.Errorf("expected rates from the working provider, got %d entries", len(sink.rates))
	}
}

func TestRateFeed_AllProvidersFailed(t *testing.T) {
	broken := &stubProvider{name: "broken", err: apperror.New(apperror.CodeExternalServiceError)}
	feed := app.NewRateFeed([]app.Provider{broken}, &captureSink{}, testLogger())

	err := feed.Refresh(context.Background())
	if apperror.GetCode(err) != apperror.CodeExternalServiceError {
		t.Errorf("expected EXTERNAL_SERVICE_ERROR, got %v", err)
	}
}
