package binance

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/logger"
)

func testLogger() logger.LoggerInterface {
	return logger.New(io.Discard, logger.LevelError, "test", nil)
}

func TestProvider_Rates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("symbol") {
		case "ETHUSDT":
			io.WriteString(w, `{"symbol":"ETHUSDT","price":"2000.50"}`)
		case "OCEANUSDT":
			io.WriteString(w, `{"symbol":"OCEANUSDT","price":"0.75"}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"code":-1121,"msg":"Invalid symbol."}`)
		}
	}))
	defer server.Close()

	p, err := NewProvider(Config{
		BaseURL: server.URL,
		Symbols: []string{"ETHUSDT", "OCEANUSDT", "UNKNOWNPAIR"},
	}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rates, err := p.Rates(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The unmapped symbol is skipped, not fetched
	if len(rates) != 2 {
		t.Fatalf("expected 2 rates, got %d", len(rates))
	}

	if !rates[0].Base().Equals(asset.WETH) || !rates[0].Quote().Equals(asset.USDT) {
		t.Errorf("unexpected pair %s", rates[0].Pair())
	}
	if rates[0].Rate().String() != "2000.5" {
		t.Errorf("unexpected rate %s", rates[0].Rate().String())
	}
	if rates[1].Rate().String() != "0.75" {
		t.Errorf("unexpected rate %s", rates[1].Rate().String())
	}
}

func TestProvider_Rates_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"code":-1003,"msg":"Too many requests."}`)
	}))
	defer server.Close()

	p, err := NewProvider(Config{BaseURL: server.URL, Symbols: []string{"ETHUSDT"}}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := p.Rates(context.Background()); err == nil {
		t.Fatal("expected an error from the failing upstream")
	}
}
