// Package binance implements the rate feed provider over the Binance
// REST API.
package binance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/httpclient"
	"github.com/dataxfi/datax-router/internal/logger"
)

const (
	BaseAPIURL = "https://api.binance.com"

	tickerEndpoint = "/api/v3/ticker/price"
	httpTimeout    = 10 * time.Second

	tracerName = "binance"
)

// pairs maps Binance symbols to the asset pair their price denotes.
// ETH trades route through the wrapped asset, so ETHUSDT feeds WETH.
var pairs = map[string][2]*asset.Asset{
	"ETHUSDT":   {asset.WETH, asset.USDT},
	"OCEANUSDT": {asset.OCEAN, asset.USDT},
	"ETHDAI":    {asset.WETH, asset.DAI},
	"USDCUSDT":  {asset.USDC, asset.USDT},
}

// Config holds the provider settings.
type Config struct {
	BaseURL string
	Symbols []string
}

// Provider fetches spot prices from the Binance ticker endpoint.
type Provider struct {
	client  *httpclient.Client
	symbols []string
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewProvider creates a Binance rate provider for the given symbols.
func NewProvider(cfg Config, log logger.LoggerInterface) (*Provider, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = BaseAPIURL
	}

	client, err := httpclient.New(
		httpclient.WithProviderName("binance"),
		httpclient.WithBaseURL(baseURL),
		httpclient.WithRequestTimeout(httpTimeout),
	)
	if err != nil {
		return nil, err
	}

	return &Provider{
		client:  client,
		symbols: cfg.Symbols,
		logger:  log,
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// Name identifies the provider in feed logs.
func (p *Provider) Name() string { return "binance" }

// tickerResponse is the ticker/price payload.
type tickerResponse struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// Rates fetches the configured symbols one by one. Symbols without a
// known asset mapping are skipped; a fetch failure stops the batch and
// returns what was collected so far.
func (p *Provider) Rates(ctx context.Context) ([]asset.Price, error) {
	ctx, span := p.tracer.Start(ctx, "binance.rates",
		trace.WithAttributes(attribute.Int("symbols", len(p.symbols))))
	defer span.End()

	var rates []asset.Price
	for _, symbol := range p.symbols {
		pair, ok := pairs[symbol]
		if !ok {
			p.logger.Warn(ctx, "no asset mapping for symbol", "symbol", symbol)
			continue
		}

		var ticker tickerResponse
		err := p.client.GetJSON(ctx, tickerEndpoint, map[string]string{"symbol": symbol}, &ticker)
		if err != nil {
			span.RecordError(err)
			return rates, apperror.New(apperror.CodeExternalServiceError,
				apperror.WithCause(err),
				apperror.WithContext("failed to fetch ticker "+symbol))
		}

		rate, err := decimal.NewFromString(ticker.Price)
		if err != nil || !rate.IsPositive() {
			return rates, apperror.New(apperror.CodeInvalidQuote,
				apperror.WithContext("bad price "+ticker.Price+" for "+symbol))
		}

		rates = append(rates, asset.NewPriceNow(pair[0], pair[1], rate))
	}

	span.SetAttributes(attribute.Int("rates", len(rates)))
	return rates, nil
}
