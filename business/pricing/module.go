// Package pricing implements the rate feed bounded context: market
// prices pulled from external sources into the conversion table.
package pricing

import (
	"context"
	"time"

	"github.com/dataxfi/datax-router/business/pricing/app"
	pricingDI "github.com/dataxfi/datax-router/business/pricing/di"
	"github.com/dataxfi/datax-router/business/pricing/infra/binance"
	"github.com/dataxfi/datax-router/business/pricing/infra/uniswap"
	routingDI "github.com/dataxfi/datax-router/business/routing/di"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/config"
	"github.com/dataxfi/datax-router/internal/di"
	"github.com/dataxfi/datax-router/internal/logger"
	"github.com/dataxfi/datax-router/internal/monolith"
)

// Module implements the pricing bounded context.
type Module struct{}

// RegisterServices registers the rate feed with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, pricingDI.RateFeed, func(sr di.ServiceRegistry) *app.RateFeed {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		providers := []app.Provider{}

		provider, err := binance.NewProvider(binance.Config{
			BaseURL: cfg.Rates.BinanceURL,
			Symbols: cfg.Rates.Symbols,
		}, log)
		if err != nil {
			panic("failed to create binance provider: " + err.Error())
		}
		providers = append(providers, provider)

		// In live mode the AMM itself is a second rate source.
		if cfg.Routing.Mode == config.ModeLive {
			providers = append(providers, uniswap.NewProvider(
				routingDI.GetQuoter(sr),
				[][2]*asset.Asset{
					{asset.WETH, asset.USDT},
					{asset.OCEAN, asset.WETH},
				},
				log,
			))
		}

		return app.NewRateFeed(providers, routingDI.GetTable(sr), log)
	})

	return nil
}

// Startup primes the conversion table and starts the refresh loop.
// The feed is optional: a failed initial refresh is logged, not fatal,
// since paper venues can run on seeded rates alone.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Services().Get("config").(*config.Config)
	if !cfg.Rates.Enabled {
		mono.Logger().Info(ctx, "rate feed disabled")
		return nil
	}

	feed := pricingDI.GetRateFeed(mono.Services())

	refreshCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := feed.Refresh(refreshCtx); err != nil {
		mono.Logger().Warn(ctx, "initial rate refresh failed, continuing", "error", err)
	}

	go feed.Run(context.Background(), cfg.Rates.RefreshInterval)

	mono.Logger().Info(ctx, "pricing module started",
		"interval", cfg.Rates.RefreshInterval.String())
	return nil
}
