// Package venue implements the trading venue bounded context: pool
// and fixed-rate exchange strategies plus their paper and live
// backends.
package venue

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	tokenDI "github.com/dataxfi/datax-router/business/token/di"
	"github.com/dataxfi/datax-router/business/venue/app"
	venueDI "github.com/dataxfi/datax-router/business/venue/di"
	"github.com/dataxfi/datax-router/business/venue/infra/evm"
	"github.com/dataxfi/datax-router/business/venue/infra/memory"
	"github.com/dataxfi/datax-router/internal/config"
	"github.com/dataxfi/datax-router/internal/di"
	"github.com/dataxfi/datax-router/internal/logger"
	"github.com/dataxfi/datax-router/internal/monolith"
)

// Module implements the venue bounded context.
type Module struct{}

// RegisterServices registers the venue services with the DI container.
// Execution always settles on the in-memory venues; the quote-side
// readers switch to on-chain state in live mode.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, venueDI.PoolVenues, func(sr di.ServiceRegistry) *memory.PoolVenues {
		return memory.NewPoolVenues(tokenDI.GetStore(sr))
	})

	di.RegisterToken(c, venueDI.ExchangeVenues, func(sr di.ServiceRegistry) *memory.ExchangeVenues {
		return memory.NewExchangeVenues(tokenDI.GetStore(sr))
	})

	di.RegisterToken(c, venueDI.PoolRouter, func(sr di.ServiceRegistry) *app.PoolRouter {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewPoolRouter(venueDI.GetPoolVenues(sr), log)
	})

	di.RegisterToken(c, venueDI.FRERouter, func(sr di.ServiceRegistry) *app.FRERouter {
		log := sr.Get("logger").(logger.LoggerInterface)
		return app.NewFRERouter(venueDI.GetExchangeVenues(sr), log)
	})

	di.RegisterToken(c, venueDI.PoolReader, func(sr di.ServiceRegistry) app.PoolReader {
		cfg := sr.Get("config").(*config.Config)
		if cfg.Routing.Mode == config.ModeLive {
			client := sr.Get("ethClient").(*ethclient.Client)
			log := sr.Get("logger").(logger.LoggerInterface)

			reader, err := evm.NewPoolStateReader(client, log, cfg.Ethereum.MaxRPS)
			if err != nil {
				panic("failed to create pool state reader: " + err.Error())
			}
			return reader
		}
		return venueDI.GetPoolVenues(sr)
	})

	di.RegisterToken(c, venueDI.ExchangeReader, func(sr di.ServiceRegistry) app.ExchangeReader {
		cfg := sr.Get("config").(*config.Config)
		if cfg.Routing.Mode == config.ModeLive {
			client := sr.Get("ethClient").(*ethclient.Client)
			log := sr.Get("logger").(logger.LoggerInterface)

			reader, err := evm.NewExchangeStateReader(client, log, cfg.Ethereum.MaxRPS)
			if err != nil {
				panic("failed to create exchange state reader: " + err.Error())
			}
			return reader
		}
		return venueDI.GetExchangeVenues(sr)
	})

	return nil
}

// Startup initializes the venue module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "venue module started", "mode", mono.Config().Routing.Mode)
	return nil
}
