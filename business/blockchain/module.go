// Package blockchain implements the chain monitor bounded context.
package blockchain

import (
	"context"

	goethclient "github.com/ethereum/go-ethereum/ethclient"

	"github.com/dataxfi/datax-router/business/blockchain/app"
	blockchainDI "github.com/dataxfi/datax-router/business/blockchain/di"
	"github.com/dataxfi/datax-router/business/blockchain/infra/ethereum"
	"github.com/dataxfi/datax-router/internal/config"
	"github.com/dataxfi/datax-router/internal/di"
	"github.com/dataxfi/datax-router/internal/logger"
	"github.com/dataxfi/datax-router/internal/monolith"
)

// Module implements the blockchain bounded context. It is a live-mode
// concern: paper mode has no chain to watch.
type Module struct{}

// RegisterServices registers the chain monitor with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, blockchainDI.Monitor, func(sr di.ServiceRegistry) *app.Monitor {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		client := sr.Get("ethClient").(*goethclient.Client)

		oracle, err := ethereum.NewGasPriceOracle(client, cfg.Ethereum.MaxRPS, log)
		if err != nil {
			panic("failed to create gas oracle: " + err.Error())
		}
		poller, err := ethereum.NewHeadPoller(client, cfg.Ethereum.MaxRPS, log)
		if err != nil {
			panic("failed to create head poller: " + err.Error())
		}

		return app.NewMonitor(poller, oracle, log)
	})

	return nil
}

// Startup starts the head watcher in live mode.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Services().Get("config").(*config.Config)
	if cfg.Routing.Mode != config.ModeLive {
		mono.Logger().Info(ctx, "chain monitor idle in paper mode")
		return nil
	}

	monitor := blockchainDI.GetMonitor(mono.Services())
	if err := monitor.Watch(context.Background()); err != nil {
		return err
	}

	mono.Logger().Info(ctx, "blockchain module started")
	return nil
}
