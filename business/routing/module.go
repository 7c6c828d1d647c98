// Package routing implements the conversion bounded context: the
// multi-hop adapter and its quoting and execution backends.
package routing

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/dataxfi/datax-router/business/routing/app"
	routingDI "github.com/dataxfi/datax-router/business/routing/di"
	"github.com/dataxfi/datax-router/business/routing/infra/memory"
	"github.com/dataxfi/datax-router/business/routing/infra/univ2"
	tokenDI "github.com/dataxfi/datax-router/business/token/di"
	"github.com/dataxfi/datax-router/internal/config"
	"github.com/dataxfi/datax-router/internal/di"
	"github.com/dataxfi/datax-router/internal/logger"
	"github.com/dataxfi/datax-router/internal/monolith"
)

// Module implements the routing bounded context.
type Module struct{}

// RegisterServices registers the routing services with the DI
// container. Execution always settles on the paper hop table; quotes
// come from the AMM router when running live.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, routingDI.Table, func(sr di.ServiceRegistry) *memory.Table {
		return memory.NewTable(tokenDI.GetStore(sr))
	})

	di.RegisterToken(c, routingDI.Quoter, func(sr di.ServiceRegistry) app.Quoter {
		cfg := sr.Get("config").(*config.Config)
		if cfg.Routing.Mode == config.ModeLive {
			client := sr.Get("ethClient").(*ethclient.Client)
			log := sr.Get("logger").(logger.LoggerInterface)

			quoter, err := univ2.NewQuoter(client, cfg.Adapter.RouterAddressHex(), log, cfg.Ethereum.MaxRPS)
			if err != nil {
				panic("failed to create univ2 quoter: " + err.Error())
			}
			return quoter
		}
		return routingDI.GetTable(sr)
	})

	di.RegisterToken(c, routingDI.Executor, func(sr di.ServiceRegistry) app.Executor {
		return routingDI.GetTable(sr)
	})

	di.RegisterToken(c, routingDI.Adapter, func(sr di.ServiceRegistry) *app.Adapter {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewAdapter(
			routingDI.GetQuoter(sr),
			routingDI.GetExecutor(sr),
			cfg.Routing.MaxHops,
			log,
		)
	})

	return nil
}

// Startup initializes the routing module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "routing module started",
		"mode", mono.Config().Routing.Mode,
		"max_hops", mono.Config().Routing.MaxHops)
	return nil
}
