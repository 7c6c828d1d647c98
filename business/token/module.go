// Package token implements the value-ledger bounded context.
package token

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/dataxfi/datax-router/business/token/app"
	tokenDI "github.com/dataxfi/datax-router/business/token/di"
	"github.com/dataxfi/datax-router/business/token/infra/erc20"
	"github.com/dataxfi/datax-router/business/token/infra/memory"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/di"
	"github.com/dataxfi/datax-router/internal/logger"
	"github.com/dataxfi/datax-router/internal/monolith"
)

// Module implements the token bounded context.
type Module struct{}

// RegisterServices registers the ledger services with the DI container.
// The in-memory store backs both the Ledger and the UnitOfWork: it is
// the single source of balance state in paper mode.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, tokenDI.Store, func(sr di.ServiceRegistry) *memory.Store {
		return memory.NewStore(asset.ETH, asset.WETH)
	})

	di.RegisterToken(c, tokenDI.Ledger, func(sr di.ServiceRegistry) app.Ledger {
		return tokenDI.GetStore(sr)
	})

	di.RegisterToken(c, tokenDI.UnitOfWork, func(sr di.ServiceRegistry) app.UnitOfWork {
		return tokenDI.GetStore(sr)
	})

	di.RegisterToken(c, tokenDI.ChainReader, func(sr di.ServiceRegistry) *erc20.Reader {
		client := sr.Get("ethClient").(*ethclient.Client)
		log := sr.Get("logger").(logger.LoggerInterface)

		reader, err := erc20.NewReader(client, log)
		if err != nil {
			panic("failed to create erc20 reader: " + err.Error())
		}
		return reader
	})

	return nil
}

// Startup initializes the token module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	mono.Logger().Info(ctx, "token module started", "mode", mono.Config().Routing.Mode)
	return nil
}
