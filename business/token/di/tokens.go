// Package di contains dependency injection tokens for the token context.
package di

import (
	"github.com/dataxfi/datax-router/business/token/app"
	"github.com/dataxfi/datax-router/business/token/infra/erc20"
	"github.com/dataxfi/datax-router/business/token/infra/memory"
	"github.com/dataxfi/datax-router/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Ledger     = di.NewToken[app.Ledger]("token.Ledger")
	UnitOfWork = di.NewToken[app.UnitOfWork]("token.UnitOfWork")
	Store      = di.NewToken[*memory.Store]("token.Store")

	// ChainReader is registered in live mode only.
	ChainReader = di.NewToken[*erc20.Reader]("token:chainReader")
)

// Helper functions for type-safe access
func GetLedger(c di.ServiceRegistry) app.Ledger {
	return di.GetToken(c, Ledger)
}

func GetUnitOfWork(c di.ServiceRegistry) app.UnitOfWork {
	return di.GetToken(c, UnitOfWork)
}

func GetStore(c di.ServiceRegistry) *memory.Store {
	return di.GetToken(c, Store)
}

func GetChainReader(c di.ServiceRegistry) *erc20.Reader {
	return di.GetToken(c, ChainReader)
}
