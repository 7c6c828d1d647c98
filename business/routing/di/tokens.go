// Package di contains dependency injection tokens for the routing context.
package di

import (
	"github.com/dataxfi/datax-router/business/routing/app"
	"github.com/dataxfi/datax-router/business/routing/infra/memory"
	"github.com/dataxfi/datax-router/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Adapter  = di.NewToken[*app.Adapter]("routing.Adapter")
	Quoter   = di.NewToken[app.Quoter]("routing.Quoter")
	Executor = di.NewToken[app.Executor]("routing.Executor")

	// Table is the paper hop table, used for seeding in tests and at
	// startup.
	Table = di.NewToken[*memory.Table]("routing.Table")
)

// Helper functions for type-safe access
func GetAdapter(c di.ServiceRegistry) *app.Adapter {
	return di.GetToken(c, Adapter)
}

func GetQuoter(c di.ServiceRegistry) app.Quoter {
	return di.GetToken(c, Quoter)
}

func GetExecutor(c di.ServiceRegistry) app.Executor {
	return di.GetToken(c, Executor)
}

func GetTable(c di.ServiceRegistry) *memory.Table {
	return di.GetToken(c, Table)
}
