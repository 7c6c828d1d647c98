// Package di contains dependency injection tokens for the venue context.
package di

import (
	"github.com/dataxfi/datax-router/business/venue/app"
	"github.com/dataxfi/datax-router/business/venue/infra/memory"
	"github.com/dataxfi/datax-router/internal/di"
)

// Public service tokens - exposed to other modules
var (
	PoolRouter = di.NewToken[*app.PoolRouter]("venue.PoolRouter")
	FRERouter  = di.NewToken[*app.FRERouter]("venue.FRERouter")

	// Readers back the quote layer: in-memory venues in paper mode,
	// on-chain state readers in live mode.
	PoolReader     = di.NewToken[app.PoolReader]("venue.PoolReader")
	ExchangeReader = di.NewToken[app.ExchangeReader]("venue.ExchangeReader")

	// The paper venue directories, used for seeding in tests and at
	// startup.
	PoolVenues     = di.NewToken[*memory.PoolVenues]("venue.PoolVenues")
	ExchangeVenues = di.NewToken[*memory.ExchangeVenues]("venue.ExchangeVenues")
)

// Helper functions for type-safe access
func GetPoolRouter(c di.ServiceRegistry) *app.PoolRouter {
	return di.GetToken(c, PoolRouter)
}

func GetFRERouter(c di.ServiceRegistry) *app.FRERouter {
	return di.GetToken(c, FRERouter)
}

func GetPoolReader(c di.ServiceRegistry) app.PoolReader {
	return di.GetToken(c, PoolReader)
}

func GetExchangeReader(c di.ServiceRegistry) app.ExchangeReader {
	return di.GetToken(c, ExchangeReader)
}

func GetPoolVenues(c di.ServiceRegistry) *memory.PoolVenues {
	return di.GetToken(c, PoolVenues)
}

func GetExchangeVenues(c di.ServiceRegistry) *memory.ExchangeVenues {
	return di.GetToken(c, ExchangeVenues)
}
