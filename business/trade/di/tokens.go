// Package di contains dependency injection tokens for the trade context.
package di

import (
	"github.com/dataxfi/datax-router/business/trade/app"
	"github.com/dataxfi/datax-router/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Calc   = di.NewToken[*app.Calc]("trade.Calc")
	Router = di.NewToken[*app.Router]("trade.Router")
)

// Helper functions for type-safe access
func GetCalc(c di.ServiceRegistry) *app.Calc {
	return di.GetToken(c, Calc)
}

func GetRouter(c di.ServiceRegistry) *app.Router {
	return di.GetToken(c, Router)
}
