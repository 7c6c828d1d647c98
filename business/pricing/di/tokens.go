// Package di contains dependency injection tokens for the pricing context.
package di

import (
	"github.com/dataxfi/datax-router/business/pricing/app"
	"github.com/dataxfi/datax-router/internal/di"
)

// Public service tokens - exposed to other modules
var (
	RateFeed = di.NewToken[*app.RateFeed]("pricing.RateFeed")
)

// Helper functions for type-safe access
func GetRateFeed(c di.ServiceRegistry) *app.RateFeed {
	return di.GetToken(c, RateFeed)
}
