// Package di contains dependency injection tokens for the blockchain context.
package di

import (
	"github.com/dataxfi/datax-router/business/blockchain/app"
	"github.com/dataxfi/datax-router/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Monitor = di.NewToken[*app.Monitor]("blockchain.Monitor")
)

// Helper functions for type-safe access
func GetMonitor(c di.ServiceRegistry) *app.Monitor {
	return di.GetToken(c, Monitor)
}
