// Package di contains dependency injection tokens for the registry context.
package di

import (
	"github.com/dataxfi/datax-router/business/registry/domain"
	"github.com/dataxfi/datax-router/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Storage = di.NewToken[*domain.Storage]("registry.Storage")
)

// Helper functions for type-safe access
func GetStorage(c di.ServiceRegistry) *domain.Storage {
	return di.GetToken(c, Storage)
}
