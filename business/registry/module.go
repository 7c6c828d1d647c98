// Package registry implements the admin and version registry bounded context.
package registry

import (
	"context"

	"github.com/dataxfi/datax-router/business/registry/domain"
	registryDI "github.com/dataxfi/datax-router/business/registry/di"
	"github.com/dataxfi/datax-router/internal/config"
	"github.com/dataxfi/datax-router/internal/di"
	"github.com/dataxfi/datax-router/internal/monolith"
)

// CurrentVersion is the version tag recorded for every component wired
// by this build. Routers check it against the Adapter before accepting
// conversions.
const CurrentVersion uint8 = 1

// Module implements the registry bounded context.
type Module struct{}

// RegisterServices registers the Storage with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, registryDI.Storage, func(sr di.ServiceRegistry) *domain.Storage {
		cfg := sr.Get("config").(*config.Config)

		storage, err := domain.NewStorage(cfg.App.AdminAddressHex())
		if err != nil {
			panic("failed to create storage: " + err.Error())
		}
		return storage
	})

	return nil
}

// Startup records the component versions for this build.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	storage := registryDI.GetStorage(mono.Services())
	admin := storage.Admin()

	components := []string{
		domain.ComponentStakeRouter,
		domain.ComponentTradeRouter,
		domain.ComponentPoolRouter,
		domain.ComponentFRERouter,
		domain.ComponentAdapter,
	}
	for _, component := range components {
		if err := storage.SetVersion(admin, component, CurrentVersion); err != nil {
			return err
		}
	}

	mono.Logger().Info(ctx, "registry module started", "admin", admin.Hex())
	return nil
}
