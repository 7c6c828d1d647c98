// Package fees implements the protocol and referral fee bounded context.
package fees

import (
	"context"

	"github.com/dataxfi/datax-router/business/fees/app"
	feesDI "github.com/dataxfi/datax-router/business/fees/di"
	"github.com/dataxfi/datax-router/business/fees/domain"
	registryDI "github.com/dataxfi/datax-router/business/registry/di"
	"github.com/dataxfi/datax-router/internal/config"
	"github.com/dataxfi/datax-router/internal/di"
	"github.com/dataxfi/datax-router/internal/monolith"
)

// Module implements the fees bounded context.
type Module struct{}

// RegisterServices registers fee services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, feesDI.FeeAdmin, func(sr di.ServiceRegistry) *domain.FeeAdmin {
		cfg := sr.Get("config").(*config.Config)
		storage := registryDI.GetStorage(sr)

		return domain.NewFeeAdmin(storage,
			cfg.Fees.StakeFeeBps,
			cfg.Fees.TradeFeeBps,
			cfg.Fees.MaxReferralBps,
		)
	})

	di.RegisterToken(c, feesDI.FeeCalc, func(sr di.ServiceRegistry) *app.FeeCalc {
		return app.NewFeeCalc(feesDI.GetFeeAdmin(sr))
	})

	di.RegisterToken(c, feesDI.Ledger, func(sr di.ServiceRegistry) *domain.Ledger {
		return domain.NewLedger()
	})

	return nil
}

// Startup initializes the fees module.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	mono.Logger().Info(ctx, "fees module started",
		"stake_bps", cfg.Fees.StakeFeeBps,
		"trade_bps", cfg.Fees.TradeFeeBps,
		"max_referral_bps", cfg.Fees.MaxReferralBps,
	)
	return nil
}
