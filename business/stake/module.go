// Package stake implements the staking bounded context: the quote
// layer and the pool-share mint/burn executor.
package stake

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	feesDI "github.com/dataxfi/datax-router/business/fees/di"
	registryDI "github.com/dataxfi/datax-router/business/registry/di"
	registrydomain "github.com/dataxfi/datax-router/business/registry/domain"
	routingDI "github.com/dataxfi/datax-router/business/routing/di"
	"github.com/dataxfi/datax-router/business/stake/app"
	stakeDI "github.com/dataxfi/datax-router/business/stake/di"
	tokenDI "github.com/dataxfi/datax-router/business/token/di"
	venueDI "github.com/dataxfi/datax-router/business/venue/di"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/config"
	"github.com/dataxfi/datax-router/internal/di"
	"github.com/dataxfi/datax-router/internal/logger"
	"github.com/dataxfi/datax-router/internal/monolith"
)

// RouterAccount is the staking router's own ledger account: the
// address stakers approve and the custodian of accrued referral fees.
var RouterAccount = common.HexToAddress("0x00000000000000000000000000000000005aAe01")

// Module implements the stake bounded context.
type Module struct{}

// RegisterServices registers the staking services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, stakeDI.Calc, func(sr di.ServiceRegistry) *app.Calc {
		return app.NewCalc(
			venueDI.GetPoolReader(sr),
			routingDI.GetAdapter(sr),
			feesDI.GetFeeCalc(sr),
		)
	})

	di.RegisterToken(c, stakeDI.Router, func(sr di.ServiceRegistry) *app.Router {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewRouter(
			stakeDI.GetCalc(sr),
			venueDI.GetPoolRouter(sr),
			routingDI.GetAdapter(sr),
			tokenDI.GetLedger(sr),
			tokenDI.GetUnitOfWork(sr),
			feesDI.GetFeeCalc(sr),
			feesDI.GetLedger(sr),
			RouterAccount,
			cfg.Fees.CollectorAddressHex(),
			asset.ETH,
			asset.WETH,
			log,
		)
	})

	return nil
}

// Startup verifies component compatibility before the router takes
// traffic.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	storage := registryDI.GetStorage(mono.Services())

	if !storage.Compatible(registrydomain.ComponentStakeRouter, registrydomain.ComponentAdapter) {
		return apperror.New(apperror.CodeVersionMismatch,
			apperror.WithContext("stake router vs adapter"))
	}

	mono.Logger().Info(ctx, "stake module started",
		"version", storage.Version(registrydomain.ComponentStakeRouter))
	return nil
}
