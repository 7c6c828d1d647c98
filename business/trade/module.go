// Package trade implements the trading bounded context: the quote
// layer and the swap executor for both venue kinds.
package trade

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	feesDI "github.com/dataxfi/datax-router/business/fees/di"
	registryDI "github.com/dataxfi/datax-router/business/registry/di"
	registrydomain "github.com/dataxfi/datax-router/business/registry/domain"
	routingDI "github.com/dataxfi/datax-router/business/routing/di"
	tokenDI "github.com/dataxfi/datax-router/business/token/di"
	"github.com/dataxfi/datax-router/business/trade/app"
	tradeDI "github.com/dataxfi/datax-router/business/trade/di"
	venueDI "github.com/dataxfi/datax-router/business/venue/di"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/config"
	"github.com/dataxfi/datax-router/internal/di"
	"github.com/dataxfi/datax-router/internal/logger"
	"github.com/dataxfi/datax-router/internal/monolith"
)

// RouterAccount is the trade router's own ledger account: the address
// traders approve and the custodian of funds mid-call.
var RouterAccount = common.HexToAddress("0x00000000000000000000000000000000005aAe02")

// Module implements the trade bounded context.
type Module struct{}

// RegisterServices registers the trading services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, tradeDI.Calc, func(sr di.ServiceRegistry) *app.Calc {
		return app.NewCalc(
			venueDI.GetPoolRouter(sr),
			venueDI.GetFRERouter(sr),
			venueDI.GetPoolReader(sr),
			venueDI.GetExchangeReader(sr),
			routingDI.GetAdapter(sr),
			feesDI.GetFeeCalc(sr),
		)
	})

	di.RegisterToken(c, tradeDI.Router, func(sr di.ServiceRegistry) *app.Router {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewRouter(
			tradeDI.GetCalc(sr),
			venueDI.GetPoolRouter(sr),
			venueDI.GetFRERouter(sr),
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

	for _, component := range []string{
		registrydomain.ComponentPoolRouter,
		registrydomain.ComponentFRERouter,
		registrydomain.ComponentAdapter,
	} {
		if !storage.Compatible(registrydomain.ComponentTradeRouter, component) {
			return apperror.New(apperror.CodeVersionMismatch,
				apperror.WithContext("trade router vs "+component))
		}
	}

	mono.Logger().Info(ctx, "trade module started",
		"version", storage.Version(registrydomain.ComponentTradeRouter))
	return nil
}
