// Package di contains dependency injection tokens for the fees context.
package di

import (
	"github.com/dataxfi/datax-router/business/fees/app"
	"github.com/dataxfi/datax-router/business/fees/domain"
	"github.com/dataxfi/datax-router/internal/di"
)

// Public service tokens - exposed to other modules
var (
	FeeAdmin = di.NewToken[*domain.FeeAdmin]("fees.FeeAdmin")
	FeeCalc  = di.NewToken[*app.FeeCalc]("fees.FeeCalc")
	Ledger   = di.NewToken[*domain.Ledger]("fees.Ledger")
)

// Helper functions for type-safe access
func GetFeeAdmin(c di.ServiceRegistry) *domain.FeeAdmin {
	return di.GetToken(c, FeeAdmin)
}

func GetFeeCalc(c di.ServiceRegistry) *app.FeeCalc {
	return di.GetToken(c, FeeCalc)
}

func GetLedger(c di.ServiceRegistry) *domain.Ledger {
	return di.GetToken(c, Ledger)
}
