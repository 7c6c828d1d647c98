package domain

import (
	"math/big"

	"github.com/dataxfi/datax-router/internal/apperror"
)

// RatePrecision is the fixed-point scale of exchange rates: base units
// per datatoken unit, scaled by 1e18.
var RatePrecision = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// ExchangeState is a snapshot of a fixed-rate exchange.
type ExchangeState struct {
	Rate     *big.Int // base per datatoken, 1e18 fixed point
	DtSupply *big.Int // datatokens remaining for sale
}

// BaseNeededForDatatoken returns the base amount a buyer must supply
// for exactly dtAmount datatokens, rounding up so the exchange never
// undercharges. Fails with EXCHANGE_DEPLETED when the request exceeds
// the remaining supply.
func BaseNeededForDatatoken(dtAmount *big.Int, state ExchangeState) (*big.Int, error) {
	if state.Rate == nil || state.Rate.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidRate,
			apperror.WithContext("exchange rate not set"))
	}
	if dtAmount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if dtAmount.Cmp(state.DtSupply) > 0 {
		return nil, apperror.New(apperror.CodeExchangeDepleted,
			apperror.WithContext("requested amount exceeds remaining supply"))
	}

	// ceil(dtAmount * rate / 1e18)
	base := new(big.Int).Mul(dtAmount, state.Rate)
	base.Add(base, new(big.Int).Sub(RatePrecision, big.NewInt(1)))
	return base.Div(base, RatePrecision), nil
}

// DatatokenOutForBase returns how many datatokens baseAmount buys at
// the fixed rate, flooring in the exchange's favor. Fails with
// EXCHANGE_DEPLETED when the purchasable amount exceeds the remaining
// supply.
func DatatokenOutForBase(baseAmount *big.Int, state ExchangeState) (*big.Int, error) {
	if state.Rate == nil || state.Rate.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidRate,
			apperror.WithContext("exchange rate not set"))
	}
	if baseAmount.Sign() == 0 {
		return big.NewInt(0), nil
	}

	dt := new(big.Int).Mul(baseAmount, RatePrecision)
	dt.Div(dt, state.Rate)

	if dt.Cmp(state.DtSupply) > 0 {
		return nil, apperror.New(apperror.CodeExchangeDepleted,
			apperror.WithContext("purchase exceeds remaining supply"))
	}
	return dt, nil
}

// BaseOutForDatatoken returns the base amount paid out when selling
// dtAmount back to the exchange, flooring in the exchange's favor.
func BaseOutForDatatoken(dtAmount *big.Int, state ExchangeState) (*big.Int, error) {
	if state.Rate == nil || state.Rate.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidRate,
			apperror.WithContext("exchange rate not set"))
	}

	base := new(big.Int).Mul(dtAmount, state.Rate)
	return base.Div(base, RatePrecision), nil
}

// DatatokenInForBase returns the datatokens a seller must supply to
// receive exactly baseAmount, rounding up.
func DatatokenInForBase(baseAmount *big.Int, state ExchangeState) (*big.Int, error) {
	if state.Rate == nil || state.Rate.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInvalidRate,
			apperror.WithContext("exchange rate not set"))
	}
	if baseAmount.Sign() == 0 {
		return big.NewInt(0), nil
	}

	// ceil(baseAmount * 1e18 / rate)
	dt := new(big.Int).Mul(baseAmount, RatePrecision)
	dt.Add(dt, new(big.Int).Sub(state.Rate, big.NewInt(1)))
	return dt.Div(dt, state.Rate), nil
}
