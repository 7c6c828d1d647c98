// Package domain contains the pure venue pricing math. Both the quote
// layer and the in-memory execution backends call these functions, so
// a quote and its execution can never disagree on the arithmetic.
package domain

import (
	"math/big"

	"github.com/dataxfi/datax-router/internal/apperror"
)

const bpsDenominator = 10000

var bpsDen = big.NewInt(bpsDenominator)

// PoolState is a snapshot of a 50/50 constant-product pool.
type PoolState struct {
	BaseReserve *big.Int
	DtReserve   *big.Int
	TotalShares *big.Int
	SwapFeeBps  uint64
}

// OutGivenIn prices a constant-product swap with exact input.
// The swap fee is taken from the input before it enters the curve:
//
//	out = reserveOut * aIn' / (reserveIn + aIn'), aIn' = amountIn * (1 - fee)
//
// All division floors, matching on-chain integer math.
func OutGivenIn(amountIn, reserveIn, reserveOut *big.Int, feeBps uint64) (*big.Int, error) {
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("empty pool reserves"))
	}
	if amountIn.Sign() == 0 {
		return big.NewInt(0), nil
	}

	feeFactor := big.NewInt(bpsDenominator - int64(feeBps))
	aInWithFee := new(big.Int).Mul(amountIn, feeFactor)

	numerator := new(big.Int).Mul(reserveOut, aInWithFee)
	denominator := new(big.Int).Mul(reserveIn, bpsDen)
	denominator.Add(denominator, aInWithFee)

	return numerator.Div(numerator, denominator), nil
}

// InGivenOut prices a constant-product swap with exact output.
// Rounds the required input up so the pool never undercharges:
//
//	in = reserveIn * amountOut / ((reserveOut - amountOut) * (1 - fee)) + 1
//
// Fails with INSUFFICIENT_LIQUIDITY when the requested output meets or
// exceeds the output reserve.
func InGivenOut(amountOut, reserveIn, reserveOut *big.Int, feeBps uint64) (*big.Int, error) {
	if reserveIn.Sign() <= 0 || reserveOut.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("empty pool reserves"))
	}
	if amountOut.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("requested output exceeds pool reserve"))
	}

	feeFactor := big.NewInt(bpsDenominator - int64(feeBps))

	numerator := new(big.Int).Mul(reserveIn, amountOut)
	numerator.Mul(numerator, bpsDen)

	denominator := new(big.Int).Sub(reserveOut, amountOut)
	denominator.Mul(denominator, feeFactor)

	in := numerator.Div(numerator, denominator)
	return in.Add(in, big.NewInt(1)), nil
}

// PoolOutGivenSingleIn prices a single-sided join: depositing amountIn
// of the base asset mints pool shares in proportion to the growth of
// the invariant:
//
//	sharesOut = S * (sqrt((B + aIn') * B) - B) / B
//
// where S is the share supply, B the base reserve, and aIn' the input
// after the swap fee (half the deposit implicitly crosses the pool).
func PoolOutGivenSingleIn(amountIn *big.Int, state PoolState) (*big.Int, error) {
	if state.BaseReserve.Sign() <= 0 || state.TotalShares.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("empty pool"))
	}
	if amountIn.Sign() == 0 {
		return big.NewInt(0), nil
	}

	feeFactor := big.NewInt(bpsDenominator - int64(state.SwapFeeBps))
	aInWithFee := new(big.Int).Mul(amountIn, feeFactor)
	aInWithFee.Div(aInWithFee, bpsDen)

	grown := new(big.Int).Add(state.BaseReserve, aInWithFee)
	grown.Mul(grown, state.BaseReserve)
	root := grown.Sqrt(grown)

	sharesOut := new(big.Int).Sub(root, state.BaseReserve)
	sharesOut.Mul(sharesOut, state.TotalShares)
	return sharesOut.Div(sharesOut, state.BaseReserve), nil
}

// SingleOutGivenPoolIn prices a single-sided exit: burning sharesIn
// releases base according to the share of the invariant surrendered,
//
//	baseOut = B * p * (2S - p) / S^2
//
// with the swap fee applied to the released amount. Fails with
// INSUFFICIENT_LIQUIDITY when sharesIn meets or exceeds the supply.
func SingleOutGivenPoolIn(sharesIn *big.Int, state PoolState) (*big.Int, error) {
	if state.BaseReserve.Sign() <= 0 || state.TotalShares.Sign() <= 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("empty pool"))
	}
	if sharesIn.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if sharesIn.Cmp(state.TotalShares) >= 0 {
		return nil, apperror.New(apperror.CodeInsufficientLiquidity,
			apperror.WithContext("cannot redeem the entire share supply"))
	}

	twoS := new(big.Int).Lsh(state.TotalShares, 1)
	gross := new(big.Int).Sub(twoS, sharesIn)
	gross.Mul(gross, sharesIn)
	gross.Mul(gross, state.BaseReserve)

	sSquared := new(big.Int).Mul(state.TotalShares, state.TotalShares)
	gross.Div(gross, sSquared)

	feeFactor := big.NewInt(bpsDenominator - int64(state.SwapFeeBps))
	gross.Mul(gross, feeFactor)
	return gross.Div(gross, bpsDen), nil
}
