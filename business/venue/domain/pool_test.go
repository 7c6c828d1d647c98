package domain_test

import (
	"math/big"
	"testing"

	"github.com/dataxfi/datax-router/business/venue/domain"
	"github.com/dataxfi/datax-router/internal/apperror"
)

func bi(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big.Int literal: " + s)
	}
	return v
}

func TestOutGivenIn(t *testing.T) {
	tests := []struct {
		name      string
		amountIn  string
		reserveIn string
		reserveOut string
		feeBps    uint64
		expected  string
	}{
		// out = Ro*aIn'/(Ri+aIn'), aIn' fee-adjusted
		{"no fee balanced pool", "1000000", "1000000000", "1000000000", 0, "999999"},
		{"30bps fee", "1000000000000000000", "100000000000000000000", "100000000000000000000", 30, "987158034397061298"},
		{"zero input", "0", "1000", "1000", 30, "0"},
		{"tiny input floors to zero", "1", "1000000000", "1", 30, "0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := domain.OutGivenIn(bi(tc.amountIn), bi(tc.reserveIn), bi(tc.reserveOut), tc.feeBps)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.String() != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, out.String())
			}
		})
	}
}

func TestOutGivenIn_EmptyPool(t *testing.T) {
	_, err := domain.OutGivenIn(bi("100"), big.NewInt(0), bi("1000"), 30)
	if apperror.GetCode(err) != apperror.CodeInsufficientLiquidity {
		t.Errorf("expected INSUFFICIENT_LIQUIDITY, got %v", err)
	}
}

func TestInGivenOut(t *testing.T) {
	// Round-trip check: the input quoted for an exact output must buy
	// at least that output when priced forward.
	reserveIn := bi("250000000000000000000")
	reserveOut := bi("90000000000000000000")
	amountOut := bi("1000000000000000000")

	in, err := domain.InGivenOut(amountOut, reserveIn, reserveOut, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	forward, err := domain.OutGivenIn(in, reserveIn, reserveOut, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if forward.Cmp(amountOut) < 0 {
		t.Errorf("quoted input %s buys only %s, wanted at least %s", in, forward, amountOut)
	}
}

func TestInGivenOut_ExceedsReserve(t *testing.T) {
	_, err := domain.InGivenOut(bi("1000"), bi("5000"), bi("1000"), 30)
	if apperror.GetCode(err) != apperror.CodeInsufficientLiquidity {
		t.Errorf("expected INSUFFICIENT_LIQUIDITY for out == reserve, got %v", err)
	}

	_, err = domain.InGivenOut(bi("1001"), bi("5000"), bi("1000"), 30)
	if apperror.GetCode(err) != apperror.CodeInsufficientLiquidity {
		t.Errorf("expected INSUFFICIENT_LIQUIDITY for out > reserve, got %v", err)
	}
}

func poolState(base, shares string, feeBps uint64) domain.PoolState {
	return domain.PoolState{
		BaseReserve: bi(base),
		DtReserve:   bi(base), // balanced, unused by single-sided math
		TotalShares: bi(shares),
		SwapFeeBps:  feeBps,
	}
}

func TestPoolOutGivenSingleIn(t *testing.T) {
	// Doubling a fee-less pool's base reserve grows the invariant by
	// sqrt(2), so shares minted = S*(sqrt(2)-1) ≈ 0.41421356 S.
	state := poolState("100000000000000000000", "100000000000000000000", 0)

	shares, err := domain.PoolOutGivenSingleIn(bi("100000000000000000000"), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	low := bi("41421356000000000000")
	high := bi("41421357000000000000")
	if shares.Cmp(low) < 0 || shares.Cmp(high) > 0 {
		t.Errorf("expected ~41.421356e18 shares, got %s", shares.String())
	}
}

func TestPoolOutGivenSingleIn_FeeReducesShares(t *testing.T) {
	in := bi("10000000000000000000")

	noFee, err := domain.PoolOutGivenSingleIn(in, poolState("100000000000000000000", "50000000000000000000", 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	withFee, err := domain.PoolOutGivenSingleIn(in, poolState("100000000000000000000", "50000000000000000000", 100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if withFee.Cmp(noFee) >= 0 {
		t.Errorf("fee should reduce minted shares: %s >= %s", withFee, noFee)
	}
}

func TestSingleOutGivenPoolIn(t *testing.T) {
	// Burning the full supply is rejected
	state := poolState("100000000000000000000", "50000000000000000000", 0)
	_, err := domain.SingleOutGivenPoolIn(bi("50000000000000000000"), state)
	if apperror.GetCode(err) != apperror.CodeInsufficientLiquidity {
		t.Errorf("expected INSUFFICIENT_LIQUIDITY, got %v", err)
	}

	// baseOut = B*p*(2S-p)/S^2: burning 10% of shares on a 100-base
	// pool releases 19 base (0.1 * 1.9 * 100).
	out, err := domain.SingleOutGivenPoolIn(bi("5000000000000000000"), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "19000000000000000000" {
		t.Errorf("expected 19e18, got %s", out.String())
	}
}

func TestJoinExitRoundTripNeverProfits(t *testing.T) {
	// Joining then exiting immediately must never return more base
	// than was deposited, for a spread of deposits and fees.
	deposits := []string{"1000000000000000000", "10000000000000000000", "333333333333333333"}
	fees := []uint64{0, 30, 100}

	for _, d := range deposits {
		for _, fee := range fees {
			state := poolState("100000000000000000000", "50000000000000000000", fee)

			shares, err := domain.PoolOutGivenSingleIn(bi(d), state)
			if err != nil {
				t.Fatalf("join: unexpected error: %v", err)
			}

			// State after the join
			after := domain.PoolState{
				BaseReserve: new(big.Int).Add(state.BaseReserve, bi(d)),
				DtReserve:   state.DtReserve,
				TotalShares: new(big.Int).Add(state.TotalShares, shares),
				SwapFeeBps:  fee,
			}

			back, err := domain.SingleOutGivenPoolIn(shares, after)
			if err != nil {
				t.Fatalf("exit: unexpected error: %v", err)
			}

			if back.Cmp(bi(d)) > 0 {
				t.Errorf("deposit %s fee %d: round trip profits (%s back)", d, fee, back)
			}
		}
	}
}
