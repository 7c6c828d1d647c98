package app_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dataxfi/datax-router/business/fees/app"
	"github.com/dataxfi/datax-router/business/fees/domain"
	registrydomain "github.com/dataxfi/datax-router/business/registry/domain"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
)

var (
	admin    = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	referrer = common.HexToAddress("0x00000000000000000000000000000000000000D4")
)

func newCalc(t *testing.T, stakeBps, tradeBps, maxRefBps uint64) (*app.FeeCalc, *domain.FeeAdmin) {
	t.Helper()
	storage, err := registrydomain.NewStorage(admin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	feeAdmin := domain.NewFeeAdmin(storage, stakeBps, tradeBps, maxRefBps)
	return app.NewFeeCalc(feeAdmin), feeAdmin
}

func ocean(raw int64) asset.Amount {
	return asset.NewAmount(asset.OCEAN, big.NewInt(raw))
}

func TestFeeCalc_ProtocolFee(t *testing.T) {
	tests := []struct {
		name     string
		kind     domain.Kind
		gross    int64
		expected string
	}{
		{"stake 10bps on 1e18", domain.KindStake, 1e18, "1000000000000000"},
		{"trade 20bps on 1e18", domain.KindTrade, 1e18, "2000000000000000"},
		{"floors toward zero", domain.KindStake, 999, "0"}, // 999*10/10000 = 0.999
		{"zero gross", domain.KindTrade, 0, "0"},
	}

	calc, _ := newCalc(t, 10, 20, 100)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fee, err := calc.ProtocolFee(tc.kind, ocean(tc.gross))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fee.Raw().String() != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, fee.Raw().String())
			}
		})
	}
}

func TestFeeCalc_ProtocolFee_InvalidRate(t *testing.T) {
	// A rate above 100% is configured externally; computation must
	// refuse it at call time.
	calc, _ := newCalc(t, 10001, 20, 100)

	_, err := calc.ProtocolFee(domain.KindStake, ocean(1e18))
	if apperror.GetCode(err) != apperror.CodeInvalidRate {
		t.Errorf("expected INVALID_RATE, got %v", err)
	}
}

func TestFeeCalc_ProtocolFee_ReadsLiveRate(t *testing.T) {
	calc, feeAdmin := newCalc(t, 10, 20, 100)

	fee, err := calc.ProtocolFee(domain.KindStake, ocean(1e18))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fee.Raw().String() != "1000000000000000" {
		t.Fatalf("expected 1000000000000000, got %s", fee.Raw().String())
	}

	// Rate change applies to the next computation immediately
	if err := feeAdmin.SetRateBps(admin, domain.KindStake, 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fee, err = calc.ProtocolFee(domain.KindStake, ocean(1e18))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fee.Raw().String() != "5000000000000000" {
		t.Errorf("expected 5000000000000000, got %s", fee.Raw().String())
	}
}

func TestFeeCalc_ReferralFee(t *testing.T) {
	calc, _ := newCalc(t, 10, 20, 100)

	// 1% of 1e18
	fee, err := calc.ReferralFee(ocean(1e18), 100, referrer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fee.Raw().String() != "10000000000000000" {
		t.Errorf("expected 10000000000000000, got %s", fee.Raw().String())
	}

	// Zero referrer means zero fee regardless of rate
	fee, err = calc.ReferralFee(ocean(1e18), 100, common.Address{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fee.IsZero() {
		t.Errorf("expected zero fee for zero referrer, got %s", fee.Raw().String())
	}

	// Rate above the configured ceiling is rejected
	_, err = calc.ReferralFee(ocean(1e18), 101, referrer)
	if apperror.GetCode(err) != apperror.CodeInvalidRate {
		t.Errorf("expected INVALID_RATE, got %v", err)
	}
}

func TestFeeCalc_Split_Conservation(t *testing.T) {
	// protocolFee + referralFee + net == gross for a spread of amounts
	calc, _ := newCalc(t, 35, 20, 100)

	grosses := []int64{1, 999, 10000, 1e6, 1e18, 123456789012345678}
	for _, g := range grosses {
		gross := ocean(g)
		protocolFee, referralFee, net, err := calc.Split(domain.KindStake, gross, 77, referrer)
		if err != nil {
			t.Fatalf("gross %d: unexpected error: %v", g, err)
		}

		sum := protocolFee.MustAdd(referralFee).MustAdd(net)
		if !sum.Equals(gross) {
			t.Errorf("gross %d: fee split does not conserve value: %s + %s + %s != %s",
				g, protocolFee.Raw(), referralFee.Raw(), net.Raw(), gross.Raw())
		}
	}
}

func TestFeeCalc_GrossFromNet_Covers(t *testing.T) {
	// The inverted gross always nets out to at least the requested
	// amount after both fees are re-applied.
	calc, _ := newCalc(t, 35, 20, 500)

	nets := []int64{1, 7, 999, 10000, 1e6, 1e18, 123456789012345678}
	for _, n := range nets {
		net := ocean(n)
		gross, err := calc.GrossFromNet(domain.KindStake, net, 250, referrer)
		if err != nil {
			t.Fatalf("net %d: unexpected error: %v", n, err)
		}

		protocolFee, referralFee, rederived, err := calc.Split(domain.KindStake, gross, 250, referrer)
		if err != nil {
			t.Fatalf("net %d: unexpected error: %v", n, err)
		}
		less, err := rederived.LessThan(net)
		if err != nil {
			t.Fatalf("net %d: unexpected error: %v", n, err)
		}
		if less {
			t.Errorf("net %d: gross %s nets to %s after fees %s + %s",
				n, gross.Raw(), rederived.Raw(), protocolFee.Raw(), referralFee.Raw())
		}

		// The surplus the flooring leaves behind stays under one bps
		// worth of wei; executions refund it.
		surplus := new(big.Int).Sub(rederived.Raw(), net.Raw())
		bound := new(big.Int).Add(new(big.Int).Div(gross.Raw(), big.NewInt(asset.BpsDenominator)), big.NewInt(2))
		if surplus.Cmp(bound) > 0 {
			t.Errorf("net %d: surplus %s exceeds %s", n, surplus, bound)
		}
	}
}

func TestFeeCalc_GrossFromNet_RejectsFullFee(t *testing.T) {
	calc, _ := newCalc(t, 9999, 20, 10000)

	_, err := calc.GrossFromNet(domain.KindStake, ocean(1e18), 1, referrer)
	if apperror.GetCode(err) != apperror.CodeInvalidRate {
		t.Errorf("expected INVALID_RATE, got %v", err)
	}
}

func TestFeeAdmin_AdminOnly(t *testing.T) {
	_, feeAdmin := newCalc(t, 10, 20, 100)

	err := feeAdmin.SetRateBps(referrer, domain.KindTrade, 5)
	if apperror.GetCode(err) != apperror.CodeAdminOnly {
		t.Errorf("expected ADMIN_ONLY, got %v", err)
	}

	err = feeAdmin.SetMaxReferralFeeBps(referrer, 50)
	if apperror.GetCode(err) != apperror.CodeAdminOnly {
		t.Errorf("expected ADMIN_ONLY, got %v", err)
	}

	// Ceiling above 100% rejected even for the admin
	err = feeAdmin.SetMaxReferralFeeBps(admin, 10001)
	if apperror.GetCode(err) != apperror.CodeInvalidRate {
		t.Errorf("expected INVALID_RATE, got %v", err)
	}
}
