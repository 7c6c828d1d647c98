package domain_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dataxfi/datax-router/business/fees/domain"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
)

var referrer = common.HexToAddress("0x00000000000000000000000000000000000000D4")

func TestLedger_Additivity(t *testing.T) {
	// Balance after N accruals equals the sum of the individual fees
	ledger := domain.NewLedger()

	fees := []int64{100, 250, 7, 1e15}
	total := big.NewInt(0)
	for _, f := range fees {
		amount := asset.NewAmount(asset.OCEAN, big.NewInt(f))
		if err := ledger.Accrue(referrer, amount); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		total.Add(total, big.NewInt(f))
	}

	balance := ledger.Balance(referrer, asset.OCEAN)
	if balance.Raw().Cmp(total) != 0 {
		t.Errorf("expected balance %s, got %s", total.String(), balance.Raw().String())
	}
}

func TestLedger_ClaimResetsBalance(t *testing.T) {
	ledger := domain.NewLedger()
	amount := asset.NewAmount(asset.OCEAN, big.NewInt(5000))

	if err := ledger.Accrue(referrer, amount); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claimed, err := ledger.Claim(referrer, asset.OCEAN)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !claimed.Equals(amount) {
		t.Errorf("expected claim of %s, got %s", amount.Raw(), claimed.Raw())
	}

	if !ledger.Balance(referrer, asset.OCEAN).IsZero() {
		t.Error("balance should be zero after claim")
	}

	// Second claim has nothing left
	_, err = ledger.Claim(referrer, asset.OCEAN)
	if apperror.GetCode(err) != apperror.CodeNothingToClaim {
		t.Errorf("expected NOTHING_TO_CLAIM, got %v", err)
	}
}

func TestLedger_PerCurrencyIsolation(t *testing.T) {
	ledger := domain.NewLedger()

	oceanFee := asset.NewAmount(asset.OCEAN, big.NewInt(100))
	usdtFee := asset.NewAmount(asset.USDT, big.NewInt(999))

	if err := ledger.Accrue(referrer, oceanFee); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ledger.Accrue(referrer, usdtFee); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Claiming OCEAN must not touch the USDT balance
	if _, err := ledger.Claim(referrer, asset.OCEAN); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	balance := ledger.Balance(referrer, asset.USDT)
	if balance.Raw().Int64() != 999 {
		t.Errorf("expected USDT balance 999, got %s", balance.Raw().String())
	}
}

func TestLedger_ZeroAccrualIsNoop(t *testing.T) {
	ledger := domain.NewLedger()

	if err := ledger.Accrue(referrer, asset.Zero(asset.OCEAN)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ledger.Balance(referrer, asset.OCEAN).IsZero() {
		t.Error("zero accrual should not create a balance")
	}
}

func TestLedger_RejectsZeroReferrer(t *testing.T) {
	ledger := domain.NewLedger()
	amount := asset.NewAmount(asset.OCEAN, big.NewInt(1))

	err := ledger.Accrue(common.Address{}, amount)
	if apperror.GetCode(err) != apperror.CodeZeroAddress {
		t.Errorf("expected ZERO_ADDRESS, got %v", err)
	}
}
