package domain_test

import (
	"testing"

	"github.com/dataxfi/datax-router/business/venue/domain"
	"github.com/dataxfi/datax-router/internal/apperror"
)

func exchange(rate, supply string) domain.ExchangeState {
	return domain.ExchangeState{Rate: bi(rate), DtSupply: bi(supply)}
}

func TestBaseNeededForDatatoken(t *testing.T) {
	tests := []struct {
		name     string
		dtAmount string
		rate     string
		expected string
	}{
		{"rate 2.5, whole amount", "4000000000000000000", "2500000000000000000", "10000000000000000000"},
		{"rate 1, identity", "7000000000000000000", "1000000000000000000", "7000000000000000000"},
		{"odd rate rounds up", "1", "1500000000000000000", "2"},
		{"zero amount", "0", "2500000000000000000", "0"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			base, err := domain.BaseNeededForDatatoken(bi(tc.dtAmount), exchange(tc.rate, "100000000000000000000"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if base.String() != tc.expected {
				t.Errorf("expected %s, got %s", tc.expected, base.String())
			}
		})
	}
}

func TestBaseNeededForDatatoken_Depleted(t *testing.T) {
	_, err := domain.BaseNeededForDatatoken(bi("5000000000000000001"), exchange("2500000000000000000", "5000000000000000000"))
	if apperror.GetCode(err) != apperror.CodeExchangeDepleted {
		t.Errorf("expected EXCHANGE_DEPLETED, got %v", err)
	}
}

func TestDatatokenOutForBase(t *testing.T) {
	// 10 base at rate 2.5 buys exactly 4 datatokens
	dt, err := domain.DatatokenOutForBase(bi("10000000000000000000"), exchange("2500000000000000000", "100000000000000000000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dt.String() != "4000000000000000000" {
		t.Errorf("expected 4e18, got %s", dt.String())
	}

	// 1 wei of base at rate 3 floors to zero datatokens
	dt, err = domain.DatatokenOutForBase(bi("1"), exchange("3000000000000000000", "100000000000000000000"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dt.Sign() != 0 {
		t.Errorf("expected 0, got %s", dt.String())
	}
}

func TestDatatokenOutForBase_Depleted(t *testing.T) {
	_, err := domain.DatatokenOutForBase(bi("10000000000000000000"), exchange("1000000000000000000", "9999999999999999999"))
	if apperror.GetCode(err) != apperror.CodeExchangeDepleted {
		t.Errorf("expected EXCHANGE_DEPLETED, got %v", err)
	}
}

func TestBaseOutForDatatoken(t *testing.T) {
	// Selling 3 DT at rate 2.5 pays 7.5 base
	base, err := domain.BaseOutForDatatoken(bi("3000000000000000000"), exchange("2500000000000000000", "0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base.String() != "7500000000000000000" {
		t.Errorf("expected 7.5e18, got %s", base.String())
	}
}

func TestDatatokenInForBase(t *testing.T) {
	// Exact division: 7.5 base at rate 2.5 needs 3 DT
	dt, err := domain.DatatokenInForBase(bi("7500000000000000000"), exchange("2500000000000000000", "0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dt.String() != "3000000000000000000" {
		t.Errorf("expected 3e18, got %s", dt.String())
	}

	// Inexact division rounds the required input up
	dt, err = domain.DatatokenInForBase(bi("1"), exchange("3000000000000000000", "0"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dt.String() != "1" {
		t.Errorf("expected 1, got %s", dt.String())
	}
}

func TestExchange_InvalidRate(t *testing.T) {
	bad := domain.ExchangeState{Rate: bi("0"), DtSupply: bi("100")}

	if _, err := domain.BaseNeededForDatatoken(bi("1"), bad); apperror.GetCode(err) != apperror.CodeInvalidRate {
		t.Errorf("BaseNeededForDatatoken: expected INVALID_RATE, got %v", err)
	}
	if _, err := domain.DatatokenOutForBase(bi("1"), bad); apperror.GetCode(err) != apperror.CodeInvalidRate {
		t.Errorf("DatatokenOutForBase: expected INVALID_RATE, got %v", err)
	}
	if _, err := domain.BaseOutForDatatoken(bi("1"), bad); apperror.GetCode(err) != apperror.CodeInvalidRate {
		t.Errorf("BaseOutForDatatoken: expected INVALID_RATE, got %v", err)
	}
	if _, err := domain.DatatokenInForBase(bi("1"), bad); apperror.GetCode(err) != apperror.CodeInvalidRate {
		t.Errorf("DatatokenInForBase: expected INVALID_RATE, got %v", err)
	}
}

func TestRoundTrip_BuyNeverCheaperThanQuoted(t *testing.T) {
	// The base quoted for an exact datatoken purchase must buy at least
	// that many datatokens when priced forward.
	state := exchange("1234567890123456789", "1000000000000000000000")
	amounts := []string{"1", "999", "1000000000000000000", "333333333333333333"}

	for _, a := range amounts {
		base, err := domain.BaseNeededForDatatoken(bi(a), state)
		if err != nil {
			t.Fatalf("amount %s: unexpected error: %v", a, err)
		}
		dt, err := domain.DatatokenOutForBase(base, state)
		if err != nil {
			t.Fatalf("amount %s: unexpected error: %v", a, err)
		}
		if dt.Cmp(bi(a)) < 0 {
			t.Errorf("amount %s: quoted base %s buys only %s datatokens", a, base, dt)
		}
	}
}
