package domain

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
)

type ledgerKey struct {
	referrer common.Address
	assetID  asset.AssetID
}

// Ledger holds per-referrer, per-currency accrued referral fees.
// Accrue and Claim are the only mutators: balances grow by accrual,
// reset to zero on claim, and are never negative.
type Ledger struct {
	mu       sync.RWMutex
	balances map[ledgerKey]asset.Amount
}

// NewLedger creates an empty referral ledger.
func NewLedger() *Ledger {
	return &Ledger{balances: make(map[ledgerKey]asset.Amount)}
}

// Accrue credits amount to the referrer's balance in the amount's
// currency. Zero amounts are a no-op so callers can pass the computed
// referral fee unconditionally.
func (l *Ledger) Accrue(referrer common.Address, amount asset.Amount) error {
	if referrer == (common.Address{}) {
		return apperror.New(apperror.CodeZeroAddress, apperror.WithContext("referrer"))
	}
	if amount.IsZero() {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	key := ledgerKey{referrer: referrer, assetID: amount.Asset().ID()}
	if current, ok := l.balances[key]; ok {
		l.balances[key] = current.MustAdd(amount)
	} else {
		l.balances[key] = amount
	}
	return nil
}

// Claim zeroes the referrer's balance for the given asset and returns
// the claimed amount. Fails with NOTHING_TO_CLAIM on a zero balance.
func (l *Ledger) Claim(referrer common.Address, a *asset.Asset) (asset.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := ledgerKey{referrer: referrer, assetID: a.ID()}
	balance, ok := l.balances[key]
	if !ok || balance.IsZero() {
		return asset.Amount{}, apperror.New(apperror.CodeNothingToClaim,
			apperror.WithContext(referrer.Hex()+"/"+a.Symbol()))
	}

	delete(l.balances, key)
	return balance, nil
}

// Balance returns the referrer's current accrued balance for the asset.
func (l *Ledger) Balance(referrer common.Address, a *asset.Asset) asset.Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()

	key := ledgerKey{referrer: referrer, assetID: a.ID()}
	if balance, ok := l.balances[key]; ok {
		return balance
	}
	return asset.Zero(a)
}
