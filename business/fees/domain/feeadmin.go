// Package domain contains the fee model: the admin-configured rates
// and the referral accrual ledger.
package domain

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	registrydomain "github.com/dataxfi/datax-router/business/registry/domain"
	"github.com/dataxfi/datax-router/internal/apperror"
)

// Kind selects which protocol rate applies to an operation.
type Kind string

const (
	KindStake Kind = "stake"
	KindTrade Kind = "trade"
)

// FeeAdmin holds the current protocol fee rates in basis points and
// the ceiling for request-supplied referral rates. Rates are read at
// call time by FeeCalc, never cached, so a rate change applies to the
// next call immediately. Authorization goes through the registry admin.
type FeeAdmin struct {
	mu             sync.RWMutex
	storage        *registrydomain.Storage
	rates          map[Kind]uint64
	maxReferralBps uint64
}

// NewFeeAdmin creates a FeeAdmin with initial rates.
func NewFeeAdmin(storage *registrydomain.Storage, stakeBps, tradeBps, maxReferralBps uint64) *FeeAdmin {
	return &FeeAdmin{
		storage: storage,
		rates: map[Kind]uint64{
			KindStake: stakeBps,
			KindTrade: tradeBps,
		},
		maxReferralBps: maxReferralBps,
	}
}

// RateBps returns the current protocol rate for the given kind.
func (f *FeeAdmin) RateBps(kind Kind) uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.rates[kind]
}

// MaxReferralFeeBps returns the ceiling for request-supplied referral rates.
func (f *FeeAdmin) MaxReferralFeeBps() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.maxReferralBps
}

// SetRateBps updates the protocol rate for a kind. Admin-only.
// The rate is stored as given; FeeCalc re-checks sanity at computation
// time since the rate is externally controlled.
func (f *FeeAdmin) SetRateBps(caller common.Address, kind Kind, bps uint64) error {
	if !f.storage.IsAdmin(caller) {
		return apperror.New(apperror.CodeAdminOnly, apperror.WithContext("SetRateBps"))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.rates[kind] = bps
	return nil
}

// SetMaxReferralFeeBps updates the referral rate ceiling. Admin-only.
func (f *FeeAdmin) SetMaxReferralFeeBps(caller common.Address, bps uint64) error {
	if !f.storage.IsAdmin(caller) {
		return apperror.New(apperror.CodeAdminOnly, apperror.WithContext("SetMaxReferralFeeBps"))
	}
	if bps > 10000 {
		return apperror.New(apperror.CodeInvalidRate, apperror.WithContext("max referral rate above 100%"))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.maxReferralBps = bps
	return nil
}
