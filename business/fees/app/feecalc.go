// Package app contains the fee computation service for the fees context.
package app

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dataxfi/datax-router/business/fees/domain"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
)

// FeeCalc computes protocol and referral fees on gross amounts.
// It is pure apart from reading the current rate from FeeAdmin, which
// happens at every call so delayed executions see the live rate.
type FeeCalc struct {
	admin *domain.FeeAdmin
}

// NewFeeCalc creates a FeeCalc reading rates from admin.
func NewFeeCalc(admin *domain.FeeAdmin) *FeeCalc {
	return &FeeCalc{admin: admin}
}

// ProtocolFee returns floor(gross * rateBps / 10000) for the operation
// kind. The configured rate is externally controlled, so a rate above
// 100% is rejected here with INVALID_RATE rather than trusted.
func (f *FeeCalc) ProtocolFee(kind domain.Kind, gross asset.Amount) (asset.Amount, error) {
	rate := f.admin.RateBps(kind)
	if rate > 10000 {
		return asset.Amount{}, apperror.New(apperror.CodeInvalidRate,
			apperror.WithContext("protocol rate above 100%"))
	}
	return gross.BpsOf(rate), nil
}

// ReferralFee returns floor(gross * refBps / 10000), or zero when the
// referrer is the zero address. The request-supplied rate is validated
// against the admin-configured ceiling.
func (f *FeeCalc) ReferralFee(gross asset.Amount, refBps uint64, referrer common.Address) (asset.Amount, error) {
	if referrer == (common.Address{}) {
		return asset.Zero(gross.Asset()), nil
	}
	if refBps > f.admin.MaxReferralFeeBps() {
		return asset.Amount{}, apperror.New(apperror.CodeInvalidRate,
			apperror.WithContext("referral rate above configured maximum"))
	}
	return gross.BpsOf(refBps), nil
}

// GrossFromNet inverts Split: it returns the smallest gross amount
// whose fee split leaves at least net behind. Because the individual
// fees floor, the actual net of the returned gross can exceed the
// requested net by a few wei; exact-out callers refund that surplus.
func (f *FeeCalc) GrossFromNet(kind domain.Kind, net asset.Amount, refBps uint64, referrer common.Address) (asset.Amount, error) {
	rate := f.admin.RateBps(kind)
	if rate > 10000 {
		return asset.Amount{}, apperror.New(apperror.CodeInvalidRate,
			apperror.WithContext("protocol rate above 100%"))
	}

	total := rate
	if referrer != (common.Address{}) {
		if refBps > f.admin.MaxReferralFeeBps() {
			return asset.Amount{}, apperror.New(apperror.CodeInvalidRate,
				apperror.WithContext("referral rate above configured maximum"))
		}
		total += refBps
	}
	if total >= 10000 {
		return asset.Amount{}, apperror.New(apperror.CodeInvalidRate,
			apperror.WithContext("combined fees reach 100%"))
	}

	// gross = ceil(net * 10000 / (10000 - total))
	num := new(big.Int).Mul(net.Raw(), big.NewInt(asset.BpsDenominator))
	den := big.NewInt(asset.BpsDenominator - int64(total))
	gross := new(big.Int).Add(num, new(big.Int).Sub(den, big.NewInt(1)))
	gross.Quo(gross, den)

	return asset.NewAmount(net.Asset(), gross), nil
}

// Split computes both fees on the same gross amount and the remaining
// net. Both fees are taken from the gross pre-fee amount, never
// compounded, so protocolFee + referralFee + net == gross always holds.
func (f *FeeCalc) Split(kind domain.Kind, gross asset.Amount, refBps uint64, referrer common.Address) (protocolFee, referralFee, net asset.Amount, err error) {
	protocolFee, err = f.ProtocolFee(kind, gross)
	if err != nil {
		return asset.Amount{}, asset.Amount{}, asset.Amount{}, err
	}

	referralFee, err = f.ReferralFee(gross, refBps, referrer)
	if err != nil {
		return asset.Amount{}, asset.Amount{}, asset.Amount{}, err
	}

	net, err = gross.Sub(protocolFee)
	if err == nil {
		net, err = net.Sub(referralFee)
	}
	if err != nil {
		return asset.Amount{}, asset.Amount{}, asset.Amount{}, apperror.New(apperror.CodeInvalidRate,
			apperror.WithContext("combined fees exceed gross amount"), apperror.WithCause(err))
	}

	return protocolFee, referralFee, net, nil
}
