package app

import "github.com/ethereum/go-ethereum/common"

// Kind discriminates the venue types a swap can route through.
type Kind string

const (
	// KindPool is a 50/50 constant-product pool holding a datatoken
	// against a base token.
	KindPool Kind = "pool"

	// KindFRE is a fixed-rate exchange selling datatokens at a posted
	// price, identified by an exchange id rather than its own contract.
	KindFRE Kind = "fre"
)

// Ref addresses a single venue. For pools Venue is the pool contract
// and ExchangeID is unused; for fixed-rate exchanges Venue is the
// exchange contract and ExchangeID selects the listing on it.
type Ref struct {
	Kind       Kind
	Venue      common.Address
	ExchangeID common.Hash
}
