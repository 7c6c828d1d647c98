// Package app contains port definitions for the token context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dataxfi/datax-router/internal/asset"
)

// Ledger abstracts the host value ledger the routers move funds on.
// Paper mode uses the in-memory store; live mode reads from the chain.
type Ledger interface {
	// BalanceOf returns the account's balance in the given asset.
	BalanceOf(ctx context.Context, account common.Address, a *asset.Asset) (asset.Amount, error)

	// Allowance returns how much the spender may pull from the owner.
	Allowance(ctx context.Context, owner, spender common.Address, a *asset.Asset) (asset.Amount, error)

	// Transfer moves amount from one account to another.
	Transfer(ctx context.Context, from, to common.Address, amount asset.Amount) error

	// TransferFrom performs a spender-authorized pull from owner to
	// recipient. It surfaces INSUFFICIENT_ALLOWANCE before any movement.
	TransferFrom(ctx context.Context, spender, owner, to common.Address, amount asset.Amount) error

	// Wrap converts the account's native balance into the wrapped token.
	Wrap(ctx context.Context, account common.Address, amount asset.Amount) (asset.Amount, error)

	// Unwrap converts the account's wrapped balance back to native.
	Unwrap(ctx context.Context, account common.Address, amount asset.Amount) (asset.Amount, error)
}

// UnitOfWork wraps a multi-step operation into an all-or-nothing unit.
// Every state mutation inside fn is rolled back if fn returns an error.
type UnitOfWork interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}
