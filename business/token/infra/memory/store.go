// Package memory implements the token ledger as an in-memory store.
// It powers paper mode and all tests, and doubles as the transactional
// unit of work for router calls.
package memory

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dataxfi/datax-router/business/token/app"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
)

// Ensure Store satisfies the ports it implements.
var (
	_ app.Ledger     = (*Store)(nil)
	_ app.UnitOfWork = (*Store)(nil)
)

// Snapshotter is implemented by venue state living outside the store
// that must roll back together with balances. Venues register
// themselves so one failed unit of work reverts everything.
type Snapshotter interface {
	Snapshot() any
	Restore(snapshot any)
}

type allowanceKey struct {
	owner   common.Address
	spender common.Address
	assetID asset.AssetID
}

// Store is an in-memory value ledger. Individual operations are
// guarded by mu; whole router calls are serialized by Run, which
// snapshots all state up front and restores it if the call fails.
// This mirrors the host chain model: one call at a time, all-or-nothing.
type Store struct {
	mu    sync.Mutex
	runMu sync.Mutex

	native  *asset.Asset
	wrapped *asset.Asset

	balances   map[common.Address]map[asset.AssetID]*big.Int
	allowances map[allowanceKey]*big.Int
	assets     map[asset.AssetID]*asset.Asset

	snapshotters []Snapshotter
}

// NewStore creates an empty store. The native/wrapped pair backs the
// Wrap and Unwrap operations.
func NewStore(native, wrapped *asset.Asset) *Store {
	return &Store{
		native:     native,
		wrapped:    wrapped,
		balances:   make(map[common.Address]map[asset.AssetID]*big.Int),
		allowances: make(map[allowanceKey]*big.Int),
		assets:     make(map[asset.AssetID]*asset.Asset),
	}
}

// RegisterSnapshotter adds venue state to the rollback scope of Run.
func (s *Store) RegisterSnapshotter(sn Snapshotter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshotters = append(s.snapshotters, sn)
}

// Run executes fn as a single atomic unit of work. Units are fully
// serialized; on error every balance, allowance, and registered venue
// snapshot is restored and the error is returned unchanged.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.mu.Lock()
	balances := s.snapshotBalances()
	allowances := s.snapshotAllowances()
	snapshotters := make([]Snapshotter, len(s.snapshotters))
	copy(snapshotters, s.snapshotters)
	s.mu.Unlock()

	venueSnaps := make([]any, len(snapshotters))
	for i, sn := range snapshotters {
		venueSnaps[i] = sn.Snapshot()
	}

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.balances = balances
		s.allowances = allowances
		s.mu.Unlock()

		for i, sn := range snapshotters {
			sn.Restore(venueSnaps[i])
		}
		return err
	}
	return nil
}

func (s *Store) snapshotBalances() map[common.Address]map[asset.AssetID]*big.Int {
	snap := make(map[common.Address]map[asset.AssetID]*big.Int, len(s.balances))
	for account, byAsset := range s.balances {
		inner := make(map[asset.AssetID]*big.Int, len(byAsset))
		for id, v := range byAsset {
			inner[id] = new(big.Int).Set(v)
		}
		snap[account] = inner
	}
	return snap
}

func (s *Store) snapshotAllowances() map[allowanceKey]*big.Int {
	snap := make(map[allowanceKey]*big.Int, len(s.allowances))
	for k, v := range s.allowances {
		snap[k] = new(big.Int).Set(v)
	}
	return snap
}

// Mint credits amount to the account out of thin air. Seeding helper
// for paper mode and tests.
func (s *Store) Mint(account common.Address, amount asset.Amount) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credit(account, amount)
}

// Approve lets the spender pull up to amount of the owner's balance.
func (s *Store) Approve(owner, spender common.Address, amount asset.Amount) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := allowanceKey{owner: owner, spender: spender, assetID: amount.Asset().ID()}
	s.allowances[key] = amount.Raw()
	s.assets[amount.Asset().ID()] = amount.Asset()
}

// BalanceOf returns the account's balance in the given asset.
func (s *Store) BalanceOf(ctx context.Context, account common.Address, a *asset.Asset) (asset.Amount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return asset.NewAmount(a, s.rawBalance(account, a.ID())), nil
}

// Allowance returns the spender's remaining allowance from the owner.
func (s *Store) Allowance(ctx context.Context, owner, spender common.Address, a *asset.Asset) (asset.Amount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := allowanceKey{owner: owner, spender: spender, assetID: a.ID()}
	if raw, ok := s.allowances[key]; ok {
		return asset.NewAmount(a, raw), nil
	}
	return asset.Zero(a), nil
}

// Transfer moves amount between accounts.
func (s *Store) Transfer(ctx context.Context, from, to common.Address, amount asset.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.move(from, to, amount)
}

// TransferFrom pulls amount from owner to recipient on the spender's
// authority, consuming allowance. The allowance check happens before
// any movement.
func (s *Store) TransferFrom(ctx context.Context, spender, owner, to common.Address, amount asset.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := allowanceKey{owner: owner, spender: spender, assetID: amount.Asset().ID()}
	allowance, ok := s.allowances[key]
	if !ok || allowance.Cmp(amount.Raw()) < 0 {
		return apperror.New(apperror.CodeInsufficientAllowance,
			apperror.WithContext(owner.Hex()+" -> "+spender.Hex()))
	}

	if err := s.move(owner, to, amount); err != nil {
		return err
	}

	s.allowances[key] = new(big.Int).Sub(allowance, amount.Raw())
	return nil
}

// Wrap converts native balance into the wrapped token 1:1.
func (s *Store) Wrap(ctx context.Context, account common.Address, amount asset.Amount) (asset.Amount, error) {
	if !amount.Asset().Equals(s.native) {
		return asset.Amount{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("wrap expects the native asset"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.debit(account, amount); err != nil {
		return asset.Amount{}, err
	}

	wrapped := asset.NewAmount(s.wrapped, amount.Raw())
	s.credit(account, wrapped)
	return wrapped, nil
}

// Unwrap converts wrapped balance back to native 1:1.
func (s *Store) Unwrap(ctx context.Context, account common.Address, amount asset.Amount) (asset.Amount, error) {
	if !amount.Asset().Equals(s.wrapped) {
		return asset.Amount{}, apperror.New(apperror.CodeInvalidInput,
			apperror.WithContext("unwrap expects the wrapped asset"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.debit(account, amount); err != nil {
		return asset.Amount{}, err
	}

	native := asset.NewAmount(s.native, amount.Raw())
	s.credit(account, native)
	return native, nil
}

// move, credit, debit and rawBalance expect the caller to hold mu.

func (s *Store) move(from, to common.Address, amount asset.Amount) error {
	if err := s.debit(from, amount); err != nil {
		return err
	}
	s.credit(to, amount)
	return nil
}

func (s *Store) credit(account common.Address, amount asset.Amount) {
	id := amount.Asset().ID()
	s.assets[id] = amount.Asset()

	byAsset, ok := s.balances[account]
	if !ok {
		byAsset = make(map[asset.AssetID]*big.Int)
		s.balances[account] = byAsset
	}

	if current, ok := byAsset[id]; ok {
		byAsset[id] = new(big.Int).Add(current, amount.Raw())
	} else {
		byAsset[id] = amount.Raw()
	}
}

func (s *Store) debit(account common.Address, amount asset.Amount) error {
	if amount.IsZero() {
		return nil
	}

	current := s.rawBalance(account, amount.Asset().ID())
	if current.Cmp(amount.Raw()) < 0 {
		return apperror.New(apperror.CodeInsufficientBalance,
			apperror.WithContext(account.Hex()+" "+amount.String()))
	}
	s.balances[account][amount.Asset().ID()] = current.Sub(current, amount.Raw())
	return nil
}

func (s *Store) rawBalance(account common.Address, id asset.AssetID) *big.Int {
	if byAsset, ok := s.balances[account]; ok {
		if v, ok := byAsset[id]; ok {
			return new(big.Int).Set(v)
		}
	}
	return big.NewInt(0)
}
