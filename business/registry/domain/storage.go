// Package domain contains the shared admin and version registry.
package domain

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/dataxfi/datax-router/internal/apperror"
)

// Well-known component names registered in Storage.
const (
	ComponentStakeRouter = "StakeRouter"
	ComponentTradeRouter = "TradeRouter"
	ComponentPoolRouter  = "PoolRouter"
	ComponentFRERouter   = "FRERouter"
	ComponentAdapter     = "Adapter"
)

// Storage records the admin address and a per-component version map.
// It is read-mostly with a single writer (the admin), so an RWMutex is
// enough. Every component that needs it receives the same instance at
// construction time.
type Storage struct {
	mu       sync.RWMutex
	admin    common.Address
	versions map[string]uint8
}

// NewStorage creates a Storage owned by the given admin.
func NewStorage(admin common.Address) (*Storage, error) {
	if admin == (common.Address{}) {
		return nil, apperror.New(apperror.CodeZeroAddress, apperror.WithContext("admin"))
	}
	return &Storage{
		admin:    admin,
		versions: make(map[string]uint8),
	}, nil
}

// Admin returns the current admin address.
func (s *Storage) Admin() common.Address {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.admin
}

// IsAdmin reports whether addr is the current admin.
func (s *Storage) IsAdmin(addr common.Address) bool {
	return s.Admin() == addr
}

// TransferAdmin hands the admin role to newAdmin. Only the current
// admin may call this, and the zero address is rejected so the role
// cannot be burned by accident.
func (s *Storage) TransferAdmin(caller, newAdmin common.Address) error {
	if newAdmin == (common.Address{}) {
		return apperror.New(apperror.CodeZeroAddress, apperror.WithContext("newAdmin"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.admin {
		return apperror.New(apperror.CodeAdminOnly, apperror.WithContext("TransferAdmin"))
	}

	s.admin = newAdmin
	return nil
}

// SetVersion records the version of a component. Admin-only.
func (s *Storage) SetVersion(caller common.Address, component string, version uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if caller != s.admin {
		return apperror.New(apperror.CodeAdminOnly, apperror.WithContext("SetVersion"))
	}

	s.versions[component] = version
	return nil
}

// Version returns the recorded version of a component. Unregistered
// components report version 0.
func (s *Storage) Version(component string) uint8 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[component]
}

// Compatible reports whether two components carry the same recorded
// version. Orchestrating code consults this before wiring routers and
// adapters together.
func (s *Storage) Compatible(a, b string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[a] != 0 && s.versions[a] == s.versions[b]
}
