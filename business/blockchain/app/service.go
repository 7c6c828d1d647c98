package app

import (
	"context"
	"sync"

	"github.com/dataxfi/datax-router/business/blockchain/domain"
	"github.com/dataxfi/datax-router/internal/logger"
)

// Monitor follows the chain head and keeps the latest observation
// available for status reads. Live-mode quotes read on-chain reserves
// directly; the monitor exists so operators can see how fresh that
// state is.
type Monitor struct {
	heads HeadSource
	gas   GasOracle
	log   logger.LoggerInterface

	mu   sync.RWMutex
	head domain.Head
}

// NewMonitor creates a chain monitor.
func NewMonitor(heads HeadSource, gas GasOracle, log logger.LoggerInterface) *Monitor {
	return &Monitor{heads: heads, gas: gas, log: log}
}

// Watch consumes head events until ctx is cancelled.
func (m *Monitor) Watch(ctx context.Context) error {
	ch, err := m.heads.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for head := range ch {
			m.mu.Lock()
			m.head = head
			m.mu.Unlock()
			m.log.Debug(ctx, "new head", "number", head.Number, "hash", head.Hash.Hex())
		}
	}()

	return nil
}

// Status reports the latest observed head and the current gas price.
// Falls back to fetching the head directly when the watcher has not
// delivered one yet.
func (m *Monitor) Status(ctx context.Context) (domain.Status, error) {
	m.mu.RLock()
	head := m.head
	m.mu.RUnlock()

	if head.Number == 0 {
		fetched, err := m.heads.Latest(ctx)
		if err != nil {
			return domain.Status{}, err
		}
		head = fetched
	}

	gas, err := m.gas.GasPrice(ctx)
	if err != nil {
		return domain.Status{}, err
	}

	return domain.Status{Head: head, Gas: gas}, nil
}
