// Package di provides a minimal string-keyed service container.
package di

import "sync"

// ServiceRegistry is the read side of the container.
type ServiceRegistry interface {
	Get(token string) any
	Has(token string) bool
}

// Container registers and resolves services by token.
type Container interface {
	ServiceRegistry
	Register(token string, service any)
}

type container struct {
	services map[string]any
	mu       sync.RWMutex
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{services: make(map[string]any)}
}

func (c *container) Register(token string, service any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[token] = service
}

func (c *container) Get(token string) any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.services[token]
}

func (c *container) Has(token string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.services[token]
	return ok
}

// Resolve fetches a service and asserts its type. It panics on a missing
// registration or a type mismatch: both are wiring bugs, not runtime states.
func Resolve[T any](r ServiceRegistry, token string) T {
	v := r.Get(token)
	if v == nil {
		panic("di: no service registered for token " + token)
	}
	t, ok := v.(T)
	if !ok {
		panic("di: service registered for token " + token + " has unexpected type")
	}
	return t
}
