package di

import "sync"

// Token is a typed service key. The type parameter travels with the
// token, so registrations and lookups stay type-safe without casts at
// call sites.
type Token[T any] struct {
	name string
}

// NewToken creates a token with a unique name. Names are conventionally
// "<context>.<Service>" for public services and "<context>:<service>"
// for private ones.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the token's registry key.
func (t Token[T]) Name() string {
	return t.name
}

// lazy memoizes a factory so each service is built at most once.
type lazy[T any] struct {
	once    sync.Once
	factory func(ServiceRegistry) T
	value   T
}

func (l *lazy[T]) resolve(sr ServiceRegistry) T {
	l.once.Do(func() {
		l.value = l.factory(sr)
	})
	return l.value
}

// RegisterToken registers a lazily-constructed service under the token.
// The factory runs on first GetToken and its result is cached.
func RegisterToken[T any](c Container, token Token[T], factory func(ServiceRegistry) T) {
	c.Register(token.name, &lazy[T]{factory: factory})
}

// GetToken resolves a service registered under the token. It panics on
// a missing registration or a type mismatch: both are wiring bugs, not
// runtime states.
func GetToken[T any](sr ServiceRegistry, token Token[T]) T {
	v := sr.Get(token.name)
	if v == nil {
		panic("di: no service registered for token " + token.name)
	}

	if l, ok := v.(*lazy[T]); ok {
		return l.resolve(sr)
	}

	t, ok := v.(T)
	if !ok {
		panic("di: service registered for token " + token.name + " has unexpected type")
	}
	return t
}
