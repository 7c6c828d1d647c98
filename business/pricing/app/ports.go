// Package app contains the rate feed service and its port definitions.
package app

import (
	"context"

	"github.com/dataxfi/datax-router/internal/asset"
)

// Provider fetches directed conversion rates from one market source.
type Provider interface {
	// Name identifies the source in logs.
	Name() string

	// Rates returns the current rates for the provider's configured
	// pairs. A partial result with an error is allowed; the feed
	// applies what it got.
	Rates(ctx context.Context) ([]asset.Price, error)
}

// Sink receives refreshed rates. The routing conversion table
// implements it.
type Sink interface {
	SetRate(p asset.Price)
}
