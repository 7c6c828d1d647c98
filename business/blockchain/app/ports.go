// Package app contains the chain monitor service and its port
// definitions.
package app

import (
	"context"

	"github.com/dataxfi/datax-router/business/blockchain/domain"
)

// HeadSource delivers chain head observations.
type HeadSource interface {
	// Subscribe starts delivering new heads until ctx is cancelled.
	Subscribe(ctx context.Context) (<-chan domain.Head, error)

	// Latest fetches the current head.
	Latest(ctx context.Context) (domain.Head, error)
}

// GasOracle reports the current gas price.
type GasOracle interface {
	GasPrice(ctx context.Context) (*domain.GasPrice, error)
}
