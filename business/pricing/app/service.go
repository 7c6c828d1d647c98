package app

import (
	"context"
	"time"

	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/logger"
)

// RateFeed keeps the conversion table aligned with market prices. It
// polls every provider and pushes each rate in both directions, so a
// single quoted pair serves paths through either side.
type RateFeed struct {
	providers []Provider
	sink      Sink
	log       logger.LoggerInterface
}

// NewRateFeed creates a feed pushing into sink.
func NewRateFeed(providers []Provider, sink Sink, log logger.LoggerInterface) *RateFeed {
	return &RateFeed{providers: providers, sink: sink, log: log}
}

// Refresh fetches rates from every provider once. A provider failure
// is logged and skipped; Refresh fails only when no provider
// delivered anything.
func (f *RateFeed) Refresh(ctx context.Context) error {
	applied := 0
	for _, p := range f.providers {
		rates, err := p.Rates(ctx)
		if err != nil {
			f.log.Warn(ctx, "rate provider failed", "provider", p.Name(), "error", err)
		}
		for _, rate := range rates {
			f.sink.SetRate(rate)
			f.sink.SetRate(rate.Invert())
			applied++
		}
	}

	if applied == 0 {
		return apperror.New(apperror.CodeExternalServiceError,
			apperror.WithContext("no rate provider delivered rates"))
	}

	f.log.Debug(ctx, "rates refreshed", "pairs", applied)
	return nil
}

// Run refreshes on the given interval until ctx is cancelled.
func (f *RateFeed) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := f.Refresh(ctx); err != nil {
				f.log.Warn(ctx, "rate refresh failed", "error", err)
			}
		}
	}
}
