// Package ethereum provides the chain monitor adapters over a
// go-ethereum client.
package ethereum

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dataxfi/datax-router/business/blockchain/domain"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/circuitbreaker"
	"github.com/dataxfi/datax-router/internal/logger"
	"github.com/dataxfi/datax-router/internal/ratelimit"
)

const (
	tracerName = "blockchain-ethereum"
	meterName  = "blockchain-ethereum"

	// ~1 mainnet block
	defaultPollInterval = 12 * time.Second
	defaultGasTTL       = 12 * time.Second
)

// GasPriceOracle reports the node's suggested gas price, cached for
// about one block so status polls don't hammer the RPC.
type GasPriceOracle struct {
	client  *ethclient.Client
	limiter *ratelimit.Limiter
	cb      *circuitbreaker.CircuitBreaker[*big.Int]
	logger  logger.LoggerInterface
	tracer  trace.Tracer
	gauge   metric.Float64Gauge

	ttl    time.Duration
	mu     sync.Mutex
	cached *domain.GasPrice
}

// NewGasPriceOracle creates a gas oracle over client.
func NewGasPriceOracle(client *ethclient.Client, maxRPS float64, log logger.LoggerInterface) (*GasPriceOracle, error) {
	gauge, err := otel.Meter(meterName).Float64Gauge("chain_gas_price_gwei",
		metric.WithDescription("Suggested gas price in gwei"))
	if err != nil {
		return nil, err
	}

	return &GasPriceOracle{
		client:  client,
		limiter: ratelimit.New(maxRPS, 1),
		cb:      circuitbreaker.New[*big.Int](circuitbreaker.DefaultConfig("gas-oracle")),
		logger:  log,
		tracer:  otel.Tracer(tracerName),
		gauge:   gauge,
		ttl:     defaultGasTTL,
	}, nil
}

// GasPrice returns the suggested gas price, served from cache within
// the TTL.
func (o *GasPriceOracle) GasPrice(ctx context.Context) (*domain.GasPrice, error) {
	o.mu.Lock()
	if o.cached != nil && time.Since(o.cached.Timestamp) < o.ttl {
		cached := o.cached
		o.mu.Unlock()
		return cached, nil
	}
	o.mu.Unlock()

	ctx, span := o.tracer.Start(ctx, "chain.gas_price")
	defer span.End()

	if err := o.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}

	wei, err := o.cb.Execute(func() (*big.Int, error) {
		return o.client.SuggestGasPrice(ctx)
	})
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err), apperror.WithContext("gas price fetch failed"))
	}

	price := domain.NewGasPrice(wei)
	o.gauge.Record(ctx, price.Gwei, metric.WithAttributes(attribute.String("source", "node")))

	o.mu.Lock()
	o.cached = price
	o.mu.Unlock()

	return price, nil
}

// HeadPoller delivers chain heads by polling the HTTP endpoint. The
// node connection is HTTP-only, so heads arrive at the poll interval
// rather than by push subscription.
type HeadPoller struct {
	client   *ethclient.Client
	limiter  *ratelimit.Limiter
	logger   logger.LoggerInterface
	tracer   trace.Tracer
	interval time.Duration
	counter  metric.Int64Counter
}

// NewHeadPoller creates a head poller over client.
func NewHeadPoller(client *ethclient.Client, maxRPS float64, log logger.LoggerInterface) (*HeadPoller, error) {
	counter, err := otel.Meter(meterName).Int64Counter("chain_heads_total",
		metric.WithDescription("Chain head observations"))
	if err != nil {
		return nil, err
	}

	return &HeadPoller{
		client:   client,
		limiter:  ratelimit.New(maxRPS, 1),
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		interval: defaultPollInterval,
		counter:  counter,
	}, nil
}

// Latest fetches the current head.
func (p *HeadPoller) Latest(ctx context.Context) (domain.Head, error) {
	ctx, span := p.tracer.Start(ctx, "chain.latest_head")
	defer span.End()

	if err := p.limiter.Wait(ctx); err != nil {
		return domain.Head{}, apperror.New(apperror.CodeRateLimitExceeded, apperror.WithCause(err))
	}

	header, err := p.client.HeaderByNumber(ctx, nil)
	if err != nil {
		span.RecordError(err)
		return domain.Head{}, apperror.New(apperror.CodeEthereumRPCError,
			apperror.WithCause(err), apperror.WithContext("head fetch failed"))
	}

	return domain.Head{
		Number:    header.Number.Uint64(),
		Hash:      header.Hash(),
		Timestamp: time.Unix(int64(header.Time), 0),
	}, nil
}

// Subscribe polls for new heads until ctx is cancelled, delivering
// only number changes.
func (p *HeadPoller) Subscribe(ctx context.Context) (<-chan domain.Head, error) {
	ch := make(chan domain.Head, 16)

	go func() {
		defer close(ch)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		var last uint64
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				head, err := p.Latest(ctx)
				if err != nil {
					p.logger.Warn(ctx, "head poll failed", "error", err)
					continue
				}
				if head.Number == last {
					continue
				}
				last = head.Number
				p.counter.Add(ctx, 1)

				select {
				case ch <- head:
				default:
					// Drop when the consumer lags; the next poll
					// carries a fresher head anyway.
				}
			}
		}
	}()

	return ch, nil
}
