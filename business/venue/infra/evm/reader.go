// Package evm provides read-only venue state from a live chain. It
// serves live-mode quoting; execution against on-chain venues is out
// of scope for the router itself.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dataxfi/datax-router/business/venue/app"
	"github.com/dataxfi/datax-router/business/venue/domain"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/circuitbreaker"
	"github.com/dataxfi/datax-router/internal/logger"
	"github.com/dataxfi/datax-router/internal/ratelimit"
)

const tracerName = "venue-evm"

// feePrecision is the fixed-point scale pool contracts use for their
// swap fee. Quotes work in basis points, so fees are rescaled on read.
var feePrecision = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

var (
	_ app.PoolReader     = (*PoolStateReader)(nil)
	_ app.ExchangeReader = (*ExchangeStateReader)(nil)
)

type poolAssets struct {
	base  *asset.Asset
	dt    *asset.Asset
	share *asset.Asset
}

// PoolStateReader reads pool reserves, supply and fee from the chain.
// The token pair behind each pool address is registered up front; only
// the numeric state is fetched per call.
type PoolStateReader struct {
	client  *ethclient.Client
	abi     abi.ABI
	logger  logger.LoggerInterface
	cb      *circuitbreaker.CircuitBreaker[[]byte]
	limiter *ratelimit.Limiter
	tracer  trace.Tracer

	mu    sync.RWMutex
	pools map[common.Address]poolAssets
}

// NewPoolStateReader creates a reader over the given client. maxRPS
// bounds the call rate against the RPC endpoint.
func NewPoolStateReader(client *ethclient.Client, log logger.LoggerInterface, maxRPS float64) (*PoolStateReader, error) {
	parsedABI, err := abi.JSON(strings.NewReader(PoolABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool ABI: %w", err)
	}

	return &PoolStateReader{
		client:  client,
		abi:     parsedABI,
		logger:  log,
		cb:      circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("pool-reader")),
		limiter: ratelimit.New(maxRPS, int(maxRPS)+1),
		tracer:  otel.Tracer(tracerName),
		pools:   make(map[common.Address]poolAssets),
	}, nil
}

// RegisterPool declares the token pair held by a pool so later reads
// know which reserves to fetch.
func (r *PoolStateReader) RegisterPool(pool common.Address, base, dt *asset.Asset) {
	share := asset.MustNewToken(base.ChainID(), pool,
		base.Symbol()+"-"+dt.Symbol()+"-BPT", dt.Symbol()+" Pool Shares", 18)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pools[pool] = poolAssets{base: base, dt: dt, share: share}
}

// Pool implements app.PoolReader.
func (r *PoolStateReader) Pool(ctx context.Context, pool common.Address) (app.PoolInfo, error) {
	ctx, span := r.tracer.Start(ctx, "venue.pool_state",
		trace.WithAttributes(attribute.String("pool", pool.Hex())),
	)
	defer span.End()

	r.mu.RLock()
	assets, ok := r.pools[pool]
	r.mu.RUnlock()
	if !ok {
		return app.PoolInfo{}, apperror.New(apperror.CodeVenueNotFound,
			apperror.WithContext("pool "+pool.Hex()))
	}

	baseReserve, err := r.callUint256(ctx, pool, "getBalance", assets.base.Address())
	if err != nil {
		span.RecordError(err)
		return app.PoolInfo{}, err
	}
	dtReserve, err := r.callUint256(ctx, pool, "getBalance", assets.dt.Address())
	if err != nil {
		span.RecordError(err)
		return app.PoolInfo{}, err
	}
	totalShares, err := r.callUint256(ctx, pool, "totalSupply")
	if err != nil {
		span.RecordError(err)
		return app.PoolInfo{}, err
	}
	rawFee, err := r.callUint256(ctx, pool, "getSwapFee")
	if err != nil {
		span.RecordError(err)
		return app.PoolInfo{}, err
	}

	// 1e18-scale fee to basis points
	feeBps := new(big.Int).Mul(rawFee, big.NewInt(asset.BpsDenominator))
	feeBps.Div(feeBps, feePrecision)

	return app.PoolInfo{
		Base:  assets.base,
		Dt:    assets.dt,
		Share: assets.share,
		State: domain.PoolState{
			BaseReserve: baseReserve,
			DtReserve:   dtReserve,
			TotalShares: totalShares,
			SwapFeeBps:  feeBps.Uint64(),
		},
	}, nil
}

func (r *PoolStateReader) callUint256(ctx context.Context, contract common.Address, method string, args ...any) (*big.Int, error) {
	return callUint256(ctx, r.client, r.abi, r.cb, r.limiter, contract, method, args...)
}

type exchangeKey struct {
	venue common.Address
	id    common.Hash
}

type exchangeAssets struct {
	base *asset.Asset
	dt   *asset.Asset
}

// ExchangeStateReader reads fixed-rate listing state from the chain.
type ExchangeStateReader struct {
	client  *ethclient.Client
	abi     abi.ABI
	logger  logger.LoggerInterface
	cb      *circuitbreaker.CircuitBreaker[[]byte]
	limiter *ratelimit.Limiter
	tracer  trace.Tracer

	mu        sync.RWMutex
	exchanges map[exchangeKey]exchangeAssets
}

// NewExchangeStateReader creates a reader over the given client.
func NewExchangeStateReader(client *ethclient.Client, log logger.LoggerInterface, maxRPS float64) (*ExchangeStateReader, error) {
	parsedABI, err := abi.JSON(strings.NewReader(ExchangeABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse exchange ABI: %w", err)
	}

	return &ExchangeStateReader{
		client:    client,
		abi:       parsedABI,
		logger:    log,
		cb:        circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("exchange-reader")),
		limiter:   ratelimit.New(maxRPS, int(maxRPS)+1),
		tracer:    otel.Tracer(tracerName),
		exchanges: make(map[exchangeKey]exchangeAssets),
	}, nil
}

// RegisterExchange declares the asset pair behind a listing.
func (r *ExchangeStateReader) RegisterExchange(venue common.Address, id common.Hash, base, dt *asset.Asset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.exchanges[exchangeKey{venue: venue, id: id}] = exchangeAssets{base: base, dt: dt}
}

// Exchange implements app.ExchangeReader.
func (r *ExchangeStateReader) Exchange(ctx context.Context, venue common.Address, id common.Hash) (app.ExchangeInfo, error) {
	ctx, span := r.tracer.Start(ctx, "venue.exchange_state",
		trace.WithAttributes(attribute.String("exchange", id.Hex())),
	)
	defer span.End()

	r.mu.RLock()
	assets, ok := r.exchanges[exchangeKey{venue: venue, id: id}]
	r.mu.RUnlock()
	if !ok {
		return app.ExchangeInfo{}, apperror.New(apperror.CodeVenueNotFound,
			apperror.WithContext("exchange "+id.Hex()))
	}

	rate, err := callUint256(ctx, r.client, r.abi, r.cb, r.limiter, venue, "getRate", id)
	if err != nil {
		span.RecordError(err)
		return app.ExchangeInfo{}, err
	}
	supply, err := callUint256(ctx, r.client, r.abi, r.cb, r.limiter, venue, "getSupply", id)
	if err != nil {
		span.RecordError(err)
		return app.ExchangeInfo{}, err
	}

	return app.ExchangeInfo{
		Base:  assets.base,
		Dt:    assets.dt,
		State: domain.ExchangeState{Rate: rate, DtSupply: supply},
	}, nil
}

func callUint256(ctx context.Context, client *ethclient.Client, contractABI abi.ABI, cb *circuitbreaker.CircuitBreaker[[]byte], limiter *ratelimit.Limiter, contract common.Address, method string, args ...any) (*big.Int, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithCause(err), apperror.WithContext(method))
	}

	callData, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}

	result, err := cb.Execute(func() ([]byte, error) {
		return client.CallContract(ctx, ethereum.CallMsg{
			To:   &contract,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(method+" on "+contract.Hex()))
	}

	outputs, err := contractABI.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	if len(outputs) < 1 {
		return nil, fmt.Errorf("unexpected %s output length: %d", method, len(outputs))
	}
	return outputs[0].(*big.Int), nil
}
