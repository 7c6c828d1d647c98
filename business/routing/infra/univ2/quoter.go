// Package univ2 quotes conversion paths against a V2-style AMM router
// on a live chain, and encodes the matching swap calldata.
package univ2

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dataxfi/datax-router/business/routing/app"
	"github.com/dataxfi/datax-router/business/routing/domain"
	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/circuitbreaker"
	"github.com/dataxfi/datax-router/internal/logger"
	"github.com/dataxfi/datax-router/internal/ratelimit"
)

const tracerName = "univ2"

var _ app.Quoter = (*Quoter)(nil)

// Quoter reads path quotes from an on-chain AMM router.
type Quoter struct {
	client  *ethclient.Client
	router  common.Address
	abi     abi.ABI
	logger  logger.LoggerInterface
	cb      *circuitbreaker.CircuitBreaker[[]byte]
	limiter *ratelimit.Limiter
	tracer  trace.Tracer
}

// NewQuoter creates a quoter against the router contract. maxRPS
// bounds the call rate against the RPC endpoint.
func NewQuoter(client *ethclient.Client, router common.Address, log logger.LoggerInterface, maxRPS float64) (*Quoter, error) {
	parsedABI, err := abi.JSON(strings.NewReader(RouterABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}

	return &Quoter{
		client:  client,
		router:  router,
		abi:     parsedABI,
		logger:  log,
		cb:      circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("univ2-quoter")),
		limiter: ratelimit.New(maxRPS, int(maxRPS)+1),
		tracer:  otel.Tracer(tracerName),
	}, nil
}

// AmountsOut implements app.Quoter via getAmountsOut.
func (q *Quoter) AmountsOut(ctx context.Context, amountIn asset.Amount, path domain.Path) ([]asset.Amount, error) {
	return q.amounts(ctx, "getAmountsOut", amountIn.Raw(), path)
}

// AmountsIn implements app.Quoter via getAmountsIn.
func (q *Quoter) AmountsIn(ctx context.Context, amountOut asset.Amount, path domain.Path) ([]asset.Amount, error) {
	return q.amounts(ctx, "getAmountsIn", amountOut.Raw(), path)
}

func (q *Quoter) amounts(ctx context.Context, method string, amount *big.Int, path domain.Path) ([]asset.Amount, error) {
	ctx, span := q.tracer.Start(ctx, "univ2."+method,
		trace.WithAttributes(
			attribute.String("path", path.String()),
			attribute.String("amount", amount.String()),
		),
	)
	defer span.End()

	if err := q.limiter.Wait(ctx); err != nil {
		return nil, apperror.New(apperror.CodeRateLimitExceeded,
			apperror.WithCause(err), apperror.WithContext(method))
	}

	addresses := make([]common.Address, len(path))
	for i, a := range path {
		addresses[i] = a.Address()
	}

	callData, err := q.abi.Pack(method, amount, addresses)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}

	result, err := q.cb.Execute(func() ([]byte, error) {
		return q.client.CallContract(ctx, ethereum.CallMsg{
			To:   &q.router,
			Data: callData,
		}, nil)
	})
	if err != nil {
		span.RecordError(err)
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err), apperror.WithContext(method))
	}

	outputs, err := q.abi.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	raws, ok := outputs[0].([]*big.Int)
	if !ok || len(raws) != len(path) {
		return nil, fmt.Errorf("unexpected %s output shape", method)
	}

	amounts := make([]asset.Amount, len(raws))
	for i, raw := range raws {
		amounts[i] = asset.NewAmount(path[i], raw)
	}
	return amounts, nil
}

// EncodeSwapExactIn returns calldata for
// swapExactTokensForTokens(amountIn, minOut, path, to, deadline).
func (q *Quoter) EncodeSwapExactIn(amountIn, minOut *big.Int, path domain.Path, to common.Address, deadline *big.Int) ([]byte, error) {
	addresses := make([]common.Address, len(path))
	for i, a := range path {
		addresses[i] = a.Address()
	}
	return q.abi.Pack("swapExactTokensForTokens", amountIn, minOut, addresses, to, deadline)
}

// EncodeSwapExactOut returns calldata for
// swapTokensForExactTokens(amountOut, maxIn, path, to, deadline).
func (q *Quoter) EncodeSwapExactOut(amountOut, maxIn *big.Int, path domain.Path, to common.Address, deadline *big.Int) ([]byte, error) {
	addresses := make([]common.Address, len(path))
	for i, a := range path {
		addresses[i] = a.Address()
	}
	return q.abi.Pack("swapTokensForExactTokens", amountOut, maxIn, addresses, to, deadline)
}
