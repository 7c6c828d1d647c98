// Package erc20 provides the read side of the token ledger against a
// live chain, plus calldata encoders for the mutating calls. Sending
// the transactions is the host chain's concern.
package erc20

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

	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/circuitbreaker"
	"github.com/dataxfi/datax-router/internal/logger"
)

const tracerName = "erc20"

// Reader reads ERC20 balances and allowances from the chain.
type Reader struct {
	client *ethclient.Client
	abi    abi.ABI
	logger logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[[]byte]
	tracer trace.Tracer
}

// NewReader creates a Reader over the given client.
func NewReader(client *ethclient.Client, log logger.LoggerInterface) (*Reader, error) {
	parsedABI, err := abi.JSON(strings.NewReader(ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 ABI: %w", err)
	}

	return &Reader{
		client: client,
		abi:    parsedABI,
		logger: log,
		cb:     circuitbreaker.New[[]byte](circuitbreaker.DefaultConfig("erc20-reader")),
		tracer: otel.Tracer(tracerName),
	}, nil
}

// BalanceOf returns the account's balance in the given token asset.
// Native balances go through the client's BalanceAt.
func (r *Reader) BalanceOf(ctx context.Context, account common.Address, a *asset.Asset) (asset.Amount, error) {
	ctx, span := r.tracer.Start(ctx, "erc20.balance_of",
		trace.WithAttributes(
			attribute.String("account", account.Hex()),
			attribute.String("asset", a.ID().String()),
		),
	)
	defer span.End()

	if a.IsNative() {
		raw, err := r.client.BalanceAt(ctx, account, nil)
		if err != nil {
			span.RecordError(err)
			return asset.Amount{}, apperror.New(apperror.CodeEthereumRPCError,
				apperror.WithCause(err), apperror.WithContext("BalanceAt"))
		}
		return asset.NewAmount(a, raw), nil
	}

	raw, err := r.callUint256(ctx, a.Address(), "balanceOf", account)
	if err != nil {
		span.RecordError(err)
		return asset.Amount{}, err
	}
	return asset.NewAmount(a, raw), nil
}

// Allowance returns the spender's remaining allowance from the owner.
func (r *Reader) Allowance(ctx context.Context, owner, spender common.Address, a *asset.Asset) (asset.Amount, error) {
	ctx, span := r.tracer.Start(ctx, "erc20.allowance",
		trace.WithAttributes(
			attribute.String("owner", owner.Hex()),
			attribute.String("spender", spender.Hex()),
			attribute.String("asset", a.ID().String()),
		),
	)
	defer span.End()

	if a.IsNative() {
		// Native value has no allowance concept
		return asset.Zero(a), nil
	}

	raw, err := r.callUint256(ctx, a.Address(), "allowance", owner, spender)
	if err != nil {
		span.RecordError(err)
		return asset.Amount{}, err
	}
	return asset.NewAmount(a, raw), nil
}

// EncodeTransfer returns calldata for transfer(to, amount).
func (r *Reader) EncodeTransfer(to common.Address, amount *big.Int) ([]byte, error) {
	return r.abi.Pack("transfer", to, amount)
}

// EncodeTransferFrom returns calldata for transferFrom(from, to, amount).
func (r *Reader) EncodeTransferFrom(from, to common.Address, amount *big.Int) ([]byte, error) {
	return r.abi.Pack("transferFrom", from, to, amount)
}

// EncodeApprove returns calldata for approve(spender, amount).
func (r *Reader) EncodeApprove(spender common.Address, amount *big.Int) ([]byte, error) {
	return r.abi.Pack("approve", spender, amount)
}

func (r *Reader) callUint256(ctx context.Context, contract common.Address, method string, args ...any) (*big.Int, error) {
	callData, err := r.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s call: %w", method, err)
	}

	result, err := r.cb.Execute(func() ([]byte, error) {
		return r.client.CallContract(ctx, ethereum.CallMsg{
			To:   &contract,
			Data: callData,
		}, nil)
	})
	if err != nil {
		return nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(method+" on "+contract.Hex()))
	}

	outputs, err := r.abi.Unpack(method, result)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	if len(outputs) < 1 {
		return nil, fmt.Errorf("unexpected %s output length: %d", method, len(outputs))
	}

	return outputs[0].(*big.Int), nil
}
