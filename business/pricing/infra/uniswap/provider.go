// Package uniswap implements the rate feed provider over the on-chain
// AMM router, reusing the routing quoter.
package uniswap

import (
	"context"
	"math/big"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	routingapp "github.com/dataxfi/datax-router/business/routing/app"
	routingdomain "github.com/dataxfi/datax-router/business/routing/domain"
	"github.com/dataxfi/datax-router/internal/asset"
	"github.com/dataxfi/datax-router/internal/logger"
)

const tracerName = "uniswap-rates"

// Provider derives spot rates from the AMM by quoting one whole unit
// of the base asset against each configured pair.
type Provider struct {
	quoter routingapp.Quoter
	pairs  [][2]*asset.Asset
	logger logger.LoggerInterface
	tracer trace.Tracer
}

// NewProvider creates an on-chain rate provider for the given pairs.
func NewProvider(quoter routingapp.Quoter, pairs [][2]*asset.Asset, log logger.LoggerInterface) *Provider {
	return &Provider{
		quoter: quoter,
		pairs:  pairs,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}
}

// Name identifies the provider in feed logs.
func (p *Provider) Name() string { return "uniswap" }

// Rates quotes each pair for one unit of the base asset. A failing
// pair stops the batch and returns what was collected so far.
func (p *Provider) Rates(ctx context.Context) ([]asset.Price, error) {
	ctx, span := p.tracer.Start(ctx, "uniswap.rates",
		trace.WithAttributes(attribute.Int("pairs", len(p.pairs))))
	defer span.End()

	var rates []asset.Price
	for _, pair := range p.pairs {
		base, quote := pair[0], pair[1]

		unit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(base.Decimals())), nil)
		path := routingdomain.Path{base, quote}

		amounts, err := p.quoter.AmountsOut(ctx, asset.NewAmount(base, unit), path)
		if err != nil {
			span.RecordError(err)
			return rates, err
		}

		out := amounts[len(amounts)-1]
		rate := out.ToDecimal()
		if !rate.IsPositive() {
			p.logger.Warn(ctx, "zero spot rate, skipping pair",
				"base", base.Symbol(), "quote", quote.Symbol())
			continue
		}

		rates = append(rates, asset.NewPriceNow(base, quote, rate))
	}

	span.SetAttributes(attribute.Int("rates", len(rates)))
	return rates, nil
}
