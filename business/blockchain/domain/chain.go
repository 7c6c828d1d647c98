// Package domain contains the chain observation types for the
// blockchain context.
package domain

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Head is a new chain head observation.
type Head struct {
	Number    uint64
	Hash      common.Hash
	Timestamp time.Time
}

// GasPrice is a gas price observation.
type GasPrice struct {
	Wei       *big.Int
	Gwei      float64
	Timestamp time.Time
}

// NewGasPrice creates a GasPrice from wei.
func NewGasPrice(wei *big.Int) *GasPrice {
	gwei := new(big.Float).SetInt(wei)
	gwei.Quo(gwei, big.NewFloat(1e9))
	gweiFloat, _ := gwei.Float64()

	return &GasPrice{
		Wei:       wei,
		Gwei:      gweiFloat,
		Timestamp: time.Now(),
	}
}

// Status is the chain view reported to operators: the latest head the
// monitor has seen and the current gas price.
type Status struct {
	Head Head
	Gas  *GasPrice
}
