// Package domain contains the conversion path model shared by the
// adapter's quote and execution sides.
package domain

import (
	"strings"

	"github.com/dataxfi/datax-router/internal/apperror"
	"github.com/dataxfi/datax-router/internal/asset"
)

// DefaultMaxHops bounds conversion paths when no limit is configured.
const DefaultMaxHops = 4

// Path is an ordered token route for a multi-hop conversion. A path of
// one asset is the identity conversion; each adjacent pair is one hop.
type Path []*asset.Asset

// Hops returns the number of swaps the path requires.
func (p Path) Hops() int {
	if len(p) < 2 {
		return 0
	}
	return len(p) - 1
}

// Validate checks the path starts at from, ends at to, has no gaps,
// and stays within maxHops.
func (p Path) Validate(from, to *asset.Asset, maxHops int) error {
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}

	if len(p) == 0 {
		return apperror.New(apperror.CodeUnsupportedPath,
			apperror.WithContext("empty path"))
	}
	for _, a := range p {
		if a == nil {
			return apperror.New(apperror.CodeUnsupportedPath,
				apperror.WithContext("path contains a nil asset"))
		}
	}
	if !p[0].Equals(from) {
		return apperror.New(apperror.CodeUnsupportedPath,
			apperror.WithContext("path must start at "+from.Symbol()))
	}
	if !p[len(p)-1].Equals(to) {
		return apperror.New(apperror.CodeUnsupportedPath,
			apperror.WithContext("path must end at "+to.Symbol()))
	}
	for i := 1; i < len(p); i++ {
		if p[i].Equals(p[i-1]) {
			return apperror.New(apperror.CodeUnsupportedPath,
				apperror.WithContext("path repeats "+p[i].Symbol()))
		}
	}
	if p.Hops() > maxHops {
		return apperror.New(apperror.CodePathTooLong,
			apperror.WithContext(p.String()))
	}
	return nil
}

// IsIdentity reports whether the path performs no conversion.
func (p Path) IsIdentity() bool {
	return len(p) == 1
}

// String renders the path as a symbol chain.
func (p Path) String() string {
	symbols := make([]string, len(p))
	for i, a := range p {
		symbols[i] = a.Symbol()
	}
	return strings.Join(symbols, " -> ")
}
