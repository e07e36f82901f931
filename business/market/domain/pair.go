// Package domain contains the core domain types for the market context.
package domain

import (
	"fmt"

	"github.com/fd1az/triscan/internal/asset"
	"github.com/fd1az/triscan/internal/config"
)

// defaultAssetDecimals is the precision assumed for assets first seen in a
// pair symbol rather than pre-registered.
const defaultAssetDecimals = 8

// Pair represents a trading pair using typed assets.
type Pair struct {
	Base  *asset.Asset // e.g., ETH
	Quote *asset.Asset // e.g., USDT
}

// NewPair creates a new trading pair.
func NewPair(base, quote *asset.Asset) Pair {
	if base == nil || quote == nil {
		panic("market: nil asset in pair")
	}
	if base.Equals(quote) {
		panic("market: pair with identical base and quote")
	}
	return Pair{Base: base, Quote: quote}
}

// ParsePair resolves a "BASE-QUOTE" symbol against the registry. Assets not
// yet registered are added with default precision.
func ParsePair(symbol string, registry *asset.Registry) (Pair, error) {
	base, quote, ok := config.SplitPair(symbol)
	if !ok {
		return Pair{}, fmt.Errorf("malformed pair symbol %q", symbol)
	}

	baseAsset := registry.GetOrRegister(base, defaultAssetDecimals)
	quoteAsset := registry.GetOrRegister(quote, defaultAssetDecimals)

	if baseAsset.Equals(quoteAsset) {
		return Pair{}, fmt.Errorf("pair %q has identical base and quote", symbol)
	}

	return Pair{Base: baseAsset, Quote: quoteAsset}, nil
}

// ParsePairs resolves a list of pair symbols, rejecting duplicates.
func ParsePairs(symbols []string, registry *asset.Registry) ([]Pair, error) {
	pairs := make([]Pair, 0, len(symbols))
	seen := make(map[string]struct{}, len(symbols))

	for _, s := range symbols {
		p, err := ParsePair(s, registry)
		if err != nil {
			return nil, err
		}
		key := p.String()
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate pair %q", key)
		}
		seen[key] = struct{}{}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

// String returns the pair symbol (e.g., "ETH-USDT").
func (p Pair) String() string {
	return p.Base.Symbol() + "-" + p.Quote.Symbol()
}

// Invert returns the inverted pair (e.g., ETH-USDT -> USDT-ETH).
func (p Pair) Invert() Pair {
	return Pair{Base: p.Quote, Quote: p.Base}
}
