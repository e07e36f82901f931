// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"sort"
	"strings"

	marketDomain "github.com/fd1az/triscan/business/market/domain"
)

// Leg is one directed conversion inside a cycle, backed by a configured pair.
type Leg struct {
	From string
	To   string
	Pair string // backing pair symbol, for fees and diagnostics
}

// Cycle is an ordered sequence of exactly three assets returning to the
// start. Cycles are derived once from the configured pair universe, not
// discovered at scan time.
type Cycle struct {
	Assets [3]string
	Legs   [3]Leg
}

// String renders the traversal, e.g. "USD→EUR→JPY→USD".
func (c Cycle) String() string {
	var b strings.Builder
	for _, a := range c.Assets {
		b.WriteString(a)
		b.WriteString("→")
	}
	b.WriteString(c.Assets[0])
	return b.String()
}

// TripleKey returns an order-independent key for the cycle's asset set.
// Both rotations over the same three assets share a key.
func (c Cycle) TripleKey() string {
	s := []string{c.Assets[0], c.Assets[1], c.Assets[2]}
	sort.Strings(s)
	return strings.Join(s, "|")
}

// BuildCandidates precomputes every evaluable 3-cycle over the pair
// universe. For each asset triple with all three connecting pairs it yields
// both rotations, anchored at the lexicographically smallest asset so the
// same rotation never appears twice. Scan cost is thereby fixed at
// configuration time instead of growing with a runtime graph search.
func BuildCandidates(pairs []marketDomain.Pair) []Cycle {
	// A pair covers both traversal directions between its two assets.
	backing := make(map[[2]string]string, 2*len(pairs))
	symbolSet := make(map[string]struct{}, 2*len(pairs))

	for _, p := range pairs {
		base, quote := p.Base.Symbol(), p.Quote.Symbol()
		sym := p.String()
		backing[[2]string{base, quote}] = sym
		backing[[2]string{quote, base}] = sym
		symbolSet[base] = struct{}{}
		symbolSet[quote] = struct{}{}
	}

	symbols := make([]string, 0, len(symbolSet))
	for s := range symbolSet {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)

	var cycles []Cycle
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			for k := j + 1; k < len(symbols); k++ {
				a, b, c := symbols[i], symbols[j], symbols[k]

				ab, okAB := backing[[2]string{a, b}]
				bc, okBC := backing[[2]string{b, c}]
				ca, okCA := backing[[2]string{c, a}]
				if !okAB || !okBC || !okCA {
					continue
				}

				cycles = append(cycles,
					Cycle{
						Assets: [3]string{a, b, c},
						Legs: [3]Leg{
							{From: a, To: b, Pair: ab},
							{From: b, To: c, Pair: bc},
							{From: c, To: a, Pair: ca},
						},
					},
					Cycle{
						Assets: [3]string{a, c, b},
						Legs: [3]Leg{
							{From: a, To: c, Pair: ca},
							{From: c, To: b, Pair: bc},
							{From: b, To: a, Pair: ab},
						},
					},
				)
			}
		}
	}

	return cycles
}
