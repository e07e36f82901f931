package domain

import (
	"testing"

	"github.com/fd1az/triscan/internal/asset"
)

func TestParsePairs(t *testing.T) {
	reg := asset.DefaultRegistry()

	pairs, err := ParsePairs([]string{"BTC-USDT", "ETH-BTC", "NEW-USDT"}, reg)
	if err != nil {
		t.Fatalf("ParsePairs: %v", err)
	}
	if len(pairs) != 3 {
		t.Fatalf("got %d pairs, want 3", len(pairs))
	}

	if pairs[0].String() != "BTC-USDT" {
		t.Errorf("pairs[0] = %s, want BTC-USDT", pairs[0])
	}
	if pairs[0].Invert().String() != "USDT-BTC" {
		t.Errorf("invert = %s, want USDT-BTC", pairs[0].Invert())
	}

	// Unknown symbols get registered on first use.
	if !reg.Has("NEW") {
		t.Error("NEW not registered after parse")
	}

	// Known assets keep their registered precision.
	btc, _ := reg.Get("BTC")
	if pairs[0].Base != btc {
		t.Error("parsed pair does not reuse registered asset")
	}
}

func TestParsePairsRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		symbols []string
	}{
		{name: "missing_separator", symbols: []string{"BTCUSDT"}},
		{name: "empty_side", symbols: []string{"BTC-"}},
		{name: "self_pair", symbols: []string{"BTC-BTC"}},
		{name: "duplicate", symbols: []string{"BTC-USDT", "BTC-USDT"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePairs(tt.symbols, asset.NewRegistry()); err == nil {
				t.Errorf("ParsePairs(%v) accepted", tt.symbols)
			}
		})
	}
}
