package asset

import "testing"

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	r.Register(NewAssetWithName("BTC", "Bitcoin", 8))

	a, ok := r.Get("BTC")
	if !ok {
		t.Fatal("Get(BTC) not found after Register")
	}
	if a.Name() != "Bitcoin" {
		t.Errorf("Name = %q, want Bitcoin", a.Name())
	}
	if !r.Has("BTC") {
		t.Error("Has(BTC) = false after Register")
	}
	if r.Has("ETH") {
		t.Error("Has(ETH) = true on registry without ETH")
	}
}

func TestRegistryDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("duplicate Register did not panic")
		}
	}()

	r := NewRegistry()
	r.Register(NewAsset("BTC", 8))
	r.Register(NewAsset("BTC", 8))
}

func TestNewAssetGuards(t *testing.T) {
	tests := []struct {
		name     string
		symbol   string
		decimals uint8
	}{
		{"empty_symbol", "", 8},
		{"excessive_decimals", "XYZ", 31},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("NewAsset(%q, %d) did not panic", tt.symbol, tt.decimals)
				}
			}()
			NewAsset(tt.symbol, tt.decimals)
		})
	}
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()

	for _, symbol := range []string{"BTC", "ETH", "USDT", "SOL", "USD", "EUR", "JPY"} {
		if !r.Has(symbol) {
			t.Errorf("default registry is missing %s", symbol)
		}
	}
	if r.Count() < 10 {
		t.Errorf("default registry has %d assets, want at least 10", r.Count())
	}
}

func TestAssetEquals(t *testing.T) {
	a := NewAsset("ETH", 18)
	b := NewAssetWithName("ETH", "Ethereum", 18)
	c := NewAsset("BTC", 8)

	if !a.Equals(b) {
		t.Error("assets with the same symbol should be equal")
	}
	if a.Equals(c) {
		t.Error("assets with different symbols should not be equal")
	}
	var nilAsset *Asset
	if a.Equals(nilAsset) {
		t.Error("asset should not equal nil")
	}
}
