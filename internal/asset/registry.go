package asset

import (
	"fmt"
	"sync"
)

// Registry is a thread-safe registry of known assets.
type Registry struct {
	bySymbol map[string]*Asset
	mu       sync.RWMutex
}

// NewRegistry creates a new empty asset registry.
func NewRegistry() *Registry {
	return &Registry{
		bySymbol: make(map[string]*Asset),
	}
}

// Register adds an asset to the registry.
// Panics if an asset with the same symbol is already registered.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	symbol := a.Symbol()
	if _, exists := r.bySymbol[symbol]; exists {
		panic(fmt.Sprintf("asset: %s already registered", symbol))
	}

	r.bySymbol[symbol] = a
}

// GetOrRegister retrieves an asset by symbol, registering a new one with the
// given precision if it is not yet known.
func (r *Registry) GetOrRegister(symbol string, decimals uint8) *Asset {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.bySymbol[symbol]; ok {
		return a
	}
	a := NewAsset(symbol, decimals)
	r.bySymbol[symbol] = a
	return a
}

// Get retrieves an asset by its symbol.
func (r *Registry) Get(symbol string) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.bySymbol[symbol]
	return a, ok
}

// MustGet retrieves an asset by its symbol, panics if not found.
func (r *Registry) MustGet(symbol string) *Asset {
	a, ok := r.Get(symbol)
	if !ok {
		panic(fmt.Sprintf("asset: %s not found in registry", symbol))
	}
	return a
}

// All returns all registered assets.
func (r *Registry) All() []*Asset {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Asset, 0, len(r.bySymbol))
	for _, a := range r.bySymbol {
		result = append(result, a)
	}
	return result
}

// Count returns the number of registered assets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySymbol)
}

// Has returns true if an asset with the given symbol is registered.
func (r *Registry) Has(symbol string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.bySymbol[symbol]
	return ok
}
