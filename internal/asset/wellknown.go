package asset

// Well-known Assets (pre-created instances)
var (
	// Crypto
	BTC  = NewAssetWithName("BTC", "Bitcoin", 8)
	ETH  = NewAssetWithName("ETH", "Ethereum", 18)
	USDT = NewAssetWithName("USDT", "Tether USD", 6)
	BNB  = NewAssetWithName("BNB", "BNB", 8)
	XRP  = NewAssetWithName("XRP", "XRP", 6)
	ADA  = NewAssetWithName("ADA", "Cardano", 6)
	SOL  = NewAssetWithName("SOL", "Solana", 9)
	DOT  = NewAssetWithName("DOT", "Polkadot", 10)
	DOGE = NewAssetWithName("DOGE", "Dogecoin", 8)
	LTC  = NewAssetWithName("LTC", "Litecoin", 8)
	LINK = NewAssetWithName("LINK", "Chainlink", 18)

	// Fiat
	USD = NewAssetWithName("USD", "US Dollar", 2)
	EUR = NewAssetWithName("EUR", "Euro", 2)
	JPY = NewAssetWithName("JPY", "Japanese Yen", 0)
	GBP = NewAssetWithName("GBP", "Pound Sterling", 2)
)

// DefaultRegistry returns a registry pre-populated with well-known assets.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	// Crypto
	r.Register(BTC)
	r.Register(ETH)
	r.Register(USDT)
	r.Register(BNB)
	r.Register(XRP)
	r.Register(ADA)
	r.Register(SOL)
	r.Register(DOT)
	r.Register(DOGE)
	r.Register(LTC)
	r.Register(LINK)

	// Fiat
	r.Register(USD)
	r.Register(EUR)
	r.Register(JPY)
	r.Register(GBP)

	return r
}
