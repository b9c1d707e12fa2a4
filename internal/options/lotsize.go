package options

// NSE contract lot sizes per underlying. Unknown symbols fall back to
// DefaultLotSize.
var lotSizes = map[string]int{
	"^NSEI":        50,  // Nifty
	"^NSEBANK":     25,  // Bank Nifty
	"RELIANCE.NS":  250,
	"TCS.NS":       150,
	"HDFCBANK.NS":  550,
	"INFY.NS":      300,
	"ICICIBANK.NS": 375,
}

// DefaultLotSize is used for symbols without a known contract specification.
const DefaultLotSize = 100

// LotSize returns the contract lot size for an underlying symbol.
func LotSize(symbol string) int {
	if size, ok := lotSizes[symbol]; ok {
		return size
	}
	return DefaultLotSize
}
