// Package quotes provides market quote sources for underlying instruments.
package quotes

import (
	"context"

	"virtual-trader/internal/models"
)

// Source defines the interface for fetching market quotes.
type Source interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// IndianFOStocks lists the NSE F&O stock universe used for watchlists.
var IndianFOStocks = []string{
	"RELIANCE.NS",
	"TCS.NS",
	"HDFCBANK.NS",
	"INFY.NS",
	"ICICIBANK.NS",
	"HINDUNILVR.NS",
	"SBIN.NS",
	"BHARTIARTL.NS",
	"ITC.NS",
	"ASIANPAINT.NS",
	"LT.NS",
	"AXISBANK.NS",
	"MARUTI.NS",
	"SUNPHARMA.NS",
	"WIPRO.NS",
	"ULTRACEMCO.NS",
	"TITAN.NS",
	"HCLTECH.NS",
	"KOTAKBANK.NS",
	"NESTLEIND.NS",
}

// Index pairs an index symbol with its display name.
type Index struct {
	Symbol string
	Name   string
}

// IndianIndices lists the supported index underlyings.
var IndianIndices = []Index{
	{Symbol: "^NSEI", Name: "NIFTY 50"},
	{Symbol: "^NSEBANK", Name: "BANK NIFTY"},
	{Symbol: "^CNXIT", Name: "NIFTY IT"},
	{Symbol: "^CNXPHARMA", Name: "NIFTY PHARMA"},
}

var companyNames = map[string]string{
	"RELIANCE.NS":  "Reliance Industries Ltd",
	"TCS.NS":       "Tata Consultancy Services",
	"HDFCBANK.NS":  "HDFC Bank Ltd",
	"INFY.NS":      "Infosys Ltd",
	"ICICIBANK.NS": "ICICI Bank Ltd",
	"^NSEI":        "NIFTY 50",
	"^NSEBANK":     "BANK NIFTY",
}

// CompanyName returns a display name for a symbol.
func CompanyName(symbol string) string {
	if name, ok := companyNames[symbol]; ok {
		return name
	}
	for _, idx := range IndianIndices {
		if idx.Symbol == symbol {
			return idx.Name
		}
	}
	return symbol
}
