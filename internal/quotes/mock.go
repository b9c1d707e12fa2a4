package quotes

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"virtual-trader/internal/models"
)

// Base prices used when no live data is available.
var mockBasePrices = map[string]float64{
	"RELIANCE.NS":  2485,
	"TCS.NS":       3654,
	"HDFCBANK.NS":  1642,
	"INFY.NS":      1456,
	"ICICIBANK.NS": 985,
	"^NSEI":        19650,
	"^NSEBANK":     44250,
}

const mockDefaultPrice = 1000

// BasePrice returns the deterministic base price for a symbol.
func BasePrice(symbol string) float64 {
	if price, ok := mockBasePrices[symbol]; ok {
		return price
	}
	return mockDefaultPrice
}

// MockSource generates quotes from fixed base prices with a bounded random
// perturbation. It never fails.
type MockSource struct {
	rng *rand.Rand
	now func() time.Time
	mu  sync.Mutex
}

// NewMockSource creates a mock quote source. A nil rng falls back to a
// time-seeded generator.
func NewMockSource(rng *rand.Rand) *MockSource {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &MockSource{
		rng: rng,
		now: time.Now,
	}
}

// GetQuote returns a synthetic quote for the symbol. The price is the base
// price moved by up to ±5%.
func (m *MockSource) GetQuote(_ context.Context, symbol string) (*models.Quote, error) {
	base := BasePrice(symbol)

	m.mu.Lock()
	change := (m.rng.Float64() - 0.5) * base * 0.05
	m.mu.Unlock()

	absChange := change
	if absChange < 0 {
		absChange = -absChange
	}

	return &models.Quote{
		Symbol:        symbol,
		LTP:           base + change,
		Open:          base,
		High:          base + absChange*1.2,
		Low:           base - absChange*1.2,
		PreviousClose: base,
		Change:        change,
		ChangePercent: (change / base) * 100,
		Timestamp:     m.now(),
	}, nil
}

var _ Source = (*MockSource)(nil)
