package stream

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"virtual-trader/internal/logging"
	"virtual-trader/internal/models"
	"virtual-trader/internal/options"
	"virtual-trader/internal/store"
	"virtual-trader/internal/trading"
)

// Monitor watches a tick stream for outsized moves and records
// opportunity alerts. The first tick seen per symbol becomes the session
// reference price.
type Monitor struct {
	store   store.DataStore
	logger  zerolog.Logger
	now     func() time.Time
	onAlert func(models.Alert)

	mu        sync.Mutex
	refPrices map[string]float64
	alerted   map[string]bool
}

// NewMonitor creates an opportunity monitor. store may be nil; alerts are
// then only surfaced through the callback.
func NewMonitor(st store.DataStore, logger zerolog.Logger, now func() time.Time) *Monitor {
	if now == nil {
		now = time.Now
	}
	return &Monitor{
		store:     st,
		logger:    logger,
		now:       now,
		refPrices: make(map[string]float64),
		alerted:   make(map[string]bool),
	}
}

// OnAlert sets a callback invoked for every generated alert.
func (m *Monitor) OnAlert(fn func(models.Alert)) {
	m.onAlert = fn
}

// Observe feeds one tick through the move detector. At most one alert is
// raised per symbol per session.
func (m *Monitor) Observe(ctx context.Context, symbol string, price float64) {
	m.mu.Lock()
	ref, seen := m.refPrices[symbol]
	if !seen {
		m.refPrices[symbol] = price
		m.mu.Unlock()
		return
	}
	if m.alerted[symbol] {
		m.mu.Unlock()
		return
	}
	m.mu.Unlock()

	contract := models.OptionContract{
		Symbol:  symbol,
		LTP:     price,
		LotSize: options.LotSize(symbol),
	}
	alert := trading.GenerateOpportunityAlert(contract, ref, m.now())
	if alert == nil {
		return
	}

	m.mu.Lock()
	m.alerted[symbol] = true
	m.mu.Unlock()

	if m.store != nil {
		if err := m.store.SaveAlert(ctx, alert); err != nil {
			m.logger.Warn().Err(err).Str("symbol", symbol).Msg("Failed to save alert")
		}
	}
	logging.LogAlert(m.logger, alert.ID, symbol, string(alert.Type))

	if m.onAlert != nil {
		m.onAlert(*alert)
	}
}

// Reset clears reference prices and re-arms alerting for all symbols.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refPrices = make(map[string]float64)
	m.alerted = make(map[string]bool)
}
