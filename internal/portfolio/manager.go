// Package portfolio manages the simulated account: balances, trade
// history, and positions derived from it.
package portfolio

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "virtual-trader/internal/errors"
	"virtual-trader/internal/models"
	"virtual-trader/internal/store"
	"virtual-trader/internal/trading"
)

// DefaultInitialBalance is the starting virtual balance for a fresh account.
const DefaultInitialBalance = 100000.0

// Config wires the manager's collaborators.
type Config struct {
	Store          store.DataStore
	Engine         *trading.Engine
	Logger         zerolog.Logger
	InitialBalance float64
	Now            func() time.Time
}

// Manager owns the portfolio state. All mutations are serialized and
// persisted as a whole snapshot per mutation.
type Manager struct {
	mu             sync.RWMutex
	portfolio      models.Portfolio
	store          store.DataStore
	engine         *trading.Engine
	logger         zerolog.Logger
	initialBalance float64
	now            func() time.Time
}

// NewManager loads the persisted portfolio, starting a fresh one when no
// snapshot exists yet.
func NewManager(ctx context.Context, cfg Config) (*Manager, error) {
	if cfg.InitialBalance <= 0 {
		cfg.InitialBalance = DefaultInitialBalance
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	m := &Manager{
		store:          cfg.Store,
		engine:         cfg.Engine,
		logger:         cfg.Logger,
		initialBalance: cfg.InitialBalance,
		now:            cfg.Now,
	}

	var p models.Portfolio
	err := cfg.Store.GetDocument(ctx, store.DocPortfolio, &p)
	switch {
	case err == nil:
		m.portfolio = p
	case apperrors.Is(err, apperrors.ErrDataNotFound):
		m.portfolio = freshPortfolio(cfg.InitialBalance)
		if err := cfg.Store.SetDocument(ctx, store.DocPortfolio, m.portfolio); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	return m, nil
}

func freshPortfolio(balance float64) models.Portfolio {
	return models.Portfolio{
		TotalBalance:     balance,
		AvailableBalance: balance,
		Positions:        []models.Position{},
		Trades:           []models.Trade{},
	}
}

// Place validates and executes an order, records the trade, and updates
// balances and positions.
func (m *Manager) Place(ctx context.Context, order models.TradeOrder) (*models.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	trade, err := m.engine.ExecuteOrder(order, m.portfolio.AvailableBalance)
	if err != nil {
		return nil, err
	}

	value := order.Value()
	if order.Side == models.OrderSideBuy {
		m.portfolio.AvailableBalance -= value
		if m.portfolio.AvailableBalance < 0 {
			m.portfolio.AvailableBalance = 0
		}
	} else {
		m.portfolio.AvailableBalance += value
	}

	m.portfolio.Trades = append(m.portfolio.Trades, *trade)
	m.recompute()

	if err := m.persist(ctx); err != nil {
		return nil, err
	}
	if err := m.store.SaveTrade(ctx, trade); err != nil {
		return nil, err
	}

	m.logger.Info().
		Str("trade_id", trade.ID).
		Float64("available_balance", m.portfolio.AvailableBalance).
		Int("positions", len(m.portfolio.Positions)).
		Msg("Order placed")

	return trade, nil
}

// RefreshPositions revalues open positions against the given prices,
// keyed by underlying symbol. Symbols without a price keep their last
// known current price.
func (m *Manager) RefreshPositions(ctx context.Context, prices map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, pos := range m.portfolio.Positions {
		price, ok := prices[pos.Symbol]
		if !ok {
			continue
		}
		m.portfolio.Positions[i] = trading.UpdatePosition(pos, price)
	}
	m.refreshTotals()

	return m.persist(ctx)
}

// Reset discards all state and restores the initial balance.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.DeleteAllTrades(ctx); err != nil {
		return err
	}

	m.portfolio = freshPortfolio(m.initialBalance)
	if err := m.persist(ctx); err != nil {
		return err
	}

	m.logger.Info().Float64("balance", m.initialBalance).Msg("Portfolio reset")
	return nil
}

// Snapshot returns a copy of the current portfolio.
func (m *Manager) Snapshot() models.Portfolio {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p := m.portfolio
	p.Positions = append([]models.Position(nil), m.portfolio.Positions...)
	p.Trades = append([]models.Trade(nil), m.portfolio.Trades...)
	return p
}

// Positions returns a copy of the current open positions.
func (m *Manager) Positions() []models.Position {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.Position(nil), m.portfolio.Positions...)
}

// AvailableBalance returns the spendable balance.
func (m *Manager) AvailableBalance() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.portfolio.AvailableBalance
}

// recompute rebuilds positions from the full trade history, carrying
// forward each position's last known current price.
func (m *Manager) recompute() {
	lastPrices := make(map[string]float64, len(m.portfolio.Positions))
	for _, pos := range m.portfolio.Positions {
		if pos.CurrentPrice > 0 {
			lastPrices[pos.Key()] = pos.CurrentPrice
		}
	}

	positions := trading.ComputePositions(m.portfolio.Trades)
	for i, pos := range positions {
		price, ok := lastPrices[pos.Key()]
		if !ok {
			price = pos.AvgPrice
		}
		positions[i] = trading.UpdatePosition(pos, price)
	}

	m.portfolio.Positions = positions
	m.refreshTotals()
}

// refreshTotals recomputes the aggregate balances from open positions.
func (m *Manager) refreshTotals() {
	invested := 0.0
	for _, pos := range m.portfolio.Positions {
		invested += pos.AvgPrice * float64(pos.Quantity)
	}

	pnl := trading.TotalPnL(m.portfolio.Positions)
	m.portfolio.TotalPnL = pnl
	m.portfolio.DayPnL = m.dayPnL()
	m.portfolio.TotalBalance = m.portfolio.AvailableBalance + invested + pnl
}

// dayPnL sums the PnL of positions touched by a trade today.
func (m *Manager) dayPnL() float64 {
	today := m.now()
	todayKeys := make(map[string]bool)
	for _, t := range m.portfolio.Trades {
		if sameDay(t.Timestamp, today) {
			todayKeys[t.PositionKey()] = true
		}
	}

	total := 0.0
	for _, pos := range m.portfolio.Positions {
		if todayKeys[pos.Key()] {
			total += pos.PnL
		}
	}
	return total
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (m *Manager) persist(ctx context.Context) error {
	return m.store.SetDocument(ctx, store.DocPortfolio, m.portfolio)
}
