package portfolio

import (
	"context"
	"math"
	"os"
	"testing"
	"time"

	apperrors "virtual-trader/internal/errors"
	"virtual-trader/internal/models"
	"virtual-trader/internal/store"
	"virtual-trader/internal/trading"
)

func testStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	dbPath := "test_portfolio.db"
	t.Cleanup(func() { os.Remove(dbPath) })
	os.Remove(dbPath)

	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testManager(t *testing.T, st store.DataStore) *Manager {
	t.Helper()
	fixed := time.Date(2024, time.March, 4, 11, 0, 0, 0, time.UTC)
	engine := trading.NewEngine(trading.EngineConfig{
		Now: func() time.Time { return fixed },
	})

	m, err := NewManager(context.Background(), Config{
		Store:  st,
		Engine: engine,
		Now:    func() time.Time { return fixed },
	})
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	return m
}

func buyOrder(qty int, price float64) models.TradeOrder {
	return models.TradeOrder{
		Symbol:     "^NSEI",
		Side:       models.OrderSideBuy,
		Instrument: models.InstrumentCall,
		Quantity:   qty,
		Price:      price,
		OrderType:  models.OrderTypeMarket,
		Strike:     19700,
		Expiry:     time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC),
	}
}

func TestNewManager_FreshPortfolio(t *testing.T) {
	st := testStore(t)
	m := testManager(t, st)

	p := m.Snapshot()
	if p.AvailableBalance != DefaultInitialBalance {
		t.Errorf("fresh balance = %g, want %g", p.AvailableBalance, DefaultInitialBalance)
	}
	if p.TotalBalance != DefaultInitialBalance {
		t.Errorf("fresh total = %g, want %g", p.TotalBalance, DefaultInitialBalance)
	}
	if len(p.Positions) != 0 || len(p.Trades) != 0 {
		t.Errorf("fresh portfolio not empty: %d positions, %d trades", len(p.Positions), len(p.Trades))
	}
}

func TestPlace_BuyUpdatesBalanceAndPositions(t *testing.T) {
	st := testStore(t)
	m := testManager(t, st)
	ctx := context.Background()

	trade, err := m.Place(ctx, buyOrder(50, 45.60))
	if err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if trade.ID == "" {
		t.Error("trade has no ID")
	}

	want := DefaultInitialBalance - 50*45.60
	if got := m.AvailableBalance(); math.Abs(got-want) > 1e-9 {
		t.Errorf("balance = %g, want %g", got, want)
	}

	positions := m.Positions()
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}
	if positions[0].Quantity != 50 || positions[0].AvgPrice != 45.60 {
		t.Errorf("position = %+v", positions[0])
	}
}

func TestPlace_SellCreditsBalance(t *testing.T) {
	st := testStore(t)
	m := testManager(t, st)
	ctx := context.Background()

	if _, err := m.Place(ctx, buyOrder(50, 45.60)); err != nil {
		t.Fatalf("buy failed: %v", err)
	}

	sell := buyOrder(50, 60.00)
	sell.Side = models.OrderSideSell
	if _, err := m.Place(ctx, sell); err != nil {
		t.Fatalf("sell failed: %v", err)
	}

	want := DefaultInitialBalance - 50*45.60 + 50*60.00
	if got := m.AvailableBalance(); math.Abs(got-want) > 1e-9 {
		t.Errorf("balance = %g, want %g", got, want)
	}
	if positions := m.Positions(); len(positions) != 0 {
		t.Errorf("position not closed: %+v", positions)
	}
}

func TestPlace_RejectedOrderLeavesStateUntouched(t *testing.T) {
	st := testStore(t)
	m := testManager(t, st)
	ctx := context.Background()

	order := buyOrder(50, 5000) // 250000 > initial balance
	if _, err := m.Place(ctx, order); !apperrors.Is(err, apperrors.ErrInsufficientFunds) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}

	if got := m.AvailableBalance(); got != DefaultInitialBalance {
		t.Errorf("balance changed after rejected order: %g", got)
	}
	if p := m.Snapshot(); len(p.Trades) != 0 {
		t.Errorf("trade recorded for rejected order")
	}
}

func TestPlace_PersistsAcrossReload(t *testing.T) {
	st := testStore(t)
	m := testManager(t, st)
	ctx := context.Background()

	if _, err := m.Place(ctx, buyOrder(50, 45.60)); err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	reloaded := testManager(t, st)
	p := reloaded.Snapshot()

	if len(p.Trades) != 1 || len(p.Positions) != 1 {
		t.Fatalf("reloaded portfolio: %d trades, %d positions", len(p.Trades), len(p.Positions))
	}
	want := DefaultInitialBalance - 50*45.60
	if math.Abs(p.AvailableBalance-want) > 1e-9 {
		t.Errorf("reloaded balance = %g, want %g", p.AvailableBalance, want)
	}
}

func TestRefreshPositions(t *testing.T) {
	st := testStore(t)
	m := testManager(t, st)
	ctx := context.Background()

	if _, err := m.Place(ctx, buyOrder(50, 45.60)); err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	if err := m.RefreshPositions(ctx, map[string]float64{"^NSEI": 50.00}); err != nil {
		t.Fatalf("RefreshPositions failed: %v", err)
	}

	positions := m.Positions()
	if positions[0].CurrentPrice != 50.00 {
		t.Errorf("current price = %g, want 50", positions[0].CurrentPrice)
	}
	wantPnL := (50.00 - 45.60) * 50
	if math.Abs(positions[0].PnL-wantPnL) > 1e-9 {
		t.Errorf("pnl = %g, want %g", positions[0].PnL, wantPnL)
	}

	p := m.Snapshot()
	if math.Abs(p.TotalPnL-wantPnL) > 1e-9 {
		t.Errorf("total pnl = %g, want %g", p.TotalPnL, wantPnL)
	}
	// The position was traded today, so the full PnL counts as day PnL.
	if math.Abs(p.DayPnL-wantPnL) > 1e-9 {
		t.Errorf("day pnl = %g, want %g", p.DayPnL, wantPnL)
	}
}

func TestTotalBalanceIdentity(t *testing.T) {
	st := testStore(t)
	m := testManager(t, st)
	ctx := context.Background()

	if _, err := m.Place(ctx, buyOrder(50, 45.60)); err != nil {
		t.Fatalf("Place failed: %v", err)
	}
	if err := m.RefreshPositions(ctx, map[string]float64{"^NSEI": 52.00}); err != nil {
		t.Fatalf("RefreshPositions failed: %v", err)
	}

	p := m.Snapshot()
	invested := 0.0
	for _, pos := range p.Positions {
		invested += pos.AvgPrice * float64(pos.Quantity)
	}
	want := p.AvailableBalance + invested + p.TotalPnL
	if math.Abs(p.TotalBalance-want) > 1e-9 {
		t.Errorf("total balance = %g, want available+invested+pnl = %g", p.TotalBalance, want)
	}
}

func TestReset(t *testing.T) {
	st := testStore(t)
	m := testManager(t, st)
	ctx := context.Background()

	if _, err := m.Place(ctx, buyOrder(50, 45.60)); err != nil {
		t.Fatalf("Place failed: %v", err)
	}

	if err := m.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	p := m.Snapshot()
	if p.AvailableBalance != DefaultInitialBalance || len(p.Trades) != 0 || len(p.Positions) != 0 {
		t.Errorf("reset portfolio = %+v", p)
	}

	trades, err := st.GetTrades(ctx, store.TradeFilter{})
	if err != nil {
		t.Fatalf("GetTrades failed: %v", err)
	}
	if len(trades) != 0 {
		t.Errorf("trade history survived reset: %d rows", len(trades))
	}
}
