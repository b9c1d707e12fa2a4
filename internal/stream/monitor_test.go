package stream

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"

	"virtual-trader/internal/models"
	"virtual-trader/internal/store"
)

func monitorStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	dbPath := "test_monitor.db"
	os.Remove(dbPath)
	t.Cleanup(func() { os.Remove(dbPath) })

	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestMonitor_FirstTickSetsReference(t *testing.T) {
	m := NewMonitor(nil, zerolog.Nop(), nil)

	var fired []models.Alert
	m.OnAlert(func(a models.Alert) { fired = append(fired, a) })

	// A huge first print must not alert; there is nothing to compare against.
	m.Observe(context.Background(), "^NSEI", 19650)
	if len(fired) != 0 {
		t.Fatalf("alert fired on first tick: %+v", fired)
	}
}

func TestMonitor_AlertsOnBigMove(t *testing.T) {
	st := monitorStore(t)
	m := NewMonitor(st, zerolog.Nop(), nil)
	ctx := context.Background()

	var fired []models.Alert
	m.OnAlert(func(a models.Alert) { fired = append(fired, a) })

	m.Observe(ctx, "^NSEI", 100)
	m.Observe(ctx, "^NSEI", 105) // 5%, below threshold
	if len(fired) != 0 {
		t.Fatalf("alert fired on small move")
	}

	m.Observe(ctx, "^NSEI", 130) // 30% off reference, 1500 per lot
	if len(fired) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(fired))
	}
	if fired[0].Type != models.AlertOpportunity || fired[0].Symbol != "^NSEI" {
		t.Errorf("alert = %+v", fired[0])
	}

	saved, err := st.GetAlerts(ctx, true)
	if err != nil {
		t.Fatalf("GetAlerts failed: %v", err)
	}
	if len(saved) != 1 {
		t.Errorf("alert not persisted: %d rows", len(saved))
	}
}

func TestMonitor_OneAlertPerSymbolPerSession(t *testing.T) {
	m := NewMonitor(nil, zerolog.Nop(), nil)
	ctx := context.Background()

	var fired []models.Alert
	m.OnAlert(func(a models.Alert) { fired = append(fired, a) })

	m.Observe(ctx, "^NSEI", 100)
	m.Observe(ctx, "^NSEI", 130)
	m.Observe(ctx, "^NSEI", 160)
	m.Observe(ctx, "^NSEI", 200)
	if len(fired) != 1 {
		t.Fatalf("expected 1 alert for repeat moves, got %d", len(fired))
	}

	// A different symbol still alerts.
	m.Observe(ctx, "^NSEBANK", 100)
	m.Observe(ctx, "^NSEBANK", 200)
	if len(fired) != 2 {
		t.Fatalf("expected independent alert per symbol, got %d", len(fired))
	}

	// Reset re-arms the session.
	m.Reset()
	m.Observe(ctx, "^NSEI", 100)
	m.Observe(ctx, "^NSEI", 130)
	if len(fired) != 3 {
		t.Errorf("expected alert after reset, got %d", len(fired))
	}
}
