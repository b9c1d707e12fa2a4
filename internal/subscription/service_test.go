package subscription

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "virtual-trader/internal/errors"
	"virtual-trader/internal/store"
)

func testStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	dbPath := "test_subscription.db"
	os.Remove(dbPath)
	t.Cleanup(func() { os.Remove(dbPath) })

	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testService(t *testing.T, st store.DataStore, now *time.Time) *Service {
	t.Helper()
	return NewService(st, zerolog.Nop(), func() time.Time { return *now })
}

func TestPlans(t *testing.T) {
	plans := Plans()
	if len(plans) != 3 {
		t.Fatalf("expected 3 plans, got %d", len(plans))
	}

	monthly, ok := PlanByID("premium_monthly")
	if !ok {
		t.Fatal("premium_monthly missing")
	}
	if monthly.Price != 10 || monthly.Duration != 30 || !monthly.IsPopular {
		t.Errorf("monthly plan = %+v", monthly)
	}

	quarterly, _ := PlanByID("premium_quarterly")
	if quarterly.Price != 25 || quarterly.Duration != 90 {
		t.Errorf("quarterly plan = %+v", quarterly)
	}

	yearly, _ := PlanByID("premium_yearly")
	if yearly.Price != 99 || yearly.Duration != 365 {
		t.Errorf("yearly plan = %+v", yearly)
	}

	if _, ok := PlanByID("gold"); ok {
		t.Error("unknown plan resolved")
	}
}

func TestSubscribeAndStatus(t *testing.T) {
	st := testStore(t)
	now := time.Date(2024, time.March, 4, 11, 0, 0, 0, time.UTC)
	svc := testService(t, st, &now)
	ctx := context.Background()

	premium, err := svc.IsPremium(ctx)
	if err != nil || premium {
		t.Fatalf("fresh user premium=%v err=%v", premium, err)
	}

	sub, err := svc.Subscribe(ctx, "premium_monthly")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if !sub.IsActive || !sub.AutoRenew {
		t.Errorf("subscription not active: %+v", sub)
	}
	if want := now.AddDate(0, 0, 30); !sub.EndDate.Equal(want) {
		t.Errorf("end date = %s, want %s", sub.EndDate, want)
	}

	premium, err = svc.IsPremium(ctx)
	if err != nil || !premium {
		t.Fatalf("subscriber premium=%v err=%v", premium, err)
	}

	days, err := svc.DaysRemaining(ctx)
	if err != nil {
		t.Fatalf("DaysRemaining failed: %v", err)
	}
	if days != 30 {
		t.Errorf("days remaining = %d, want 30", days)
	}
}

func TestSubscribe_UnknownPlan(t *testing.T) {
	st := testStore(t)
	now := time.Date(2024, time.March, 4, 11, 0, 0, 0, time.UTC)
	svc := testService(t, st, &now)

	if _, err := svc.Subscribe(context.Background(), "gold"); !apperrors.Is(err, apperrors.ErrInvalidPlan) {
		t.Errorf("expected ErrInvalidPlan, got %v", err)
	}
}

func TestSubscription_ExpiresLazily(t *testing.T) {
	st := testStore(t)
	now := time.Date(2024, time.March, 4, 11, 0, 0, 0, time.UTC)
	svc := testService(t, st, &now)
	ctx := context.Background()

	if _, err := svc.Subscribe(ctx, "premium_monthly"); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	now = now.AddDate(0, 0, 31)

	premium, err := svc.IsPremium(ctx)
	if err != nil {
		t.Fatalf("IsPremium failed: %v", err)
	}
	if premium {
		t.Error("expired subscription still premium")
	}

	sub, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if sub == nil || sub.IsActive {
		t.Errorf("expired subscription not deactivated: %+v", sub)
	}
}

func TestCancel(t *testing.T) {
	st := testStore(t)
	now := time.Date(2024, time.March, 4, 11, 0, 0, 0, time.UTC)
	svc := testService(t, st, &now)
	ctx := context.Background()

	if err := svc.Cancel(ctx); !apperrors.Is(err, apperrors.ErrNoActivePlan) {
		t.Errorf("cancel without plan: %v", err)
	}

	sub, err := svc.Subscribe(ctx, "premium_yearly")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	endDate := sub.EndDate

	if err := svc.Cancel(ctx); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	// Cancelling only stops renewal; premium runs to the end date.
	premium, _ := svc.IsPremium(ctx)
	if !premium {
		t.Error("premium lost immediately after cancel")
	}
	current, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if !current.IsActive || current.AutoRenew {
		t.Errorf("after cancel: active=%v autoRenew=%v", current.IsActive, current.AutoRenew)
	}

	now = endDate.AddDate(0, 0, 1)
	premium, _ = svc.IsPremium(ctx)
	if premium {
		t.Error("still premium past end date")
	}
	current, err = svc.Current(ctx)
	if err != nil {
		t.Fatalf("Current failed: %v", err)
	}
	if current.IsActive {
		t.Error("subscription active past end date")
	}
}

func TestLimits(t *testing.T) {
	st := testStore(t)
	now := time.Date(2024, time.March, 4, 11, 0, 0, 0, time.UTC)
	svc := testService(t, st, &now)
	ctx := context.Background()

	limits, err := svc.Limits(ctx)
	if err != nil {
		t.Fatalf("Limits failed: %v", err)
	}
	if limits != FreeLimits {
		t.Errorf("free limits = %+v", limits)
	}

	if _, err := svc.Subscribe(ctx, "premium_monthly"); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	limits, _ = svc.Limits(ctx)
	if limits != PremiumLimits {
		t.Errorf("premium limits = %+v", limits)
	}
}

func TestAllowTrade_FreeTierDailyLimit(t *testing.T) {
	st := testStore(t)
	now := time.Date(2024, time.March, 4, 11, 0, 0, 0, time.UTC)
	svc := testService(t, st, &now)
	ctx := context.Background()

	for i := 0; i < FreeLimits.TradesPerDay; i++ {
		if err := svc.AllowTrade(ctx); err != nil {
			t.Fatalf("trade %d rejected: %v", i+1, err)
		}
		if err := svc.RecordTrade(ctx); err != nil {
			t.Fatalf("recording trade %d: %v", i+1, err)
		}
	}

	if err := svc.AllowTrade(ctx); !apperrors.Is(err, apperrors.ErrDailyLimitExceeded) {
		t.Errorf("expected daily limit error, got %v", err)
	}

	// The counter is per calendar day.
	now = now.AddDate(0, 0, 1)
	if err := svc.AllowTrade(ctx); err != nil {
		t.Errorf("next-day trade rejected: %v", err)
	}
}

// A quota check that is not followed by an executed trade must not burn
// a credit, so orders rejected by validation leave the quota intact.
func TestAllowTrade_CheckDoesNotConsume(t *testing.T) {
	st := testStore(t)
	now := time.Date(2024, time.March, 4, 11, 0, 0, 0, time.UTC)
	svc := testService(t, st, &now)
	ctx := context.Background()

	for i := 0; i < FreeLimits.TradesPerDay*2; i++ {
		if err := svc.AllowTrade(ctx); err != nil {
			t.Fatalf("check %d rejected: %v", i+1, err)
		}
	}

	if err := svc.RecordTrade(ctx); err != nil {
		t.Fatalf("RecordTrade failed: %v", err)
	}
	used, err := st.GetUsage(ctx, UsageTrades, now)
	if err != nil {
		t.Fatalf("GetUsage failed: %v", err)
	}
	if used != 1 {
		t.Errorf("usage = %d, want 1", used)
	}
}

func TestAllowTrade_PremiumUnlimited(t *testing.T) {
	st := testStore(t)
	now := time.Date(2024, time.March, 4, 11, 0, 0, 0, time.UTC)
	svc := testService(t, st, &now)
	ctx := context.Background()

	if _, err := svc.Subscribe(ctx, "premium_monthly"); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	for i := 0; i < FreeLimits.TradesPerDay*3; i++ {
		if err := svc.AllowTrade(ctx); err != nil {
			t.Fatalf("premium trade %d rejected: %v", i+1, err)
		}
	}
}

func TestAllowWatchlistAdd(t *testing.T) {
	st := testStore(t)
	now := time.Date(2024, time.March, 4, 11, 0, 0, 0, time.UTC)
	svc := testService(t, st, &now)
	ctx := context.Background()

	if err := svc.AllowWatchlistAdd(ctx, FreeLimits.WatchlistLimit-1); err != nil {
		t.Errorf("add below limit rejected: %v", err)
	}
	if err := svc.AllowWatchlistAdd(ctx, FreeLimits.WatchlistLimit); !apperrors.Is(err, apperrors.ErrDailyLimitExceeded) {
		t.Errorf("add at limit allowed: %v", err)
	}

	if _, err := svc.Subscribe(ctx, "premium_monthly"); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := svc.AllowWatchlistAdd(ctx, 500); err != nil {
		t.Errorf("premium watchlist add rejected: %v", err)
	}
}
