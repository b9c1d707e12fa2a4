// Package subscription handles premium plans, feature gating, and the
// free-tier usage limits.
package subscription

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	apperrors "virtual-trader/internal/errors"
	"virtual-trader/internal/models"
	"virtual-trader/internal/store"
)

// Usage counter feature names.
const (
	UsageTrades = "trades"
)

// Service manages the user's subscription state.
type Service struct {
	store  store.DataStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a subscription service.
func NewService(st store.DataStore, logger zerolog.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: st, logger: logger, now: now}
}

// Current returns the stored subscription, deactivating it when expired.
// Returns nil when the user has never subscribed.
func (s *Service) Current(ctx context.Context) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	err := s.store.GetDocument(ctx, store.DocSubscription, &sub)
	if apperrors.Is(err, apperrors.ErrDataNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if sub.IsActive && s.now().After(sub.EndDate) {
		sub.IsActive = false
		if err := s.store.SetDocument(ctx, store.DocSubscription, sub); err != nil {
			return nil, err
		}
		s.logger.Info().Str("plan", sub.PlanID).Msg("Subscription expired")
	}

	return &sub, nil
}

// IsPremium reports whether an active plan is in effect.
func (s *Service) IsPremium(ctx context.Context) (bool, error) {
	sub, err := s.Current(ctx)
	if err != nil {
		return false, err
	}
	return sub != nil && sub.IsActive, nil
}

// Subscribe activates the given plan starting now. Payment is simulated;
// the purchase always succeeds for a known plan.
func (s *Service) Subscribe(ctx context.Context, planID string) (*models.UserSubscription, error) {
	plan, ok := PlanByID(planID)
	if !ok {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidPlan, "unknown plan %q", planID)
	}

	start := s.now()
	sub := models.UserSubscription{
		PlanID:    plan.ID,
		StartDate: start,
		EndDate:   start.AddDate(0, 0, plan.Duration),
		IsActive:  true,
		AutoRenew: true,
	}

	if err := s.store.SetDocument(ctx, store.DocSubscription, sub); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("plan", plan.ID).
		Float64("price", plan.Price).
		Time("ends", sub.EndDate).
		Msg("Subscription activated")

	return &sub, nil
}

// Cancel turns off auto-renewal. The plan stays active until its end
// date; Current deactivates it once the clock passes that.
func (s *Service) Cancel(ctx context.Context) error {
	sub, err := s.Current(ctx)
	if err != nil {
		return err
	}
	if sub == nil || !sub.IsActive {
		return apperrors.ErrNoActivePlan
	}

	sub.AutoRenew = false
	if err := s.store.SetDocument(ctx, store.DocSubscription, *sub); err != nil {
		return err
	}

	s.logger.Info().
		Str("plan", sub.PlanID).
		Time("ends", sub.EndDate).
		Msg("Subscription cancelled")
	return nil
}

// DaysRemaining returns whole days left on the active plan, zero when none.
func (s *Service) DaysRemaining(ctx context.Context) (int, error) {
	sub, err := s.Current(ctx)
	if err != nil {
		return 0, err
	}
	if sub == nil || !sub.IsActive {
		return 0, nil
	}

	remaining := sub.EndDate.Sub(s.now())
	if remaining <= 0 {
		return 0, nil
	}
	return int(math.Ceil(remaining.Hours() / 24)), nil
}

// Limits returns the feature limits for the current tier.
func (s *Service) Limits(ctx context.Context) (models.FeatureLimits, error) {
	premium, err := s.IsPremium(ctx)
	if err != nil {
		return models.FeatureLimits{}, err
	}
	if premium {
		return PremiumLimits, nil
	}
	return FreeLimits, nil
}

// AllowTrade reports whether today's quota has room for one more trade.
// Premium users are never limited. It does not consume quota; call
// RecordTrade once the order actually executes, so rejected orders do
// not burn a credit.
func (s *Service) AllowTrade(ctx context.Context) error {
	limits, err := s.Limits(ctx)
	if err != nil {
		return err
	}
	if limits.TradesPerDay < 0 {
		return nil
	}

	used, err := s.store.GetUsage(ctx, UsageTrades, s.now())
	if err != nil {
		return err
	}
	if used >= limits.TradesPerDay {
		return apperrors.Wrapf(apperrors.ErrDailyLimitExceeded,
			"free tier allows %d trades per day", limits.TradesPerDay)
	}
	return nil
}

// RecordTrade consumes one trade from today's quota.
func (s *Service) RecordTrade(ctx context.Context) error {
	limits, err := s.Limits(ctx)
	if err != nil {
		return err
	}
	if limits.TradesPerDay < 0 {
		return nil
	}

	_, err = s.store.IncrementUsage(ctx, UsageTrades, s.now())
	return err
}

// AllowWatchlistAdd checks the watchlist size against the tier limit.
func (s *Service) AllowWatchlistAdd(ctx context.Context, currentSize int) error {
	limits, err := s.Limits(ctx)
	if err != nil {
		return err
	}
	if limits.WatchlistLimit >= 0 && currentSize >= limits.WatchlistLimit {
		return apperrors.Wrapf(apperrors.ErrDailyLimitExceeded,
			"free tier watchlist is limited to %d symbols", limits.WatchlistLimit)
	}
	return nil
}
