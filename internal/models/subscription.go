package models

import "time"

// SubscriptionPlan describes one purchasable premium plan.
type SubscriptionPlan struct {
	ID        string
	Name      string
	Price     float64
	Duration  int // days
	Features  []string
	IsPopular bool
}

// UserSubscription is the user's current subscription state.
type UserSubscription struct {
	PlanID    string    `json:"plan_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsActive  bool      `json:"is_active"`
	AutoRenew bool      `json:"auto_renew"`
}

// FeatureLimits holds per-tier usage limits. A value of -1 means unlimited.
type FeatureLimits struct {
	TradesPerDay   int
	WatchlistLimit int
	DataDelayMins  int
}
