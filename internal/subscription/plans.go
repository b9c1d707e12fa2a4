package subscription

import "virtual-trader/internal/models"

// Premium plan catalog. Prices are in INR.
var plans = []models.SubscriptionPlan{
	{
		ID:       "premium_monthly",
		Name:     "Premium Monthly",
		Price:    10,
		Duration: 30,
		Features: []string{
			"Real-time market data",
			"Unlimited trades",
			"Advanced options chain",
			"Unlimited watchlist",
			"Priority alerts",
		},
		IsPopular: true,
	},
	{
		ID:       "premium_quarterly",
		Name:     "Premium Quarterly",
		Price:    25,
		Duration: 90,
		Features: []string{
			"Everything in Monthly",
			"Strategy insights",
			"Detailed trade analytics",
		},
	},
	{
		ID:       "premium_yearly",
		Name:     "Premium Yearly",
		Price:    99,
		Duration: 365,
		Features: []string{
			"Everything in Quarterly",
			"Best value",
			"Early access to new features",
		},
	},
}

// FreeLimits are the usage limits for accounts without an active plan.
var FreeLimits = models.FeatureLimits{
	TradesPerDay:   5,
	WatchlistLimit: 10,
	DataDelayMins:  15,
}

// PremiumLimits lift all free-tier restrictions.
var PremiumLimits = models.FeatureLimits{
	TradesPerDay:   -1,
	WatchlistLimit: -1,
	DataDelayMins:  0,
}

// Plans returns the purchasable plan catalog.
func Plans() []models.SubscriptionPlan {
	out := make([]models.SubscriptionPlan, len(plans))
	copy(out, plans)
	return out
}

// PlanByID looks up a plan. Returns false when the ID is unknown.
func PlanByID(id string) (models.SubscriptionPlan, bool) {
	for _, p := range plans {
		if p.ID == id {
			return p, true
		}
	}
	return models.SubscriptionPlan{}, false
}
