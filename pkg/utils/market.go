package utils

import (
	"time"

	"virtual-trader/internal/models"
)

// IndiaLocation is the timezone for Indian markets.
var IndiaLocation *time.Location

func init() {
	var err error
	IndiaLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback to UTC+5:30
		IndiaLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// Market session boundaries in minutes from midnight IST.
const (
	preOpenStartMins = 9 * 60        // 09:00
	marketOpenMins   = 9*60 + 15     // 09:15
	marketCloseMins  = 15*60 + 30    // 15:30
)

// MarketStatusAt returns the market status at the given instant.
func MarketStatusAt(now time.Time) models.MarketStatus {
	t := now.In(IndiaLocation)

	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return models.MarketClosed
	}

	mins := t.Hour()*60 + t.Minute()

	if mins >= preOpenStartMins && mins < marketOpenMins {
		return models.MarketPreOpen
	}
	if mins >= marketOpenMins && mins <= marketCloseMins {
		return models.MarketOpen
	}

	return models.MarketClosed
}

// IsMarketOpen reports whether the market is open at the given instant.
// This gates display only; order execution never consults it.
func IsMarketOpen(now time.Time) bool {
	return MarketStatusAt(now) == models.MarketOpen
}

// GetMarketStatus returns the current market status.
func GetMarketStatus() models.MarketStatus {
	return MarketStatusAt(time.Now())
}

// NextMarketOpen returns the next market opening time after the given instant.
func NextMarketOpen(now time.Time) time.Time {
	t := now.In(IndiaLocation)

	next := time.Date(t.Year(), t.Month(), t.Day(), 9, 15, 0, 0, IndiaLocation)
	if !t.Before(next) {
		next = next.AddDate(0, 0, 1)
	}
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// MarketCloseFor returns the market close time for the given instant's day.
func MarketCloseFor(now time.Time) time.Time {
	t := now.In(IndiaLocation)
	return time.Date(t.Year(), t.Month(), t.Day(), 15, 30, 0, 0, IndiaLocation)
}
