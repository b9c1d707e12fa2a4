package models

import (
	"fmt"
	"time"
)

// Trade represents an executed, immutable order. Trades are append-only;
// only a full portfolio reset clears the history.
type Trade struct {
	ID         string     `json:"id"`
	Symbol     string     `json:"symbol"`
	Side       OrderSide  `json:"side"`
	Instrument Instrument `json:"instrument"`
	Quantity   int        `json:"quantity"`
	Price      float64    `json:"price"`
	Timestamp  time.Time  `json:"timestamp"`
	Expiry     time.Time  `json:"expiry,omitempty"`
	Strike     float64    `json:"strike,omitempty"`
}

// PositionKey returns the key identifying the position this trade affects.
func (t Trade) PositionKey() string {
	expiry := ""
	if !t.Expiry.IsZero() {
		expiry = t.Expiry.Format("2006-01-02")
	}
	return fmt.Sprintf("%s|%s|%g|%s", t.Symbol, t.Instrument, t.Strike, expiry)
}

// Position represents the net open exposure for one instrument key.
// Positions are derived from trade history, never stored directly.
type Position struct {
	Symbol       string     `json:"symbol"`
	Instrument   Instrument `json:"instrument"`
	Quantity     int        `json:"quantity"`
	AvgPrice     float64    `json:"avg_price"`
	CurrentPrice float64    `json:"current_price"`
	PnL          float64    `json:"pnl"`
	PnLPercent   float64    `json:"pnl_percent"`
	Expiry       time.Time  `json:"expiry,omitempty"`
	Strike       float64    `json:"strike,omitempty"`
}

// Key returns the position's instrument key.
func (p Position) Key() string {
	expiry := ""
	if !p.Expiry.IsZero() {
		expiry = p.Expiry.Format("2006-01-02")
	}
	return fmt.Sprintf("%s|%s|%g|%s", p.Symbol, p.Instrument, p.Strike, expiry)
}

// Portfolio is the aggregate of balances, trade history, and derived positions.
type Portfolio struct {
	TotalBalance     float64    `json:"total_balance"`
	AvailableBalance float64    `json:"available_balance"`
	TotalPnL         float64    `json:"total_pnl"`
	DayPnL           float64    `json:"day_pnl"`
	Positions        []Position `json:"positions"`
	Trades           []Trade    `json:"trades"`
}
