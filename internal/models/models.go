// Package models provides domain models for the virtual trading application.
package models

import (
	"time"
)

// OrderSide represents the side of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// OrderType represents the type of an order.
type OrderType string

const (
	OrderTypeMarket OrderType = "MARKET"
	OrderTypeLimit  OrderType = "LIMIT"
)

// Instrument represents the kind of tradeable instrument.
type Instrument string

const (
	InstrumentFutures Instrument = "FUTURES"
	InstrumentCall    Instrument = "CE"
	InstrumentPut     Instrument = "PE"
)

// MarketStatus represents the current market status.
type MarketStatus string

const (
	MarketOpen    MarketStatus = "OPEN"
	MarketPreOpen MarketStatus = "PRE_OPEN"
	MarketClosed  MarketStatus = "CLOSED"
)

// Quote represents a market quote for an underlying.
type Quote struct {
	Symbol        string
	LTP           float64
	Open          float64
	High          float64
	Low           float64
	PreviousClose float64
	Change        float64
	ChangePercent float64
	Timestamp     time.Time
}

// Stock represents a watchlist entry with its latest quote data.
type Stock struct {
	Symbol        string
	Name          string
	LTP           float64
	Change        float64
	ChangePercent float64
	Volume        int64
	OpenInterest  int64
}
