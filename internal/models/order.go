package models

import "time"

// TradeOrder represents a user's trading intent before execution.
// Expiry and Strike are zero-valued for futures and cash orders.
type TradeOrder struct {
	Symbol     string
	Side       OrderSide
	Instrument Instrument
	Quantity   int
	Price      float64
	OrderType  OrderType
	Expiry     time.Time
	Strike     float64
}

// Value returns the notional value of the order.
func (o TradeOrder) Value() float64 {
	return float64(o.Quantity) * o.Price
}
