package trading

import (
	"sort"

	"virtual-trader/internal/models"
)

// ComputePositions folds an ordered trade history into the set of open
// positions. The fold is pure and deterministic: recomputing from the same
// history yields identical results.
//
// Keyed by symbol|instrument|strike|expiry:
//   - BUY on a new key opens a position at the trade price.
//   - BUY on an existing key raises quantity and recomputes the volume
//     weighted average price.
//   - SELL reduces quantity without touching the average price; a position
//     driven to zero or below is removed.
//   - SELL without an open position is a no-op.
func ComputePositions(trades []models.Trade) []models.Position {
	byKey := make(map[string]*models.Position)
	var order []string

	for _, trade := range trades {
		key := trade.PositionKey()
		pos, exists := byKey[key]

		if !exists {
			if trade.Side != models.OrderSideBuy {
				continue
			}
			byKey[key] = &models.Position{
				Symbol:       trade.Symbol,
				Instrument:   trade.Instrument,
				Quantity:     trade.Quantity,
				AvgPrice:     trade.Price,
				CurrentPrice: trade.Price,
				Expiry:       trade.Expiry,
				Strike:       trade.Strike,
			}
			order = append(order, key)
			continue
		}

		if trade.Side == models.OrderSideBuy {
			totalQty := pos.Quantity + trade.Quantity
			totalValue := float64(pos.Quantity)*pos.AvgPrice + float64(trade.Quantity)*trade.Price
			pos.Quantity = totalQty
			pos.AvgPrice = totalValue / float64(totalQty)
		} else {
			pos.Quantity -= trade.Quantity
			if pos.Quantity <= 0 {
				delete(byKey, key)
			}
		}
	}

	// A key can appear in order twice when a closed position is reopened.
	positions := make([]models.Position, 0, len(byKey))
	emitted := make(map[string]bool, len(byKey))
	for _, key := range order {
		if emitted[key] {
			continue
		}
		if pos, ok := byKey[key]; ok {
			emitted[key] = true
			positions = append(positions, *pos)
		}
	}
	return positions
}

// UpdatePosition returns a copy of the position revalued at currentPrice.
// Pure function, no side effects.
func UpdatePosition(pos models.Position, currentPrice float64) models.Position {
	diff := currentPrice - pos.AvgPrice
	pos.CurrentPrice = currentPrice
	pos.PnL = diff * float64(pos.Quantity)
	if pos.AvgPrice != 0 {
		pos.PnLPercent = (diff / pos.AvgPrice) * 100
	}
	return pos
}

// TotalPnL sums the P&L across positions.
func TotalPnL(positions []models.Position) float64 {
	var total float64
	for _, pos := range positions {
		total += pos.PnL
	}
	return total
}

// SortPositions orders positions by symbol, then instrument, strike, expiry.
// Used for stable display output.
func SortPositions(positions []models.Position) {
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Key() < positions[j].Key()
	})
}
