package trading

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"virtual-trader/internal/models"
)

func optionTrade(side models.OrderSide, qty int, price float64) models.Trade {
	return models.Trade{
		Symbol:     "^NSEI",
		Side:       side,
		Instrument: models.InstrumentCall,
		Quantity:   qty,
		Price:      price,
		Strike:     19700,
		Expiry:     time.Date(2024, time.March, 7, 0, 0, 0, 0, time.UTC),
	}
}

func TestComputePositions_BuyAveraging(t *testing.T) {
	trades := []models.Trade{
		optionTrade(models.OrderSideBuy, 50, 45.60),
		optionTrade(models.OrderSideBuy, 50, 50.00),
	}

	positions := ComputePositions(trades)
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}

	pos := positions[0]
	if pos.Quantity != 100 {
		t.Errorf("quantity = %d, want 100", pos.Quantity)
	}
	if math.Abs(pos.AvgPrice-47.80) > 1e-9 {
		t.Errorf("avg price = %g, want 47.80", pos.AvgPrice)
	}
}

func TestComputePositions_SellKeepsAverage(t *testing.T) {
	trades := []models.Trade{
		optionTrade(models.OrderSideBuy, 100, 47.80),
		optionTrade(models.OrderSideSell, 50, 60.00),
	}

	positions := ComputePositions(trades)
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}
	if positions[0].Quantity != 50 {
		t.Errorf("quantity = %d, want 50", positions[0].Quantity)
	}
	if positions[0].AvgPrice != 47.80 {
		t.Errorf("SELL changed avg price: %g", positions[0].AvgPrice)
	}
}

func TestComputePositions_SellExhaustsPosition(t *testing.T) {
	trades := []models.Trade{
		optionTrade(models.OrderSideBuy, 50, 45.60),
		optionTrade(models.OrderSideSell, 50, 60.00),
	}

	if positions := ComputePositions(trades); len(positions) != 0 {
		t.Errorf("expected no open positions, got %d", len(positions))
	}
}

func TestComputePositions_SellWithoutPositionIsNoop(t *testing.T) {
	trades := []models.Trade{
		optionTrade(models.OrderSideSell, 50, 60.00),
	}

	if positions := ComputePositions(trades); len(positions) != 0 {
		t.Errorf("naked SELL opened a position: %d", len(positions))
	}
}

func TestComputePositions_DistinctKeys(t *testing.T) {
	ce := optionTrade(models.OrderSideBuy, 50, 45.60)
	pe := ce
	pe.Instrument = models.InstrumentPut
	otherStrike := ce
	otherStrike.Strike = 19800

	positions := ComputePositions([]models.Trade{ce, pe, otherStrike})
	if len(positions) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(positions))
	}
}

// Property: after any sequence of BUYs on one key, the position quantity is
// the sum of the trade quantities and the average price is the volume
// weighted mean of the trade prices.
func TestProperty_BuyFoldIsWeightedAverage(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	lotsGen := gen.SliceOfN(5, gen.IntRange(1, 10))
	pricesGen := gen.SliceOfN(5, gen.Float64Range(1, 500))

	properties.Property("BUY fold yields weighted average price", prop.ForAll(
		func(lots []int, prices []float64) bool {
			var trades []models.Trade
			var totalQty int
			var totalValue float64

			for i, lot := range lots {
				qty := lot * 50
				trades = append(trades, optionTrade(models.OrderSideBuy, qty, prices[i]))
				totalQty += qty
				totalValue += float64(qty) * prices[i]
			}

			positions := ComputePositions(trades)
			if len(positions) != 1 {
				t.Logf("FAILED: expected 1 position, got %d", len(positions))
				return false
			}

			pos := positions[0]
			if pos.Quantity != totalQty {
				t.Logf("FAILED: quantity=%d, want %d", pos.Quantity, totalQty)
				return false
			}

			expectedAvg := totalValue / float64(totalQty)
			if math.Abs(pos.AvgPrice-expectedAvg) > 1e-6 {
				t.Logf("FAILED: avg=%.6f, want %.6f", pos.AvgPrice, expectedAvg)
				return false
			}

			return true
		},
		lotsGen,
		pricesGen,
	))

	properties.TestingRun(t)
}

// Property: the fold is deterministic; recomputing the same history yields
// identical positions.
func TestProperty_FoldIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	sidesGen := gen.SliceOfN(8, gen.Bool())
	lotsGen := gen.SliceOfN(8, gen.IntRange(1, 5))

	properties.Property("Recomputing the same history yields identical positions", prop.ForAll(
		func(buys []bool, lots []int) bool {
			var trades []models.Trade
			for i, isBuy := range buys {
				side := models.OrderSideSell
				if isBuy {
					side = models.OrderSideBuy
				}
				trades = append(trades, optionTrade(side, lots[i]*50, float64(10+i)))
			}

			first := ComputePositions(trades)
			second := ComputePositions(trades)

			if len(first) != len(second) {
				t.Logf("FAILED: lengths differ: %d vs %d", len(first), len(second))
				return false
			}
			for i := range first {
				if first[i] != second[i] {
					t.Logf("FAILED: position %d differs: %+v vs %+v", i, first[i], second[i])
					return false
				}
			}

			return true
		},
		sidesGen,
		lotsGen,
	))

	properties.TestingRun(t)
}

func TestUpdatePosition(t *testing.T) {
	pos := models.Position{
		Symbol:     "^NSEI",
		Instrument: models.InstrumentCall,
		Quantity:   50,
		AvgPrice:   45.60,
	}

	updated := UpdatePosition(pos, 50.00)

	if updated.CurrentPrice != 50.00 {
		t.Errorf("current price = %g, want 50", updated.CurrentPrice)
	}
	wantPnL := (50.00 - 45.60) * 50
	if math.Abs(updated.PnL-wantPnL) > 1e-9 {
		t.Errorf("pnl = %g, want %g", updated.PnL, wantPnL)
	}
	wantPct := (50.00 - 45.60) / 45.60 * 100
	if math.Abs(updated.PnLPercent-wantPct) > 1e-9 {
		t.Errorf("pnl%% = %g, want %g", updated.PnLPercent, wantPct)
	}
	if pos.CurrentPrice != 0 {
		t.Error("UpdatePosition mutated its argument")
	}
}

func TestTotalPnL(t *testing.T) {
	positions := []models.Position{
		{PnL: 220},
		{PnL: -120.5},
	}
	if got := TotalPnL(positions); math.Abs(got-99.5) > 1e-9 {
		t.Errorf("total pnl = %g, want 99.5", got)
	}
}
