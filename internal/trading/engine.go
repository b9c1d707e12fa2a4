// Package trading implements order execution and the trade-to-position ledger.
package trading

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "virtual-trader/internal/errors"
	"virtual-trader/internal/logging"
	"virtual-trader/internal/models"
	"virtual-trader/internal/options"
)

// FuturesMarginRate is the margin fraction for futures orders. Options
// require the full premium.
const FuturesMarginRate = 0.15

// Engine validates and executes trade orders. Execution is pure with respect
// to shared state: the caller appends the returned trade and recomputes
// balances and positions.
type Engine struct {
	now     func() time.Time
	lotSize func(string) int
	logger  zerolog.Logger
}

// EngineConfig holds dependencies for an Engine.
type EngineConfig struct {
	Now     func() time.Time
	LotSize func(string) int
	Logger  zerolog.Logger
}

// NewEngine creates a trading engine. Nil Now/LotSize fall back to the wall
// clock and the standard NSE lot size table.
func NewEngine(cfg EngineConfig) *Engine {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	lotSize := cfg.LotSize
	if lotSize == nil {
		lotSize = options.LotSize
	}
	return &Engine{
		now:     now,
		lotSize: lotSize,
		logger:  cfg.Logger,
	}
}

// ExecuteOrder validates an order against the available balance and returns
// the resulting trade. Validation failures return typed errors with no
// partial effects. The first failing check wins.
func (e *Engine) ExecuteOrder(order models.TradeOrder, availableBalance float64) (*models.Trade, error) {
	if err := e.validate(order, availableBalance); err != nil {
		return nil, err
	}

	trade := &models.Trade{
		ID:         newTradeID(),
		Symbol:     order.Symbol,
		Side:       order.Side,
		Instrument: order.Instrument,
		Quantity:   order.Quantity,
		Price:      order.Price,
		Timestamp:  e.now(),
		Expiry:     order.Expiry,
		Strike:     order.Strike,
	}

	logging.LogTrade(e.logger, trade.ID, trade.Symbol, string(trade.Side), trade.Quantity, trade.Price)
	return trade, nil
}

// validate applies the order checks in their documented order.
func (e *Engine) validate(order models.TradeOrder, availableBalance float64) error {
	if order.Quantity <= 0 {
		return apperrors.NewValidationError("quantity", order.Quantity, "quantity must be greater than 0")
	}
	if order.Price <= 0 {
		return apperrors.NewValidationError("price", order.Price, "price must be greater than 0")
	}
	if order.Side == models.OrderSideBuy && order.Value() > availableBalance {
		return apperrors.NewOrderError(order.Symbol, string(order.Side), "insufficient balance", apperrors.ErrInsufficientFunds)
	}
	if order.Instrument != models.InstrumentFutures {
		lot := e.lotSize(order.Symbol)
		if order.Quantity%lot != 0 {
			return apperrors.NewValidationError("quantity", order.Quantity,
				fmt.Sprintf("quantity must be a multiple of lot size (%d)", lot))
		}
	}
	return nil
}

// CalculateMargin returns the margin required for an order: a fraction of
// notional for futures, full premium for options.
func CalculateMargin(order models.TradeOrder) float64 {
	if order.Instrument == models.InstrumentFutures {
		return order.Value() * FuturesMarginRate
	}
	return order.Value()
}

// newTradeID generates a unique trade identifier.
func newTradeID() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "TRD" + id[:12]
}
