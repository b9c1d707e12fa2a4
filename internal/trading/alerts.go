package trading

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"virtual-trader/internal/models"
)

// Opportunity alert thresholds: a move of more than 15% of the previous
// price that would have produced at least 500 per lot.
const (
	opportunityMovePercent = 0.15
	opportunityMinProfit   = 500.0
)

// GenerateOpportunityAlert returns an alert when a contract has moved enough
// from previousPrice to flag a missed opportunity. Returns nil when the move
// is below the thresholds.
func GenerateOpportunityAlert(contract models.OptionContract, previousPrice float64, now time.Time) *models.Alert {
	priceDiff := contract.LTP - previousPrice
	profit := math.Abs(priceDiff * float64(contract.LotSize))

	if math.Abs(priceDiff) <= previousPrice*opportunityMovePercent || profit <= opportunityMinProfit {
		return nil
	}

	var message string
	if priceDiff > 0 {
		message = fmt.Sprintf("%s bought at ₹%.2f would now be worth ₹%.2f = ₹%.0f profit per lot",
			contract.Symbol, previousPrice, contract.LTP, profit)
	} else {
		message = fmt.Sprintf("%s sold at ₹%.2f would have avoided a drop to ₹%.2f = ₹%.0f saved per lot",
			contract.Symbol, previousPrice, contract.LTP, profit)
	}

	return &models.Alert{
		ID:        newAlertID(),
		Type:      models.AlertOpportunity,
		Title:     "Trading Opportunity",
		Message:   message,
		Symbol:    contract.Symbol,
		Timestamp: now,
	}
}

// newAlertID generates a unique alert identifier.
func newAlertID() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "ALT" + id[:12]
}
