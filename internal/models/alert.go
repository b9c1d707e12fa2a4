package models

import "time"

// AlertType classifies an alert.
type AlertType string

const (
	AlertOpportunity AlertType = "OPPORTUNITY"
	AlertTarget      AlertType = "TARGET"
	AlertStopLoss    AlertType = "STOP_LOSS"
)

// Alert represents a trading alert shown to the user.
type Alert struct {
	ID        string
	Type      AlertType
	Title     string
	Message   string
	Symbol    string
	Timestamp time.Time
	IsRead    bool
}
