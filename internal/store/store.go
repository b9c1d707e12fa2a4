// Package store defines the persistence interface for the virtual trader.
package store

import (
	"context"
	"time"

	"virtual-trader/internal/models"
)

// Well-known document names for JSON blob storage.
const (
	DocPortfolio    = "portfolio"
	DocSubscription = "subscription"
)

// TradeFilter narrows trade history queries.
type TradeFilter struct {
	Symbol    string
	Side      models.OrderSide
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}

// DataStore is the interface for data persistence.
type DataStore interface {
	// Document storage for JSON blobs (portfolio, subscription state).
	GetDocument(ctx context.Context, name string, out interface{}) error
	SetDocument(ctx context.Context, name string, doc interface{}) error
	DeleteDocument(ctx context.Context, name string) error

	// Trade history.
	SaveTrade(ctx context.Context, trade *models.Trade) error
	GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)
	CountTradesSince(ctx context.Context, since time.Time) (int, error)
	DeleteAllTrades(ctx context.Context) error

	// Watchlist.
	AddToWatchlist(ctx context.Context, symbol string) error
	RemoveFromWatchlist(ctx context.Context, symbol string) error
	GetWatchlist(ctx context.Context) ([]string, error)

	// Alerts.
	SaveAlert(ctx context.Context, alert *models.Alert) error
	GetAlerts(ctx context.Context, unreadOnly bool) ([]models.Alert, error)
	MarkAlertRead(ctx context.Context, alertID string) error

	// Daily usage counters for subscription limits.
	IncrementUsage(ctx context.Context, feature string, day time.Time) (int, error)
	GetUsage(ctx context.Context, feature string, day time.Time) (int, error)

	Close() error
}
