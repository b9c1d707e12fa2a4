// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	apperrors "virtual-trader/internal/errors"
	"virtual-trader/internal/models"
)

// SQLiteStore implements DataStore using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ DataStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite-based data store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Named JSON documents (portfolio snapshot, subscription state)
	CREATE TABLE IF NOT EXISTS documents (
		name TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Trades table for executed orders
	CREATE TABLE IF NOT EXISTS trades (
		id TEXT PRIMARY KEY,
		timestamp DATETIME NOT NULL,
		symbol TEXT NOT NULL,
		side TEXT NOT NULL,
		instrument TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		price REAL NOT NULL,
		strike REAL,
		expiry DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Watchlist table
	CREATE TABLE IF NOT EXISTS watchlist (
		symbol TEXT PRIMARY KEY,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- Alerts table
	CREATE TABLE IF NOT EXISTS alerts (
		id TEXT PRIMARY KEY,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		symbol TEXT,
		timestamp DATETIME NOT NULL,
		is_read INTEGER DEFAULT 0
	);

	-- Daily feature usage counters
	CREATE TABLE IF NOT EXISTS usage_counters (
		feature TEXT NOT NULL,
		day DATE NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (feature, day)
	);

	CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
	CREATE INDEX IF NOT EXISTS idx_trades_timestamp ON trades(timestamp);
	CREATE INDEX IF NOT EXISTS idx_alerts_read ON alerts(is_read);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ============================================================================
// Document Methods
// ============================================================================

// GetDocument loads a named JSON document into out.
func (s *SQLiteStore) GetDocument(ctx context.Context, name string, out interface{}) error {
	var body string
	err := s.db.QueryRowContext(ctx, `
		SELECT body FROM documents WHERE name = ?
	`, name).Scan(&body)
	if err == sql.ErrNoRows {
		return apperrors.NewDataError("document", name, "not found", apperrors.ErrDataNotFound)
	}
	if err != nil {
		return apperrors.NewDataError("document", name, "query failed", err)
	}

	if err := json.Unmarshal([]byte(body), out); err != nil {
		return apperrors.NewDataError("document", name, "corrupt document", err)
	}
	return nil
}

// SetDocument stores a named JSON document, replacing any previous version.
func (s *SQLiteStore) SetDocument(ctx context.Context, name string, doc interface{}) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return apperrors.NewDataError("document", name, "marshal failed", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO documents (name, body, updated_at) VALUES (?, ?, ?)
	`, name, string(body), time.Now())
	if err != nil {
		return apperrors.NewDataError("document", name, "write failed", err)
	}
	return nil
}

// DeleteDocument removes a named document. Missing documents are not an error.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return apperrors.NewDataError("document", name, "delete failed", err)
	}
	return nil
}

// ============================================================================
// Trades Methods
// ============================================================================

// SaveTrade appends a trade to the history.
func (s *SQLiteStore) SaveTrade(ctx context.Context, trade *models.Trade) error {
	var expiry interface{}
	if !trade.Expiry.IsZero() {
		expiry = trade.Expiry
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (id, timestamp, symbol, side, instrument, quantity, price, strike, expiry)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, trade.ID, trade.Timestamp, trade.Symbol, trade.Side, trade.Instrument, trade.Quantity, trade.Price, trade.Strike, expiry)
	if err != nil {
		return apperrors.NewDataError("trade", trade.ID, "write failed", err)
	}
	return nil
}

// GetTrades retrieves trades matching the filter, newest first.
func (s *SQLiteStore) GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	query := "SELECT id, timestamp, symbol, side, instrument, quantity, price, strike, expiry FROM trades WHERE 1=1"
	args := []interface{}{}

	if filter.Symbol != "" {
		query += " AND symbol = ?"
		args = append(args, filter.Symbol)
	}
	if filter.Side != "" {
		query += " AND side = ?"
		args = append(args, filter.Side)
	}
	if !filter.StartDate.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.StartDate)
	}
	if !filter.EndDate.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.EndDate)
	}

	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewDataError("trade", filter.Symbol, "query failed", err)
	}
	defer rows.Close()

	var trades []models.Trade
	for rows.Next() {
		var t models.Trade
		var strike sql.NullFloat64
		var expiry sql.NullTime

		if err := rows.Scan(&t.ID, &t.Timestamp, &t.Symbol, &t.Side, &t.Instrument, &t.Quantity, &t.Price, &strike, &expiry); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		if strike.Valid {
			t.Strike = strike.Float64
		}
		if expiry.Valid {
			t.Expiry = expiry.Time
		}
		trades = append(trades, t)
	}

	return trades, rows.Err()
}

// CountTradesSince counts trades placed at or after the given time.
func (s *SQLiteStore) CountTradesSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM trades WHERE timestamp >= ?
	`, since).Scan(&count)
	if err != nil {
		return 0, apperrors.NewDataError("trade", "", "count failed", err)
	}
	return count, nil
}

// DeleteAllTrades clears the trade history. Used by portfolio reset.
func (s *SQLiteStore) DeleteAllTrades(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM trades`)
	if err != nil {
		return apperrors.NewDataError("trade", "", "delete failed", err)
	}
	return nil
}

// ============================================================================
// Watchlist Methods
// ============================================================================

// AddToWatchlist adds a symbol to the watchlist. Duplicates are ignored.
func (s *SQLiteStore) AddToWatchlist(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO watchlist (symbol) VALUES (?)
	`, symbol)
	if err != nil {
		return apperrors.NewDataError("watchlist", symbol, "write failed", err)
	}
	return nil
}

// RemoveFromWatchlist removes a symbol from the watchlist.
func (s *SQLiteStore) RemoveFromWatchlist(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM watchlist WHERE symbol = ?
	`, symbol)
	if err != nil {
		return apperrors.NewDataError("watchlist", symbol, "delete failed", err)
	}
	return nil
}

// GetWatchlist retrieves watchlist symbols in insertion order.
func (s *SQLiteStore) GetWatchlist(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT symbol FROM watchlist ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, apperrors.NewDataError("watchlist", "", "query failed", err)
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols = append(symbols, symbol)
	}

	return symbols, rows.Err()
}

// ============================================================================
// Alerts Methods
// ============================================================================

// SaveAlert saves an alert to the database.
func (s *SQLiteStore) SaveAlert(ctx context.Context, alert *models.Alert) error {
	isRead := 0
	if alert.IsRead {
		isRead = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO alerts (id, type, title, message, symbol, timestamp, is_read)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, alert.ID, alert.Type, alert.Title, alert.Message, alert.Symbol, alert.Timestamp, isRead)
	if err != nil {
		return apperrors.NewDataError("alert", alert.ID, "write failed", err)
	}
	return nil
}

// GetAlerts retrieves alerts, newest first. With unreadOnly, read alerts
// are filtered out.
func (s *SQLiteStore) GetAlerts(ctx context.Context, unreadOnly bool) ([]models.Alert, error) {
	query := `SELECT id, type, title, message, symbol, timestamp, is_read FROM alerts`
	if unreadOnly {
		query += ` WHERE is_read = 0`
	}
	query += ` ORDER BY timestamp DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.NewDataError("alert", "", "query failed", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		var isRead int
		if err := rows.Scan(&a.ID, &a.Type, &a.Title, &a.Message, &a.Symbol, &a.Timestamp, &isRead); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.IsRead = isRead == 1
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// MarkAlertRead marks an alert as read.
func (s *SQLiteStore) MarkAlertRead(ctx context.Context, alertID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE alerts SET is_read = 1 WHERE id = ?
	`, alertID)
	if err != nil {
		return apperrors.NewDataError("alert", alertID, "update failed", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperrors.NewDataError("alert", alertID, "not found", apperrors.ErrDataNotFound)
	}

	return nil
}

// ============================================================================
// Usage Counter Methods
// ============================================================================

// IncrementUsage bumps the counter for a feature on the given day and
// returns the new count.
func (s *SQLiteStore) IncrementUsage(ctx context.Context, feature string, day time.Time) (int, error) {
	dayKey := day.Format("2006-01-02")

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO usage_counters (feature, day, count) VALUES (?, ?, 1)
		ON CONFLICT(feature, day) DO UPDATE SET count = count + 1
	`, feature, dayKey)
	if err != nil {
		return 0, apperrors.NewDataError("usage", feature, "increment failed", err)
	}

	return s.GetUsage(ctx, feature, day)
}

// GetUsage returns the counter for a feature on the given day.
func (s *SQLiteStore) GetUsage(ctx context.Context, feature string, day time.Time) (int, error) {
	dayKey := day.Format("2006-01-02")

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT count FROM usage_counters WHERE feature = ? AND day = ?
	`, feature, dayKey).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.NewDataError("usage", feature, "query failed", err)
	}
	return count, nil
}
