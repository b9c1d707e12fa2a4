// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrInsufficientFunds  = errors.New("insufficient balance")
	ErrInvalidOrder       = errors.New("invalid order")
	ErrMarketClosed       = errors.New("market is closed")
	ErrQuoteUnavailable   = errors.New("quote unavailable")
	ErrSymbolNotFound     = errors.New("symbol not found")
	ErrDataNotFound       = errors.New("data not found")
	ErrDatabaseError      = errors.New("database error")
	ErrNoActivePlan       = errors.New("no active subscription found")
	ErrInvalidPlan        = errors.New("invalid plan selected")
	ErrDailyLimitExceeded = errors.New("daily limit exceeded")
	ErrConfigInvalid      = errors.New("invalid configuration")
)

// ValidationError represents an order validation failure. Validation errors
// are rejected before any state change.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// OrderError represents an error during order execution.
type OrderError struct {
	Symbol string
	Side   string
	Reason string
	Err    error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("order error %s %s: %s: %v", e.Side, e.Symbol, e.Reason, e.Err)
	}
	return fmt.Sprintf("order error %s %s: %s", e.Side, e.Symbol, e.Reason)
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError.
func NewOrderError(symbol, side, reason string, err error) *OrderError {
	return &OrderError{
		Symbol: symbol,
		Side:   side,
		Reason: reason,
		Err:    err,
	}
}

// QuoteError represents an error from the upstream quote provider. Chain
// generation absorbs these into the synthetic fallback; they are surfaced
// only through logs.
type QuoteError struct {
	Symbol     string
	StatusCode int
	Err        error
}

func (e *QuoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("quote error [%d] %s: %v", e.StatusCode, e.Symbol, e.Err)
	}
	return fmt.Sprintf("quote error %s: %v", e.Symbol, e.Err)
}

func (e *QuoteError) Unwrap() error {
	return e.Err
}

// NewQuoteError creates a new QuoteError.
func NewQuoteError(symbol string, statusCode int, err error) *QuoteError {
	return &QuoteError{
		Symbol:     symbol,
		StatusCode: statusCode,
		Err:        err,
	}
}

// DataError represents a persistence-related error.
type DataError struct {
	DataType string
	Key      string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Key, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Key, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, key, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Key:      key,
		Message:  message,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
