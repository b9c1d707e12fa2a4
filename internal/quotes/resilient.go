package quotes

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"virtual-trader/internal/models"
	"virtual-trader/internal/resilience"
	"virtual-trader/pkg/utils"
)

// ResilientSource wraps a Source and absorbs upstream failures into mock
// quotes. Callers that must never see a quote failure wrap their source in
// this type; the degradation is recorded only in logs. A circuit breaker
// short-circuits to the fallback while the upstream is known to be down.
type ResilientSource struct {
	upstream Source
	fallback *MockSource
	breaker  *resilience.CircuitBreaker
	retry    utils.RetryConfig
	logger   zerolog.Logger
}

// NewResilientSource creates a source that falls back to mock data when the
// upstream fails.
func NewResilientSource(upstream Source, fallback *MockSource, logger zerolog.Logger) *ResilientSource {
	if fallback == nil {
		fallback = NewMockSource(nil)
	}
	return &ResilientSource{
		upstream: upstream,
		fallback: fallback,
		breaker:  resilience.NewCircuitBreaker("quotes", resilience.DefaultCircuitBreakerConfig()),
		retry:    utils.DefaultRetryConfig(),
		logger:   logger,
	}
}

// GetQuote fetches a quote from the upstream, retrying transient failures,
// and degrades to a mock quote if all attempts fail. It never returns an error.
func (r *ResilientSource) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if r.upstream != nil {
		quote, err := resilience.ExecuteWithResult(r.breaker, ctx, func() (*models.Quote, error) {
			return utils.RetryWithResult(ctx, r.retry, func() (*models.Quote, error) {
				return r.upstream.GetQuote(ctx, symbol)
			})
		})
		if err == nil {
			return quote, nil
		}
		evt := r.logger.Warn().Err(err).Str("symbol", symbol)
		if errors.Is(err, resilience.ErrCircuitOpen) {
			evt.Msg("Quote circuit open, serving mock data")
		} else {
			evt.Msg("Quote fetch failed, falling back to mock data")
		}
	}

	return r.fallback.GetQuote(ctx, symbol)
}

var _ Source = (*ResilientSource)(nil)
