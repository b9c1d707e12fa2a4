package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errUpstream = errors.New("upstream failed")

func failing() (int, error) { return 0, errUpstream }
func succeeding() (int, error) { return 42, nil }

func testBreaker(timeout time.Duration) *CircuitBreaker {
	return NewCircuitBreaker("test", CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 2,
		Timeout:          timeout,
	})
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := testBreaker(time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := ExecuteWithResult(cb, ctx, failing); !errors.Is(err, errUpstream) {
			t.Fatalf("call %d: %v", i, err)
		}
	}

	if cb.State() != CircuitOpen {
		t.Fatalf("state = %s, want OPEN", cb.State())
	}

	// Open circuit rejects without invoking the function.
	called := false
	_, err := ExecuteWithResult(cb, ctx, func() (int, error) {
		called = true
		return 0, nil
	})
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("function invoked while circuit open")
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := testBreaker(time.Minute)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ExecuteWithResult(cb, ctx, failing)
	}
	if _, err := ExecuteWithResult(cb, ctx, succeeding); err != nil {
		t.Fatalf("success call failed: %v", err)
	}
	for i := 0; i < 2; i++ {
		ExecuteWithResult(cb, ctx, failing)
	}

	if cb.State() != CircuitClosed {
		t.Errorf("state = %s, want CLOSED after interleaved success", cb.State())
	}
}

func TestCircuitBreaker_RecoversThroughHalfOpen(t *testing.T) {
	cb := testBreaker(10 * time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ExecuteWithResult(cb, ctx, failing)
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %s, want OPEN", cb.State())
	}

	time.Sleep(20 * time.Millisecond)

	// First probe after the timeout goes through.
	v, err := ExecuteWithResult(cb, ctx, succeeding)
	if err != nil || v != 42 {
		t.Fatalf("probe call: v=%d err=%v", v, err)
	}
	if cb.State() != CircuitHalfOpen {
		t.Fatalf("state = %s, want HALF_OPEN", cb.State())
	}

	// Second success closes the circuit.
	if _, err := ExecuteWithResult(cb, ctx, succeeding); err != nil {
		t.Fatalf("second probe failed: %v", err)
	}
	if cb.State() != CircuitClosed {
		t.Errorf("state = %s, want CLOSED", cb.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := testBreaker(10 * time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ExecuteWithResult(cb, ctx, failing)
	}
	time.Sleep(20 * time.Millisecond)

	ExecuteWithResult(cb, ctx, failing)

	if cb.State() != CircuitOpen {
		t.Errorf("state = %s, want OPEN after half-open failure", cb.State())
	}
}

func TestCircuitBreaker_ContextCancellation(t *testing.T) {
	cb := testBreaker(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	block := make(chan struct{})
	defer close(block)

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := ExecuteWithResult(cb, ctx, func() (int, error) {
		<-block
		return 0, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := testBreaker(time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ExecuteWithResult(cb, ctx, failing)
	}
	if cb.State() != CircuitOpen {
		t.Fatalf("state = %s, want OPEN", cb.State())
	}

	cb.Reset()
	if cb.State() != CircuitClosed {
		t.Errorf("state = %s, want CLOSED after reset", cb.State())
	}
	if _, err := ExecuteWithResult(cb, ctx, succeeding); err != nil {
		t.Errorf("call after reset failed: %v", err)
	}
}
