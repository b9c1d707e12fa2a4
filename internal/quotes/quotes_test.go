package quotes

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/rs/zerolog"

	apperrors "virtual-trader/internal/errors"
	"virtual-trader/internal/models"
)

// Property: mock quotes stay within ±5% of the symbol's base price and keep
// OHLC relationships intact.
func TestProperty_MockQuoteBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"^NSEI", "^NSEBANK", "RELIANCE.NS", "UNKNOWN.NS"}
	symbolGen := gen.IntRange(0, len(symbols)-1)
	seedGen := gen.Int64()

	properties.Property("Mock quote stays within 5% of base price", prop.ForAll(
		func(symbolIdx int, seed int64) bool {
			symbol := symbols[symbolIdx]
			src := NewMockSource(rand.New(rand.NewSource(seed)))

			quote, err := src.GetQuote(context.Background(), symbol)
			if err != nil {
				t.Logf("Mock source failed: %v", err)
				return false
			}

			base := BasePrice(symbol)
			if math.Abs(quote.LTP-base) > base*0.025+1e-9 {
				t.Logf("LTP %g too far from base %g", quote.LTP, base)
				return false
			}
			if quote.High < quote.LTP && quote.High < quote.Open {
				t.Logf("High %g below LTP %g and open %g", quote.High, quote.LTP, quote.Open)
				return false
			}
			if quote.Low > quote.LTP && quote.Low > quote.Open {
				t.Logf("Low %g above LTP %g and open %g", quote.Low, quote.LTP, quote.Open)
				return false
			}
			if quote.PreviousClose != base {
				t.Logf("Previous close %g, want base %g", quote.PreviousClose, base)
				return false
			}

			return true
		},
		symbolGen,
		seedGen,
	))

	properties.TestingRun(t)
}

func TestFinnhubClient_GetQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quote" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("token") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"c":19650.5,"d":120.3,"dp":0.62,"h":19700,"l":19500,"o":19530,"pc":19530.2,"t":1709545500}`))
	}))
	defer server.Close()

	client := NewFinnhubClient(FinnhubConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Logger:  zerolog.Nop(),
	})

	quote, err := client.GetQuote(context.Background(), "^NSEI")
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if quote.LTP != 19650.5 || quote.PreviousClose != 19530.2 {
		t.Errorf("quote = %+v", quote)
	}
	if quote.Timestamp.Unix() != 1709545500 {
		t.Errorf("timestamp = %v", quote.Timestamp)
	}
}

func TestFinnhubClient_UnknownSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"c":0,"d":0,"dp":0,"h":0,"l":0,"o":0,"pc":0,"t":0}`))
	}))
	defer server.Close()

	client := NewFinnhubClient(FinnhubConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Logger:  zerolog.Nop(),
	})

	_, err := client.GetQuote(context.Background(), "NOSUCH")
	if !apperrors.Is(err, apperrors.ErrSymbolNotFound) {
		t.Errorf("expected ErrSymbolNotFound, got %v", err)
	}
}

func TestFinnhubClient_GetCompanyProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/stock/profile2" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"country":"IN","currency":"INR","exchange":"NSE","name":"Reliance Industries","ticker":"RELIANCE.NS","marketCapitalization":1680000,"finnhubIndustry":"Energy"}`))
	}))
	defer server.Close()

	client := NewFinnhubClient(FinnhubConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Logger:  zerolog.Nop(),
	})

	profile, err := client.GetCompanyProfile(context.Background(), "RELIANCE.NS")
	if err != nil {
		t.Fatalf("GetCompanyProfile failed: %v", err)
	}
	if profile.Name != "Reliance Industries" || profile.Exchange != "NSE" {
		t.Errorf("profile = %+v", profile)
	}
	if profile.Industry != "Energy" {
		t.Errorf("industry = %q", profile.Industry)
	}
}

func TestFinnhubClient_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewFinnhubClient(FinnhubConfig{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Logger:  zerolog.Nop(),
	})

	_, err := client.GetQuote(context.Background(), "^NSEI")
	if err == nil {
		t.Fatal("expected error on 429")
	}
	var qerr *apperrors.QuoteError
	if !apperrors.As(err, &qerr) || qerr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected quote error with status 429, got %v", err)
	}
}

// failingSource always errors.
type failingSource struct {
	calls int
}

func (f *failingSource) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func TestResilientSource_FallsBackToMock(t *testing.T) {
	upstream := &failingSource{}
	src := NewResilientSource(upstream, NewMockSource(rand.New(rand.NewSource(1))), zerolog.Nop())

	quote, err := src.GetQuote(context.Background(), "^NSEI")
	if err != nil {
		t.Fatalf("resilient source returned error: %v", err)
	}
	if quote == nil || quote.Symbol != "^NSEI" {
		t.Fatalf("quote = %+v", quote)
	}
	if upstream.calls == 0 {
		t.Error("upstream never attempted")
	}
}

func TestResilientSource_PrefersUpstream(t *testing.T) {
	upstream := &stubQuoteSource{price: 12345}
	src := NewResilientSource(upstream, NewMockSource(rand.New(rand.NewSource(1))), zerolog.Nop())

	quote, err := src.GetQuote(context.Background(), "^NSEI")
	if err != nil {
		t.Fatalf("GetQuote failed: %v", err)
	}
	if quote.LTP != 12345 {
		t.Errorf("upstream quote not used: %+v", quote)
	}
}

// Repeated failures open the circuit; subsequent calls skip the upstream
// entirely and serve mock data immediately.
func TestResilientSource_CircuitShortCircuits(t *testing.T) {
	upstream := &failingSource{}
	src := NewResilientSource(upstream, NewMockSource(rand.New(rand.NewSource(1))), zerolog.Nop())
	ctx := context.Background()

	// Each call is one breaker failure after retries are exhausted.
	for i := 0; i < 5; i++ {
		if _, err := src.GetQuote(ctx, "^NSEI"); err != nil {
			t.Fatalf("call %d returned error: %v", i, err)
		}
	}

	before := upstream.calls
	if _, err := src.GetQuote(ctx, "^NSEI"); err != nil {
		t.Fatalf("short-circuited call returned error: %v", err)
	}
	if upstream.calls != before {
		t.Errorf("upstream still attempted with open circuit: %d -> %d", before, upstream.calls)
	}
}

type stubQuoteSource struct {
	price float64
}

func (s *stubQuoteSource) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	return &models.Quote{Symbol: symbol, LTP: s.price}, nil
}
