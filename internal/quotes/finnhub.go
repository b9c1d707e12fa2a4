package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	apperrors "virtual-trader/internal/errors"
	"virtual-trader/internal/logging"
	"virtual-trader/internal/models"
)

// FinnhubClient fetches real-time quotes from the Finnhub REST API.
type FinnhubClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  zerolog.Logger
}

// FinnhubConfig holds configuration for the Finnhub client.
type FinnhubConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewFinnhubClient creates a new Finnhub quote client.
func NewFinnhubClient(cfg FinnhubConfig) *FinnhubClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://finnhub.io/api/v1"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &FinnhubClient{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		logger:  cfg.Logger,
	}
}

// finnhubQuote mirrors the Finnhub /quote response.
type finnhubQuote struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	ChangePercent float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

// GetQuote fetches a real-time quote for a symbol.
func (c *FinnhubClient) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	endpoint := fmt.Sprintf("%s/quote?symbol=%s&token=%s",
		c.baseURL, url.QueryEscape(symbol), c.apiKey)

	start := time.Now()
	var fq finnhubQuote
	err := c.getJSON(ctx, endpoint, &fq)
	logging.LogAPICall(c.logger, http.MethodGet, "/quote", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	// Finnhub signals unknown symbols with an all-zero payload.
	if fq.Current == 0 && fq.Timestamp == 0 {
		return nil, apperrors.NewQuoteError(symbol, 0, apperrors.ErrSymbolNotFound)
	}

	return &models.Quote{
		Symbol:        symbol,
		LTP:           fq.Current,
		Open:          fq.Open,
		High:          fq.High,
		Low:           fq.Low,
		PreviousClose: fq.PreviousClose,
		Change:        fq.Change,
		ChangePercent: fq.ChangePercent,
		Timestamp:     time.Unix(fq.Timestamp, 0),
	}, nil
}

// CompanyProfile holds basic company details from Finnhub.
type CompanyProfile struct {
	Country  string  `json:"country"`
	Currency string  `json:"currency"`
	Exchange string  `json:"exchange"`
	Name     string  `json:"name"`
	Ticker   string  `json:"ticker"`
	MarketCap float64 `json:"marketCapitalization"`
	Industry string  `json:"finnhubIndustry"`
}

// GetCompanyProfile fetches the company profile for a symbol.
func (c *FinnhubClient) GetCompanyProfile(ctx context.Context, symbol string) (*CompanyProfile, error) {
	endpoint := fmt.Sprintf("%s/stock/profile2?symbol=%s&token=%s",
		c.baseURL, url.QueryEscape(symbol), c.apiKey)

	start := time.Now()
	var profile CompanyProfile
	err := c.getJSON(ctx, endpoint, &profile)
	logging.LogAPICall(c.logger, http.MethodGet, "/stock/profile2", time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (c *FinnhubClient) getJSON(ctx context.Context, endpoint string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.NewQuoteError("", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apperrors.NewQuoteError("", resp.StatusCode,
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

var _ Source = (*FinnhubClient)(nil)
