// Package options generates synthetic option chains for Indian F&O underlyings.
//
// The premium model is a documented approximation, not real options pricing:
// intrinsic value plus a time value that decays exponentially with distance
// from the money, plus a bounded random perturbation.
package options

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"virtual-trader/internal/logging"
	"virtual-trader/internal/models"
	"virtual-trader/internal/quotes"
)

// Pricing model constants.
const (
	// MinTick is the minimum premium (5 paisa).
	MinTick = 0.05
	// HalfSpread is the fixed half bid/ask spread.
	HalfSpread = 0.25
	// assumedVolatility is the flat volatility used for time value.
	assumedVolatility = 0.20
	// ivFloor and ivBand bound the sampled implied volatility (15-40%).
	ivFloor = 15.0
	ivBand  = 25.0
)

// Chain shape constants.
const (
	weeklyExpiryCount  = 4
	monthlyExpiryCount = 3
	strikesPerSide     = 20
)

// Generator builds option chains from an injected quote source, clock, and
// random source. It holds no hidden global state.
type Generator struct {
	source quotes.Source
	now    func() time.Time
	rng    *rand.Rand
	logger zerolog.Logger
	mu     sync.Mutex
}

// GeneratorConfig holds dependencies for a Generator.
type GeneratorConfig struct {
	Source quotes.Source
	Now    func() time.Time
	Rand   *rand.Rand
	Logger zerolog.Logger
}

// NewGenerator creates a chain generator. Nil Now/Rand fall back to the wall
// clock and a time-seeded generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Generator{
		source: cfg.Source,
		now:    now,
		rng:    rng,
		logger: cfg.Logger,
	}
}

// GenerateChain builds the option chain for an underlying. It never fails:
// when the quote source is unavailable the chain is built from mock data and
// marked ChainSourceSynthetic.
func (g *Generator) GenerateChain(ctx context.Context, symbol string) *models.OptionsChain {
	var chain *models.OptionsChain

	quote, err := g.fetchQuote(ctx, symbol)
	if err != nil {
		g.logger.Warn().
			Err(err).
			Str("symbol", symbol).
			Msg("Quote unavailable, generating synthetic chain")
		chain = g.mockChain(symbol)
	} else {
		chain = g.buildChain(symbol, quote.LTP, g.expiries(), g.strikes(quote.LTP))
		chain.Source = models.ChainSourceLive
	}

	logging.LogChain(g.logger, symbol, string(chain.Source), len(chain.Strikes), len(chain.Expiries))
	return chain
}

func (g *Generator) fetchQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	if g.source == nil {
		return nil, fmt.Errorf("no quote source configured")
	}
	return g.source.GetQuote(ctx, symbol)
}

// expiries returns the next weekly Thursdays plus the last Thursday of each
// of the next months, deduplicated and ascending.
func (g *Generator) expiries() []time.Time {
	today := g.now()
	seen := make(map[string]bool)
	var expiries []time.Time

	add := func(t time.Time) {
		key := t.Format("2006-01-02")
		if !seen[key] {
			seen[key] = true
			expiries = append(expiries, t)
		}
	}

	for i := 1; i <= weeklyExpiryCount; i++ {
		add(nextThursday(today, i))
	}
	for i := 1; i <= monthlyExpiryCount; i++ {
		add(lastThursdayOfMonth(today, i))
	}

	sort.Slice(expiries, func(i, j int) bool {
		return expiries[i].Before(expiries[j])
	})
	return expiries
}

// nextThursday returns the weeksAhead-th Thursday strictly after date.
func nextThursday(date time.Time, weeksAhead int) time.Time {
	days := (int(time.Thursday) - int(date.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	days += (weeksAhead - 1) * 7
	return midnight(date.AddDate(0, 0, days))
}

// lastThursdayOfMonth returns the last Thursday of the month monthsAhead
// months after date's month.
func lastThursdayOfMonth(date time.Time, monthsAhead int) time.Time {
	firstOfTarget := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location()).
		AddDate(0, monthsAhead, 0)
	lastDay := firstOfTarget.AddDate(0, 1, -1)

	for lastDay.Weekday() != time.Thursday {
		lastDay = lastDay.AddDate(0, 0, -1)
	}
	return midnight(lastDay)
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// strikes returns up to 41 strikes centered on the rounded spot price.
// Non-positive strikes are discarded.
func (g *Generator) strikes(price float64) []float64 {
	interval := strikeInterval(price)
	seen := make(map[float64]bool)
	var strikes []float64

	for i := -strikesPerSide; i <= strikesPerSide; i++ {
		strike := math.Round((price+float64(i)*interval)/interval) * interval
		if strike > 0 && !seen[strike] {
			seen[strike] = true
			strikes = append(strikes, strike)
		}
	}

	sort.Float64s(strikes)
	return strikes
}

// strikeInterval returns the exchange-style strike spacing for a price level.
func strikeInterval(price float64) float64 {
	switch {
	case price < 500:
		return 10
	case price < 1000:
		return 25
	case price < 2000:
		return 50
	case price < 5000:
		return 100
	case price < 10000:
		return 200
	default:
		return 500
	}
}

// buildChain creates one CE and one PE contract for every strike/expiry pair.
func (g *Generator) buildChain(symbol string, price float64, expiries []time.Time, strikes []float64) *models.OptionsChain {
	options := make([]models.OptionContract, 0, len(expiries)*len(strikes)*2)

	for _, expiry := range expiries {
		for _, strike := range strikes {
			options = append(options,
				g.contract(symbol, strike, models.InstrumentCall, expiry, price),
				g.contract(symbol, strike, models.InstrumentPut, expiry, price),
			)
		}
	}

	return &models.OptionsChain{
		UnderlyingSymbol: symbol,
		UnderlyingPrice:  price,
		Expiries:         expiries,
		Strikes:          strikes,
		Options:          options,
		GeneratedAt:      g.now(),
	}
}

// contract synthesizes one option contract.
func (g *Generator) contract(symbol string, strike float64, typ models.Instrument, expiry time.Time, price float64) models.OptionContract {
	days := g.daysToExpiry(expiry)

	var intrinsic, moneyness float64
	if typ == models.InstrumentCall {
		intrinsic = math.Max(0, price-strike)
		moneyness = (price - strike) / strike
	} else {
		intrinsic = math.Max(0, strike-price)
		moneyness = (strike - price) / strike
	}

	timeValue := math.Max(0, float64(days)/365*assumedVolatility)
	premium := intrinsic + timeValue*math.Exp(-math.Abs(moneyness)*2)*price*0.05

	g.mu.Lock()
	change := (g.rng.Float64() - 0.5) * premium * 0.1
	volume := g.rng.Int63n(100000)
	oi := g.rng.Int63n(500000)
	iv := ivFloor + g.rng.Float64()*ivBand
	g.mu.Unlock()

	ltp := math.Max(MinTick, premium+change)
	changePercent := 0.0
	if premium > 0 {
		changePercent = (change / premium) * 100
	}

	return models.OptionContract{
		Symbol:            contractSymbol(symbol, expiry, strike, typ),
		Strike:            strike,
		Type:              typ,
		Expiry:            expiry,
		LTP:               ltp,
		Change:            change,
		ChangePercent:     changePercent,
		Volume:            volume,
		OpenInterest:      oi,
		ImpliedVolatility: iv,
		Bid:               math.Max(MinTick, ltp-HalfSpread),
		Ask:               ltp + HalfSpread,
		LotSize:           LotSize(symbol),
	}
}

// daysToExpiry returns whole days until expiry, rounded up, never negative.
func (g *Generator) daysToExpiry(expiry time.Time) int {
	diff := expiry.Sub(g.now())
	if diff <= 0 {
		return 0
	}
	return int(math.Ceil(diff.Hours() / 24))
}

// contractSymbol builds the NSE-style synthesized symbol:
// underlying + YYMMDD + strike + CE/PE.
func contractSymbol(symbol string, expiry time.Time, strike float64, typ models.Instrument) string {
	underlying := strings.TrimSuffix(symbol, ".NS")
	underlying = strings.TrimPrefix(underlying, "^")
	return fmt.Sprintf("%s%s%g%s", underlying, expiry.Format("060102"), strike, typ)
}

// Mock fallback shape.
const (
	mockSpotPrice   = 19650.0
	mockStrikeFirst = 19000.0
	mockStrikeLast  = 20300.0
	mockStrikeStep  = 50.0
)

// mockChain builds a fixed-shape synthetic chain used when no quote is
// available.
func (g *Generator) mockChain(symbol string) *models.OptionsChain {
	expiries := g.expiries()
	if len(expiries) > monthlyExpiryCount {
		expiries = expiries[:monthlyExpiryCount]
	}

	var strikes []float64
	for s := mockStrikeFirst; s <= mockStrikeLast; s += mockStrikeStep {
		strikes = append(strikes, s)
	}

	chain := g.buildChain(symbol, mockSpotPrice, expiries, strikes)
	chain.Source = models.ChainSourceSynthetic
	return chain
}
