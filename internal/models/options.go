package models

import "time"

// ChainSource indicates whether a chain was built from live or synthetic data.
type ChainSource string

const (
	ChainSourceLive      ChainSource = "LIVE"
	ChainSourceSynthetic ChainSource = "SYNTHETIC"
)

// OptionContract represents a single tradable option contract.
// Contracts are created fresh on every chain generation and never mutated.
type OptionContract struct {
	Symbol            string
	Strike            float64
	Type              Instrument // CE or PE
	Expiry            time.Time
	LTP               float64
	Change            float64
	ChangePercent     float64
	Volume            int64
	OpenInterest      int64
	ImpliedVolatility float64
	Bid               float64
	Ask               float64
	LotSize           int
}

// OptionsChain represents a snapshot of all contracts for one underlying.
type OptionsChain struct {
	UnderlyingSymbol string
	UnderlyingPrice  float64
	Expiries         []time.Time
	Strikes          []float64
	Options          []OptionContract
	Source           ChainSource
	GeneratedAt      time.Time
}

// ContractsFor returns the CE and PE contracts for a strike/expiry pair.
// Either return value is nil if the pair is not part of the chain.
func (c *OptionsChain) ContractsFor(strike float64, expiry time.Time) (call, put *OptionContract) {
	for i := range c.Options {
		o := &c.Options[i]
		if o.Strike != strike || !sameDay(o.Expiry, expiry) {
			continue
		}
		switch o.Type {
		case InstrumentCall:
			call = o
		case InstrumentPut:
			put = o
		}
	}
	return call, put
}

func sameDay(t1, t2 time.Time) bool {
	y1, m1, d1 := t1.Date()
	y2, m2, d2 := t2.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
