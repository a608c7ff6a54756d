package tracker

import (
	"iter"
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// Candle is one day of OHLC price data plus the volume-weighted average price.
type Candle struct {
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`
	VWAP  decimal.Decimal `json:"vwap"`
}

// Market holds the fetched daily price history for a set of tickers.
//
// A ticker's series is always complete or absent: a failed fetch stores
// nothing, so the aggregator sees either a full trailing window or a missing
// ticker, never partial-day data.
type Market struct {
	prices map[Ticker]*Series[Candle]
}

// NewMarket returns an empty market data collection.
func NewMarket() *Market {
	return &Market{prices: make(map[Ticker]*Series[Candle])}
}

// Has reports whether price data exists for the ticker.
func (m *Market) Has(ticker Ticker) bool {
	_, ok := m.prices[ticker]
	return ok
}

// Get returns the candle series for a ticker, or nil if unknown.
func (m *Market) Get(ticker Ticker) *Series[Candle] { return m.prices[ticker] }

// Add stores a complete candle series for a ticker, replacing any previous one.
func (m *Market) Add(ticker Ticker, prices *Series[Candle]) {
	m.prices[ticker] = prices
}

// Len returns the number of tickers with price data.
func (m *Market) Len() int { return len(m.prices) }

// Tickers returns an iterator over the tickers in alphabetical order.
func (m *Market) Tickers() iter.Seq[Ticker] {
	return func(yield func(Ticker) bool) {
		tickers := slices.Collect(maps.Keys(m.prices))
		slices.Sort(tickers)
		for _, t := range tickers {
			if !yield(t) {
				return
			}
		}
	}
}
