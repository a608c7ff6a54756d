package tracker

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// PortfolioDay is the quote-currency value of the whole portfolio for one
// calendar day, aggregated across all tickers.
type PortfolioDay struct {
	Date  Date            `json:"date"`
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`
	// VWAP is the single-figure daily value (balance × vwap), for callers
	// that want one number per day instead of a candle.
	VWAP decimal.Decimal `json:"vwap"`
}

// ValuationReport lists the degradations of a non-strict valuation.
type ValuationReport struct {
	// MissingPrices are tickers held in the ledger with no price series at
	// all; they contributed zero on every day.
	MissingPrices []Ticker
	// MissingDays counts, per ticker, the days inside the window where the
	// price series had no candle; those days got a zero contribution.
	MissingDays map[Ticker]int
}

// Valuate joins daily balances with daily prices over the window and sums the
// per-ticker quote-currency values into one portfolio series.
//
// The balance for a day is resolved by backfill (see Series.Backfill): days
// before the first recorded balance inherit the first known value, gaps
// between known balances inherit the following known value, and days past the
// last event keep the last balance.
//
// The quote-currency ticker is valued 1:1 without a price lookup. A ticker
// without price data contributes zero and is reported, unless strict is set,
// in which case the valuation fails with a *MissingPriceDataError.
//
// The output has exactly one row per calendar day of the window, ascending,
// even when every contribution is zero. Identical inputs produce identical
// output.
func Valuate(balances Balances, market *Market, cat *Catalog, window Range, strict bool) ([]PortfolioDay, *ValuationReport, error) {
	report := &ValuationReport{MissingDays: make(map[Ticker]int)}

	// Deterministic ticker order.
	tickers := slices.Collect(maps.Keys(balances))
	slices.Sort(tickers)

	// Tickers with no price series degrade to zero for the whole run.
	priced := make([]Ticker, 0, len(tickers))
	for _, ticker := range tickers {
		if cat.IsQuote(ticker) || market.Has(ticker) {
			priced = append(priced, ticker)
			continue
		}
		if strict {
			return nil, nil, &MissingPriceDataError{Ticker: ticker}
		}
		report.MissingPrices = append(report.MissingPrices, ticker)
	}

	days := make([]PortfolioDay, 0, window.Len())
	for day := range window.Days() {
		row := PortfolioDay{Date: day}
		for _, ticker := range priced {
			balance, ok := balances[ticker].Backfill(day)
			if !ok {
				continue
			}
			if cat.IsQuote(ticker) {
				// 1:1 against itself.
				row.Open = row.Open.Add(balance)
				row.High = row.High.Add(balance)
				row.Low = row.Low.Add(balance)
				row.Close = row.Close.Add(balance)
				row.VWAP = row.VWAP.Add(balance)
				continue
			}
			candle, ok := market.Get(ticker).Get(day)
			if !ok {
				if strict {
					return nil, nil, &MissingPriceDataError{Ticker: ticker}
				}
				report.MissingDays[ticker]++
				continue
			}
			row.Open = row.Open.Add(balance.Mul(candle.Open))
			row.High = row.High.Add(balance.Mul(candle.High))
			row.Low = row.Low.Add(balance.Mul(candle.Low))
			row.Close = row.Close.Add(balance.Mul(candle.Close))
			row.VWAP = row.VWAP.Add(balance.Mul(candle.VWAP))
		}
		days = append(days, row)
	}
	return days, report, nil
}
