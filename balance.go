package tracker

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Balances holds, per ticker, the daily running balance series: the balance
// as of the last ledger event on or before each recorded day. Days without an
// event for a ticker have no point; gap filling is the aggregator's job.
type Balances map[Ticker]*Series[decimal.Decimal]

// BalanceReport lists what the reconstruction dropped.
type BalanceReport struct {
	// Unknown maps asset ids absent from the exchange metadata to the
	// normalization error. Their entries were skipped, not fatal.
	Unknown map[string]error
	// Excluded counts ledger entries dropped because their asset id is in
	// the exclusion set. They contribute zero to portfolio value.
	Excluded int
}

// DailyBalances folds the ledger into per-ticker daily balance series.
//
// Entries are processed in chronological order (stable on timestamp ties), so
// for every (ticker, day) pair the balance of the last entry wins. The ledger
// balance is already cumulative: values are taken as-is, never summed.
func DailyBalances(l *Ledger, cat *Catalog) (Balances, *BalanceReport) {
	balances := make(Balances)
	report := &BalanceReport{Unknown: make(map[string]error)}

	for entry := range l.Entries() {
		ticker, err := cat.Normalize(entry.Asset)
		if errors.Is(err, ErrExcludedAsset) {
			report.Excluded++
			continue
		}
		if err != nil {
			report.Unknown[entry.Asset] = err
			continue
		}
		series, ok := balances[ticker]
		if !ok {
			series = &Series[decimal.Decimal]{}
			balances[ticker] = series
		}
		series.Append(entry.Day(), entry.Balance)
	}
	return balances, report
}
