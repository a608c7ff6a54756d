package tracker

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// This file contains the spreadsheet exports: the raw ledger annotated with
// the resolved ticker, and the combined daily valuation. Both are plain CSV,
// one row per record, importable by any spreadsheet.

// ExportLedgerCSV writes the ledger annotated with each entry's canonical
// ticker. Excluded and unknown assets keep an empty ticker column so the
// export still shows the full raw ledger.
func ExportLedgerCSV(w io.Writer, l *Ledger, cat *Catalog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"asset", "ticker", "date", "time", "balance"}); err != nil {
		return fmt.Errorf("cannot write ledger export header: %w", err)
	}
	for entry := range l.Entries() {
		ticker, err := cat.Normalize(entry.Asset)
		if err != nil {
			ticker = ""
		}
		record := []string{
			entry.Asset,
			string(ticker),
			entry.Day().String(),
			strconv.FormatFloat(entry.Time, 'f', -1, 64),
			entry.Balance.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("cannot write ledger export row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportValuationCSV writes the combined portfolio valuation, one row per
// calendar day of the window.
func ExportValuationCSV(w io.Writer, days []PortfolioDay) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "open", "high", "low", "close", "vwap"}); err != nil {
		return fmt.Errorf("cannot write valuation export header: %w", err)
	}
	for _, day := range days {
		record := []string{
			day.Date.String(),
			day.Open.String(),
			day.High.String(),
			day.Low.String(),
			day.Close.String(),
			day.VWAP.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("cannot write valuation export row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
