package tracker

import (
	"bytes"
	"fmt"
	"maps"
	"slices"

	md "github.com/nao1215/markdown"
)

// ReportMarkdown renders the outcome of a pipeline run as markdown: the
// valuation summary first, then everything the run degraded on. A partial
// valuation is still a valuation; the exclusions are reported, not hidden.
func ReportMarkdown(res *Result) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1(fmt.Sprintf("Portfolio Valuation %s", res.Window))

	if n := len(res.Days); n > 0 {
		last := res.Days[n-1]
		doc.PlainText(fmt.Sprintf("Value at close on %s: %s",
			last.Date, FormatQuote(last.Close, res.Catalog.Quote())))
	}
	if res.Ledger != nil && res.Ledger.Len() > 0 {
		doc.PlainText(fmt.Sprintf("Ledger: %d entries from %s to %s",
			res.Ledger.Len(), res.Ledger.OldestEntryDate(), res.Ledger.NewestEntryDate()))
	}

	rows := [][]string{}
	for _, day := range lastDays(res.Days, 7) {
		rows = append(rows, []string{
			day.Date.String(),
			FormatQuote(day.Open, res.Catalog.Quote()),
			FormatQuote(day.High, res.Catalog.Quote()),
			FormatQuote(day.Low, res.Catalog.Quote()),
			FormatQuote(day.Close, res.Catalog.Quote()),
		})
	}
	if len(rows) > 0 {
		doc.H2("Last 7 Days")
		doc.Table(md.TableSet{
			Header: []string{"Date", "Open", "High", "Low", "Close"},
			Rows:   rows,
		})
	}

	report := res.Report
	if len(report.SkippedRows) == 0 && len(report.Balance.Unknown) == 0 &&
		len(report.FailedFetches) == 0 && len(report.Valuation.MissingPrices) == 0 {
		return doc.String()
	}

	doc.H2("Exclusions")
	var items []string
	if n := len(report.SkippedRows); n > 0 {
		items = append(items, fmt.Sprintf("%d malformed ledger rows skipped", n))
	}
	assets := slices.Collect(maps.Keys(report.Balance.Unknown))
	slices.Sort(assets)
	for _, asset := range assets {
		items = append(items, fmt.Sprintf("unknown asset %q: %v", asset, report.Balance.Unknown[asset]))
	}
	tickers := slices.Collect(maps.Keys(report.FailedFetches))
	slices.Sort(tickers)
	for _, ticker := range tickers {
		items = append(items, fmt.Sprintf("price fetch failed for %s: %v", ticker, report.FailedFetches[ticker]))
	}
	for _, ticker := range report.Valuation.MissingPrices {
		items = append(items, fmt.Sprintf("%s valued at zero: no price data", ticker))
	}
	doc.BulletList(items...)

	return doc.String()
}

// lastDays returns up to n trailing rows of the series.
func lastDays(days []PortfolioDay, n int) []PortfolioDay {
	if len(days) <= n {
		return days
	}
	return days[len(days)-n:]
}
