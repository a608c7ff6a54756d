package tracker

import (
	"context"
	"fmt"
	"log"
)

// The pipeline's collaborators are narrow interfaces so the whole run can be
// driven against fakes. The Kraken client implements all three; nothing here
// knows it is talking to Kraken.

// LedgerSource supplies paginated raw ledger rows for the account.
//
// The boolean result is the explicit end-of-data sentinel: callers fetch at a
// growing offset until it is true. It is a signal, not an error.
type LedgerSource interface {
	LedgerPage(ctx context.Context, offset int, start int64) (rows []RawEntry, end bool, err error)
}

// AssetSource supplies the exchange metadata mapping asset id → altname.
type AssetSource interface {
	AssetAltnames(ctx context.Context) (map[string]string, error)
}

// PriceSource supplies the daily candle history for a ticker against the
// quote currency. interval is in minutes (1440 for daily candles).
type PriceSource interface {
	DailyOHLC(ctx context.Context, ticker Ticker, quote string, interval int) (*Series[Candle], error)
}

const dailyInterval = 1440 // minutes

// maxLedgerPages bounds pagination in case the end sentinel never comes.
const maxLedgerPages = 1000

// Pipeline reconstructs the historical portfolio value from the exchange
// ledger and daily price history. All collaborators are injected; the
// pipeline owns their lifecycle for the duration of one Run.
type Pipeline struct {
	Ledgers LedgerSource
	Assets  AssetSource
	Prices  PriceSource

	// CachePath is the optional price snapshot file. Empty disables caching.
	CachePath string
	// HistoryDays is the length of the valuation window (default 365).
	HistoryDays int
	// Strict makes missing price data fatal instead of a zero contribution.
	Strict bool
	// CatalogOptions customize ticker normalization (overrides, exclusions,
	// quote currency).
	CatalogOptions []CatalogOption
}

// RunReport collects everything a run degraded on instead of failing.
type RunReport struct {
	// SkippedRows are malformed ledger rows dropped at ingestion.
	SkippedRows []SkippedEntry
	// Balance reports unknown and excluded assets from reconstruction.
	Balance *BalanceReport
	// FailedFetches maps tickers whose price fetch failed to the error.
	// Their series was not stored at all: per-ticker atomicity.
	FailedFetches map[Ticker]error
	// Valuation reports zero-contribution degradations of the aggregation.
	Valuation *ValuationReport
}

// Result is the outcome of one pipeline run.
type Result struct {
	Days    []PortfolioDay
	Window  Range
	Ledger  *Ledger
	Catalog *Catalog
	Market  *Market
	Report  RunReport
}

// Run executes the full pipeline: fetch the ledger, normalize assets,
// reconstruct daily balances, resolve price history (cache first) and
// aggregate the portfolio value over the trailing window.
//
// Partial results are preferred over total failure: per-row and per-ticker
// problems end up in the report. Only systemic failures return an error:
// no reachable ledger, no metadata, or missing prices in strict mode.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	days := p.HistoryDays
	if days <= 0 {
		days = 365
	}
	window := TrailingDays(Today(), days)

	ledger, skipped, err := p.fetchLedger(ctx, window.From.Unix())
	if err != nil {
		return nil, fmt.Errorf("cannot fetch ledger: %w", err)
	}

	altnames, err := p.Assets.AssetAltnames(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot fetch asset metadata: %w", err)
	}
	catalog := NewCatalog(altnames, p.CatalogOptions...)

	balances, balReport := DailyBalances(ledger, catalog)
	for asset, err := range balReport.Unknown {
		log.Printf("skipping asset %q: %v", asset, err)
	}

	market, failed := p.fetchPrices(ctx, ledger, catalog, days)

	valued, valReport, err := Valuate(balances, market, catalog, window, p.Strict)
	if err != nil {
		return nil, err
	}

	return &Result{
		Days:    valued,
		Window:  window,
		Ledger:  ledger,
		Catalog: catalog,
		Market:  market,
		Report: RunReport{
			SkippedRows:   skipped,
			Balance:       balReport,
			FailedFetches: failed,
			Valuation:     valReport,
		},
	}, nil
}

// fetchLedger pulls pages at a growing offset until the end-of-data sentinel.
func (p *Pipeline) fetchLedger(ctx context.Context, start int64) (*Ledger, []SkippedEntry, error) {
	ledger := NewLedger()
	var skipped []SkippedEntry
	for page := 0; page < maxLedgerPages; page++ {
		offset := page * LedgerPageSize
		rows, end, err := p.Ledgers.LedgerPage(ctx, offset, start)
		if err != nil {
			return nil, nil, fmt.Errorf("ledger page at offset %d: %w", offset, err)
		}
		skipped = append(skipped, ledger.Ingest(rows)...)
		if end {
			break
		}
	}
	log.Printf("fetched %d ledger entries (%d malformed rows skipped)", ledger.Len(), len(skipped))
	return ledger, skipped, nil
}

// fetchPrices resolves a candle series for every non-quote ticker the ledger
// holds, consulting the snapshot cache first. A ticker's fetch failure
// stores nothing for that ticker; the valuation will see it as missing.
func (p *Pipeline) fetchPrices(ctx context.Context, ledger *Ledger, catalog *Catalog, days int) (*Market, map[Ticker]error) {
	market := NewMarket()
	if p.CachePath != "" {
		cached, ok, err := LoadPrices(p.CachePath)
		if err != nil {
			log.Printf("cache read err (ignored): %v", err)
		} else if ok {
			market = cached
		}
	}

	tickers, _ := catalog.Tickers(ledger.Assets())

	failed := make(map[Ticker]error)
	fetched := false
	for _, ticker := range tickers {
		if catalog.IsQuote(ticker) || market.Has(ticker) {
			continue
		}
		log.Printf("retrieving %d day history for %s%s", days, ticker, catalog.Quote())
		prices, err := p.Prices.DailyOHLC(ctx, ticker, string(catalog.Quote()), dailyInterval)
		if err != nil {
			failed[ticker] = err
			log.Printf("no price history for %s (excluded from valuation): %v", ticker, err)
			continue
		}
		market.Add(ticker, prices)
		if first, _ := prices.First(); !first.IsZero() {
			log.Printf("got %d candles for %s since %s", prices.Len(), ticker, first)
		}
		fetched = true
	}

	if p.CachePath != "" && fetched {
		if err := SavePrices(p.CachePath, market); err != nil {
			log.Printf("cache write err (ignored): %v", err)
		}
	}
	return market, failed
}
