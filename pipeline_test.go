package tracker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

// fakeSources drives the pipeline without a network. It implements the three
// source interfaces.
type fakeSources struct {
	pages    [][]RawEntry
	altnames map[string]string
	prices   map[Ticker]*Series[Candle]
	priceErr map[Ticker]error

	ohlcCalls []Ticker
}

func (f *fakeSources) LedgerPage(_ context.Context, offset int, _ int64) ([]RawEntry, bool, error) {
	page := offset / LedgerPageSize
	if page >= len(f.pages) {
		return nil, true, nil
	}
	return f.pages[page], false, nil
}

func (f *fakeSources) AssetAltnames(context.Context) (map[string]string, error) {
	return f.altnames, nil
}

func (f *fakeSources) DailyOHLC(_ context.Context, ticker Ticker, quote string, interval int) (*Series[Candle], error) {
	f.ohlcCalls = append(f.ohlcCalls, ticker)
	if err, ok := f.priceErr[ticker]; ok {
		return nil, err
	}
	prices, ok := f.prices[ticker]
	if !ok {
		return nil, &MissingPriceDataError{Ticker: ticker}
	}
	return prices, nil
}

// windowPrices builds a flat candle series covering the trailing n days.
func windowPrices(n int, price int64) *Series[Candle] {
	s := &Series[Candle]{}
	for day := range TrailingDays(Today(), n).Days() {
		s.Append(day, flatCandle(price))
	}
	return s
}

func TestPipelineRun(t *testing.T) {
	yesterday := Today().Add(-1)
	src := &fakeSources{
		pages: [][]RawEntry{
			{
				{RefID: "L1", Asset: "XXBT", Time: float64(yesterday.Unix()), Balance: "2"},
				{RefID: "L2", Asset: "bogus", Time: float64(yesterday.Unix())}, // no balance
			},
			{
				{RefID: "L3", Asset: "ZUSD", Time: float64(Today().Unix()), Balance: "100"},
			},
		},
		altnames: testAltnames,
		prices:   map[Ticker]*Series[Candle]{"XBT": windowPrices(3, 50)},
	}
	p := &Pipeline{Ledgers: src, Assets: src, Prices: src, HistoryDays: 3}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := res.Window.Len(); got != 3 {
		t.Errorf("window is %d days, want 3", got)
	}
	if len(res.Days) != 3 {
		t.Fatalf("got %d rows, want 3", len(res.Days))
	}
	if len(res.Report.SkippedRows) != 1 {
		t.Errorf("SkippedRows = %v, want the malformed row", res.Report.SkippedRows)
	}
	// 2 XBT at 50 plus 100 USD on the last day.
	last := res.Days[len(res.Days)-1]
	if !last.Close.Equal(decimal.NewFromInt(200)) {
		t.Errorf("final close = %s, want 200", last.Close)
	}
	// The USD balance only starts today; earlier days backfill it.
	if !res.Days[0].Close.Equal(decimal.NewFromInt(200)) {
		t.Errorf("first close = %s, want 200", res.Days[0].Close)
	}
	// The quote ticker never triggers a price fetch.
	for _, ticker := range src.ohlcCalls {
		if ticker == "USD" {
			t.Errorf("fetched prices for the quote currency")
		}
	}
}

func TestPipelineIsolatesFailedFetches(t *testing.T) {
	yesterday := Today().Add(-1)
	src := &fakeSources{
		pages: [][]RawEntry{{
			{RefID: "L1", Asset: "XXBT", Time: float64(yesterday.Unix()), Balance: "1"},
			{RefID: "L2", Asset: "XETH", Time: float64(yesterday.Unix()), Balance: "10"},
		}},
		altnames: testAltnames,
		prices:   map[Ticker]*Series[Candle]{"XBT": windowPrices(2, 30)},
		priceErr: map[Ticker]error{"ETH": errors.New("pair not found")},
	}
	p := &Pipeline{Ledgers: src, Assets: src, Prices: src, HistoryDays: 2}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, ok := res.Report.FailedFetches["ETH"]; !ok {
		t.Errorf("FailedFetches = %v, want ETH", res.Report.FailedFetches)
	}
	// XBT still values, ETH contributes zero.
	last := res.Days[len(res.Days)-1]
	if !last.Close.Equal(decimal.NewFromInt(30)) {
		t.Errorf("final close = %s, want 30", last.Close)
	}
	if got := res.Report.Valuation.MissingPrices; len(got) != 1 || got[0] != "ETH" {
		t.Errorf("MissingPrices = %v, want [ETH]", got)
	}
}

func TestPipelineStrictFailsOnMissingPrices(t *testing.T) {
	src := &fakeSources{
		pages: [][]RawEntry{{
			{RefID: "L1", Asset: "XXBT", Time: float64(Today().Unix()), Balance: "1"},
		}},
		altnames: testAltnames,
		priceErr: map[Ticker]error{"XBT": errors.New("pair not found")},
	}
	p := &Pipeline{Ledgers: src, Assets: src, Prices: src, HistoryDays: 2, Strict: true}

	_, err := p.Run(context.Background())
	var missing *MissingPriceDataError
	if !errors.As(err, &missing) {
		t.Fatalf("Run() error = %v, want *MissingPriceDataError", err)
	}
}

func TestPipelineReadsCacheFirst(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.jsonl")
	cached := NewMarket()
	cached.Add("XBT", windowPrices(2, 77))
	if err := SavePrices(path, cached); err != nil {
		t.Fatal(err)
	}

	src := &fakeSources{
		pages: [][]RawEntry{{
			{RefID: "L1", Asset: "XXBT", Time: float64(Today().Add(-1).Unix()), Balance: "1"},
		}},
		altnames: testAltnames,
		// No prices: a fetch would fail, proving the cache served.
	}
	p := &Pipeline{Ledgers: src, Assets: src, Prices: src, HistoryDays: 2, CachePath: path}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(src.ohlcCalls) != 0 {
		t.Errorf("fetched %v despite a warm cache", src.ohlcCalls)
	}
	last := res.Days[len(res.Days)-1]
	if !last.Close.Equal(decimal.NewFromInt(77)) {
		t.Errorf("final close = %s, want the cached 77", last.Close)
	}
}

func TestPipelineWritesCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.jsonl")
	src := &fakeSources{
		pages: [][]RawEntry{{
			{RefID: "L1", Asset: "XXBT", Time: float64(Today().Unix()), Balance: "1"},
		}},
		altnames: testAltnames,
		prices:   map[Ticker]*Series[Candle]{"XBT": windowPrices(2, 10)},
	}
	p := &Pipeline{Ledgers: src, Assets: src, Prices: src, HistoryDays: 2, CachePath: path}

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot was not written: %v", err)
	}
	m, ok, err := LoadPrices(path)
	if err != nil || !ok {
		t.Fatalf("LoadPrices() = %v, %v", ok, err)
	}
	if !m.Has("XBT") {
		t.Errorf("snapshot misses XBT")
	}
}

func TestPipelineDefaultWindow(t *testing.T) {
	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	src := &fakeSources{
		pages: [][]RawEntry{{
			{RefID: "L1", Asset: "XXBT", Time: float64(Today().Unix()), Balance: "1"},
		}},
		altnames: testAltnames,
		prices:   map[Ticker]*Series[Candle]{"XBT": windowPrices(365, 10)},
	}
	// HistoryDays left at zero: the run falls back to the 365 day default.
	p := &Pipeline{Ledgers: src, Assets: src, Prices: src}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := res.Window.Len(); got != 365 {
		t.Errorf("window is %d days, want the 365 day default", got)
	}
	if strings.Contains(logs.String(), "0 day history") {
		t.Errorf("progress log reports a zero day window:\n%s", logs.String())
	}
	if !strings.Contains(logs.String(), "365 day history") {
		t.Errorf("progress log misses the resolved window length:\n%s", logs.String())
	}
}

type failingLedger struct{ fakeSources }

func (f *failingLedger) LedgerPage(context.Context, int, int64) ([]RawEntry, bool, error) {
	return nil, false, fmt.Errorf("boom")
}

func TestPipelineLedgerFailureIsFatal(t *testing.T) {
	src := &failingLedger{fakeSources{altnames: testAltnames}}
	p := &Pipeline{Ledgers: src, Assets: src, Prices: src, HistoryDays: 2}
	if _, err := p.Run(context.Background()); err == nil {
		t.Fatalf("Run() returned no error when the ledger is unreachable")
	}
}
