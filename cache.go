package tracker

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// This file contains the price history snapshot: a human-readable JSONL file,
// one ticker per line with its candle history keyed by day. Writing then
// reading the file yields the exact same market data.

// jmarket is the line format of the snapshot file.
type jmarket struct {
	Ticker  Ticker            `json:"ticker"`
	History map[string]Candle `json:"history"`
}

// ExportPrices writes the market's price history to 'w' in the snapshot format.
func ExportPrices(w io.Writer, m *Market) error {
	for ticker := range m.Tickers() {
		js := jmarket{Ticker: ticker, History: make(map[string]Candle)}
		for day, candle := range m.Get(ticker).Values() {
			js.History[day.String()] = candle
		}
		data, err := json.Marshal(js)
		if err != nil {
			return fmt.Errorf("cannot marshal prices for %q: %w", ticker, err)
		}
		if _, err := w.Write(append(data, '\n')); err != nil {
			return fmt.Errorf("cannot write price snapshot: %w", err)
		}
	}
	return nil
}

// ImportPrices reads a price snapshot from 'r'.
func ImportPrices(r io.Reader) (*Market, error) {
	m := NewMarket()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}
		var js jmarket
		if err := json.Unmarshal(line, &js); err != nil {
			return nil, fmt.Errorf("cannot parse price snapshot line %q: %w", string(line), err)
		}
		prices := &Series[Candle]{}
		for day, candle := range js.History {
			d, err := ParseDate(day)
			if err != nil {
				return nil, fmt.Errorf("bad day in price snapshot for %q: %w", js.Ticker, err)
			}
			prices.Append(d, candle)
		}
		m.Add(js.Ticker, prices)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("cannot read price snapshot: %w", err)
	}
	return m, nil
}

// SavePrices writes the snapshot to path atomically: the data lands in a
// temporary file first and is renamed into place, so an interrupted run never
// leaves a half-written cache behind.
func SavePrices(path string, m *Market) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("cannot create snapshot temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := ExportPrices(tmp, m); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot close snapshot temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("cannot move snapshot into place: %w", err)
	}
	return nil
}

// LoadPrices reads the snapshot at path. A missing file is a cache miss, not
// an error: ok is false and the market is nil.
func LoadPrices(path string) (m *Market, ok bool, err error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cannot open price snapshot %q: %w", path, err)
	}
	defer f.Close()
	m, err = ImportPrices(f)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}
