package tracker

import (
	"fmt"
	"iter"
	"sort"

	"github.com/shopspring/decimal"
)

// Entry is a single balance-changing event from the exchange ledger.
//
// Balance is the running account balance for the asset after the event,
// not a delta. Time keeps the exchange's fractional seconds: two events in
// the same second still have a well-defined order. Entries are immutable
// once read.
type Entry struct {
	ID      string          // exchange ledger id, e.g. "L4UESK-KG3EQ-UFO4T5"
	Asset   string          // exchange-internal asset id, e.g. "XXBT"
	Time    float64         // fractional unix seconds
	Balance decimal.Decimal // running balance after this event
}

// Day returns the calendar day (UTC) the entry falls on.
func (e Entry) Day() Date { return DateOfUnix(int64(e.Time)) }

// RawEntry is a ledger row as the exchange returns it, before validation.
type RawEntry struct {
	RefID   string  `json:"refid"`
	Asset   string  `json:"asset"`
	Time    float64 `json:"time"` // fractional unix seconds
	Balance string  `json:"balance"`
}

// validate checks the row for the minimal consistency the pipeline needs:
// an asset id and a numeric balance.
func (r RawEntry) validate() (Entry, error) {
	if r.Asset == "" {
		return Entry{}, fmt.Errorf("ledger row %q has no asset", r.RefID)
	}
	if r.Balance == "" {
		return Entry{}, fmt.Errorf("ledger row %q has no balance", r.RefID)
	}
	balance, err := decimal.NewFromString(r.Balance)
	if err != nil {
		return Entry{}, fmt.Errorf("ledger row %q has non-numeric balance %q: %w", r.RefID, r.Balance, err)
	}
	return Entry{ID: r.RefID, Asset: r.Asset, Time: r.Time, Balance: balance}, nil
}

// SkippedEntry records a malformed ledger row that was dropped from the run.
type SkippedEntry struct {
	Row    RawEntry
	Reason error
}

// Ledger is a chronologically ordered list of ledger entries.
//
// Input ordering is unspecified; the ledger normalizes to ascending
// fractional time, breaking exact-timestamp ties on the ledger id.
type Ledger struct {
	entries []Entry
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make([]Entry, 0)}
}

// Append adds entries to the ledger and restores chronological order.
func (l *Ledger) Append(entries ...Entry) {
	l.entries = append(l.entries, entries...)
	l.stableSort()
}

// Ingest validates raw exchange rows and appends the well-formed ones.
// Malformed rows are returned as a list of skipped entries, never an error:
// one bad row must not fail the whole batch.
func (l *Ledger) Ingest(rows []RawEntry) (skipped []SkippedEntry) {
	for _, row := range rows {
		entry, err := row.validate()
		if err != nil {
			skipped = append(skipped, SkippedEntry{Row: row, Reason: err})
			continue
		}
		l.entries = append(l.entries, entry)
	}
	l.stableSort()
	return skipped
}

// stableSort sorts entries ascending by the full fractional timestamp, with
// the ledger id as the tie-break on exact timestamp collisions. Pages arrive
// as JSON objects whose iteration order is unspecified; the id tie-break
// keeps the order independent of it. The sort is stable, so entries without
// an id keep their arrival order.
func (l *Ledger) stableSort() {
	sort.SliceStable(l.entries, func(i, j int) bool {
		if l.entries[i].Time != l.entries[j].Time {
			return l.entries[i].Time < l.entries[j].Time
		}
		return l.entries[i].ID < l.entries[j].ID
	})
}

// Len returns the number of entries.
func (l *Ledger) Len() int { return len(l.entries) }

// Entries returns an iterator over the entries in chronological order.
func (l *Ledger) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range l.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Assets returns an iterator over asset ids in order of first appearance.
func (l *Ledger) Assets() iter.Seq[string] {
	return func(yield func(string) bool) {
		visited := make(map[string]struct{})
		for _, e := range l.entries {
			if _, ok := visited[e.Asset]; ok {
				continue
			}
			visited[e.Asset] = struct{}{}
			if !yield(e.Asset) {
				return
			}
		}
	}
}

// OldestEntryDate returns the day of the earliest entry, or the zero Date
// for an empty ledger.
func (l *Ledger) OldestEntryDate() Date {
	if len(l.entries) == 0 {
		return Date{}
	}
	return l.entries[0].Day()
}

// NewestEntryDate returns the day of the latest entry, or the zero Date
// for an empty ledger.
func (l *Ledger) NewestEntryDate() Date {
	if len(l.entries) == 0 {
		return Date{}
	}
	return l.entries[len(l.entries)-1].Day()
}
