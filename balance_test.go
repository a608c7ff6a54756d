package tracker

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(d int) Date { return NewDate(2025, time.March, d) }

// at converts a day to the ledger's fractional timestamp form.
func at(d Date) float64 { return float64(d.Unix()) }

func TestDailyBalances(t *testing.T) {
	cat := NewCatalog(testAltnames)
	ledger := NewLedger()
	ledger.Append(
		Entry{Asset: "XXBT", Time: at(day(1)), Balance: decimal.NewFromInt(1)},
		Entry{Asset: "XXBT", Time: at(day(3)), Balance: decimal.NewFromInt(2)},
		Entry{Asset: "XETH", Time: at(day(2)), Balance: decimal.NewFromInt(10)},
	)

	balances, report := DailyBalances(ledger, cat)
	if len(balances) != 2 {
		t.Fatalf("got %d tickers, want 2", len(balances))
	}
	if report.Excluded != 0 || len(report.Unknown) != 0 {
		t.Errorf("unexpected degradations: %+v", report)
	}

	xbt := balances["XBT"]
	if xbt.Len() != 2 {
		t.Fatalf("XBT has %d points, want 2", xbt.Len())
	}
	if v, ok := xbt.Get(day(3)); !ok || !v.Equal(decimal.NewFromInt(2)) {
		t.Errorf("XBT on %s = %s, want 2", day(3), v)
	}
}

func TestDailyBalancesLastEntryOfDayWins(t *testing.T) {
	cat := NewCatalog(testAltnames)
	base := at(day(1))
	ledger := NewLedger()
	ledger.Append(
		Entry{Asset: "XXBT", Time: base + 3600, Balance: decimal.NewFromInt(1)},
		Entry{Asset: "XXBT", Time: base + 7200, Balance: decimal.NewFromInt(2)},
		Entry{Asset: "XXBT", Time: base + 1800, Balance: decimal.NewFromInt(3)},
	)

	balances, _ := DailyBalances(ledger, cat)
	v, ok := balances["XBT"].Get(day(1))
	if !ok {
		t.Fatalf("no balance on %s", day(1))
	}
	// The chronologically last event of the day is base+7200.
	if !v.Equal(decimal.NewFromInt(2)) {
		t.Errorf("balance = %s, want 2", v)
	}
}

func TestDailyBalancesSubsecondOrderWins(t *testing.T) {
	cat := NewCatalog(testAltnames)
	base := at(day(1))
	// Delivered later-event-first: the 0.9s event must still win the day.
	ledger := NewLedger()
	ledger.Ingest([]RawEntry{
		{RefID: "L2", Asset: "XXBT", Time: base + 0.9, Balance: "1"},
		{RefID: "L1", Asset: "XXBT", Time: base + 0.1, Balance: "2"},
	})
	balances, _ := DailyBalances(ledger, cat)
	if v, _ := balances["XBT"].Get(day(1)); !v.Equal(decimal.NewFromInt(1)) {
		t.Errorf("daily balance = %s, want the chronologically later 1", v)
	}
}

func TestDailyBalancesSameTimestampLastArrivalWins(t *testing.T) {
	cat := NewCatalog(testAltnames)
	ts := at(day(1))
	ledger := NewLedger()
	ledger.Append(
		Entry{Asset: "XXBT", Time: ts, Balance: decimal.NewFromInt(1)},
		Entry{Asset: "XXBT", Time: ts, Balance: decimal.NewFromInt(2)},
	)
	balances, _ := DailyBalances(ledger, cat)
	if v, _ := balances["XBT"].Get(day(1)); !v.Equal(decimal.NewFromInt(2)) {
		t.Errorf("balance = %s, want the later arrival 2", v)
	}
}

func TestDailyBalancesDegradations(t *testing.T) {
	cat := NewCatalog(testAltnames)
	ledger := NewLedger()
	ledger.Append(
		Entry{Asset: "KFEE", Time: at(day(1)), Balance: decimal.NewFromInt(1)},
		Entry{Asset: "XDOGE", Time: at(day(2)), Balance: decimal.NewFromInt(1)},
		Entry{Asset: "XXBT", Time: at(day(3)), Balance: decimal.NewFromInt(1)},
	)

	balances, report := DailyBalances(ledger, cat)
	if report.Excluded != 1 {
		t.Errorf("Excluded = %d, want 1", report.Excluded)
	}
	if _, ok := report.Unknown["XDOGE"]; !ok {
		t.Errorf("Unknown misses XDOGE: %v", report.Unknown)
	}
	if len(balances) != 1 {
		t.Errorf("got %d tickers, want only XBT", len(balances))
	}
}
