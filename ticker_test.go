package tracker

import (
	"errors"
	"slices"
	"testing"
)

// testAltnames mimics the exchange metadata for the asset ids used in tests.
var testAltnames = map[string]string{
	"XXBT":    "XBT",
	"XETH":    "ETH",
	"ETH2.S":  "ETH2.S",
	"ADA.S":   "ADA.S",
	"SOL03.S": "SOL03.S",
	"ZUSD":    "USD",
	"KFEE":    "FEE",
}

func TestCatalogNormalize(t *testing.T) {
	cat := NewCatalog(testAltnames)

	tests := []struct {
		name  string
		asset string
		want  Ticker
		err   error
	}{
		{"altname passthrough", "XXBT", "XBT", nil},
		{"override wins over altname", "ETH2.S", "ETH", nil},
		{"override without metadata", "USD.HOLD", "USD", nil},
		{"suffix stripped at dot", "ADA.S", "ADA", nil},
		{"numbered staking suffix", "SOL03.S", "SOL03", nil},
		{"quote spelling collapses", "ZUSD", "USD", nil},
		{"excluded fee credit", "KFEE", "", ErrExcludedAsset},
		{"excluded regional quote", "ZJPY", "", ErrExcludedAsset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cat.Normalize(tt.asset)
			if !errors.Is(err, tt.err) {
				t.Fatalf("Normalize(%q) error = %v, want %v", tt.asset, err, tt.err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.asset, got, tt.want)
			}
		})
	}
}

func TestCatalogNormalizeUnknown(t *testing.T) {
	cat := NewCatalog(testAltnames)
	_, err := cat.Normalize("XDOGE")
	var unknown *UnknownAssetError
	if !errors.As(err, &unknown) {
		t.Fatalf("Normalize() error = %v, want *UnknownAssetError", err)
	}
	if unknown.Asset != "XDOGE" {
		t.Errorf("unknown.Asset = %q, want %q", unknown.Asset, "XDOGE")
	}
}

func TestCatalogNormalizeDeterministic(t *testing.T) {
	cat := NewCatalog(testAltnames)
	first, err := cat.Normalize("ADA.S")
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := cat.Normalize("ADA.S")
		if err != nil || again != first {
			t.Fatalf("Normalize() is not stable: %q then %q (err %v)", first, again, err)
		}
	}
}

func TestCatalogTickers(t *testing.T) {
	cat := NewCatalog(testAltnames)
	assets := slices.Values([]string{"XXBT", "XETH", "ETH2.S", "KFEE", "ZUSD", "XDOGE"})
	tickers, skipped := cat.Tickers(assets)

	// ETH appears once despite two source assets, KFEE is silently dropped.
	want := []Ticker{"ETH", "USD", "XBT"}
	if !slices.Equal(tickers, want) {
		t.Errorf("Tickers() = %v, want %v", tickers, want)
	}
	if len(skipped) != 1 {
		t.Fatalf("skipped = %v, want exactly the unknown asset", skipped)
	}
	if _, ok := skipped["XDOGE"]; !ok {
		t.Errorf("skipped misses XDOGE: %v", skipped)
	}
}

func TestCatalogOptions(t *testing.T) {
	cat := NewCatalog(testAltnames,
		WithQuote("EUR"),
		WithOverrides(map[string]Ticker{"XXBT": "BTC"}),
		WithExclusions([]string{"XETH"}),
	)
	if got := cat.Quote(); got != "EUR" {
		t.Errorf("Quote() = %q, want EUR", got)
	}
	if !cat.IsQuote("EUR") || cat.IsQuote("USD") {
		t.Errorf("IsQuote does not follow the configured quote")
	}
	if got, err := cat.Normalize("XXBT"); err != nil || got != "BTC" {
		t.Errorf("Normalize(XXBT) = %q, %v, want BTC", got, err)
	}
	if _, err := cat.Normalize("XETH"); !errors.Is(err, ErrExcludedAsset) {
		t.Errorf("Normalize(XETH) error = %v, want ErrExcludedAsset", err)
	}
	// Replacing the exclusion set drops the defaults.
	if _, err := cat.Normalize("KFEE"); errors.Is(err, ErrExcludedAsset) {
		t.Errorf("KFEE still excluded after WithExclusions replaced the set")
	}
}
