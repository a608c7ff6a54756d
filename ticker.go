package tracker

import (
	"errors"
	"iter"
	"maps"
	"slices"
	"strings"
)

// Ticker is a canonical trading symbol usable for price lookups, distinct
// from the exchange-internal asset id ("XXBT" → "XBT", "ETH2.S" → "ETH").
type Ticker string

// DefaultQuote is the reference currency all values are expressed in.
const DefaultQuote = Ticker("USD")

// DefaultOverrides maps asset ids whose platform altname does not correspond
// to a tradeable pair against the quote currency. Staking-wrapped variants
// collapse onto their underlying coin, and the various USD spellings collapse
// onto the quote ticker.
var DefaultOverrides = map[string]Ticker{
	"ETH2":     "ETH",
	"ETH2.S":   "ETH",
	"FLOWH":    "FLOW",
	"FLOWH.S":  "FLOW",
	"USD.HOLD": "USD",
	"USD.M":    "USD",
	"ZUSD":     "USD",
}

// DefaultExclusions lists asset ids that must never be valued: fee credits,
// rebates and regional quote currencies with no USD pair.
var DefaultExclusions = []string{"CHF", "KFEE", "ZCAD", "ZJPY"}

// Catalog normalizes exchange asset ids to tickers. It is a pure lookup
// structure: the altname metadata is supplied at construction, never fetched.
type Catalog struct {
	altnames   map[string]string
	overrides  map[string]Ticker
	exclusions map[string]struct{}
	quote      Ticker
}

// CatalogOption customizes a Catalog.
type CatalogOption func(*Catalog)

// WithOverrides replaces the default override table.
func WithOverrides(overrides map[string]Ticker) CatalogOption {
	return func(c *Catalog) { c.overrides = maps.Clone(overrides) }
}

// WithExclusions replaces the default exclusion set.
func WithExclusions(assets []string) CatalogOption {
	return func(c *Catalog) {
		c.exclusions = make(map[string]struct{}, len(assets))
		for _, a := range assets {
			c.exclusions[a] = struct{}{}
		}
	}
}

// WithQuote sets the quote currency ticker (default "USD").
func WithQuote(quote Ticker) CatalogOption {
	return func(c *Catalog) { c.quote = quote }
}

// NewCatalog builds a Catalog from the exchange's asset id → altname metadata.
func NewCatalog(altnames map[string]string, opts ...CatalogOption) *Catalog {
	c := &Catalog{
		altnames:  maps.Clone(altnames),
		overrides: DefaultOverrides,
		quote:     DefaultQuote,
	}
	WithExclusions(DefaultExclusions)(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quote returns the quote currency ticker.
func (c *Catalog) Quote() Ticker { return c.quote }

// Normalize maps an exchange asset id to its canonical ticker.
//
// The override table wins over the altname. Without an override, the ticker
// is the altname truncated at the first '.' separator. Excluded asset ids
// return ErrExcludedAsset, asset ids absent from the metadata return an
// *UnknownAssetError.
//
// Same asset id and same metadata always yield the same ticker.
func (c *Catalog) Normalize(asset string) (Ticker, error) {
	if _, excluded := c.exclusions[asset]; excluded {
		return "", ErrExcludedAsset
	}
	if ticker, ok := c.overrides[asset]; ok {
		return ticker, nil
	}
	altname, ok := c.altnames[asset]
	if !ok {
		return "", &UnknownAssetError{Asset: asset}
	}
	ticker, _, _ := strings.Cut(altname, ".")
	return Ticker(ticker), nil
}

// IsQuote reports whether the ticker is the quote currency itself.
// The quote ticker values 1:1 and never gets a price lookup.
func (c *Catalog) IsQuote(t Ticker) bool { return t == c.quote }

// Tickers returns the sorted set of distinct tickers for the given asset ids,
// quietly dropping excluded assets. Unknown asset ids are reported through
// the returned map of skipped assets to their error.
func (c *Catalog) Tickers(assets iter.Seq[string]) (tickers []Ticker, skipped map[string]error) {
	seen := make(map[Ticker]struct{})
	skipped = make(map[string]error)
	for asset := range assets {
		ticker, err := c.Normalize(asset)
		if errors.Is(err, ErrExcludedAsset) {
			continue
		}
		if err != nil {
			skipped[asset] = err
			continue
		}
		seen[ticker] = struct{}{}
	}
	tickers = slices.Collect(maps.Keys(seen))
	slices.Sort(tickers)
	return tickers, skipped
}
