package tracker

import (
	"errors"
	"fmt"
	"time"
)

// ErrExcludedAsset is returned by Catalog.Normalize for asset ids that are
// deliberately dropped from valuation (fee, rebate and regional quote markers).
var ErrExcludedAsset = errors.New("asset is excluded from valuation")

// UnknownAssetError reports an asset id absent from the exchange metadata.
// It is fatal for that ledger entry only; the entry is skipped and reported.
type UnknownAssetError struct {
	Asset string
}

func (e *UnknownAssetError) Error() string {
	return fmt.Sprintf("unknown asset %q: not present in exchange metadata", e.Asset)
}

// MissingPriceDataError reports a ticker for which no usable price data
// exists. In strict aggregation mode it aborts the valuation; otherwise the
// ticker degrades to a zero contribution and is listed in the run report.
type MissingPriceDataError struct {
	Ticker Ticker
}

func (e *MissingPriceDataError) Error() string {
	return fmt.Sprintf("no price data for ticker %q", e.Ticker)
}

// RateLimitError reports an upstream throttling signal. The client waits out
// the cooldown and retries a bounded number of times before giving up.
type RateLimitError struct {
	Endpoint string
	Wait     time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited on %s (cooldown %s)", e.Endpoint, e.Wait)
}
