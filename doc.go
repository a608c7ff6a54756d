// Package tracker reconstructs the historical quote-currency value of a
// crypto exchange portfolio from its raw transaction ledger and daily price
// history, and renders it as a candlestick time series.
//
// The core pipeline is:
//   - Ticker normalization: exchange-internal asset ids are mapped to
//     canonical tickers through the exchange metadata, a fixed override
//     table and a fixed exclusion set.
//   - Balance reconstruction: ledger entries (running balances, not deltas)
//     are folded into per-ticker daily balance series, last entry of a day
//     wins.
//   - Valuation: daily balances are joined with daily OHLC prices over a
//     calendar window (missing balances resolved by backfill) and summed
//     across tickers into one portfolio series.
//
// External collaborators (the exchange REST API, the price snapshot cache,
// the chart renderer and the spreadsheet exports) sit behind narrow
// interfaces and are injected into the Pipeline orchestrator, which prefers
// partial results with a report over total failure.
//
// This package serves as the foundational logic for the `cbt` command-line
// tool.
package tracker
