package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	tracker "github.com/Janon000/Crypto-Balance-Tacker"
	"github.com/google/subcommands"
)

func splitTickers(list string) []string {
	var out []string
	for _, s := range strings.Split(list, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, strings.ToUpper(s))
		}
	}
	return out
}

type fetchCmd struct {
	tickers string
}

func (*fetchCmd) Name() string { return "fetch" }
func (*fetchCmd) Synopsis() string {
	return "fetches daily price history and refreshes the snapshot cache"
}
func (*fetchCmd) Usage() string {
	return `cbt fetch -tickers <T1,T2,...>

Fetches the daily OHLC history for the given tickers against the quote
currency and writes the price snapshot cache. Subsequent pipeline runs read
prices from the snapshot instead of the exchange.
`
}

func (c *fetchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.tickers, "tickers", "", "Comma-separated tickers to fetch (e.g. XBT,ETH)")
}

func (c *fetchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	if cfg.CachePath == "" {
		return fail(fmt.Errorf("no cache_path configured, nowhere to store the snapshot"))
	}
	if c.tickers == "" {
		fmt.Fprintln(os.Stderr, "Error: -tickers is required")
		return subcommands.ExitUsageError
	}
	kraken, err := newKraken(cfg, false)
	if err != nil {
		return fail(err)
	}

	market := tracker.NewMarket()
	if cached, ok, err := tracker.LoadPrices(cfg.CachePath); err != nil {
		return fail(err)
	} else if ok {
		market = cached
	}

	for _, name := range splitTickers(c.tickers) {
		ticker := tracker.Ticker(name)
		prices, err := kraken.DailyOHLC(ctx, ticker, cfg.Quote, 1440)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot fetch %s: %v\n", ticker, err)
			continue
		}
		market.Add(ticker, prices)
		fmt.Printf("Fetched %d days for %s\n", prices.Len(), ticker)
	}

	if err := tracker.SavePrices(cfg.CachePath, market); err != nil {
		return fail(err)
	}
	fmt.Printf("Snapshot written to %s\n", cfg.CachePath)
	return subcommands.ExitSuccess
}
