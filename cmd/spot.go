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

type spotCmd struct{}

func (*spotCmd) Name() string     { return "spot" }
func (*spotCmd) Synopsis() string { return "prints the current spot price for a ticker" }
func (*spotCmd) Usage() string {
	return `cbt spot <ticker>

Queries the exchange for the last trade price of the ticker against the
configured quote currency.
`
}
func (*spotCmd) SetFlags(f *flag.FlagSet) {}

func (c *spotCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one ticker argument is required")
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	kraken, err := newKraken(cfg, false)
	if err != nil {
		return fail(err)
	}

	ticker := tracker.Ticker(strings.ToUpper(f.Arg(0)))
	price, err := kraken.SpotPrice(ctx, ticker, cfg.Quote)
	if err != nil {
		return fail(err)
	}
	fmt.Printf("%s: %s\n", ticker, tracker.FormatQuote(price, tracker.Ticker(cfg.Quote)))
	return subcommands.ExitSuccess
}
