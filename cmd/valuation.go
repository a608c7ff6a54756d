package cmd

import (
	"context"
	"flag"

	tracker "github.com/Janon000/Crypto-Balance-Tacker"
	"github.com/google/subcommands"
)

type valuationCmd struct {
	strict bool
	days   int
}

func (*valuationCmd) Name() string { return "valuation" }
func (*valuationCmd) Synopsis() string {
	return "computes the daily portfolio value and prints a summary report"
}
func (*valuationCmd) Usage() string {
	return `cbt valuation [-strict] [-days <n>]

Fetches the account ledger and daily price history, reconstructs the daily
balances and prints the portfolio valuation summary, including everything
the run had to exclude.
`
}

func (c *valuationCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.strict, "strict", false, "Fail on missing price data instead of valuing the ticker at zero")
	f.IntVar(&c.days, "days", 0, "Valuation window in days (overrides the configured value)")
}

func (c *valuationCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	if c.strict {
		cfg.Strict = true
	}
	if c.days > 0 {
		cfg.HistoryDays = c.days
	}
	pipeline, err := newPipeline(cfg)
	if err != nil {
		return fail(err)
	}
	result, err := pipeline.Run(ctx)
	if err != nil {
		return fail(err)
	}
	render(tracker.ReportMarkdown(result))
	return subcommands.ExitSuccess
}
