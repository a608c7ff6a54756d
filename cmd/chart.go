package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	tracker "github.com/Janon000/Crypto-Balance-Tacker"
	"github.com/google/subcommands"
)

type chartCmd struct {
	output string
}

func (*chartCmd) Name() string { return "chart" }
func (*chartCmd) Synopsis() string {
	return "renders the portfolio value as an interactive candlestick chart"
}
func (*chartCmd) Usage() string {
	return `cbt chart [-o <file.html>]

Runs the valuation pipeline and writes a self-contained HTML page with an
interactive OHLC candlestick view of the portfolio value. Open the file in
a browser to explore the date range.
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.output, "o", "portfolio.html", "Output HTML file")
}

func (c *chartCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		return fail(err)
	}
	pipeline, err := newPipeline(cfg)
	if err != nil {
		return fail(err)
	}
	result, err := pipeline.Run(ctx)
	if err != nil {
		return fail(err)
	}

	out, err := os.Create(c.output)
	if err != nil {
		return fail(fmt.Errorf("cannot create %q: %w", c.output, err))
	}
	defer out.Close()
	if err := tracker.RenderChart(out, result.Days, result.Catalog.Quote()); err != nil {
		return fail(err)
	}
	fmt.Printf("Wrote %d days of portfolio history to %s\n", len(result.Days), c.output)
	return subcommands.ExitSuccess
}
