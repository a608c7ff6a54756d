package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	tracker "github.com/Janon000/Crypto-Balance-Tacker"
	"github.com/google/subcommands"
)

type exportCmd struct {
	ledgerFile    string
	valuationFile string
}

func (*exportCmd) Name() string { return "export" }
func (*exportCmd) Synopsis() string {
	return "exports the annotated ledger and the combined valuation as CSV"
}
func (*exportCmd) Usage() string {
	return `cbt export [-ledger <file.csv>] [-valuation <file.csv>]

Runs the valuation pipeline and writes two spreadsheets: the raw ledger
annotated with each entry's canonical ticker, and the combined daily
portfolio valuation.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.ledgerFile, "ledger", "ledger.csv", "Annotated ledger output file")
	f.StringVar(&c.valuationFile, "valuation", "combined.csv", "Combined valuation output file")
}

func (c *exportCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	if err := writeCSV(c.ledgerFile, func(f *os.File) error {
		return tracker.ExportLedgerCSV(f, result.Ledger, result.Catalog)
	}); err != nil {
		return fail(err)
	}
	if err := writeCSV(c.valuationFile, func(f *os.File) error {
		return tracker.ExportValuationCSV(f, result.Days)
	}); err != nil {
		return fail(err)
	}
	fmt.Printf("Wrote %s and %s\n", c.ledgerFile, c.valuationFile)
	return subcommands.ExitSuccess
}

func writeCSV(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %q: %w", path, err)
	}
	defer f.Close()
	return write(f)
}
