// Package cmd implements the CLI application to chart a crypto portfolio.
package cmd

import (
	"flag"
	"fmt"
	"os"

	tracker "github.com/Janon000/Crypto-Balance-Tacker"
	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package calls Register() to declare subcommands, and Execute() runs
// the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&valuationCmd{}, "portfolio")
	c.Register(&chartCmd{}, "portfolio")
	c.Register(&exportCmd{}, "portfolio")
	c.Register(&fetchCmd{}, "market data")
	c.Register(&spotCmd{}, "market data")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to
// use global variables for the few app-wide flags.

var configPath = flag.String("config", "tracker.yaml", "Path to the YAML configuration file")

// loadConfig reads the app config from the -config flag location.
func loadConfig() (*tracker.Config, error) {
	return tracker.LoadConfig(*configPath)
}

// newKraken builds the exchange client from the config. Credentials are only
// required by commands that touch private endpoints; public-only commands
// pass needKey=false and work without a key file.
func newKraken(cfg *tracker.Config, needKey bool) (*tracker.Kraken, error) {
	opts := []tracker.KrakenOption{
		tracker.WithThrottle(tracker.NewThrottle(cfg.Cooldown())),
		tracker.WithHistoryDays(cfg.HistoryDays),
	}
	keyOpt, err := tracker.LoadKeyFile(cfg.KeyFile)
	if err != nil {
		if needKey {
			return nil, fmt.Errorf("cannot load API key: %w", err)
		}
	} else {
		opts = append(opts, keyOpt)
	}
	return tracker.NewKraken(opts...), nil
}

// newPipeline wires the pipeline with the Kraken client as all three sources.
func newPipeline(cfg *tracker.Config) (*tracker.Pipeline, error) {
	kraken, err := newKraken(cfg, true)
	if err != nil {
		return nil, err
	}
	return &tracker.Pipeline{
		Ledgers:        kraken,
		Assets:         kraken,
		Prices:         kraken,
		CachePath:      cfg.CachePath,
		HistoryDays:    cfg.HistoryDays,
		Strict:         cfg.Strict,
		CatalogOptions: cfg.CatalogOptions(),
	}, nil
}

// render pretty-prints markdown on the terminal, falling back to the raw
// markdown when the terminal renderer is unavailable.
func render(markdown string) {
	out, err := glamour.Render(markdown, "auto")
	if err != nil {
		fmt.Println(markdown)
		return
	}
	fmt.Print(out)
}

// fail reports an error on stderr and returns the failure exit status.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, "Error:", err)
	return subcommands.ExitFailure
}
