package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/costbasis"
	"github.com/etnz/costbasis/fx"
	"github.com/etnz/costbasis/renderer"
	"github.com/google/subcommands"
)

// valueCmd holds the flags for the 'value' subcommand.
type valueCmd struct {
	events    string
	rates     string
	asset     string
	price     string
	currency  string
	at        string
	fromStore bool
	json      bool
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "value a holding at a given price in the reporting currency" }
func (*valueCmd) Usage() string {
	return `cbs value -a <asset> -p <price> [-c <currency>] [-at <time>] [-rates <file>] [-store]

  Values the holding of an asset at a unit price: market value, cost basis,
  unrealized and realized gains, and income, all converted into the
  reporting currency with the exchange rates valid at the valuation time.

  Only events at or before the valuation time are replayed.

Usage Examples:
$ cbs value -a US0378331005.XNAS -p "160 USD" -c EUR -rates rates.json

`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.events, "events", "", "JSONL events file. Defaults to the configured one.")
	f.StringVar(&c.rates, "rates", "", "JSON exchange rates file. Defaults to the configured one.")
	f.StringVar(&c.asset, "a", "", "Asset to value.")
	f.StringVar(&c.price, "p", "", "Unit price of the asset, e.g. \"160 USD\".")
	f.StringVar(&c.currency, "c", "", "Reporting currency. Defaults to the configured one.")
	f.StringVar(&c.at, "at", "", "Valuation time (RFC 3339). Defaults to now.")
	f.BoolVar(&c.fromStore, "store", false, "value the events recorded in the event store instead of a file")
	f.BoolVar(&c.json, "json", false, "print the valuation as JSON")
}

func (c *valueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}

	asset, err := costbasis.ParseAssetID(c.asset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing asset: %v\n", err)
		return subcommands.ExitUsageError
	}
	price, err := costbasis.ParsePrice(c.price)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing price: %v\n", err)
		return subcommands.ExitUsageError
	}
	at := time.Now().UTC()
	if c.at != "" {
		if at, err = time.Parse(time.RFC3339, c.at); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing valuation time: %v\n", err)
			return subcommands.ExitUsageError
		}
	}
	currency := cfg.Currency
	if c.currency != "" {
		currency = c.currency
	}

	rates := costbasis.NewRateBook()
	file := cfg.Rates.File
	if c.rates != "" {
		file = c.rates
	}
	if file != "" {
		n, err := fx.LoadFile(rates, file, cfg.Rates.Schema)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading exchange rates: %v\n", err)
			return subcommands.ExitFailure
		}
		newLogger(cfg).Debug("exchange rates loaded", "file", file, "count", n)
	}

	events, err := loadEvents(ctx, cfg, c.fromStore, c.events, asset)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading events: %v\n", err)
		return subcommands.ExitFailure
	}
	var past []costbasis.Event
	for _, e := range events {
		if !e.When().After(at) {
			past = append(past, e)
		}
	}
	h, err := replayAsset(asset, past)
	if err != nil {
		printMarkdown(renderer.ReplayFailureMarkdown(err))
		return subcommands.ExitFailure
	}

	v, err := costbasis.Valuate(ctx, h, price, currency, at, rates)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error valuing %s: %v\n", asset, err)
		return subcommands.ExitFailure
	}
	if c.json {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding valuation: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.ValuationMarkdown(v))
	return subcommands.ExitSuccess
}
