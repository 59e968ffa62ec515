// Package cmd implements the cbs command line application.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/costbasis"
	"github.com/etnz/costbasis/config"
	"github.com/etnz/costbasis/store"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", os.Getenv("CBS_CONFIG"), "Path to the YAML configuration file")
var raw = flag.Bool("raw", false, "Print reports as raw markdown instead of rendering them for the terminal")

// stdout receives reports.
var stdout io.Writer = os.Stdout

// loadConfig loads the configuration selected by the -config flag.
func loadConfig() (*config.Config, error) {
	return config.Load(*configFile)
}

// newLogger returns a text logger on stderr at the configured level.
func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.Level() // validated by config.Load
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// printMarkdown renders md for the terminal, unless -raw is set.
func printMarkdown(md string) {
	if *raw {
		fmt.Fprint(stdout, md)
		return
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	fmt.Fprint(stdout, out)
}

// decodeEventsFile reads a JSONL events file.
func decodeEventsFile(name string) ([]costbasis.Event, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	events, err := costbasis.DecodeEvents(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return events, nil
}

// openStore opens the configured event store.
func openStore(ctx context.Context, cfg *config.Config) (*store.SQLStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
}

// loadEvents returns the events of asset, from the store or from a JSONL
// file. An empty asset selects every event of the file, and none of the store.
func loadEvents(ctx context.Context, cfg *config.Config, fromStore bool, file string, asset costbasis.AssetID) ([]costbasis.Event, error) {
	if fromStore {
		s, err := openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		return s.Events(ctx, asset)
	}
	if file == "" {
		file = cfg.Events
	}
	events, err := decodeEventsFile(file)
	if err != nil {
		return nil, err
	}
	if asset == "" {
		return events, nil
	}
	return costbasis.GroupByAsset(events)[asset], nil
}

// replayAsset replays the events of a single asset, inferring its basis currency.
func replayAsset(asset costbasis.AssetID, events []costbasis.Event) (costbasis.Holding, error) {
	currency, err := costbasis.InferCurrency(events)
	if err != nil {
		return costbasis.Holding{}, fmt.Errorf("cannot infer the basis currency of %s: %w", asset, err)
	}
	return costbasis.ReplayNew(asset, currency, events)
}
