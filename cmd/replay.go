package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/costbasis"
	"github.com/etnz/costbasis/book"
	"github.com/etnz/costbasis/config"
	"github.com/etnz/costbasis/renderer"
	"github.com/google/subcommands"
)

// replayCmd holds the flags for the 'replay' subcommand.
type replayCmd struct {
	events    string
	asset     string
	fromStore bool
	json      bool
}

func (*replayCmd) Name() string     { return "replay" }
func (*replayCmd) Synopsis() string { return "replay events and display the resulting holdings" }
func (*replayCmd) Usage() string {
	return `cbs replay [-events <file>] [-a <asset>] [-store] [-json]

  Replays the events of a JSONL file, or of the event store, and displays the
  holding of each asset: quantity, cost basis, average cost, realized gain
  and income. With -a, only that asset is replayed and its journal displayed.

  If an event cannot be applied, the replay stops and the failure is reported.

Usage Examples:
# Replays the configured events file.
$ cbs replay

# Displays the journal of a single asset, from the store.
$ cbs replay -store -a US0378331005.XNAS

`
}

func (c *replayCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.events, "events", "", "JSONL events file. Defaults to the configured one.")
	f.StringVar(&c.asset, "a", "", "Asset to replay. All assets by default.")
	f.BoolVar(&c.fromStore, "store", false, "replay the events recorded in the event store instead of a file")
	f.BoolVar(&c.json, "json", false, "print holdings as JSON")
}

func (c *replayCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	var asset costbasis.AssetID
	if c.asset != "" {
		if asset, err = costbasis.ParseAssetID(c.asset); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing asset: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	holdings, err := c.holdings(ctx, cfg, asset)
	if err != nil {
		printMarkdown(renderer.ReplayFailureMarkdown(err))
		return subcommands.ExitFailure
	}

	if c.json {
		snapshots := make([]costbasis.Snapshot, len(holdings))
		for i, h := range holdings {
			snapshots[i] = h.Snapshot()
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snapshots); err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding holdings: %v\n", err)
			return subcommands.ExitFailure
		}
		return subcommands.ExitSuccess
	}

	if asset != "" && len(holdings) == 1 {
		printMarkdown(renderer.HoldingMarkdown(holdings[0]))
	} else {
		printMarkdown(renderer.HoldingsMarkdown(holdings))
	}
	return subcommands.ExitSuccess
}

func (c *replayCmd) holdings(ctx context.Context, cfg *config.Config, asset costbasis.AssetID) ([]costbasis.Holding, error) {
	if c.fromStore {
		s, err := openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		b := book.New(s, newLogger(cfg))
		if asset == "" {
			return b.Holdings(ctx)
		}
		h, err := b.Holding(ctx, asset)
		if err != nil {
			return nil, err
		}
		return []costbasis.Holding{h}, nil
	}

	events, err := loadEvents(ctx, cfg, false, c.events, asset)
	if err != nil {
		return nil, err
	}
	groups := costbasis.GroupByAsset(events)
	var holdings []costbasis.Holding
	for _, a := range costbasis.Assets(groups) {
		h, err := replayAsset(a, groups[a])
		if err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	if asset != "" && len(holdings) == 0 {
		return nil, fmt.Errorf("%w: %s", book.ErrUnknownAsset, asset)
	}
	return holdings, nil
}
