package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/costbasis/book"
	"github.com/etnz/costbasis/renderer"
	"github.com/google/subcommands"
)

type importCmd struct{}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "record the events of JSONL files into the event store" }
func (*importCmd) Usage() string {
	return `cbs import <file>...

  Records the events of each file into the configured event store, in replay
  order. An event is only recorded if the asset's events, including it,
  replay without error. The import stops at the first refused event.

Usage Examples:
$ cbs import 2024.jsonl 2025.jsonl

`
}

func (*importCmd) SetFlags(f *flag.FlagSet) {}

func (*importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no file to import")
		return subcommands.ExitUsageError
	}
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	s, err := openStore(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening the event store: %v\n", err)
		return subcommands.ExitFailure
	}
	defer s.Close()
	b := book.New(s, newLogger(cfg))

	for _, name := range f.Args() {
		events, err := decodeEventsFile(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: could not load events: %v\n", err)
			return subcommands.ExitFailure
		}
		n, err := b.RecordAll(ctx, events)
		fmt.Fprintf(os.Stderr, "Recorded %d of %d events from %s.\n", n, len(events), name)
		if err != nil {
			printMarkdown(renderer.ReplayFailureMarkdown(err))
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
