package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/costbasis"
	"github.com/google/subcommands"
)

type fmtCmd struct {
	events     string
	outputFile string
}

func (*fmtCmd) Name() string { return "fmt" }
func (*fmtCmd) Synopsis() string {
	return "validates and formats an events file into a canonical form"
}
func (*fmtCmd) Usage() string {
	return `cbs fmt [-events <file>] [-o <file>]

  Validates and formats an events file. This command reads all events, sorts
  them in replay order, and writes them back in a canonical JSONL format.
  By default, the file is formatted in-place. Use -o to write elsewhere.

Usage Examples:
# Formats the configured events file.
$ cbs fmt

`
}

func (p *fmtCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.events, "events", "", "JSONL events file. Defaults to the configured one.")
	f.StringVar(&p.outputFile, "o", "", "Output file. Formats in-place by default.")
}

func (p *fmtCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	input := p.events
	if input == "" {
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			return subcommands.ExitFailure
		}
		input = cfg.Events
	}

	events, err := decodeEventsFile(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: could not load events: %v\n", err)
		return subcommands.ExitFailure
	}

	var buf bytes.Buffer
	if err := costbasis.EncodeEvents(&buf, events); err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting %q: %v\n", input, err)
		return subcommands.ExitFailure
	}

	output := p.outputFile
	if output == "" {
		output = input
	}
	if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %q: %v\n", output, err)
		return subcommands.ExitFailure
	}

	fmt.Fprintf(os.Stderr, "Formatted %d events into %s.\n", len(events), output)
	return subcommands.ExitSuccess
}
