// Command cbs tracks the cost basis of holdings from a log of events.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/costbasis/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// fileFlags are the flags naming a file, completed with matching files.
var fileFlags = map[string]string{
	"config": "*.yaml",
	"events": "*.jsonl",
	"rates":  "*.json",
	"o":      "*.jsonl",
}

// flagPredictors returns completion predictors for the flags of fs.
func flagPredictors(fs *flag.FlagSet) map[string]complete.Predictor {
	predictors := make(map[string]complete.Predictor)
	fs.VisitAll(func(f *flag.Flag) {
		if pattern, ok := fileFlags[f.Name]; ok {
			predictors[f.Name] = predict.Files(pattern)
			return
		}
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			predictors[f.Name] = predict.Nothing
			return
		}
		predictors[f.Name] = predict.Something
	})
	return predictors
}

// completion describes the command line for shell completion.
func completion() *complete.Command {
	root := &complete.Command{
		Sub:   make(map[string]*complete.Command),
		Flags: flagPredictors(flag.CommandLine),
	}
	for _, c := range cmd.Commands {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		sub := &complete.Command{Flags: flagPredictors(fs)}
		if c.Name() == "import" {
			sub.Args = predict.Files("*.jsonl")
		}
		root.Sub[c.Name()] = sub
	}
	return root
}

func main() {
	// exits when invoked by the shell for completion.
	completion().Complete(path.Base(os.Args[0]))

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
