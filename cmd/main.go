package cmd

import "github.com/google/subcommands"

// Commands lists the cbs subcommands.
var Commands = []subcommands.Command{
	&replayCmd{},
	&valueCmd{},
	&fmtCmd{},
	&importCmd{},
}
