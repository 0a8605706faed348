// Package cmd holds the flag groups and process setup shared by
// curator commands.
package cmd

import (
	kingpin "gopkg.in/alecthomas/kingpin.v2" // Command line flag parsing.
)

// Flagger defines command line flags and args.
// Examples: kingpin.Application and kingping.CmdClause.
type Flagger interface {
	Flag(name string, help string) *kingpin.FlagClause
	Arg(name string, help string) *kingpin.ArgClause
}

// Commander defines subcommands.
type Commander interface {
	Flagger
	Command(name string, help string) *kingpin.CmdClause
}

// Assert the interfaces match the things
// they need to match.
var (
	_ Flagger   = (*kingpin.Application)(nil)
	_ Flagger   = (*kingpin.CmdClause)(nil)
	_ Commander = (*kingpin.Application)(nil)
	_ Commander = (*kingpin.CmdClause)(nil)
)
