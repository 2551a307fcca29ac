package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"qazna.org/bankmbt/internal/action"
	"qazna.org/bankmbt/internal/bankstate"
	"qazna.org/bankmbt/internal/itf"
	"qazna.org/bankmbt/internal/render"
)

type showCmd struct{}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "print the steps recorded in a trace" }
func (*showCmd) Usage() string {
	return `bankmbt show <trace>

  Prints every step of the trace: the action taken, the ledger the model
  expects afterwards and the error it reported.
`
}

func (*showCmd) SetFlags(*flag.FlagSet) {}

func (*showCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprint(os.Stderr, (&showCmd{}).Usage())
		return subcommands.ExitUsageError
	}
	tr, err := itf.ReadFile(f.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	for i, st := range tr.States {
		act, err := action.FromState(st)
		if err != nil {
			fmt.Fprintf(os.Stderr, "step %d: %v\n", i, err)
			return subcommands.ExitFailure
		}
		s, err := bankstate.FromState(st)
		if err != nil {
			fmt.Fprintf(os.Stderr, "step %d: %v\n", i, err)
			return subcommands.ExitFailure
		}
		text, err := bankstate.ExpectedError(st)
		if err != nil {
			fmt.Fprintf(os.Stderr, "step %d: %v\n", i, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("#%d %s\n", i, act)
		render.State(os.Stdout, s.Snapshot())
		if text != "" {
			fmt.Printf("Error: %s\n", text)
		}
		fmt.Println()
	}
	return subcommands.ExitSuccess
}
