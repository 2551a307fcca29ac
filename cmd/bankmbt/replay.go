package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/prometheus/client_golang/prometheus"

	"qazna.org/bankmbt/internal/config"
	"qazna.org/bankmbt/internal/obs"
	"qazna.org/bankmbt/internal/replay"
)

type replayCmd struct {
	cfg     config.Config
	verbose bool
}

func (*replayCmd) Name() string     { return "replay" }
func (*replayCmd) Synopsis() string { return "replay ITF traces against the ledger engine" }
func (*replayCmd) Usage() string {
	return `bankmbt replay [-dir <dir>] [-pattern <glob>] [-workers N] [-v] [-fail-fast]
               [-max-balance N] [-messages <file.json>] [-metrics-file <path>] [trace...]

  Replays every trace given as argument, or every trace in -dir matching
  -pattern, and reports the first step of each trace where the engine and
  the model disagree. Defaults come from BANKMBT_* environment variables.
`
}

func (c *replayCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.cfg.TraceDir, "dir", c.cfg.TraceDir, "Directory holding the traces.")
	f.StringVar(&c.cfg.TracePattern, "pattern", c.cfg.TracePattern, "Glob selecting trace files in -dir.")
	f.IntVar(&c.cfg.Workers, "workers", c.cfg.Workers, "Traces replayed concurrently.")
	f.BoolVar(&c.verbose, "v", false, "Print expected and actual ledgers for every step.")
	f.BoolVar(&c.cfg.FailFast, "fail-fast", c.cfg.FailFast, "Stop at the first failing trace.")
	f.StringVar(&c.cfg.MaxBalance, "max-balance", c.cfg.MaxBalance, "Largest balance an account may hold (empty for unbounded).")
	f.StringVar(&c.cfg.ErrorMessages, "messages", c.cfg.ErrorMessages, "JSON file mapping error causes to the model's error texts.")
	f.StringVar(&c.cfg.MetricsFile, "metrics-file", c.cfg.MetricsFile, "Write run metrics to this file in Prometheus text format.")
}

func (c *replayCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if err := c.cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	opts, err := c.cfg.LedgerOptions()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitUsageError
	}
	var messages replay.Messages
	if c.cfg.ErrorMessages != "" {
		if messages, err = replay.LoadMessages(c.cfg.ErrorMessages); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}

	paths := f.Args()
	if len(paths) == 0 {
		if paths, err = replay.Discover(c.cfg.TraceDir, c.cfg.TracePattern); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
	}
	if len(paths) == 0 {
		fmt.Fprintf(os.Stderr, "no traces matching %s in %s\n", c.cfg.TracePattern, c.cfg.TraceDir)
		return subcommands.ExitFailure
	}

	reg := prometheus.NewRegistry()
	obs.RegisterBuildInfo(reg, version, commit)
	runner := &replay.Runner{
		Workers:  c.cfg.Workers,
		Options:  opts,
		Messages: messages,
		FailFast: c.cfg.FailFast,
		Verbose:  c.verbose,
		Out:      os.Stdout,
		Metrics:  obs.NewReplayMetrics(reg),
		Progress: c.cfg.ProgressInterval,
	}
	rep, runErr := runner.Run(ctx, paths)
	rep.WriteSummary(os.Stdout)

	if c.cfg.MetricsFile != "" {
		if err := obs.WriteTextfile(c.cfg.MetricsFile, reg); err != nil {
			fmt.Fprintf(os.Stderr, "write metrics: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		return subcommands.ExitFailure
	}
	if !rep.OK() {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
