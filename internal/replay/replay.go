// Package replay checks the ledger against model-generated traces: every
// recorded step is applied to the engine and the resulting ledger and error
// text are compared with what the model recorded.
package replay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"qazna.org/bankmbt/internal/action"
	"qazna.org/bankmbt/internal/audit"
	"qazna.org/bankmbt/internal/bankstate"
	"qazna.org/bankmbt/internal/ids"
	"qazna.org/bankmbt/internal/itf"
	"qazna.org/bankmbt/internal/ledger"
	"qazna.org/bankmbt/internal/obs"
	"qazna.org/bankmbt/internal/render"
)

var errFailFast = errors.New("stopping after first failing trace")

const statusSkipped = "skipped"

// Mismatch describes the first step at which the engine and the model disagree.
type Mismatch struct {
	Step          int
	Action        string
	StateDiff     string
	ExpectedError string
	ActualError   string
}

func (m Mismatch) StateDiffers() bool { return m.StateDiff != "" }
func (m Mismatch) ErrorDiffers() bool { return m.ExpectedError != m.ActualError }

// Result is the outcome of one trace. Replay of a trace stops at its first mismatch.
type Result struct {
	Path     string
	Steps    int
	Mismatch *Mismatch
	Err      error
	Skipped  bool
	Duration time.Duration
}

func (r Result) Passed() bool { return !r.Skipped && r.Err == nil && r.Mismatch == nil }

// Status is one of obs.ResultPass, obs.ResultFail, obs.ResultError or "skipped".
func (r Result) Status() string {
	switch {
	case r.Skipped:
		return statusSkipped
	case r.Err != nil:
		return obs.ResultError
	case r.Mismatch != nil:
		return obs.ResultFail
	}
	return obs.ResultPass
}

// Report aggregates a run. Results are in the order the paths were given.
type Report struct {
	RunID    string
	Results  []Result
	Passed   int
	Failed   int
	Errored  int
	Skipped  int
	Duration time.Duration
}

func (r Report) OK() bool { return r.Failed == 0 && r.Errored == 0 && r.Skipped == 0 }

// Runner replays traces. The zero value replays sequentially without output.
type Runner struct {
	Workers  int
	Options  []ledger.Option
	Messages Messages
	FailFast bool
	// Verbose writes every step's expected and actual ledger to Out.
	Verbose bool
	Out     io.Writer
	Metrics *obs.ReplayMetrics
	// Progress is the minimum interval between progress log lines; 0 disables them.
	Progress time.Duration
	IDs      *ids.Generator

	outMu sync.Mutex
}

// Run replays paths concurrently. It only returns an error when ctx is done
// before every trace was replayed.
func (r *Runner) Run(ctx context.Context, paths []string) (Report, error) {
	start := time.Now()
	runID := r.newRunID()
	ctx = audit.WithRunID(ctx, runID)
	_ = audit.LogEvent(ctx, "replay.run.start", map[string]any{"traces": len(paths), "workers": r.workers()})

	results := make([]Result, len(paths))
	var done atomic.Int64
	var progress *rate.Sometimes
	if r.Progress > 0 {
		progress = &rate.Sometimes{First: 1, Interval: r.Progress}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i, path := range paths {
		g.Go(func() error {
			if gctx.Err() != nil {
				results[i] = Result{Path: path, Skipped: true}
				return nil
			}
			res := r.RunTrace(gctx, path)
			if res.Err != nil && gctx.Err() != nil && errors.Is(res.Err, gctx.Err()) {
				res = Result{Path: path, Skipped: true}
			}
			results[i] = res

			n := done.Add(1)
			if progress != nil {
				progress.Do(func() {
					obs.LogEvent("info", "replay.progress", map[string]any{
						"run_id": runID,
						"done":   n,
						"total":  len(paths),
					})
				})
			}
			if res.Skipped || res.Passed() {
				return nil
			}
			_ = audit.LogEvent(audit.WithTrace(gctx, path), "replay.trace."+res.Status(), failureFields(res))
			if r.FailFast {
				return errFailFast
			}
			return nil
		})
	}
	_ = g.Wait()

	rep := Report{RunID: runID, Results: results, Duration: time.Since(start)}
	for _, res := range results {
		switch res.Status() {
		case obs.ResultPass:
			rep.Passed++
		case obs.ResultFail:
			rep.Failed++
		case obs.ResultError:
			rep.Errored++
		default:
			rep.Skipped++
		}
	}
	_ = audit.LogEvent(ctx, "replay.run.finish", map[string]any{
		"passed":      rep.Passed,
		"failed":      rep.Failed,
		"errored":     rep.Errored,
		"skipped":     rep.Skipped,
		"duration_ms": rep.Duration.Milliseconds(),
	})
	if err := ctx.Err(); err != nil {
		return rep, err
	}
	return rep, nil
}

func failureFields(res Result) map[string]any {
	fields := map[string]any{"steps": res.Steps}
	if res.Err != nil {
		fields["error"] = res.Err.Error()
	}
	if m := res.Mismatch; m != nil {
		fields["step"] = m.Step
		fields["action"] = m.Action
		fields["state_differs"] = m.StateDiffers()
		fields["expected_error"] = m.ExpectedError
		fields["actual_error"] = m.ActualError
	}
	return fields
}

func (r *Runner) workers() int {
	if r.Workers <= 0 {
		return 1
	}
	return r.Workers
}

func (r *Runner) newRunID() string {
	if r.IDs != nil {
		return r.IDs.New()
	}
	return ids.New()
}

// RunTrace replays the trace stored at path.
func (r *Runner) RunTrace(ctx context.Context, path string) Result {
	start := time.Now()
	tr, err := itf.ReadFile(path)
	if err != nil {
		res := Result{Path: path, Err: err, Duration: time.Since(start)}
		r.Metrics.ObserveTrace(res.Status(), res.Duration)
		return res
	}
	res := r.Replay(ctx, path, tr)
	res.Duration = time.Since(start)
	return res
}

// Replay checks an already decoded trace. name only labels the output.
func (r *Runner) Replay(ctx context.Context, name string, tr *itf.Trace) Result {
	start := time.Now()
	var buf bytes.Buffer
	var out io.Writer = io.Discard
	if r.Verbose && r.Out != nil {
		out = &buf
	}
	res := r.replay(ctx, name, tr, out)
	res.Duration = time.Since(start)
	if ctx.Err() == nil || !errors.Is(res.Err, ctx.Err()) {
		r.Metrics.ObserveTrace(res.Status(), res.Duration)
	}
	if buf.Len() > 0 {
		// Traces run concurrently; keep each trace's output in one piece.
		r.outMu.Lock()
		_, _ = r.Out.Write(buf.Bytes())
		r.outMu.Unlock()
	}
	return res
}

func (r *Runner) replay(ctx context.Context, name string, tr *itf.Trace, out io.Writer) Result {
	res := Result{Path: name}
	if len(tr.States) == 0 {
		res.Err = fmt.Errorf("%w: trace has no states", itf.ErrMalformed)
		return res
	}
	fmt.Fprintf(out, "Trace %s\n", name)

	// The engine starts where the model started.
	state, err := bankstate.FromState(tr.States[0], r.Options...)
	if err != nil {
		res.Err = fmt.Errorf("initial state: %w", err)
		return res
	}

	for i, st := range tr.States {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}
		act, err := action.FromState(st)
		if err != nil {
			res.Err = fmt.Errorf("step %d: %w", i, err)
			return res
		}
		expected, err := bankstate.FromState(st)
		if err != nil {
			res.Err = fmt.Errorf("step %d: expected state: %w", i, err)
			return res
		}
		expectedErr, err := bankstate.ExpectedError(st)
		if err != nil {
			res.Err = fmt.Errorf("step %d: %w", i, err)
			return res
		}

		applyErr := act.Apply(state)
		actualErr := r.Messages.Text(applyErr)
		r.Metrics.ObserveStep(act.Name(), ledger.Cause(applyErr))
		res.Steps++

		cmp := render.Comparison{
			Expected:      expected.Snapshot(),
			ExpectedError: expectedErr,
			Actual:        state.Snapshot(),
			ActualError:   actualErr,
		}
		fmt.Fprintln(out, act.String())
		render.Step(out, cmp)

		stateOK := render.Equal(cmp.Expected, cmp.Actual)
		if stateOK && expectedErr == actualErr {
			continue
		}
		m := &Mismatch{
			Step:          i,
			Action:        act.String(),
			ExpectedError: expectedErr,
			ActualError:   actualErr,
		}
		if !stateOK {
			m.StateDiff = render.Diff(cmp.Expected, cmp.Actual)
			r.Metrics.ObserveMismatch(obs.MismatchState)
		}
		if m.ErrorDiffers() {
			r.Metrics.ObserveMismatch(obs.MismatchError)
		}
		res.Mismatch = m
		return res
	}
	return res
}

// WriteSummary prints every failing trace followed by the totals.
func (rep Report) WriteSummary(w io.Writer) {
	for _, res := range rep.Results {
		switch {
		case res.Err != nil:
			fmt.Fprintf(w, "ERROR %s: %v\n", res.Path, res.Err)
		case res.Mismatch != nil:
			m := res.Mismatch
			fmt.Fprintf(w, "FAIL  %s: step %d %s\n", res.Path, m.Step, m.Action)
			if m.ErrorDiffers() {
				fmt.Fprintf(w, "      error: expected %q, got %q\n", m.ExpectedError, m.ActualError)
			}
			if m.StateDiffers() {
				fmt.Fprintf(w, "      state (-expected +actual):\n%s\n", render.Indent(m.StateDiff, "        "))
			}
		}
	}
	fmt.Fprintf(w, "run %s: %d traces, %d passed, %d failed, %d errors, %d skipped in %s\n",
		rep.RunID, len(rep.Results), rep.Passed, rep.Failed, rep.Errored, rep.Skipped, rep.Duration.Round(time.Millisecond))
}
