package sim

import (
	"encoding/json"

	"qazna.org/bankmbt/internal/action"
	"qazna.org/bankmbt/internal/bankstate"
	"qazna.org/bankmbt/internal/itf"
	"qazna.org/bankmbt/internal/ledger"
)

// Recorder applies actions to a ledger and keeps the ITF trace of the run.
type Recorder struct {
	state   *ledger.State
	trace   *itf.Trace
	counter Counter
}

// NewRecorder starts a trace whose first state is s after the init action.
func NewRecorder(s *ledger.State, meta map[string]any) *Recorder {
	r := &Recorder{
		state: s,
		trace: &itf.Trace{
			Meta: meta,
			Vars: []string{bankstate.VarBankState, bankstate.VarError, itf.VarActionTaken, itf.VarNondetPicks},
		},
	}
	r.record(action.Init{}, nil)
	return r
}

// Step applies a and records the resulting state. The returned error is the
// engine's verdict and is recorded, not a recording failure.
func (r *Recorder) Step(a action.Action) error {
	err := a.Apply(r.state)
	r.record(a, err)
	r.counter.Add(a.Name(), err)
	return err
}

func (r *Recorder) record(a action.Action, err error) {
	text := ""
	if err != nil {
		text = err.Error()
	}
	r.trace.States = append(r.trace.States, itf.State{
		Meta: map[string]any{"index": len(r.trace.States)},
		Fields: map[string]json.RawMessage{
			bankstate.VarBankState: bankstate.Encode(r.state),
			bankstate.VarError:     bankstate.EncodeError(text),
			itf.VarActionTaken:     itf.String(a.Name()),
			itf.VarNondetPicks:     action.EncodePicks(a),
		},
	})
}

func (r *Recorder) Trace() *itf.Trace { return r.trace }

func (r *Recorder) Counter() Counter { return r.counter }

// Record runs steps random actions against a fresh ledger built with opts.
func (g *Generator) Record(steps int, opts ...ledger.Option) (*itf.Trace, Counter) {
	rec := NewRecorder(ledger.New(opts...), map[string]any{
		"format":      "ITF",
		"description": "generated by bankmbt simulate, scenario " + g.scenario.Name,
	})
	for range steps {
		_ = rec.Step(g.NextAction(rec.state))
	}
	return rec.Trace(), rec.Counter()
}
