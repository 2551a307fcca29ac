// Package itf reads and writes traces in the Informal Trace Format, the JSON
// encoding model checkers and simulators use to record executions.
package itf

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Variables the model-based testing mode of the simulator adds to every state.
const (
	VarActionTaken = "mbt::actionTaken"
	VarNondetPicks = "mbt::nondetPicks"
	metaKey        = "#meta"
)

// ErrMalformed is wrapped by every decoding error caused by the trace contents.
var ErrMalformed = errors.New("malformed ITF")

// Trace is a recorded execution: the variable names and one State per step.
type Trace struct {
	Meta   map[string]any `json:"#meta,omitempty"`
	Params []string       `json:"params,omitempty"`
	Vars   []string       `json:"vars"`
	States []State        `json:"states"`
	Loop   *int           `json:"loop,omitempty"`
}

// State maps variable names to their still-encoded values.
type State struct {
	Meta   map[string]any
	Fields map[string]json.RawMessage
}

func (s *State) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("%w: state: %v", ErrMalformed, err)
	}
	if fields == nil {
		return fmt.Errorf("%w: state is null", ErrMalformed)
	}
	s.Meta = nil
	if raw, ok := fields[metaKey]; ok {
		if err := json.Unmarshal(raw, &s.Meta); err != nil {
			return fmt.Errorf("%w: state %s: %v", ErrMalformed, metaKey, err)
		}
		delete(fields, metaKey)
	}
	s.Fields = fields
	return nil
}

func (s State) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Fields)+1)
	for k, v := range s.Fields {
		out[k] = v
	}
	if len(s.Meta) > 0 {
		out[metaKey] = s.Meta
	}
	return json.Marshal(out)
}

// Field returns the encoded value of variable name.
func (s State) Field(name string) (json.RawMessage, error) {
	raw, ok := s.Fields[name]
	if !ok {
		return nil, fmt.Errorf("%w: variable %q missing", ErrMalformed, name)
	}
	return raw, nil
}

// ActionTaken returns the name of the action that produced this state.
func (s State) ActionTaken() (string, error) {
	raw, err := s.Field(VarActionTaken)
	if err != nil {
		return "", err
	}
	name, err := DecodeString(raw)
	if err != nil {
		return "", fmt.Errorf("%s: %w", VarActionTaken, err)
	}
	return name, nil
}

// NondetPicks returns the picks that were made for this step. Picks recorded
// as None are left out.
func (s State) NondetPicks() (map[string]json.RawMessage, error) {
	raw, ok := s.Fields[VarNondetPicks]
	if !ok {
		return map[string]json.RawMessage{}, nil
	}
	rec, err := DecodeRecord(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", VarNondetPicks, err)
	}
	picks := make(map[string]json.RawMessage, len(rec))
	for name, opt := range rec {
		v, some, err := DecodeOption(opt)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", VarNondetPicks, name, err)
		}
		if some {
			picks[name] = v
		}
	}
	return picks, nil
}

// Decode reads one trace.
func Decode(r io.Reader) (*Trace, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var t Trace
	if err := dec.Decode(&t); err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(t.States) == 0 {
		return nil, fmt.Errorf("%w: trace has no states", ErrMalformed)
	}
	return &t, nil
}

// ReadFile decodes the trace stored at path.
func ReadFile(path string) (*Trace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Encode writes t as indented JSON.
func Encode(w io.Writer, t *Trace) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t)
}

// WriteFile encodes t into path, replacing any previous content.
func WriteFile(path string, t *Trace) error {
	var buf bytes.Buffer
	if err := Encode(&buf, t); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
