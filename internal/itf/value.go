package itf

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
)

// Pair is one entry of an encoded map, in the order the trace lists it.
type Pair struct {
	Key   json.RawMessage
	Value json.RawMessage
}

func snippet(raw json.RawMessage) string {
	const max = 64
	s := string(bytes.TrimSpace(raw))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// DecodeBigInt accepts {"#bigint": "<decimal>"} and plain integral JSON numbers.
func DecodeBigInt(raw json.RawMessage) (*big.Int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '{' {
		var tagged struct {
			BigInt *string `json:"#bigint"`
		}
		if err := json.Unmarshal(raw, &tagged); err != nil || tagged.BigInt == nil {
			return nil, fmt.Errorf("%w: expected #bigint, got %s", ErrMalformed, snippet(raw))
		}
		v, ok := new(big.Int).SetString(*tagged.BigInt, 10)
		if !ok {
			return nil, fmt.Errorf("%w: #bigint %q is not a decimal integer", ErrMalformed, *tagged.BigInt)
		}
		return v, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("%w: expected integer, got %s", ErrMalformed, snippet(raw))
	}
	v, ok := new(big.Int).SetString(n.String(), 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not an integer", ErrMalformed, n)
	}
	return v, nil
}

// DecodeInt64 is DecodeBigInt for values that must fit in an int64.
func DecodeInt64(raw json.RawMessage) (int64, error) {
	v, err := DecodeBigInt(raw)
	if err != nil {
		return 0, err
	}
	if !v.IsInt64() {
		return 0, fmt.Errorf("%w: %s does not fit in 64 bits", ErrMalformed, v)
	}
	return v.Int64(), nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// DecodeString decodes a JSON string; null is not a string.
func DecodeString(raw json.RawMessage) (string, error) {
	var s string
	if isNull(raw) {
		return "", fmt.Errorf("%w: expected string, got null", ErrMalformed)
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: expected string, got %s", ErrMalformed, snippet(raw))
	}
	return s, nil
}

// DecodeMap decodes {"#map": [[k, v], ...]}.
func DecodeMap(raw json.RawMessage) ([]Pair, error) {
	var tagged struct {
		Map *[][]json.RawMessage `json:"#map"`
	}
	if err := json.Unmarshal(raw, &tagged); err != nil || tagged.Map == nil {
		return nil, fmt.Errorf("%w: expected #map, got %s", ErrMalformed, snippet(raw))
	}
	pairs := make([]Pair, 0, len(*tagged.Map))
	for i, kv := range *tagged.Map {
		if len(kv) != 2 {
			return nil, fmt.Errorf("%w: #map entry %d has %d elements", ErrMalformed, i, len(kv))
		}
		pairs = append(pairs, Pair{Key: kv[0], Value: kv[1]})
	}
	return pairs, nil
}

// DecodeOption decodes the {"tag": "Some"|"None", "value": ...} variant used
// for optional values. The value is returned only for Some.
func DecodeOption(raw json.RawMessage) (json.RawMessage, bool, error) {
	var v struct {
		Tag   string          `json:"tag"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, fmt.Errorf("%w: expected option, got %s", ErrMalformed, snippet(raw))
	}
	switch v.Tag {
	case "Some":
		if v.Value == nil || isNull(v.Value) {
			return nil, false, fmt.Errorf("%w: Some without value", ErrMalformed)
		}
		return v.Value, true, nil
	case "None":
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("%w: unknown option tag %q", ErrMalformed, v.Tag)
	}
}

// DecodeRecord decodes a record into its fields.
func DecodeRecord(raw json.RawMessage) (map[string]json.RawMessage, error) {
	var rec map[string]json.RawMessage
	if err := json.Unmarshal(raw, &rec); err != nil || rec == nil {
		return nil, fmt.Errorf("%w: expected record, got %s", ErrMalformed, snippet(raw))
	}
	return rec, nil
}

// --- encoders ---

func mustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func BigInt(v *big.Int) json.RawMessage {
	return mustMarshal(map[string]string{"#bigint": v.String()})
}

func Int64(n int64) json.RawMessage {
	return BigInt(big.NewInt(n))
}

func String(s string) json.RawMessage {
	return mustMarshal(s)
}

// Map encodes pairs in the order given.
func Map(pairs []Pair) json.RawMessage {
	entries := make([][]json.RawMessage, 0, len(pairs))
	for _, p := range pairs {
		entries = append(entries, []json.RawMessage{p.Key, p.Value})
	}
	return mustMarshal(map[string]any{"#map": entries})
}

func Some(v json.RawMessage) json.RawMessage {
	return mustMarshal(map[string]any{"tag": "Some", "value": v})
}

// None encodes an absent option; its value is the empty tuple.
func None() json.RawMessage {
	return mustMarshal(map[string]any{"tag": "None", "value": map[string]any{"#tup": []any{}}})
}

// Record encodes fields; keys are written in sorted order.
func Record(fields map[string]json.RawMessage) json.RawMessage {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.Write(mustMarshal(k))
		buf.WriteByte(':')
		buf.Write(fields[k])
	}
	buf.WriteByte('}')
	return buf.Bytes()
}
