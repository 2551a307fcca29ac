package replay

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"qazna.org/bankmbt/internal/ledger"
)

// Messages overrides the text reported for engine errors, keyed by cause name
// (see ledger.Causes). Causes without an entry keep the engine's own text.
type Messages map[string]string

// LoadMessages reads a JSON object of cause name to text.
func LoadMessages(path string) (Messages, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Messages
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	known := ledger.Causes()
	for cause := range m {
		if !slices.Contains(known, cause) {
			return nil, fmt.Errorf("%s: unknown cause %q (known: %v)", path, cause, known)
		}
	}
	return m, nil
}

// Text is the error text compared against the model's, "" for success.
func (m Messages) Text(err error) string {
	if err == nil {
		return ""
	}
	if text, ok := m[ledger.Cause(err)]; ok {
		return text
	}
	return err.Error()
}
