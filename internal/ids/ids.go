// Package ids issues identifiers for replay runs and generated traces.
package ids

import (
	"io"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator returns lexicographically sortable ULIDs. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	now     func() time.Time
	entropy io.Reader
}

// NewGenerator builds a Generator. A nil clock means time.Now; seed 0 seeds from the clock.
func NewGenerator(now func() time.Time, seed int64) *Generator {
	if now == nil {
		now = time.Now
	}
	if seed == 0 {
		seed = now().UnixNano()
	}
	return &Generator{
		now:     now,
		entropy: ulid.Monotonic(mathrand.New(mathrand.NewSource(seed)), 0),
	}
}

func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy).String()
}

var std = NewGenerator(nil, 0)

// New returns a lexicographically sortable identifier from the shared generator.
func New() string {
	return std.New()
}
