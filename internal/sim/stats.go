package sim

import (
	"fmt"
	"io"
	"sort"

	"qazna.org/bankmbt/internal/ledger"
)

// Counter tallies recorded steps by action and by outcome.
type Counter struct {
	Steps    int
	ByAction map[string]int
	// ByCause uses "ok" for steps that succeeded.
	ByCause map[string]int
}

func (c *Counter) Add(actionName string, err error) {
	if c.ByAction == nil {
		c.ByAction = map[string]int{}
		c.ByCause = map[string]int{}
	}
	c.Steps++
	c.ByAction[actionName]++
	cause := "ok"
	if err != nil {
		cause = ledger.Cause(err)
	}
	c.ByCause[cause]++
}

// Merge adds other's counts to c.
func (c *Counter) Merge(other Counter) {
	if c.ByAction == nil {
		c.ByAction = map[string]int{}
		c.ByCause = map[string]int{}
	}
	c.Steps += other.Steps
	for k, v := range other.ByAction {
		c.ByAction[k] += v
	}
	for k, v := range other.ByCause {
		c.ByCause[k] += v
	}
}

func (c Counter) Write(w io.Writer) {
	fmt.Fprintf(w, "steps: %d\n", c.Steps)
	writeCounts(w, "action", c.ByAction)
	writeCounts(w, "outcome", c.ByCause)
}

func writeCounts(w io.Writer, label string, counts map[string]int) {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s %-24s %d\n", label, k, counts[k])
	}
}
