// Package render prints ledger snapshots and replay comparisons for humans.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/go-cmp/cmp"

	"qazna.org/bankmbt/internal/ledger"
)

const (
	ruleExpected = "-------------------- Expected --------------------------------"
	ruleActual   = "-------------------- Actual ----------------------------------"
	ruleEnd      = "--------------------------------------------------------------"
)

// State prints the Balances / Investments / Next ID block.
func State(w io.Writer, snap ledger.Snapshot) {
	fmt.Fprintln(w, "Balances:")
	for _, b := range snap.Balances {
		fmt.Fprintf(w, "  %s: %s\n", b.Account, b.Amount)
	}
	fmt.Fprintln(w, "Investments:")
	for _, inv := range snap.Investments {
		fmt.Fprintf(w, "  ID %d: { owner: %s, amount: %s }\n", inv.ID, inv.Owner, inv.Amount)
	}
	fmt.Fprintf(w, "Next ID: %d\n", snap.NextID)
}

// Comparison is what one replayed step produced next to what the model expected.
type Comparison struct {
	Expected      ledger.Snapshot
	ExpectedError string
	Actual        ledger.Snapshot
	ActualError   string
}

// Step prints the Expected and Actual blocks of one step.
func Step(w io.Writer, c Comparison) {
	fmt.Fprintln(w, ruleExpected)
	State(w, c.Expected)
	fmt.Fprintf(w, "Error: %s\n", c.ExpectedError)
	fmt.Fprintln(w, ruleActual)
	State(w, c.Actual)
	fmt.Fprintf(w, "Error: %s\n", c.ActualError)
	fmt.Fprintln(w, ruleEnd)
	fmt.Fprintln(w)
}

// Diff returns a structural diff between two snapshots, "" when they are equal.
// Lines prefixed with "-" come from expected, "+" from actual.
func Diff(expected, actual ledger.Snapshot) string {
	return cmp.Diff(expected, actual)
}

// Equal reports whether two snapshots describe the same ledger.
func Equal(expected, actual ledger.Snapshot) bool {
	return cmp.Equal(expected, actual)
}

// Indent prefixes every non-empty line of s.
func Indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}
