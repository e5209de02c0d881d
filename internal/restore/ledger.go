package restore

import (
	"fmt"
	"sort"
)

// Ledger accumulates per-category restore accounting for one run. It is
// surfaced through logs and the returned Outcome, never persisted.
type Ledger struct {
	restored map[string]int
	failed   map[string]int
	skipped  map[string]int
	warnings []string
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		restored: make(map[string]int),
		failed:   make(map[string]int),
		skipped:  make(map[string]int),
	}
}

// Restored records one successful restore in a category.
func (l *Ledger) Restored(category string) { l.restored[category]++ }

// Failed records one hard failure in a category.
func (l *Ledger) Failed(category string) { l.failed[category]++ }

// Skipped records one not-applicable or unresolvable resource. Counted
// separately from failures; skipped resources are never retried.
func (l *Ledger) Skipped(category string) { l.skipped[category]++ }

// Warnf appends an operator-actionable warning.
func (l *Ledger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

// Outcome is the immutable result of a restore run.
type Outcome struct {
	Restored map[string]int
	Failed   map[string]int
	Skipped  map[string]int
	Warnings []string
}

// Outcome snapshots the ledger.
func (l *Ledger) Outcome() *Outcome {
	return &Outcome{
		Restored: copyCounts(l.restored),
		Failed:   copyCounts(l.failed),
		Skipped:  copyCounts(l.skipped),
		Warnings: append([]string(nil), l.warnings...),
	}
}

// TotalRestored sums successful restores across categories.
func (o *Outcome) TotalRestored() int { return sumCounts(o.Restored) }

// TotalFailed sums hard failures across categories.
func (o *Outcome) TotalFailed() int { return sumCounts(o.Failed) }

// TotalSkipped sums skipped resources across categories.
func (o *Outcome) TotalSkipped() int { return sumCounts(o.Skipped) }

// Categories returns every category seen by the run, sorted.
func (o *Outcome) Categories() []string {
	seen := make(map[string]bool)
	for _, m := range []map[string]int{o.Restored, o.Failed, o.Skipped} {
		for k := range m {
			seen[k] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func sumCounts(m map[string]int) int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}
