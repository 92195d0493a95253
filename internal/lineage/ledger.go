package lineage

import (
	"fmt"

	"github.com/roach88/nblineage/internal/meme"
)

// TrimLimit bounds history length after a reset.
// The zero value (NoTrim) leaves history unbounded.
type TrimLimit struct {
	set bool
	n   int
}

// NoTrim leaves history untouched.
var NoTrim = TrimLimit{}

// TrimTo keeps only the most recent n entries. Zero clears history.
// Negative values are treated as zero.
func TrimTo(n int) TrimLimit {
	return TrimLimit{set: true, n: max(n, 0)}
}

// Limit returns the bound and whether one is set.
func (t TrimLimit) Limit() (int, bool) { return t.n, t.set }

// String implements fmt.Stringer.
func (t TrimLimit) String() string {
	if !t.set {
		return "unlimited"
	}
	return fmt.Sprintf("%d", t.n)
}

// apply trims history from the front. A trimmed result is never nil, so a
// cleared history is still written as [].
func apply[T any](t TrimLimit, history []T) []T {
	if !t.set {
		return history
	}
	if t.n == 0 {
		return []T{}
	}
	if len(history) > t.n {
		kept := make([]T, t.n)
		copy(kept, history[len(history)-t.n:])
		return kept
	}
	return history
}

// RecordIfDrifted appends the record's pre-refresh snapshot to its history
// when drifted is true. Must run before RefreshLinks overwrites the links.
// Reports whether an entry was appended.
func RecordIfDrifted(r *CellRecord, drifted bool) bool {
	if !drifted || r == nil {
		return false
	}
	if r.History == nil {
		r.History = []Snapshot{}
	}
	r.History = append(r.History, r.Snapshot())
	return true
}

// RecordAndReplace archives the current {current, previous, next} snapshot
// into history, installs newCurrent and trims history to t.
func (r *CellRecord) RecordAndReplace(newCurrent meme.Identity, t TrimLimit) {
	r.History = apply(t, append(r.History, r.Snapshot()))
	r.Current = newCurrent
}

// RecordAndReplace archives the current identity into history, installs
// newCurrent and trims history to t.
func (r *NotebookRecord) RecordAndReplace(newCurrent meme.Identity, t TrimLimit) {
	r.History = apply(t, append(r.History, r.Current))
	r.Current = newCurrent
}

// Track installs rec as the current origin signature. When it differs from
// the stored one, the previous value (if any) is pushed to history.
// Reports whether anything changed.
func (r *SignatureRecord) Track(rec map[string]any) bool {
	if r.Current != nil && sameMap(r.Current, rec) {
		return false
	}
	if r.History == nil {
		r.History = []map[string]any{}
	}
	if r.Current != nil {
		r.History = append(r.History, r.Current)
	}
	r.Current = CloneMap(rec)
	return true
}
