package lineage

import (
	"maps"
	"slices"

	"github.com/roach88/nblineage/internal/meme"
)

// Metadata keys, compatible with notebooks written by existing tooling.
const (
	NotebookKey        = "lc_notebook_meme"
	CellKey            = "lc_cell_meme"
	ServerSignatureKey = "lc_server_signature"
)

// Record field keys.
const (
	FieldCurrent   = "current"
	FieldPrevious  = "previous"
	FieldNext      = "next"
	FieldHistory   = "history"
	FieldRootCells = "root_cells"
)

// Link is a recorded neighbour reference.
//
// The zero value means the field was never recorded. A recorded link with
// an empty ID means "no neighbour" and is written as JSON null.
type Link struct {
	Recorded bool
	ID       meme.Identity
}

// None returns a recorded "no neighbour" link.
func None() Link { return Link{Recorded: true} }

// To returns a recorded link to id. An empty id yields None().
func To(id meme.Identity) Link { return Link{Recorded: true, ID: id} }

// IsNone reports whether the link records the absence of a neighbour.
func (l Link) IsNone() bool { return l.Recorded && l.ID == "" }

// Snapshot is one history entry of a cell record.
type Snapshot struct {
	Current  meme.Identity
	Previous Link
	Next     Link

	// NullCurrent marks an existing entry whose current was stored as
	// JSON null. It is only meaningful while Current is empty.
	NullCurrent bool

	// Extra holds keys other than current/previous/next found in an
	// existing history entry.
	Extra map[string]any
}

// CellRecord is the lineage record of one cell (lc_cell_meme).
type CellRecord struct {
	Current  meme.Identity
	Previous Link
	Next     Link
	History  []Snapshot

	// Extra holds keys this package does not interpret, such as
	// execution_end_time.
	Extra map[string]any
}

// Complete reports whether current, previous and next are all recorded.
// Only complete records take part in drift detection.
func (r *CellRecord) Complete() bool {
	return r != nil && r.Current != "" && r.Previous.Recorded && r.Next.Recorded
}

// Snapshot returns the record's current {current, previous, next} triple.
func (r *CellRecord) Snapshot() Snapshot {
	return Snapshot{Current: r.Current, Previous: r.Previous, Next: r.Next}
}

// Clone returns a deep copy of r.
func (r *CellRecord) Clone() *CellRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.History != nil {
		c.History = make([]Snapshot, len(r.History))
		for i, s := range r.History {
			c.History[i] = s
			c.History[i].Extra = CloneMap(s.Extra)
		}
	}
	c.Extra = CloneMap(r.Extra)
	return &c
}

// NotebookRecord is the document-level lineage record (lc_notebook_meme).
type NotebookRecord struct {
	Current   meme.Identity
	History   []meme.Identity
	RootCells []meme.Identity
	Signature *SignatureRecord

	Extra map[string]any
}

// Clone returns a deep copy of r.
func (r *NotebookRecord) Clone() *NotebookRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.History = slices.Clone(r.History)
	c.RootCells = slices.Clone(r.RootCells)
	c.Signature = r.Signature.Clone()
	c.Extra = CloneMap(r.Extra)
	return &c
}

// SignatureRecord is the origin signature sub-record (lc_server_signature).
// Its current value and history entries are opaque mappings supplied by a
// signature provider.
type SignatureRecord struct {
	Current map[string]any
	History []map[string]any

	Extra map[string]any
}

// Clone returns a deep copy of r.
func (r *SignatureRecord) Clone() *SignatureRecord {
	if r == nil {
		return nil
	}
	c := &SignatureRecord{
		Current: CloneMap(r.Current),
		Extra:   CloneMap(r.Extra),
	}
	if r.History != nil {
		c.History = make([]map[string]any, len(r.History))
		for i, h := range r.History {
			c.History[i] = CloneMap(h)
		}
	}
	return c
}

// CloneMap deep-copies a decoded JSON object. A nil map stays nil.
func CloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = CloneValue(v)
	}
	return c
}

// CloneValue deep-copies a decoded JSON value.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CloneMap(val)
	case []any:
		c := make([]any, len(val))
		for i, elem := range val {
			c[i] = CloneValue(elem)
		}
		return c
	default:
		return val
	}
}

// sameMap reports whether two opaque mappings hold the same keys and
// scalar values. Nested values are compared by deep equality.
func sameMap(a, b map[string]any) bool {
	return maps.EqualFunc(a, b, equalValue)
}

func equalValue(a, b any) bool {
	switch av := a.(type) {
	case map[string]any:
		bv, ok := b.(map[string]any)
		return ok && sameMap(av, bv)
	case []any:
		bv, ok := b.([]any)
		return ok && slices.EqualFunc(av, bv, equalValue)
	default:
		return a == b
	}
}
