package harness

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/nblineage/internal/canonical"
	"github.com/roach88/nblineage/internal/engine"
	"github.com/roach88/nblineage/internal/lineage"
	"github.com/roach88/nblineage/internal/meme"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  actual: %s", e.Actual)
	return buf.String()
}

func (h *Harness) check(a Assertion) error {
	switch a.Type {
	case AssertLinked:
		return h.assertLinked()
	case AssertUniqueIdentities:
		return h.assertUnique()
	case AssertIdempotent:
		return h.assertIdempotent()
	case AssertHistoryLength:
		r, err := h.record(a.Cell)
		if err != nil {
			return err
		}
		return expectCount(a, len(r.History))
	case AssertNotebookHistoryLength:
		nb := h.doc.Metadata.Lineage
		if nb == nil {
			return &AssertionError{Type: a.Type, Expected: "a document record", Actual: "none"}
		}
		return expectCount(a, len(nb.History))
	case AssertSignatureHistoryLength:
		nb := h.doc.Metadata.Lineage
		if nb == nil || nb.Signature == nil {
			return &AssertionError{Type: a.Type, Expected: "an origin signature", Actual: "none"}
		}
		return expectCount(a, len(nb.Signature.History))
	case AssertRootCells:
		return h.assertRootCells()
	case AssertBranchCount:
		r, err := h.record(a.Cell)
		if err != nil {
			return err
		}
		parts, err := meme.Decode(r.Current)
		if err != nil {
			return err
		}
		return expectCount(a, parts.BranchCount)
	case AssertSameLineage:
		return h.assertSameLineage(a.Cells)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func (h *Harness) record(i int) (*lineage.CellRecord, error) {
	if i < 0 || i >= len(h.doc.Cells) {
		return nil, fmt.Errorf("cell %d out of range [0, %d)", i, len(h.doc.Cells))
	}
	r := h.doc.Cells[i].Metadata.Lineage
	if r == nil {
		return nil, fmt.Errorf("cell %d has no lineage record", i)
	}
	return r, nil
}

func expectCount(a Assertion, actual int) error {
	if actual == a.Count {
		return nil
	}
	what := a.Type
	if a.Type == AssertHistoryLength || a.Type == AssertBranchCount {
		what = fmt.Sprintf("%s of cell %d", a.Type, a.Cell)
	}
	return &AssertionError{
		Type:     what,
		Expected: fmt.Sprintf("%d", a.Count),
		Actual:   fmt.Sprintf("%d", actual),
	}
}

// assertLinked checks every cell's links against the actual order.
func (h *Harness) assertLinked() error {
	cells := h.doc.Cells
	for i := range cells {
		if _, err := h.record(i); err != nil {
			return err
		}
	}
	for i, cell := range cells {
		r := cell.Metadata.Lineage
		want := lineage.None()
		if i > 0 {
			want = lineage.To(cells[i-1].Metadata.Lineage.Current)
		}
		if r.Previous != want {
			return &AssertionError{
				Type:     AssertLinked,
				Expected: fmt.Sprintf("cell %d previous %s", i, linkString(want)),
				Actual:   linkString(r.Previous),
			}
		}
		want = lineage.None()
		if i < len(cells)-1 {
			want = lineage.To(cells[i+1].Metadata.Lineage.Current)
		}
		if r.Next != want {
			return &AssertionError{
				Type:     AssertLinked,
				Expected: fmt.Sprintf("cell %d next %s", i, linkString(want)),
				Actual:   linkString(r.Next),
			}
		}
	}
	return nil
}

func linkString(l lineage.Link) string {
	switch {
	case !l.Recorded:
		return "<absent>"
	case l.IsNone():
		return "null"
	default:
		return string(l.ID)
	}
}

func (h *Harness) assertUnique() error {
	seen := make(map[meme.Identity]string)
	claim := func(id meme.Identity, owner string) error {
		if id == "" {
			return nil
		}
		if prev, ok := seen[id]; ok {
			return &AssertionError{
				Type:     AssertUniqueIdentities,
				Expected: "distinct current identities",
				Actual:   fmt.Sprintf("%s shared by %s and %s", id, prev, owner),
			}
		}
		seen[id] = owner
		return nil
	}

	if nb := h.doc.Metadata.Lineage; nb != nil {
		if err := claim(nb.Current, "document"); err != nil {
			return err
		}
	}
	for i, id := range h.doc.Cells.Identities() {
		if err := claim(id, fmt.Sprintf("cell %d", i)); err != nil {
			return err
		}
	}
	return nil
}

// assertIdempotent synchronizes a copy and compares lineage bytes.
func (h *Harness) assertIdempotent() error {
	before, err := canonical.Marshal(h.doc.LineageTree())
	if err != nil {
		return err
	}
	minted := h.gen.Count()
	res, err := h.engine.Synchronize(h.doc, engine.SyncOptions{Copy: true})
	if err != nil {
		return err
	}
	after, err := canonical.Marshal(res.Document.LineageTree())
	if err != nil {
		return err
	}
	if !bytes.Equal(before, after) || h.gen.Count() != minted {
		return &AssertionError{
			Type:     AssertIdempotent,
			Expected: string(before),
			Actual:   string(after),
		}
	}
	return nil
}

func (h *Harness) assertRootCells() error {
	nb := h.doc.Metadata.Lineage
	if nb == nil {
		return &AssertionError{Type: AssertRootCells, Expected: "a document record", Actual: "none"}
	}
	want := h.doc.Cells.Identities()
	if !slices.Equal(nb.RootCells, want) {
		return &AssertionError{
			Type:     AssertRootCells,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", nb.RootCells),
		}
	}
	return nil
}

func (h *Harness) assertSameLineage(cells []int) error {
	first, err := h.record(cells[0])
	if err != nil {
		return err
	}
	for _, i := range cells[1:] {
		r, err := h.record(i)
		if err != nil {
			return err
		}
		same, err := meme.SameLineage(first.Current, r.Current)
		if err != nil {
			return err
		}
		if !same {
			return &AssertionError{
				Type:     AssertSameLineage,
				Expected: fmt.Sprintf("cells %d and %d share a UUID", cells[0], i),
				Actual:   fmt.Sprintf("%s vs %s", first.Current, r.Current),
			}
		}
	}
	return nil
}
