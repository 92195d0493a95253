package notebook

import (
	"github.com/roach88/nblineage/internal/lineage"
	"github.com/roach88/nblineage/internal/meme"
)

// Top-level and cell keys handled explicitly.
const (
	keyMetadata = "metadata"
	keyCells    = "cells"
)

// Document is a parsed notebook.
type Document struct {
	Metadata Metadata
	Cells    Cells

	// Extra holds the remaining top-level keys (nbformat, nbformat_minor, ...).
	Extra map[string]any
}

// Metadata is the document-level metadata mapping.
type Metadata struct {
	// Lineage is nil when lc_notebook_meme is absent.
	Lineage *lineage.NotebookRecord
	Extra   map[string]any
}

// Cell is one notebook cell.
type Cell struct {
	Metadata CellMetadata

	// Extra holds cell_type, source, outputs and any other cell keys.
	Extra map[string]any
}

// CellMetadata is a cell's metadata mapping.
type CellMetadata struct {
	// Lineage is nil when lc_cell_meme is absent.
	Lineage *lineage.CellRecord
	Extra   map[string]any
}

// Cells is the ordered cell list. It implements lineage.Sequence.
type Cells []*Cell

// Len implements lineage.Sequence.
func (c Cells) Len() int { return len(c) }

// Record implements lineage.Sequence.
func (c Cells) Record(i int) *lineage.CellRecord { return c[i].Metadata.Lineage }

// SetRecord implements lineage.Sequence.
func (c Cells) SetRecord(i int, r *lineage.CellRecord) { c[i].Metadata.Lineage = r }

// Identities returns every cell's current identity, "" where absent.
func (c Cells) Identities() []meme.Identity {
	ids := make([]meme.Identity, len(c))
	for i, cell := range c {
		if r := cell.Metadata.Lineage; r != nil {
			ids[i] = r.Current
		}
	}
	return ids
}

// New returns an empty nbformat 4 document.
func New() *Document {
	return &Document{
		Extra: map[string]any{
			"nbformat":       4,
			"nbformat_minor": 5,
		},
	}
}

// NewCell returns a cell of the given type with the given source.
func NewCell(cellType, source string) *Cell {
	extra := map[string]any{
		"cell_type": cellType,
		"source":    source,
	}
	if cellType == "code" {
		extra["execution_count"] = nil
		extra["outputs"] = []any{}
	}
	return &Cell{Extra: extra}
}

// Clone returns a deep copy of d sharing no mutable state.
func (d *Document) Clone() *Document {
	c := &Document{
		Metadata: Metadata{
			Lineage: d.Metadata.Lineage.Clone(),
			Extra:   lineage.CloneMap(d.Metadata.Extra),
		},
		Extra: lineage.CloneMap(d.Extra),
	}
	if d.Cells != nil {
		c.Cells = make(Cells, len(d.Cells))
		for i, cell := range d.Cells {
			c.Cells[i] = cell.Clone()
		}
	}
	return c
}

// Clone returns a deep copy of c.
func (c *Cell) Clone() *Cell {
	return &Cell{
		Metadata: CellMetadata{
			Lineage: c.Metadata.Lineage.Clone(),
			Extra:   lineage.CloneMap(c.Metadata.Extra),
		},
		Extra: lineage.CloneMap(c.Extra),
	}
}

// Insert places cells at position i, shifting later cells.
func (d *Document) Insert(i int, cells ...*Cell) {
	tail := make(Cells, 0, len(cells)+len(d.Cells)-i)
	tail = append(tail, cells...)
	tail = append(tail, d.Cells[i:]...)
	d.Cells = append(d.Cells[:i], tail...)
}

// Remove deletes the cell at position i and returns it.
func (d *Document) Remove(i int) *Cell {
	cell := d.Cells[i]
	d.Cells = append(d.Cells[:i], d.Cells[i+1:]...)
	return cell
}

// Move relocates the cell at from so that it ends up at position to.
func (d *Document) Move(from, to int) {
	cell := d.Remove(from)
	d.Insert(to, cell)
}
