package testutil

import (
	"fmt"

	"github.com/roach88/nblineage/internal/notebook"
)

// NewNotebook returns a document with n code cells and no lineage
// metadata. Cell i has source "cell i".
func NewNotebook(n int) *notebook.Document {
	doc := notebook.New()
	for i := 0; i < n; i++ {
		doc.Insert(i, notebook.NewCell("code", fmt.Sprintf("cell %d", i)))
	}
	return doc
}

// Sources returns each cell's source string, in order.
func Sources(doc *notebook.Document) []string {
	out := make([]string, len(doc.Cells))
	for i, c := range doc.Cells {
		out[i], _ = c.Extra["source"].(string)
	}
	return out
}
