// Package notebook reads and writes notebook documents (nbformat v4 JSON).
//
// Lineage records found under metadata.lc_notebook_meme and
// cells[].metadata.lc_cell_meme are lifted into lineage types; everything
// else is kept as an opaque decoded tree and written back unchanged.
// Numbers are decoded as json.Number so their textual form survives.
//
// Output follows nbformat's own layout: one-space indentation, sorted
// keys, no HTML escaping and a trailing newline.
package notebook
