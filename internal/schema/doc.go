// Package schema validates the lineage metadata stored in a notebook.
//
// The shapes of lc_notebook_meme and lc_cell_meme are described by an
// embedded CUE schema (lineage.cue). Records are encoded to canonical JSON
// and unified with the matching definition; every failure is reported as a
// Violation rather than stopping at the first. Identities that match the
// schema's pattern are additionally decoded so branch counts that are
// smaller than their token window are caught.
package schema
