// Package lineage defines the lineage records stored in notebook metadata
// and the two building blocks that maintain them: the sequence linker
// (previous/next adjacency and drift detection) and the history ledger
// (snapshots and trimming).
//
// Records are explicit types rather than generic maps. Optional fields use
// zero values with documented meaning:
//   - Identity "" means the key is absent
//   - Link{} means the key is absent, None() means an explicit null
//   - a nil History slice means the key is absent, an empty one means []
//
// Nothing in this package performs I/O or retains references to the
// sequences it is handed.
package lineage
