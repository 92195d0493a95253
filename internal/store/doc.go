// Package store provides a SQLite-backed lineage index over many notebooks.
//
// The index answers questions a single notebook cannot: which cells across
// a corpus descend from the same lineage (share a UUID), and what history a
// given identity has accumulated. It is derived data and can be rebuilt at
// any time from the notebooks themselves.
//
// # Tables
//
//   - notebooks: one row per indexed path with its document identity,
//     history, root_cells, origin signature and lineage fingerprint
//   - cells: one row per cell with its identity decoded into UUID, branch
//     count and branch tokens, plus position and links
//   - cell_history: the snapshots recorded in each cell's history
//
// Re-indexing a notebook whose lineage fingerprint is unchanged is a no-op.
// Otherwise all of its rows are replaced in one transaction.
//
// # Deterministic Query Results
//
// Every list query orders by notebook path and position (and history
// sequence) with COLLATE BINARY so output is stable across runs.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
