// Package harness runs lineage scenarios against the engine.
//
// A scenario starts from a notebook with a number of fresh code cells,
// applies a list of steps (editor mutations and engine operations) and
// then checks assertions on the resulting lineage.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: insert_between
//	description: "A cell inserted between two others links both ways"
//	cells: 2
//	steps:
//	  - op: synchronize
//	  - op: insert
//	    at: 1
//	  - op: synchronize
//	  - op: reset
//	    trim: 1
//	    clear_signature: true
//	assertions:
//	  - type: linked
//	  - type: history_length
//	    cell: 0
//	    count: 1
//
// # Step Operations
//
//   - synchronize: engine.Synchronize on the working document
//   - reset: engine.Reset, with optional trim and clear_signature
//   - insert: add count fresh cells (default 1) at position at
//   - remove: delete the cell at position at
//   - move: relocate the cell at from so it ends up at to
//   - duplicate: copy the cell at from, lineage included, to position to
//     and branch the copy
//   - branch: branch the listed cells (all cells when none are listed)
//   - track_signature: store signature as the origin signature; when it
//     changed, branch every cell that has an identity
//
// # Assertion Types
//
//   - linked: every cell's previous/next names its actual neighbours
//   - unique_identities: no two records share a current identity
//   - idempotent: one more synchronize leaves the lineage byte-identical
//   - history_length: cell's history has count entries
//   - notebook_history_length: the document history has count entries
//   - signature_history_length: the origin signature history has count entries
//   - root_cells: root_cells equals the cells' current identities
//   - branch_count: cell's identity carries the given branch count
//   - same_lineage: the listed cells share a UUID
//
// # Deterministic Testing
//
// Every run mints from testutil.SequentialGenerator and branches with
// testutil.SequentialTokens, so identities are identical across runs and
// the final lineage can be compared against golden files.
package harness
