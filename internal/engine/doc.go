// Package engine keeps a notebook's lineage metadata consistent with its
// content and cell order.
//
// Two entry operations are provided:
//
// Synchronize runs on every save. It archives links that no longer match
// the cell order, mints identities for the document and for cells that
// lack one, and rewrites every previous/next link. Running it twice with no
// structural change in between yields byte-identical lineage metadata.
//
// Reset ("new root") severs a notebook from its prior environment. After a
// synchronize pass every identity is archived into history and replaced by
// a freshly minted one, root_cells is set to the new cell identities, and
// the origin signature may be dropped.
//
// Branch is the explicit collaborator for duplication events: the editing
// layer calls it once per duplicated cell. The engine never infers copies
// on its own.
//
// CONCURRENCY:
//
// The engine holds no per-document state and takes no locks. Callers must
// give it exclusive access to a document for the duration of one call.
// Distinct documents may be processed concurrently by the same Engine as
// long as its Codec's generator and token source are concurrency safe
// (the defaults are).
package engine
