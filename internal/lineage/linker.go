package lineage

import "github.com/roach88/nblineage/internal/meme"

// Sequence is an ordered list of units carrying cell records.
//
// Record returns nil for a unit without a record. Implementations are
// typically thin adapters over a notebook's cell slice.
type Sequence interface {
	Len() int
	Record(i int) *CellRecord
	SetRecord(i int, r *CellRecord)
}

// Minter produces fresh identities for units seen without one.
type Minter interface {
	Mint() meme.Identity
}

// EnsureRecords gives every unit a record with a current identity, minting
// where absent. Existing identities, branched or not, are never touched.
// Returns the number of identities minted.
func EnsureRecords(seq Sequence, m Minter) int {
	minted := 0
	for i := 0; i < seq.Len(); i++ {
		r := seq.Record(i)
		if r == nil {
			r = &CellRecord{}
			seq.SetRecord(i, r)
		}
		if r.Current == "" {
			r.Current = m.Mint()
			minted++
		}
	}
	return minted
}

// RefreshLinks sets every unit's previous/next to its actual neighbours'
// current identities, overwriting stale values. The first unit's previous
// and the last unit's next are recorded as None(). Units without a record
// are first given one via m.
//
// Returns the number of identities minted.
func RefreshLinks(seq Sequence, m Minter) int {
	minted := EnsureRecords(seq, m)

	n := seq.Len()
	for i := 0; i < n; i++ {
		r := seq.Record(i)
		r.Previous = None()
		if i > 0 {
			r.Previous = To(seq.Record(i - 1).Current)
		}
		r.Next = None()
		if i < n-1 {
			r.Next = To(seq.Record(i + 1).Current)
		}
	}
	return minted
}

// DetectDrift reports, per unit, whether its recorded adjacency disagrees
// with the actual order.
//
// Only complete records are examined. A side drifts when the actual
// neighbour's identity differs from the recorded one, when "no neighbour"
// was recorded but a neighbour exists, or when a neighbour exists whose own
// record does not resolve yet. A recorded neighbour where none now exists
// is not drift.
func DetectDrift(seq Sequence) []bool {
	n := seq.Len()
	drifted := make([]bool, n)
	for i := 0; i < n; i++ {
		r := seq.Record(i)
		if !r.Complete() {
			continue
		}

		var prev, next *CellRecord
		hasPrev, hasNext := i > 0, i < n-1
		if hasPrev {
			prev = seq.Record(i - 1)
		}
		if hasNext {
			next = seq.Record(i + 1)
		}

		drifted[i] = sideDrifted(r.Previous, hasPrev, prev) || sideDrifted(r.Next, hasNext, next)
	}
	return drifted
}

func sideDrifted(recorded Link, exists bool, neighbour *CellRecord) bool {
	if !exists {
		return false
	}
	if neighbour == nil || neighbour.Current == "" {
		return true
	}
	return recorded.ID != neighbour.Current
}
