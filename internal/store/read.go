package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/nblineage/internal/lineage"
	"github.com/roach88/nblineage/internal/meme"
)

// Notebook is one indexed notebook.
type Notebook struct {
	Path        string          `json:"path"`
	Identity    meme.Identity   `json:"identity"`
	Fingerprint string          `json:"fingerprint"`
	History     []meme.Identity `json:"history,omitempty"`
	RootCells   []meme.Identity `json:"root_cells,omitempty"` // nil when the notebook has never been reset
	Signature   map[string]any  `json:"signature,omitempty"`  // nil when no origin signature is recorded
	CellCount   int             `json:"cell_count"`
}

// Cell is one indexed cell.
type Cell struct {
	NotebookPath string        `json:"notebook_path"`
	Position     int           `json:"position"`
	Identity     meme.Identity `json:"identity"`
	UUID         string        `json:"uuid"`
	BranchCount  int           `json:"branch_count"`
	BranchTokens []string      `json:"branch_tokens,omitempty"`
	Previous     meme.Identity `json:"previous"` // "" for no neighbour
	Next         meme.Identity `json:"next"`     // "" for no neighbour
	RecordHash   string        `json:"record_hash"`
}

// HistoryEntry is one snapshot from a cell's history.
type HistoryEntry struct {
	NotebookPath string        `json:"notebook_path"`
	Position     int           `json:"position"`
	Seq          int           `json:"seq"`
	Current      meme.Identity `json:"current"`
	Previous     meme.Identity `json:"previous"`
	Next         meme.Identity `json:"next"`
}

// Snapshot converts the entry back into a lineage snapshot. Missing links
// come back as "no neighbour".
func (h HistoryEntry) Snapshot() lineage.Snapshot {
	s := lineage.Snapshot{Current: h.Current, Previous: lineage.None(), Next: lineage.None()}
	if h.Previous != "" {
		s.Previous = lineage.To(h.Previous)
	}
	if h.Next != "" {
		s.Next = lineage.To(h.Next)
	}
	return s
}

// Notebooks returns every indexed notebook ordered by path.
//
// Returns an empty slice (not nil) if nothing is indexed.
func (s *Store) Notebooks(ctx context.Context) ([]Notebook, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, identity, fingerprint, history, root_cells, signature, cell_count
		FROM notebooks
		ORDER BY path COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query notebooks: %w", err)
	}
	defer rows.Close()

	notebooks := []Notebook{}
	for rows.Next() {
		var (
			nb        Notebook
			history   sql.NullString
			rootCells sql.NullString
			sig       sql.NullString
		)
		if err := rows.Scan(&nb.Path, &nb.Identity, &nb.Fingerprint, &history, &rootCells, &sig, &nb.CellCount); err != nil {
			return nil, fmt.Errorf("scan notebook: %w", err)
		}
		if nb.History, err = unmarshalIdentities(history); err != nil {
			return nil, err
		}
		if nb.RootCells, err = unmarshalIdentities(rootCells); err != nil {
			return nil, err
		}
		if nb.Signature, err = unmarshalSignature(sig); err != nil {
			return nil, err
		}
		notebooks = append(notebooks, nb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notebooks: %w", err)
	}
	return notebooks, nil
}

// CellsByLineage returns every indexed cell whose identity has the given
// UUID, branched or not, ordered by notebook path and position.
//
// Returns an empty slice (not nil) if no cells match.
func (s *Store) CellsByLineage(ctx context.Context, uuid string) ([]Cell, error) {
	return s.queryCells(ctx, `
		SELECT notebook_path, position, identity, uuid, branch_count, branch_tokens, previous, next, record_hash
		FROM cells
		WHERE uuid = ?
		ORDER BY notebook_path COLLATE BINARY ASC, position ASC
	`, strings.ToLower(uuid))
}

// CellsByIdentity returns every indexed cell currently holding id.
func (s *Store) CellsByIdentity(ctx context.Context, id meme.Identity) ([]Cell, error) {
	return s.queryCells(ctx, `
		SELECT notebook_path, position, identity, uuid, branch_count, branch_tokens, previous, next, record_hash
		FROM cells
		WHERE identity = ?
		ORDER BY notebook_path COLLATE BINARY ASC, position ASC
	`, string(id))
}

func (s *Store) queryCells(ctx context.Context, query string, args ...any) ([]Cell, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cells: %w", err)
	}
	defer rows.Close()

	cells := []Cell{}
	for rows.Next() {
		var (
			c          Cell
			tokens     string
			prev, next sql.NullString
		)
		if err := rows.Scan(&c.NotebookPath, &c.Position, &c.Identity, &c.UUID, &c.BranchCount,
			&tokens, &prev, &next, &c.RecordHash); err != nil {
			return nil, fmt.Errorf("scan cell: %w", err)
		}
		if tokens != "" {
			c.BranchTokens = strings.Split(tokens, "-")
		}
		c.Previous = columnLink(prev)
		c.Next = columnLink(next)
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cells: %w", err)
	}
	return cells, nil
}

// HistoryFor returns the history snapshots of every cell currently holding
// id, ordered by notebook path, position and sequence.
//
// Returns an empty slice (not nil) if none exist.
func (s *Store) HistoryFor(ctx context.Context, id meme.Identity) ([]HistoryEntry, error) {
	return s.queryHistory(ctx, `
		SELECT h.notebook_path, h.position, h.seq, h.current, h.previous, h.next
		FROM cell_history h
		JOIN cells c ON c.notebook_path = h.notebook_path AND c.position = h.position
		WHERE c.identity = ?
		ORDER BY h.notebook_path COLLATE BINARY ASC, h.position ASC, h.seq ASC
	`, string(id))
}

// Successors returns the history snapshots in which id was archived,
// which locates the cells an old identity was replaced in.
func (s *Store) Successors(ctx context.Context, id meme.Identity) ([]HistoryEntry, error) {
	return s.queryHistory(ctx, `
		SELECT notebook_path, position, seq, current, previous, next
		FROM cell_history
		WHERE current = ?
		ORDER BY notebook_path COLLATE BINARY ASC, position ASC, seq ASC
	`, string(id))
}

func (s *Store) queryHistory(ctx context.Context, query string, args ...any) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := []HistoryEntry{}
	for rows.Next() {
		var (
			h          HistoryEntry
			prev, next sql.NullString
		)
		if err := rows.Scan(&h.NotebookPath, &h.Position, &h.Seq, &h.Current, &prev, &next); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		h.Previous = columnLink(prev)
		h.Next = columnLink(next)
		entries = append(entries, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}
