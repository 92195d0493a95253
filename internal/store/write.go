package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/nblineage/internal/canonical"
	"github.com/roach88/nblineage/internal/meme"
	"github.com/roach88/nblineage/internal/notebook"
)

// IndexNotebook records doc's lineage under path, replacing any previous
// rows for that path in one transaction. Cells without an identity are not
// indexed but keep their position numbering.
//
// When the stored lineage fingerprint equals doc's, nothing is written and
// changed is false.
func (s *Store) IndexNotebook(ctx context.Context, path string, doc *notebook.Document) (changed bool, err error) {
	nb := doc.Metadata.Lineage
	if nb == nil || nb.Current == "" {
		return false, fmt.Errorf("index notebook %s: document has no lineage identity", path)
	}

	fingerprint, err := canonical.Fingerprint(canonical.DomainLineage, doc.LineageTree())
	if err != nil {
		return false, fmt.Errorf("index notebook %s: %w", path, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("index notebook: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var stored string
	err = tx.QueryRowContext(ctx, `SELECT fingerprint FROM notebooks WHERE path = ?`, path).Scan(&stored)
	switch {
	case err == nil && stored == fingerprint:
		return false, nil
	case err != nil && err != sql.ErrNoRows:
		return false, fmt.Errorf("index notebook: read fingerprint: %w", err)
	}

	// ON DELETE CASCADE removes cells and cell_history.
	if _, err := tx.ExecContext(ctx, `DELETE FROM notebooks WHERE path = ?`, path); err != nil {
		return false, fmt.Errorf("index notebook: delete: %w", err)
	}

	history, err := marshalIdentities(nb.History)
	if err != nil {
		return false, err
	}
	if !history.Valid {
		history = sql.NullString{String: "[]", Valid: true}
	}
	rootCells, err := marshalIdentities(nb.RootCells)
	if err != nil {
		return false, err
	}
	sig, err := marshalSignature(nb.Signature)
	if err != nil {
		return false, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO notebooks
		(path, identity, fingerprint, history, root_cells, signature, cell_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		path,
		string(nb.Current),
		fingerprint,
		history.String,
		rootCells,
		sig,
		len(doc.Cells),
	)
	if err != nil {
		return false, fmt.Errorf("index notebook: insert notebook: %w", err)
	}

	for pos, cell := range doc.Cells {
		r := cell.Metadata.Lineage
		if r == nil || r.Current == "" {
			continue
		}
		parts, err := meme.Decode(r.Current)
		if err != nil {
			return false, fmt.Errorf("index notebook %s: cell %d: %w", path, pos, err)
		}
		recordHash, err := canonical.Fingerprint(canonical.DomainCell, notebook.EncodeCellRecord(r))
		if err != nil {
			return false, fmt.Errorf("index notebook %s: cell %d: %w", path, pos, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO cells
			(notebook_path, position, identity, uuid, branch_count, branch_tokens, previous, next, record_hash)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			path,
			pos,
			string(r.Current),
			parts.UUID,
			parts.BranchCount,
			strings.Join(parts.BranchTokens, "-"),
			linkColumn(r.Previous),
			linkColumn(r.Next),
			recordHash,
		)
		if err != nil {
			return false, fmt.Errorf("index notebook: insert cell %d: %w", pos, err)
		}

		for seq, snap := range r.History {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO cell_history
				(notebook_path, position, seq, current, previous, next)
				VALUES (?, ?, ?, ?, ?, ?)
			`,
				path,
				pos,
				seq,
				string(snap.Current),
				linkColumn(snap.Previous),
				linkColumn(snap.Next),
			)
			if err != nil {
				return false, fmt.Errorf("index notebook: insert history %d/%d: %w", pos, seq, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("index notebook: commit: %w", err)
	}
	return true, nil
}

// RemoveNotebook drops every row indexed for path. Removing an unknown
// path is not an error.
func (s *Store) RemoveNotebook(ctx context.Context, path string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notebooks WHERE path = ?`, path); err != nil {
		return fmt.Errorf("remove notebook: %w", err)
	}
	return nil
}
