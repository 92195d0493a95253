package watch

import (
	"bytes"
	"context"
	"fmt"

	"github.com/roach88/nblineage/internal/canonical"
	"github.com/roach88/nblineage/internal/engine"
	"github.com/roach88/nblineage/internal/notebook"
	"github.com/roach88/nblineage/internal/signature"
)

// FileResult describes one SyncFile call.
type FileResult struct {
	Path            string
	Changed         bool
	Minted          int
	HistoryRecorded int
	Branched        int
}

// SyncFile synchronizes the notebook at path in place. When sig is not nil
// the origin signature is tracked first, with notebook_path set to
// displayPath; when it changed, every cell is branched before the
// synchronize. The file is rewritten only if its lineage changed.
func SyncFile(ctx context.Context, e *engine.Engine, path, displayPath string, sig signature.Provider) (FileResult, error) {
	res := FileResult{Path: path}

	doc, err := notebook.ParseFile(path)
	if err != nil {
		return res, err
	}
	before, err := canonical.Marshal(doc.LineageTree())
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}

	if sig != nil {
		rec, err := sig.Signature(ctx)
		if err != nil {
			return res, fmt.Errorf("server signature: %w", err)
		}
		// A new environment starts a new branch for every cell.
		if signature.Track(doc, rec.WithPath(displayPath)) {
			if res.Branched, err = e.Branch(doc); err != nil {
				return res, fmt.Errorf("%s: %w", path, err)
			}
		}
	}

	out, err := e.Synchronize(doc, engine.SyncOptions{})
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	res.Minted = out.Minted
	res.HistoryRecorded = out.HistoryRecorded

	after, err := canonical.Marshal(doc.LineageTree())
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	if bytes.Equal(before, after) {
		return res, nil
	}

	if err := notebook.WriteFile(path, doc); err != nil {
		return res, err
	}
	res.Changed = true
	return res, nil
}
