package engine

import (
	"fmt"
	"log/slog"

	"github.com/roach88/nblineage/internal/lineage"
	"github.com/roach88/nblineage/internal/meme"
	"github.com/roach88/nblineage/internal/notebook"
)

// Engine applies lineage operations to notebook documents.
type Engine struct {
	codec  *meme.Codec
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-operation debug records.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an Engine minting and branching through codec.
// A nil codec means meme.NewCodec() with its defaults.
func New(codec *meme.Codec, opts ...Option) *Engine {
	if codec == nil {
		codec = meme.NewCodec()
	}
	e := &Engine{
		codec:  codec,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Codec returns the codec the engine mints with.
func (e *Engine) Codec() *meme.Codec { return e.codec }

// SyncOptions configures Synchronize.
type SyncOptions struct {
	// Copy leaves the input untouched and works on a deep copy.
	Copy bool
}

// ResetOptions configures Reset.
type ResetOptions struct {
	// Copy leaves the input untouched and works on a deep copy.
	Copy bool

	// Trim bounds every history list after the reset. The zero value keeps
	// history unbounded.
	Trim lineage.TrimLimit

	// ClearOriginSignature removes the lc_server_signature sub-record.
	ClearOriginSignature bool
}

// Result is the outcome of one operation.
type Result struct {
	// Document is the processed document: the input itself, or its copy
	// when Copy was requested.
	Document *notebook.Document

	// Minted counts freshly minted identities, document included.
	Minted int

	// HistoryRecorded counts drift snapshots appended to cell histories.
	// Entries added by Reset's replace step are not included.
	HistoryRecorded int
}

// Synchronize makes doc's lineage consistent with its current cell order.
//
// Steps, in order: archive drifted links, ensure the document record,
// ensure every cell record, refresh all links. Identities already present,
// branched or not, are never replaced.
func (e *Engine) Synchronize(doc *notebook.Document, opts SyncOptions) (*Result, error) {
	if opts.Copy {
		doc = doc.Clone()
	}
	res := &Result{Document: doc}

	res.HistoryRecorded = captureDrift(doc.Cells)

	if doc.Metadata.Lineage == nil {
		doc.Metadata.Lineage = &lineage.NotebookRecord{}
	}
	if doc.Metadata.Lineage.Current == "" {
		doc.Metadata.Lineage.Current = e.codec.Mint()
		res.Minted++
	}

	res.Minted += lineage.EnsureRecords(doc.Cells, e.codec)
	res.Minted += lineage.RefreshLinks(doc.Cells, e.codec)

	if err := verify(doc, "synchronize"); err != nil {
		return nil, err
	}

	e.logger.Debug("synchronized",
		"cells", len(doc.Cells),
		"minted", res.Minted,
		"history_recorded", res.HistoryRecorded)
	return res, nil
}

// Reset gives doc and every cell a new root identity.
//
// Synchronize runs first with the same Copy flag. Drift is then captured
// again, every identity is archived with its links and replaced by a fresh
// mint, links are refreshed against the new identities and root_cells is
// set to the new cell identities in order.
func (e *Engine) Reset(doc *notebook.Document, opts ResetOptions) (*Result, error) {
	res, err := e.Synchronize(doc, SyncOptions{Copy: opts.Copy})
	if err != nil {
		return nil, err
	}
	doc = res.Document

	res.HistoryRecorded += captureDrift(doc.Cells)

	nb := doc.Metadata.Lineage
	nb.RecordAndReplace(e.codec.Mint(), opts.Trim)
	res.Minted++
	for _, cell := range doc.Cells {
		cell.Metadata.Lineage.RecordAndReplace(e.codec.Mint(), opts.Trim)
		res.Minted++
	}

	res.Minted += lineage.RefreshLinks(doc.Cells, e.codec)
	nb.RootCells = doc.Cells.Identities()

	if opts.ClearOriginSignature {
		nb.Signature = nil
	}

	if err := verify(doc, "reset"); err != nil {
		return nil, err
	}

	e.logger.Debug("reset",
		"cells", len(doc.Cells),
		"minted", res.Minted,
		"history_recorded", res.HistoryRecorded,
		"trim", opts.Trim.String(),
		"clear_signature", opts.ClearOriginSignature)
	return res, nil
}

// Branch records one duplication event on each selected cell, in place.
// With no indices every cell is branched. Cells without a current identity
// are skipped. Returns the number of cells branched.
//
// Call it before the next Synchronize: the new identity replaces the
// cell's current and its stale links are then rewritten as usual.
func (e *Engine) Branch(doc *notebook.Document, indices ...int) (int, error) {
	if len(indices) == 0 {
		indices = make([]int, len(doc.Cells))
		for i := range indices {
			indices[i] = i
		}
	}

	// Every identity is computed before any record changes, so a failure
	// leaves doc untouched.
	next := make(map[*lineage.CellRecord]meme.Identity, len(indices))
	branched := 0
	for _, i := range indices {
		if i < 0 || i >= len(doc.Cells) {
			return 0, cellOutOfRange(i, len(doc.Cells))
		}
		r := doc.Cells[i].Metadata.Lineage
		if r == nil || r.Current == "" {
			continue
		}
		from := r.Current
		if id, ok := next[r]; ok {
			from = id
		}
		id, err := e.codec.Branch(from)
		if err != nil {
			return 0, fmt.Errorf("branch cell %d: %w", i, err)
		}
		next[r] = id
		branched++
	}

	for r, id := range next {
		r.Current = id
	}

	e.logger.Debug("branched", "cells", branched)
	return branched, nil
}

// captureDrift appends pre-refresh snapshots for every drifted cell.
func captureDrift(cells notebook.Cells) int {
	recorded := 0
	for i, drifted := range lineage.DetectDrift(cells) {
		if lineage.RecordIfDrifted(cells.Record(i), drifted) {
			recorded++
		}
	}
	return recorded
}

// verify checks every record carries a current identity.
func verify(doc *notebook.Document, step string) error {
	if nb := doc.Metadata.Lineage; nb == nil || nb.Current == "" {
		return missingCurrent(step, DocumentRecord)
	}
	for i, cell := range doc.Cells {
		if r := cell.Metadata.Lineage; r == nil || r.Current == "" {
			return missingCurrent(step, i)
		}
	}
	return nil
}
