package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/nblineage/internal/engine"
	"github.com/roach88/nblineage/internal/lineage"
	"github.com/roach88/nblineage/internal/notebook"
	"github.com/roach88/nblineage/internal/signature"
	"github.com/roach88/nblineage/internal/testutil"
)

// Harness applies scenario steps to one working notebook.
type Harness struct {
	engine   *engine.Engine
	gen      *testutil.SequentialGenerator
	doc      *notebook.Document
	inserted int
}

// Run executes a scenario and returns the result.
//
// Each run starts from a fresh notebook and a fresh deterministic codec.
// A step that cannot be applied (a position out of range, an engine
// error) aborts the run with an error; failed assertions are reported in
// the result instead.
func Run(scenario *Scenario) (*Result, error) {
	codec, gen := testutil.NewCodec()
	h := &Harness{
		engine: engine.New(codec, engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))),
		gen:    gen,
		doc:    testutil.NewNotebook(scenario.Cells),
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		trace, err := h.apply(step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}
		trace.Cells = len(h.doc.Cells)
		result.AddTrace(trace)
	}
	result.Document = h.doc

	for i, assertion := range scenario.Assertions {
		if err := h.check(assertion); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return result, nil
}

func (h *Harness) apply(st Step) (StepTrace, error) {
	trace := StepTrace{Op: st.Op}
	n := len(h.doc.Cells)

	switch st.Op {
	case OpSynchronize:
		res, err := h.engine.Synchronize(h.doc, engine.SyncOptions{})
		if err != nil {
			return trace, err
		}
		trace.Minted, trace.HistoryRecorded = res.Minted, res.HistoryRecorded

	case OpReset:
		opts := engine.ResetOptions{ClearOriginSignature: st.ClearSignature}
		if st.Trim != nil {
			opts.Trim = lineage.TrimTo(*st.Trim)
		}
		res, err := h.engine.Reset(h.doc, opts)
		if err != nil {
			return trace, err
		}
		trace.Minted, trace.HistoryRecorded = res.Minted, res.HistoryRecorded

	case OpInsert:
		if err := checkPosition("at", st.At, n+1); err != nil {
			return trace, err
		}
		count := max(st.Count, 1)
		cells := make([]*notebook.Cell, count)
		for i := range cells {
			h.inserted++
			cells[i] = notebook.NewCell("code", fmt.Sprintf("inserted %d", h.inserted))
		}
		h.doc.Insert(st.At, cells...)

	case OpRemove:
		if err := checkPosition("at", st.At, n); err != nil {
			return trace, err
		}
		h.doc.Remove(st.At)

	case OpMove:
		if err := checkPosition("from", st.From, n); err != nil {
			return trace, err
		}
		if err := checkPosition("to", st.To, n); err != nil {
			return trace, err
		}
		h.doc.Move(st.From, st.To)

	case OpDuplicate:
		if err := checkPosition("from", st.From, n); err != nil {
			return trace, err
		}
		if err := checkPosition("to", st.To, n+1); err != nil {
			return trace, err
		}
		h.doc.Insert(st.To, h.doc.Cells[st.From].Clone())
		branched, err := h.engine.Branch(h.doc, st.To)
		if err != nil {
			return trace, err
		}
		trace.Branched = branched

	case OpBranch:
		branched, err := h.engine.Branch(h.doc, st.Cells...)
		if err != nil {
			return trace, err
		}
		trace.Branched = branched

	case OpTrackSignature:
		rec := signature.Record{
			SignatureID:  st.Signature[signature.KeySignatureID],
			NotebookDir:  st.Signature[signature.KeyNotebookDir],
			NotebookPath: st.Signature[signature.KeyNotebookPath],
			ServerURL:    st.Signature[signature.KeyServerURL],
		}
		trace.Tracked = signature.Track(h.doc, rec)
		if trace.Tracked {
			branched, err := h.engine.Branch(h.doc)
			if err != nil {
				return trace, err
			}
			trace.Branched = branched
		}

	default:
		return trace, fmt.Errorf("unknown op %q", st.Op)
	}
	return trace, nil
}

func checkPosition(name string, pos, limit int) error {
	if pos < 0 || pos >= limit {
		return fmt.Errorf("%s %d out of range [0, %d)", name, pos, limit)
	}
	return nil
}
