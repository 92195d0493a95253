package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nblineage/internal/engine"
	"github.com/roach88/nblineage/internal/lineage"
	"github.com/roach88/nblineage/internal/meme"
	"github.com/roach88/nblineage/internal/notebook"
	"github.com/roach88/nblineage/internal/testutil"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	require.NoError(t, err)
	return v
}

func TestValidate_SynchronizedDocument(t *testing.T) {
	codec, _ := testutil.NewCodec()
	e := engine.New(codec)
	doc := testutil.NewNotebook(3)
	_, err := e.Reset(doc, engine.ResetOptions{})
	require.NoError(t, err)
	_, err = e.Branch(doc, 0)
	require.NoError(t, err)

	assert.Empty(t, newValidator(t).Validate(doc))
}

func TestValidate_NoLineage(t *testing.T) {
	assert.Empty(t, newValidator(t).Validate(testutil.NewNotebook(2)))
}

func TestValidate_ExtraKeysAllowed(t *testing.T) {
	doc, err := notebook.ParseBytes([]byte(`{
	 "cells": [{"cell_type": "code", "metadata": {"lc_cell_meme": {
	   "current": "aaaaaaaa-0000-1000-8000-000000000001-2-beef-cafe",
	   "previous": null,
	   "next": null,
	   "execution_end_time": "2024-01-01T00:00:00Z",
	   "history": [{"current": "aaaaaaaa-0000-1000-8000-000000000002", "next": null, "previous": null, "note": 1}]
	 }}}],
	 "metadata": {"lc_notebook_meme": {"current": "bbbbbbbb-0000-1000-8000-000000000000", "lc_server_signature": {"current": {"signature_id": "x"}, "history": []}}}
	}`))
	require.NoError(t, err)

	assert.Empty(t, newValidator(t).Validate(doc))
}

func TestValidate_BadIdentityPattern(t *testing.T) {
	doc := testutil.NewNotebook(2)
	doc.Metadata.Lineage = &lineage.NotebookRecord{Current: "bbbbbbbb-0000-1000-8000-000000000000"}
	doc.Cells[1].Metadata.Lineage = &lineage.CellRecord{
		Current:  "not-an-identity",
		Previous: lineage.None(),
		Next:     lineage.None(),
	}

	vs := newValidator(t).Validate(doc)
	require.NotEmpty(t, vs)
	for _, v := range vs {
		assert.Equal(t, ErrSchemaMismatch, v.Code)
		assert.True(t, strings.HasPrefix(v.Path, "cells[1].metadata.lc_cell_meme"), v.Path)
	}
}

func TestValidate_BadRootCells(t *testing.T) {
	doc := testutil.NewNotebook(0)
	doc.Metadata.Lineage = &lineage.NotebookRecord{
		Current:   "bbbbbbbb-0000-1000-8000-000000000000",
		RootCells: []meme.Identity{"zzz"},
	}

	vs := newValidator(t).Validate(doc)
	require.NotEmpty(t, vs)
	assert.True(t, strings.HasPrefix(vs[0].Path, "metadata.lc_notebook_meme"), vs[0].Path)
}

func TestValidate_BranchCountBelowWindow(t *testing.T) {
	doc := testutil.NewNotebook(1)
	doc.Cells[0].Metadata.Lineage = &lineage.CellRecord{
		// Matches the pattern, but two tokens cannot follow a count of 1.
		Current: "aaaaaaaa-0000-1000-8000-000000000001-1-beef-cafe",
	}

	vs := newValidator(t).Validate(doc)
	require.Len(t, vs, 1)
	assert.Equal(t, ErrBadIdentity, vs[0].Code)
	assert.Equal(t, "cells[0].metadata.lc_cell_meme", vs[0].Path)
	assert.Contains(t, vs[0].Error(), "E202")
}
