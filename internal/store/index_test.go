package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nblineage/internal/engine"
	"github.com/roach88/nblineage/internal/lineage"
	"github.com/roach88/nblineage/internal/meme"
	"github.com/roach88/nblineage/internal/testutil"
)

func TestIndexNotebook_Basic(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc, _ := syncedNotebook(t, 3)

	changed, err := s.IndexNotebook(ctx, "a.ipynb", doc)
	require.NoError(t, err)
	assert.True(t, changed)

	notebooks, err := s.Notebooks(ctx)
	require.NoError(t, err)
	require.Len(t, notebooks, 1)
	nb := notebooks[0]
	assert.Equal(t, "a.ipynb", nb.Path)
	assert.Equal(t, testutil.ID(1), nb.Identity)
	assert.Equal(t, []meme.Identity{}, nb.History)
	assert.Nil(t, nb.RootCells)
	assert.Nil(t, nb.Signature)
	assert.Equal(t, 3, nb.CellCount)
	assert.Len(t, nb.Fingerprint, 64)

	cells, err := s.CellsByIdentity(ctx, testutil.ID(3))
	require.NoError(t, err)
	require.Len(t, cells, 1)
	c := cells[0]
	assert.Equal(t, 1, c.Position)
	assert.Equal(t, string(testutil.ID(3)), c.UUID)
	assert.Equal(t, 0, c.BranchCount)
	assert.Nil(t, c.BranchTokens)
	assert.Equal(t, testutil.ID(2), c.Previous)
	assert.Equal(t, testutil.ID(4), c.Next)
	assert.Len(t, c.RecordHash, 64)
}

func TestIndexNotebook_IdempotentOnFingerprint(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc, e := syncedNotebook(t, 2)

	changed, err := s.IndexNotebook(ctx, "a.ipynb", doc)
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = s.IndexNotebook(ctx, "a.ipynb", doc)
	require.NoError(t, err)
	assert.False(t, changed, "same lineage")

	_, err = e.Reset(doc, engine.ResetOptions{})
	require.NoError(t, err)
	changed, err = s.IndexNotebook(ctx, "a.ipynb", doc)
	require.NoError(t, err)
	assert.True(t, changed, "lineage changed")

	old, err := s.CellsByIdentity(ctx, testutil.ID(2))
	require.NoError(t, err)
	assert.Empty(t, old, "previous rows replaced")
}

func TestCellsByLineage_AcrossNotebooksAndBranches(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc, e := syncedNotebook(t, 2)
	_, err := s.IndexNotebook(ctx, "a.ipynb", doc)
	require.NoError(t, err)

	// Duplicate the notebook and branch every cell in the copy.
	dup := doc.Clone()
	_, err = e.Branch(dup)
	require.NoError(t, err)
	_, err = e.Synchronize(dup, engine.SyncOptions{})
	require.NoError(t, err)
	_, err = s.IndexNotebook(ctx, "b.ipynb", dup)
	require.NoError(t, err)

	cells, err := s.CellsByLineage(ctx, string(testutil.ID(2)))
	require.NoError(t, err)
	require.Len(t, cells, 2)
	assert.Equal(t, "a.ipynb", cells[0].NotebookPath)
	assert.Equal(t, 0, cells[0].BranchCount)
	assert.Equal(t, "b.ipynb", cells[1].NotebookPath)
	assert.Equal(t, 1, cells[1].BranchCount)
	assert.Equal(t, []string{"0001"}, cells[1].BranchTokens)

	none, err := s.CellsByLineage(ctx, "ffffffff-0000-1000-8000-000000000000")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestHistoryForAndSuccessors(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc, e := syncedNotebook(t, 2)
	before := doc.Cells[0].Metadata.Lineage.Snapshot()

	_, err := e.Reset(doc, engine.ResetOptions{})
	require.NoError(t, err)
	_, err = s.IndexNotebook(ctx, "a.ipynb", doc)
	require.NoError(t, err)

	current := doc.Cells[0].Metadata.Lineage.Current
	history, err := s.HistoryFor(ctx, current)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 0, history[0].Seq)
	assert.Equal(t, before, history[0].Snapshot())

	succ, err := s.Successors(ctx, before.Current)
	require.NoError(t, err)
	require.Len(t, succ, 1)
	assert.Equal(t, "a.ipynb", succ[0].NotebookPath)
	assert.Equal(t, 0, succ[0].Position)

	notebooks, err := s.Notebooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []meme.Identity{testutil.ID(1)}, notebooks[0].History)
	assert.Equal(t, doc.Cells.Identities(), notebooks[0].RootCells)
}

func TestIndexNotebook_Signature(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc, _ := syncedNotebook(t, 1)
	doc.Metadata.Lineage.Signature = &lineage.SignatureRecord{
		Current: map[string]any{"signature_id": "sig"},
		History: []map[string]any{},
	}

	_, err := s.IndexNotebook(ctx, "a.ipynb", doc)
	require.NoError(t, err)

	notebooks, err := s.Notebooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"current": map[string]any{"signature_id": "sig"},
		"history": []any{},
	}, notebooks[0].Signature)
}

func TestIndexNotebook_SkipsCellsWithoutIdentity(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc, _ := syncedNotebook(t, 2)
	doc.Cells[1].Metadata.Lineage = nil

	_, err := s.IndexNotebook(ctx, "a.ipynb", doc)
	require.NoError(t, err)

	cells, err := s.CellsByIdentity(ctx, testutil.ID(2))
	require.NoError(t, err)
	assert.Len(t, cells, 1)

	notebooks, err := s.Notebooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, notebooks[0].CellCount)
}

func TestIndexNotebook_Errors(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	_, err := s.IndexNotebook(ctx, "fresh.ipynb", testutil.NewNotebook(1))
	require.Error(t, err, "no document identity")

	doc, _ := syncedNotebook(t, 1)
	doc.Cells[0].Metadata.Lineage.Current = "not-an-identity"
	_, err = s.IndexNotebook(ctx, "bad.ipynb", doc)
	require.ErrorIs(t, err, meme.ErrMalformedIdentity)

	notebooks, err := s.Notebooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, notebooks, "failed index rolled back")
}

func TestRemoveNotebook(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc, _ := syncedNotebook(t, 2)
	_, err := s.IndexNotebook(ctx, "a.ipynb", doc)
	require.NoError(t, err)

	require.NoError(t, s.RemoveNotebook(ctx, "a.ipynb"))
	require.NoError(t, s.RemoveNotebook(ctx, "missing.ipynb"))

	cells, err := s.CellsByLineage(ctx, string(testutil.ID(2)))
	require.NoError(t, err)
	assert.Empty(t, cells, "cascade removes cells")
}
