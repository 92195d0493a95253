package signature

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nblineage/internal/lineage"
	"github.com/roach88/nblineage/internal/meme"
	"github.com/roach88/nblineage/internal/testutil"
)

func TestFileStore_CreatesOnce(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	s := NewFileStore(dir,
		WithGenerator(meme.NewFixedGenerator("11111111-2222-1333-8444-555555555555")),
		WithNotebookDir("/home/jovyan"),
		WithLogger(logger))

	rec, err := s.Signature(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Record{SignatureID: "11111111-2222-1333-8444-555555555555", NotebookDir: "/home/jovyan"}, rec)
	assert.Contains(t, buf.String(), "writing server signature")

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, "11111111-2222-1333-8444-555555555555", string(data))

	// Cached: the fixed generator would panic on a second mint.
	again, err := s.ID()
	require.NoError(t, err)
	assert.Equal(t, rec.SignatureID, again)
}

func TestFileStore_ReusesExisting(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("existing-id\n"), 0o644))

	s := NewFileStore(dir, WithGenerator(meme.NewFixedGenerator()))
	id, err := s.ID()
	require.NoError(t, err)
	assert.Equal(t, "existing-id", id)
}

func TestFileStore_DefaultGeneratorIsUUIDv1(t *testing.T) {
	s := NewFileStore(t.TempDir(), WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	id, err := s.ID()
	require.NoError(t, err)

	parts, err := meme.Decode(meme.Identity(id))
	require.NoError(t, err)
	assert.Equal(t, byte('1'), parts.UUID[14], "version nibble")
}

func TestFileStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewFileStore(t.TempDir()).Signature(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRecordMap(t *testing.T) {
	rec := Record{SignatureID: "sig", NotebookDir: "/srv"}
	assert.Equal(t, map[string]any{"signature_id": "sig", "notebook_dir": "/srv"}, rec.Map())

	withPath := rec.WithPath("work/a.ipynb")
	assert.Equal(t, "work/a.ipynb", withPath.Map()[KeyNotebookPath])
	assert.Empty(t, rec.NotebookPath, "WithPath copies")
}

func TestRecordMatches(t *testing.T) {
	rec := Record{SignatureID: "sig", NotebookDir: "/srv"}

	assert.True(t, rec.Matches(map[string]any{"signature_id": "sig", "notebook_dir": "/srv"}))
	assert.True(t, rec.Matches(map[string]any{"signature_id": "sig", "notebook_dir": "/srv", "other": 1}),
		"unrelated keys ignored")
	assert.False(t, rec.Matches(map[string]any{"signature_id": "sig"}))
	assert.False(t, rec.Matches(map[string]any{"signature_id": "other", "notebook_dir": "/srv"}))
	assert.False(t, rec.Matches(nil))
}

func TestTrack(t *testing.T) {
	doc := testutil.NewNotebook(1)
	first := Record{SignatureID: "sig-1", NotebookDir: "/a"}
	second := Record{SignatureID: "sig-2", NotebookDir: "/a"}

	assert.True(t, Track(doc, first))
	sig := doc.Metadata.Lineage.Signature
	require.NotNil(t, sig)
	assert.Equal(t, first.Map(), sig.Current)
	assert.NotNil(t, sig.History)
	assert.Empty(t, sig.History)
	assert.Empty(t, doc.Metadata.Lineage.Current, "identity left for synchronize")

	assert.False(t, Track(doc, first), "same environment")

	assert.True(t, Track(doc, second))
	assert.Equal(t, second.Map(), sig.Current)
	assert.Equal(t, []map[string]any{first.Map()}, sig.History)
}

func TestTrack_ExistingRecord(t *testing.T) {
	doc := testutil.NewNotebook(0)
	doc.Metadata.Lineage = &lineage.NotebookRecord{Current: "bbbbbbbb-0000-1000-8000-000000000000"}

	changed := Track(doc, Record{SignatureID: "s"})
	assert.True(t, changed)
	assert.Equal(t, meme.Identity("bbbbbbbb-0000-1000-8000-000000000000"), doc.Metadata.Lineage.Current)
}

func TestStatic(t *testing.T) {
	var p Provider = Static{SignatureID: "fixed"}
	rec, err := p.Signature(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fixed", rec.SignatureID)
}
