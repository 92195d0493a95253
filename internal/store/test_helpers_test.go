package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/nblineage/internal/engine"
	"github.com/roach88/nblineage/internal/notebook"
	"github.com/roach88/nblineage/internal/testutil"
)

// createTestStore creates a new store in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// syncedNotebook returns an n-cell notebook after one synchronize pass with
// sequential identities: document ID(1), cells ID(2)..ID(n+1).
func syncedNotebook(t *testing.T, n int) (*notebook.Document, *engine.Engine) {
	t.Helper()
	codec, _ := testutil.NewCodec()
	e := engine.New(codec)
	doc := testutil.NewNotebook(n)
	_, err := e.Synchronize(doc, engine.SyncOptions{})
	require.NoError(t, err)
	return doc, e
}
