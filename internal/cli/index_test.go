package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nblineage/internal/testutil"
)

func TestIndexAndLineage(t *testing.T) {
	env := newTestEnv(t)
	a := env.writeNotebook("a.ipynb", 2)
	b := env.path("b.ipynb")
	db := env.path("lineage.db")

	_, err := env.run("sync", a)
	require.NoError(t, err)
	// a: notebook 1, cells 2 and 3. b: notebook 4, cells 5 and 6, with
	// 2 and 3 archived in their history.
	_, err = env.run("new-root-meme", a, b)
	require.NoError(t, err)

	out, err := env.run("--format", "json", "index", "--db", db, a, b)
	require.NoError(t, err)
	var idx IndexResult
	decodeData(t, out, &idx)
	assert.Equal(t, db, idx.DB)
	require.Len(t, idx.Files, 2)
	absA, err := filepath.Abs(a)
	require.NoError(t, err)
	assert.Equal(t, absA, idx.Files[0].Path)
	assert.True(t, idx.Files[0].Changed)
	assert.True(t, idx.Files[1].Changed)

	out, err = env.run("index", "--db", db, a)
	require.NoError(t, err)
	assert.Contains(t, out, "(unchanged)")

	out, err = env.run("--format", "json", "lineage", "--db", db, string(testutil.ID(2)))
	require.NoError(t, err)
	var res LineageResult
	decodeData(t, out, &res)
	assert.Equal(t, string(testutil.ID(2)), res.UUID)
	require.Len(t, res.Relatives, 1)
	assert.Equal(t, absA, res.Relatives[0].NotebookPath)
	assert.Equal(t, 0, res.Relatives[0].Position)
	assert.Empty(t, res.History)
	require.Len(t, res.Successors, 1)
	assert.Equal(t, 0, res.Successors[0].Position)

	out, err = env.run("lineage", "--db", db, string(testutil.ID(5)))
	require.NoError(t, err)
	assert.Contains(t, out, "Relatives (1):")
	assert.Contains(t, out, "History (1):")
	assert.Contains(t, out, string(testutil.ID(2)))
}

func TestIndex_ConfiguredDatabase(t *testing.T) {
	env := newTestEnv(t)
	a := env.writeNotebook("a.ipynb", 1)
	_, err := env.run("sync", a)
	require.NoError(t, err)

	out, err := env.run("--format", "json", "index", a)
	require.NoError(t, err)
	var idx IndexResult
	decodeData(t, out, &idx)
	assert.Equal(t, env.path("index.db"), idx.DB)
	assert.FileExists(t, env.path("index.db"))
}

func TestIndex_Remove(t *testing.T) {
	env := newTestEnv(t)
	a := env.writeNotebook("a.ipynb", 1)
	db := env.path("lineage.db")
	_, err := env.run("sync", a)
	require.NoError(t, err)
	_, err = env.run("index", "--db", db, a)
	require.NoError(t, err)

	out, err := env.run("index", "--db", db, "--remove", a)
	require.NoError(t, err)
	assert.Contains(t, out, "(removed)")

	out, err = env.run("--format", "json", "lineage", "--db", db, string(testutil.ID(2)))
	require.NoError(t, err)
	var res LineageResult
	decodeData(t, out, &res)
	assert.Empty(t, res.Relatives)
}

func TestIndex_UnreadableNotebook(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("index", "--db", env.path("lineage.db"), env.path("missing.ipynb"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLineage_MalformedIdentity(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("lineage", "--db", env.path("lineage.db"), "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeInvalidArgument)
}
