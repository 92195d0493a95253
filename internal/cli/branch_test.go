package cli

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nblineage/internal/meme"
	"github.com/roach88/nblineage/internal/server"
	"github.com/roach88/nblineage/internal/testutil"
)

func TestBranch_Identity(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("branch", string(testutil.ID(1)))
	require.NoError(t, err)
	assert.Equal(t, string(testutil.ID(1))+"-1-0001\n", out)

	out, err = env.run("branch", strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, string(testutil.ID(1))+"-2-0001-0002\n", out)
}

func TestBranch_IdentityJSON(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("--format", "json", "branch", string(testutil.ID(7)))
	require.NoError(t, err)

	var res BranchResult
	decodeData(t, out, &res)
	assert.Equal(t, string(testutil.ID(7)), res.UUID)
	assert.Equal(t, 1, res.BranchCount)
	assert.Equal(t, []string{"0001"}, res.BranchTokens)
}

func TestBranch_MalformedIdentity(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("branch", "not-an-identity")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeInvalidArgument)
}

func TestBranch_Notebook(t *testing.T) {
	env := newTestEnv(t)
	src := env.writeNotebook("src.ipynb", 2)
	dst := env.path("dst.ipynb")

	_, err := env.run("branch", "--notebook", src, dst)
	require.NoError(t, err)

	doc := env.readNotebook(dst)
	require.Len(t, doc.Cells, 2)
	for i, id := range doc.Cells.Identities() {
		parts, err := meme.Decode(id)
		require.NoError(t, err)
		assert.Equal(t, 1, parts.BranchCount, "cell %d", i)
		// Cells 0 and 1 were minted as identities 2 and 3.
		assert.Equal(t, string(testutil.ID(i+2)), parts.UUID)
	}

	_, err = env.run("branch", "--notebook", src, dst)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeDestinationExists)
}

func TestBranch_NotebookArgs(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run("branch", "--notebook", env.path("only.ipynb"))
	require.Error(t, err)
}

func TestUUID(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("uuid", "3")
	require.NoError(t, err)
	want := strings.Join([]string{
		string(testutil.ID(1)), string(testutil.ID(2)), string(testutil.ID(3)),
	}, "\n") + "\n"
	assert.Equal(t, want, out)
}

func TestUUID_ZeroJSON(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run("--format", "json", "uuid", "0")
	require.NoError(t, err)

	var res UUIDResult
	decodeData(t, out, &res)
	assert.NotNil(t, res.UUID)
	assert.Empty(t, res.UUID)
}

func TestUUID_InvalidCount(t *testing.T) {
	tests := []string{"abc", "1.5", strconv.Itoa(server.MaxUUIDCount + 1)}

	for _, arg := range tests {
		t.Run(arg, func(t *testing.T) {
			env := newTestEnv(t)
			_, err := env.run("uuid", arg)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), ErrCodeInvalidArgument)
		})
	}
}
