package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/nblineage/internal/notebook"
	"github.com/roach88/nblineage/internal/testutil"
)

// testEnv runs commands against a temp config, data dir and index with
// deterministic identities.
type testEnv struct {
	t    *testing.T
	dir  string
	opts *RootOptions
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf("data_dir: %s\nindex:\n  db: %s\n",
		filepath.Join(dir, "data"), filepath.Join(dir, "index.db"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0644))

	codec, _ := testutil.NewCodec()
	return &testEnv{
		t:    t,
		dir:  dir,
		opts: &RootOptions{ConfigPath: cfgPath, codec: codec},
	}
}

// run executes the root command with args and returns stdout.
func (e *testEnv) run(args ...string) (string, error) {
	e.t.Helper()
	cmd := newRootCommand(e.opts)
	stdout := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

// path returns name inside the env's temp dir.
func (e *testEnv) path(name string) string {
	return filepath.Join(e.dir, name)
}

// writeNotebook writes an n-cell notebook without lineage and returns its path.
func (e *testEnv) writeNotebook(name string, n int) string {
	e.t.Helper()
	path := e.path(name)
	require.NoError(e.t, notebook.WriteFile(path, testutil.NewNotebook(n)))
	return path
}

func (e *testEnv) readNotebook(path string) *notebook.Document {
	e.t.Helper()
	doc, err := notebook.ParseFile(path)
	require.NoError(e.t, err)
	return doc
}

// decodeData decodes the data field of a JSON CLIResponse into v.
func decodeData(t *testing.T, out string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}
