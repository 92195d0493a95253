package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nblineage/internal/lineage"
)

func TestParse_Full(t *testing.T) {
	cfg, err := Parse([]byte(`
data_dir: /var/lib/nblineage
trim_history: 2
clear_server_signature: true
server:
  addr: 0.0.0.0:9000
  notebook_dir: /home/jovyan
  server_url: http://localhost:8888/
index:
  db: /tmp/index.db
watch:
  debounce: 250ms
`))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/nblineage", cfg.DataDir)
	require.NotNil(t, cfg.TrimHistory)
	assert.Equal(t, 2, *cfg.TrimHistory)
	assert.Equal(t, lineage.TrimTo(2), cfg.Trim())
	assert.True(t, cfg.ClearServerSignature)
	assert.Equal(t, ServerConfig{Addr: "0.0.0.0:9000", NotebookDir: "/home/jovyan", ServerURL: "http://localhost:8888/"}, cfg.Server)
	assert.Equal(t, "/tmp/index.db", cfg.Index.DB)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("data_dir: /data\n"))
	require.NoError(t, err)

	assert.Nil(t, cfg.TrimHistory)
	assert.Equal(t, lineage.NoTrim, cfg.Trim())
	assert.False(t, cfg.ClearServerSignature)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
	assert.Equal(t, filepath.Join("/data", DefaultIndexName), cfg.Index.DB)
	assert.Equal(t, DefaultDebounce, cfg.Watch.Debounce)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.DataDir)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
}

func TestParse_TrimZero(t *testing.T) {
	cfg, err := Parse([]byte("trim_history: 0\n"))
	require.NoError(t, err)
	n, set := cfg.Trim().Limit()
	assert.True(t, set)
	assert.Equal(t, 0, n)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "colour: blue\n"},
		{"negative trim", "trim_history: -1\n"},
		{"bad duration", "watch:\n  debounce: soon\n"},
		{"not a mapping", "- a\n- b\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestParse_ExpandsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cfg, err := Parse([]byte("data_dir: ~/nbl\n"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "nbl"), cfg.DataDir)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: :1234\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":1234", cfg.Server.Addr)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err, "explicit path must exist")
}

func TestLoad_DefaultPathMissing(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultAddr, cfg.Server.Addr)
}
