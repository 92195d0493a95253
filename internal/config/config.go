// Package config loads nblineage settings from a YAML file.
//
// Every key is optional; missing keys take the defaults below. Command-line
// flags override file values.
//
//	data_dir: ~/.nblineage          # holds server_signature
//	trim_history: 5                 # omit for unbounded history on reset
//	clear_server_signature: false
//	server:
//	  addr: 127.0.0.1:8890
//	  notebook_dir: /home/jovyan
//	  server_url: http://localhost:8888/
//	index:
//	  db: ~/.nblineage/index.db
//	watch:
//	  debounce: 500ms
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/nblineage/internal/lineage"
)

// Defaults.
const (
	DefaultDirName   = ".nblineage"
	DefaultFileName  = "config.yaml"
	DefaultAddr      = "127.0.0.1:8890"
	DefaultIndexName = "index.db"
	DefaultDebounce  = 500 * time.Millisecond
)

// Config is the top-level configuration.
type Config struct {
	DataDir              string       `yaml:"data_dir"`
	TrimHistory          *int         `yaml:"trim_history"`
	ClearServerSignature bool         `yaml:"clear_server_signature"`
	Server               ServerConfig `yaml:"server"`
	Index                IndexConfig  `yaml:"index"`
	Watch                WatchConfig  `yaml:"watch"`
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Addr        string `yaml:"addr"`
	NotebookDir string `yaml:"notebook_dir"`
	ServerURL   string `yaml:"server_url"`
}

// IndexConfig controls the lineage index.
type IndexConfig struct {
	DB string `yaml:"db"`
}

// WatchConfig controls the directory watcher.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultPath returns ~/.nblineage/config.yaml, or "" when the home
// directory is unknown.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultDirName, DefaultFileName)
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the file at path. An empty path means DefaultPath, which may
// be missing; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return Default(), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.TrimHistory != nil && *cfg.TrimHistory < 0 {
		return nil, fmt.Errorf("parse config: trim_history must be >= 0, got %d", *cfg.TrimHistory)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.DataDir = filepath.Join(home, DefaultDirName)
		} else {
			c.DataDir = DefaultDirName
		}
	}
	c.DataDir = expandHome(c.DataDir)
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Index.DB == "" {
		c.Index.DB = filepath.Join(c.DataDir, DefaultIndexName)
	}
	c.Index.DB = expandHome(c.Index.DB)
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = DefaultDebounce
	}
}

// Trim returns the history bound for resets.
func (c *Config) Trim() lineage.TrimLimit {
	if c.TrimHistory == nil {
		return lineage.NoTrim
	}
	return lineage.TrimTo(*c.TrimHistory)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
