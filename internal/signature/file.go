package signature

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/roach88/nblineage/internal/meme"
)

// FileName is the signature file created under the data directory.
const FileName = "server_signature"

// FileStore persists the runtime signature id to a file.
//
// Thread-safety: safe for concurrent use; the id is read or created once
// and cached.
type FileStore struct {
	path        string
	notebookDir string
	serverURL   string
	gen         meme.Generator
	logger      *slog.Logger

	mu sync.Mutex
	id string
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithNotebookDir sets the notebook_dir reported with the signature.
func WithNotebookDir(dir string) FileOption {
	return func(s *FileStore) { s.notebookDir = dir }
}

// WithServerURL sets the server_url reported with the signature.
func WithServerURL(url string) FileOption {
	return func(s *FileStore) { s.serverURL = url }
}

// WithGenerator overrides the id generator (UUID v1 by default).
func WithGenerator(g meme.Generator) FileOption {
	return func(s *FileStore) { s.gen = g }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) FileOption {
	return func(s *FileStore) { s.logger = l }
}

// NewFileStore creates a store for <dataDir>/server_signature.
func NewFileStore(dataDir string, opts ...FileOption) *FileStore {
	s := &FileStore{
		path:   filepath.Join(dataDir, FileName),
		gen:    meme.UUIDv1Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the signature file location.
func (s *FileStore) Path() string { return s.path }

// ID returns the signature id, creating and persisting one on first use.
func (s *FileStore) ID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.id != "" {
		return s.id, nil
	}

	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		if id := strings.TrimSpace(string(data)); id != "" {
			s.id = id
			return id, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("read server signature: %w", err)
	}

	id := s.gen.Generate()
	s.logger.Info("writing server signature", "path", s.path)
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(id), 0o644); err != nil {
		return "", fmt.Errorf("write server signature: %w", err)
	}
	s.id = id
	return id, nil
}

// Signature implements Provider.
func (s *FileStore) Signature(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	id, err := s.ID()
	if err != nil {
		return Record{}, err
	}
	return Record{
		SignatureID: id,
		NotebookDir: s.notebookDir,
		ServerURL:   s.serverURL,
	}, nil
}
