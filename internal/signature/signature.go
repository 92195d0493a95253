package signature

import (
	"context"

	"github.com/roach88/nblineage/internal/lineage"
	"github.com/roach88/nblineage/internal/notebook"
)

// Keys of a signature record.
const (
	KeySignatureID  = "signature_id"
	KeyNotebookDir  = "notebook_dir"
	KeyNotebookPath = "notebook_path"
	KeyServerURL    = "server_url"
)

// Record describes one runtime environment. Empty fields are omitted from
// the stored mapping.
type Record struct {
	SignatureID  string `json:"signature_id,omitempty"`
	NotebookDir  string `json:"notebook_dir,omitempty"`
	NotebookPath string `json:"notebook_path,omitempty"`
	ServerURL    string `json:"server_url,omitempty"`
}

// Map returns the record as stored in notebook metadata.
func (r Record) Map() map[string]any {
	m := make(map[string]any, 4)
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set(KeySignatureID, r.SignatureID)
	set(KeyNotebookDir, r.NotebookDir)
	set(KeyNotebookPath, r.NotebookPath)
	set(KeyServerURL, r.ServerURL)
	return m
}

// WithPath returns a copy of r describing the document at path.
func (r Record) WithPath(path string) Record {
	r.NotebookPath = path
	return r
}

// Matches reports whether the stored mapping m describes the same
// environment as r. Only the four signature fields are compared; a field
// absent on both sides matches.
func (r Record) Matches(m map[string]any) bool {
	if m == nil {
		return false
	}
	want := r.Map()
	for _, k := range []string{KeySignatureID, KeyNotebookDir, KeyNotebookPath, KeyServerURL} {
		a, okA := m[k]
		b, okB := want[k]
		if okA != okB || a != b {
			return false
		}
	}
	return true
}

// Provider supplies the current runtime signature.
type Provider interface {
	Signature(ctx context.Context) (Record, error)
}

// Static is a Provider returning a fixed record.
type Static Record

// Signature implements Provider.
func (s Static) Signature(context.Context) (Record, error) { return Record(s), nil }

// Track stores rec as the document's current origin signature. When the
// stored signature describes a different environment it is pushed onto
// history first. Reports whether the document changed.
//
// The document record is created when absent; its identity is left for
// the next synchronize to mint.
func Track(doc *notebook.Document, rec Record) bool {
	nb := doc.Metadata.Lineage
	if nb == nil {
		nb = &lineage.NotebookRecord{}
		doc.Metadata.Lineage = nb
	}
	if nb.Signature == nil {
		nb.Signature = &lineage.SignatureRecord{}
	}
	if rec.Matches(nb.Signature.Current) {
		return false
	}
	return nb.Signature.Track(rec.Map())
}
