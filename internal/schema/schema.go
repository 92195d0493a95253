package schema

import (
	_ "embed"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/nblineage/internal/canonical"
	"github.com/roach88/nblineage/internal/lineage"
	"github.com/roach88/nblineage/internal/meme"
	"github.com/roach88/nblineage/internal/notebook"
)

//go:embed lineage.cue
var lineageCUE string

// Violation codes (E200-E209)
const (
	ErrSchemaMismatch = "E201" // record does not match its CUE definition
	ErrBadIdentity    = "E202" // identity matches the pattern but does not decode
)

// Violation is one schema failure.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (v Violation) Error() string {
	return fmt.Sprintf("[%s] %s: %s", v.Code, v.Path, v.Message)
}

// Validator checks lineage records against the embedded schema.
//
// Thread-safety: a Validator must not be used from multiple goroutines at
// once; CUE values share their context.
type Validator struct {
	ctx      *cue.Context
	notebook cue.Value
	cell     cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(lineageCUE, cue.Filename("lineage.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile lineage schema: %w", err)
	}
	return &Validator{
		ctx:      ctx,
		notebook: v.LookupPath(cue.ParsePath("#NotebookMeme")),
		cell:     v.LookupPath(cue.ParsePath("#CellMeme")),
	}, nil
}

// Validate checks every lineage record in doc and returns all violations
// in document order. An empty result means the document is valid.
func (val *Validator) Validate(doc *notebook.Document) []Violation {
	var out []Violation

	if r := doc.Metadata.Lineage; r != nil {
		path := "metadata." + lineage.NotebookKey
		vs := val.check(val.notebook, path, notebook.EncodeNotebookRecord(r))
		if len(vs) == 0 {
			ids := append([]meme.Identity{r.Current}, r.History...)
			vs = checkIdentities(path, append(ids, r.RootCells...)...)
		}
		out = append(out, vs...)
	}

	for i, cell := range doc.Cells {
		r := cell.Metadata.Lineage
		if r == nil {
			continue
		}
		path := fmt.Sprintf("cells[%d].metadata.%s", i, lineage.CellKey)
		vs := val.check(val.cell, path, notebook.EncodeCellRecord(r))
		if len(vs) == 0 {
			ids := []meme.Identity{r.Current, r.Previous.ID, r.Next.ID}
			for _, s := range r.History {
				ids = append(ids, s.Current, s.Previous.ID, s.Next.ID)
			}
			vs = checkIdentities(path, ids...)
		}
		out = append(out, vs...)
	}
	return out
}

// check unifies tree with def and converts CUE errors into violations.
func (val *Validator) check(def cue.Value, path string, tree map[string]any) []Violation {
	data, err := canonical.Marshal(tree)
	if err != nil {
		return []Violation{{Path: path, Message: err.Error(), Code: ErrSchemaMismatch}}
	}
	v := val.ctx.CompileBytes(data)
	if err := v.Err(); err != nil {
		return []Violation{{Path: path, Message: err.Error(), Code: ErrSchemaMismatch}}
	}

	err = def.Unify(v).Validate(cue.Concrete(true))
	if err == nil {
		return nil
	}

	var out []Violation
	seen := make(map[string]bool)
	for _, e := range cueerrors.Errors(err) {
		p := path
		if sel := e.Path(); len(sel) > 0 {
			p += "." + strings.Join(sel, ".")
		}
		format, args := e.Msg()
		msg := fmt.Sprintf(format, args...)
		if seen[p+msg] {
			continue
		}
		seen[p+msg] = true
		out = append(out, Violation{Path: p, Message: msg, Code: ErrSchemaMismatch})
	}
	return out
}

// checkIdentities decodes each non-empty identity.
func checkIdentities(path string, ids ...meme.Identity) []Violation {
	var out []Violation
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, err := meme.Decode(id); err != nil {
			out = append(out, Violation{Path: path, Message: err.Error(), Code: ErrBadIdentity})
		}
	}
	return out
}
