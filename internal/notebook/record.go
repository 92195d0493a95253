package notebook

import (
	"fmt"

	"github.com/roach88/nblineage/internal/lineage"
	"github.com/roach88/nblineage/internal/meme"
)

// ParseError reports notebook content that cannot be mapped onto the
// document model.
type ParseError struct {
	Path    string // JSON path of the offending value, e.g. cells[2].metadata.lc_cell_meme.next
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func parseErr(path, format string, args ...any) *ParseError {
	return &ParseError{Path: path, Message: fmt.Sprintf(format, args...)}
}

func decodeIdentity(path string, v any) (meme.Identity, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return meme.Identity(val), nil
	default:
		return "", parseErr(path, "expected string, got %T", v)
	}
}

func decodeIdentities(path string, v any) ([]meme.Identity, error) {
	arr, ok := v.([]any)
	if !ok {
		return nil, parseErr(path, "expected array, got %T", v)
	}
	ids := make([]meme.Identity, len(arr))
	for i, elem := range arr {
		s, ok := elem.(string)
		if !ok {
			return nil, parseErr(fmt.Sprintf("%s[%d]", path, i), "expected string, got %T", elem)
		}
		ids[i] = meme.Identity(s)
	}
	return ids, nil
}

func decodeLink(path string, v any, present bool) (lineage.Link, error) {
	if !present {
		return lineage.Link{}, nil
	}
	switch val := v.(type) {
	case nil:
		return lineage.None(), nil
	case string:
		return lineage.To(meme.Identity(val)), nil
	default:
		return lineage.Link{}, parseErr(path, "expected string or null, got %T", v)
	}
}

func encodeLink(m map[string]any, key string, l lineage.Link) {
	switch {
	case !l.Recorded:
	case l.IsNone():
		m[key] = nil
	default:
		m[key] = string(l.ID)
	}
}

func decodeSnapshot(path string, v any) (lineage.Snapshot, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return lineage.Snapshot{}, parseErr(path, "expected object, got %T", v)
	}

	var s lineage.Snapshot
	var err error
	cur, hasCur := obj[lineage.FieldCurrent]
	if s.Current, err = decodeIdentity(path+".current", cur); err != nil {
		return s, err
	}
	s.NullCurrent = hasCur && cur == nil
	prev, hasPrev := obj[lineage.FieldPrevious]
	if s.Previous, err = decodeLink(path+".previous", prev, hasPrev); err != nil {
		return s, err
	}
	next, hasNext := obj[lineage.FieldNext]
	if s.Next, err = decodeLink(path+".next", next, hasNext); err != nil {
		return s, err
	}
	s.Extra = extraKeys(obj, lineage.FieldCurrent, lineage.FieldPrevious, lineage.FieldNext)
	return s, nil
}

func encodeSnapshot(s lineage.Snapshot) map[string]any {
	m := lineage.CloneMap(s.Extra)
	if m == nil {
		m = make(map[string]any, 3)
	}
	switch {
	case s.Current != "":
		m[lineage.FieldCurrent] = string(s.Current)
	case s.NullCurrent:
		m[lineage.FieldCurrent] = nil
	}
	encodeLink(m, lineage.FieldPrevious, s.Previous)
	encodeLink(m, lineage.FieldNext, s.Next)
	return m
}

// DecodeCellRecord maps an lc_cell_meme value onto a CellRecord.
func DecodeCellRecord(path string, v any) (*lineage.CellRecord, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, parseErr(path, "expected object, got %T", v)
	}

	r := &lineage.CellRecord{}
	var err error
	if r.Current, err = decodeIdentity(path+".current", obj[lineage.FieldCurrent]); err != nil {
		return nil, err
	}
	prev, hasPrev := obj[lineage.FieldPrevious]
	if r.Previous, err = decodeLink(path+".previous", prev, hasPrev); err != nil {
		return nil, err
	}
	next, hasNext := obj[lineage.FieldNext]
	if r.Next, err = decodeLink(path+".next", next, hasNext); err != nil {
		return nil, err
	}
	if h, ok := obj[lineage.FieldHistory]; ok {
		arr, ok := h.([]any)
		if !ok {
			return nil, parseErr(path+".history", "expected array, got %T", h)
		}
		r.History = make([]lineage.Snapshot, len(arr))
		for i, elem := range arr {
			if r.History[i], err = decodeSnapshot(fmt.Sprintf("%s.history[%d]", path, i), elem); err != nil {
				return nil, err
			}
		}
	}
	r.Extra = extraKeys(obj, lineage.FieldCurrent, lineage.FieldPrevious, lineage.FieldNext, lineage.FieldHistory)
	return r, nil
}

// EncodeCellRecord is the inverse of DecodeCellRecord.
func EncodeCellRecord(r *lineage.CellRecord) map[string]any {
	m := lineage.CloneMap(r.Extra)
	if m == nil {
		m = make(map[string]any, 4)
	}
	if r.Current != "" {
		m[lineage.FieldCurrent] = string(r.Current)
	}
	encodeLink(m, lineage.FieldPrevious, r.Previous)
	encodeLink(m, lineage.FieldNext, r.Next)
	if r.History != nil {
		h := make([]any, len(r.History))
		for i, s := range r.History {
			h[i] = encodeSnapshot(s)
		}
		m[lineage.FieldHistory] = h
	}
	return m
}

// DecodeNotebookRecord maps an lc_notebook_meme value onto a NotebookRecord.
func DecodeNotebookRecord(path string, v any) (*lineage.NotebookRecord, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, parseErr(path, "expected object, got %T", v)
	}

	r := &lineage.NotebookRecord{}
	var err error
	if r.Current, err = decodeIdentity(path+".current", obj[lineage.FieldCurrent]); err != nil {
		return nil, err
	}
	if h, ok := obj[lineage.FieldHistory]; ok {
		if r.History, err = decodeIdentities(path+".history", h); err != nil {
			return nil, err
		}
	}
	if rc, ok := obj[lineage.FieldRootCells]; ok {
		if r.RootCells, err = decodeIdentities(path+".root_cells", rc); err != nil {
			return nil, err
		}
	}
	if sig, ok := obj[lineage.ServerSignatureKey]; ok {
		if r.Signature, err = decodeSignature(path+"."+lineage.ServerSignatureKey, sig); err != nil {
			return nil, err
		}
	}
	r.Extra = extraKeys(obj, lineage.FieldCurrent, lineage.FieldHistory, lineage.FieldRootCells, lineage.ServerSignatureKey)
	return r, nil
}

// EncodeNotebookRecord is the inverse of DecodeNotebookRecord.
func EncodeNotebookRecord(r *lineage.NotebookRecord) map[string]any {
	m := lineage.CloneMap(r.Extra)
	if m == nil {
		m = make(map[string]any, 4)
	}
	if r.Current != "" {
		m[lineage.FieldCurrent] = string(r.Current)
	}
	if r.History != nil {
		m[lineage.FieldHistory] = identitiesToAny(r.History)
	}
	if r.RootCells != nil {
		m[lineage.FieldRootCells] = identitiesToAny(r.RootCells)
	}
	if r.Signature != nil {
		m[lineage.ServerSignatureKey] = encodeSignature(r.Signature)
	}
	return m
}

func decodeSignature(path string, v any) (*lineage.SignatureRecord, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, parseErr(path, "expected object, got %T", v)
	}

	s := &lineage.SignatureRecord{}
	if cur, ok := obj[lineage.FieldCurrent]; ok && cur != nil {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, parseErr(path+".current", "expected object, got %T", cur)
		}
		s.Current = lineage.CloneMap(m)
	}
	if h, ok := obj[lineage.FieldHistory]; ok {
		arr, ok := h.([]any)
		if !ok {
			return nil, parseErr(path+".history", "expected array, got %T", h)
		}
		s.History = make([]map[string]any, len(arr))
		for i, elem := range arr {
			m, ok := elem.(map[string]any)
			if !ok {
				return nil, parseErr(fmt.Sprintf("%s.history[%d]", path, i), "expected object, got %T", elem)
			}
			s.History[i] = lineage.CloneMap(m)
		}
	}
	s.Extra = extraKeys(obj, lineage.FieldCurrent, lineage.FieldHistory)
	return s, nil
}

func encodeSignature(s *lineage.SignatureRecord) map[string]any {
	m := lineage.CloneMap(s.Extra)
	if m == nil {
		m = make(map[string]any, 2)
	}
	if s.Current != nil {
		m[lineage.FieldCurrent] = lineage.CloneMap(s.Current)
	}
	if s.History != nil {
		h := make([]any, len(s.History))
		for i, entry := range s.History {
			h[i] = lineage.CloneMap(entry)
		}
		m[lineage.FieldHistory] = h
	}
	return m
}

func identitiesToAny(ids []meme.Identity) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

// extraKeys copies obj without the given keys; nil when nothing remains.
func extraKeys(obj map[string]any, skip ...string) map[string]any {
	var extra map[string]any
	for k, v := range obj {
		if contains(skip, k) {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = lineage.CloneValue(v)
	}
	return extra
}

func contains(keys []string, k string) bool {
	for _, s := range keys {
		if s == k {
			return true
		}
	}
	return false
}
