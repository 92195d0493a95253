package store

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/nblineage/internal/canonical"
	"github.com/roach88/nblineage/internal/lineage"
	"github.com/roach88/nblineage/internal/meme"
)

// marshalIdentities converts identities to canonical JSON TEXT.
// A nil slice maps to SQL NULL.
func marshalIdentities(ids []meme.Identity) (sql.NullString, error) {
	if ids == nil {
		return sql.NullString{}, nil
	}
	arr := make([]any, len(ids))
	for i, id := range ids {
		arr[i] = string(id)
	}
	data, err := canonical.Marshal(arr)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal identities: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalIdentities parses TEXT written by marshalIdentities.
func unmarshalIdentities(data sql.NullString) ([]meme.Identity, error) {
	if !data.Valid {
		return nil, nil
	}
	var ids []meme.Identity
	if err := json.Unmarshal([]byte(data.String), &ids); err != nil {
		return nil, fmt.Errorf("unmarshal identities: %w", err)
	}
	if ids == nil {
		ids = []meme.Identity{}
	}
	return ids, nil
}

// marshalSignature stores the origin signature record as canonical JSON.
func marshalSignature(sig *lineage.SignatureRecord) (sql.NullString, error) {
	if sig == nil {
		return sql.NullString{}, nil
	}
	m := map[string]any{}
	if sig.Current != nil {
		m[lineage.FieldCurrent] = sig.Current
	}
	if sig.History != nil {
		h := make([]any, len(sig.History))
		for i, entry := range sig.History {
			h[i] = entry
		}
		m[lineage.FieldHistory] = h
	}
	data, err := canonical.Marshal(m)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal signature: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// unmarshalSignature returns the decoded signature object, numbers kept as
// json.Number.
func unmarshalSignature(data sql.NullString) (map[string]any, error) {
	if !data.Valid {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(data.String)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("unmarshal signature: %w", err)
	}
	return m, nil
}

// linkColumn maps a link onto a nullable column; both "no neighbour" and
// "not recorded" become NULL.
func linkColumn(l lineage.Link) sql.NullString {
	if !l.Recorded || l.IsNone() {
		return sql.NullString{}
	}
	return sql.NullString{String: string(l.ID), Valid: true}
}

func columnLink(v sql.NullString) meme.Identity {
	if !v.Valid {
		return ""
	}
	return meme.Identity(v.String)
}
