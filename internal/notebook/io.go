package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/roach88/nblineage/internal/lineage"
)

// Parse reads a notebook document from r.
func Parse(r io.Reader) (*Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse notebook: %w", err)
	}
	root, ok := raw.(map[string]any)
	if !ok {
		return nil, parseErr("$", "expected object, got %T", raw)
	}
	return fromTree(root)
}

// ParseBytes reads a notebook document from data.
func ParseBytes(data []byte) (*Document, error) {
	return Parse(bytes.NewReader(data))
}

// ParseFile reads the notebook at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open notebook: %w", err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func fromTree(root map[string]any) (*Document, error) {
	doc := &Document{Extra: extraKeys(root, keyMetadata, keyCells)}

	if md, ok := root[keyMetadata]; ok {
		obj, ok := md.(map[string]any)
		if !ok {
			return nil, parseErr("metadata", "expected object, got %T", md)
		}
		if v, ok := obj[lineage.NotebookKey]; ok {
			rec, err := DecodeNotebookRecord("metadata."+lineage.NotebookKey, v)
			if err != nil {
				return nil, err
			}
			doc.Metadata.Lineage = rec
		}
		doc.Metadata.Extra = extraKeys(obj, lineage.NotebookKey)
	}

	if cv, ok := root[keyCells]; ok {
		arr, ok := cv.([]any)
		if !ok {
			return nil, parseErr("cells", "expected array, got %T", cv)
		}
		doc.Cells = make(Cells, len(arr))
		for i, elem := range arr {
			cell, err := cellFromTree(fmt.Sprintf("cells[%d]", i), elem)
			if err != nil {
				return nil, err
			}
			doc.Cells[i] = cell
		}
	}
	return doc, nil
}

func cellFromTree(path string, v any) (*Cell, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, parseErr(path, "expected object, got %T", v)
	}
	cell := &Cell{Extra: extraKeys(obj, keyMetadata)}

	if md, ok := obj[keyMetadata]; ok {
		mdObj, ok := md.(map[string]any)
		if !ok {
			return nil, parseErr(path+".metadata", "expected object, got %T", md)
		}
		if rv, ok := mdObj[lineage.CellKey]; ok {
			rec, err := DecodeCellRecord(path+".metadata."+lineage.CellKey, rv)
			if err != nil {
				return nil, err
			}
			cell.Metadata.Lineage = rec
		}
		cell.Metadata.Extra = extraKeys(mdObj, lineage.CellKey)
	}
	return cell, nil
}

// Tree converts the document back into a decoded JSON tree.
// metadata and cells are always present in the result.
func (d *Document) Tree() map[string]any {
	root := lineage.CloneMap(d.Extra)
	if root == nil {
		root = make(map[string]any, 4)
	}

	md := lineage.CloneMap(d.Metadata.Extra)
	if md == nil {
		md = make(map[string]any)
	}
	if d.Metadata.Lineage != nil {
		md[lineage.NotebookKey] = EncodeNotebookRecord(d.Metadata.Lineage)
	}
	root[keyMetadata] = md

	cells := make([]any, len(d.Cells))
	for i, c := range d.Cells {
		cells[i] = c.tree()
	}
	root[keyCells] = cells
	return root
}

func (c *Cell) tree() map[string]any {
	obj := lineage.CloneMap(c.Extra)
	if obj == nil {
		obj = make(map[string]any, 2)
	}
	md := lineage.CloneMap(c.Metadata.Extra)
	if md == nil {
		md = make(map[string]any)
	}
	if c.Metadata.Lineage != nil {
		md[lineage.CellKey] = EncodeCellRecord(c.Metadata.Lineage)
	}
	obj[keyMetadata] = md
	return obj
}

// Write serialises d to w in nbformat layout.
func Write(w io.Writer, d *Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(d.Tree()); err != nil {
		return fmt.Errorf("write notebook: %w", err)
	}
	return nil
}

// Marshal returns d in nbformat layout.
func Marshal(d *Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes d to path, replacing any existing file.
func WriteFile(path string, d *Document) error {
	data, err := Marshal(d)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write notebook: %w", err)
	}
	return nil
}

// LineageTree returns only the lineage records of d: the document record
// under "notebook" and one entry per cell under "cells" (null for a cell
// without a record). Used for byte comparisons and fingerprints.
func (d *Document) LineageTree() map[string]any {
	tree := map[string]any{"notebook": nil}
	if d.Metadata.Lineage != nil {
		tree["notebook"] = EncodeNotebookRecord(d.Metadata.Lineage)
	}
	cells := make([]any, len(d.Cells))
	for i, c := range d.Cells {
		if c.Metadata.Lineage != nil {
			cells[i] = EncodeCellRecord(c.Metadata.Lineage)
		}
	}
	tree["cells"] = cells
	return tree
}
