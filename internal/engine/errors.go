package engine

import (
	"errors"
	"fmt"
)

// ErrMalformedDocument is the sentinel wrapped by MalformedDocumentError.
var ErrMalformedDocument = errors.New("malformed document")

// ErrorCode categorizes engine errors.
type ErrorCode string

const (
	// ErrCodeMalformedDocument indicates a lineage record lacks a field it
	// must have at the current step.
	ErrCodeMalformedDocument ErrorCode = "MALFORMED_DOCUMENT"

	// ErrCodeCellOutOfRange indicates a cell index outside the document.
	ErrCodeCellOutOfRange ErrorCode = "CELL_OUT_OF_RANGE"
)

// DocumentRecord is the Cell value used when the error concerns the
// document-level record rather than a cell.
const DocumentRecord = -1

// MalformedDocumentError represents a contract violation found while
// processing a document. It is surfaced to the caller, never repaired.
type MalformedDocumentError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Cell is the index of the affected cell, or DocumentRecord.
	Cell int

	// Step names the operation step that found the problem.
	Step string
}

// Error implements the error interface.
func (e *MalformedDocumentError) Error() string {
	if e.Cell == DocumentRecord {
		return fmt.Sprintf("%s: %s (document, step=%s)", e.Code, e.Message, e.Step)
	}
	return fmt.Sprintf("%s: %s (cell=%d, step=%s)", e.Code, e.Message, e.Cell, e.Step)
}

// Unwrap returns ErrMalformedDocument so callers can use errors.Is.
func (e *MalformedDocumentError) Unwrap() error { return ErrMalformedDocument }

// IsMalformedDocument returns true if err is or wraps a MalformedDocumentError.
func IsMalformedDocument(err error) bool {
	var me *MalformedDocumentError
	return errors.As(err, &me)
}

func missingCurrent(step string, cell int) *MalformedDocumentError {
	return &MalformedDocumentError{
		Code:    ErrCodeMalformedDocument,
		Message: "lineage record has no current identity",
		Cell:    cell,
		Step:    step,
	}
}

func cellOutOfRange(cell, n int) *MalformedDocumentError {
	return &MalformedDocumentError{
		Code:    ErrCodeCellOutOfRange,
		Message: fmt.Sprintf("cell index out of range [0,%d)", n),
		Cell:    cell,
		Step:    "branch",
	}
}
