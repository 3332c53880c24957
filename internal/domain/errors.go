package domain

import (
	"errors"
	"fmt"
)

var (
	ErrDocumentUnreadable = errors.New("document could not be read")
	ErrMissingDocument    = errors.New("document file is required")
	ErrInvalidRules       = errors.New("rules must be a JSON array of strings")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrStorageDisabled    = errors.New("object storage is not configured")
	ErrObjectNotFound     = errors.New("object not found")
)

// ExtractionError reports that text could not be extracted from a document.
// It is fatal to the whole evaluation request.
type ExtractionError struct {
	Engine string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: %s extraction: %v", ErrDocumentUnreadable, e.Engine, e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	return []error{ErrDocumentUnreadable, e.Err}
}

// NewExtractionError wraps err as an ExtractionError for the given engine.
func NewExtractionError(engine string, err error) *ExtractionError {
	return &ExtractionError{Engine: engine, Err: err}
}
