package documents

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrMissingDocument  = errors.New("missing document")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// MissingDocumentError names the first required upload that was absent.
type MissingDocumentError struct {
	Key string
}

func (e *MissingDocumentError) Error() string {
	return "Missing " + e.Key
}

func (e *MissingDocumentError) Is(target error) bool {
	return target == ErrMissingDocument
}

// StageError reports which ingestion stage failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
