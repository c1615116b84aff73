package fields

import (
	"errors"
	"strings"
)

var (
	// ErrExtractionService indicates the extraction provider could not be reached or failed.
	ErrExtractionService = errors.New("extraction service error")

	// ErrExtractionSchema indicates the provider replied with output that does not match the field schema.
	ErrExtractionSchema = errors.New("extraction schema error")
)

// SchemaError lists the schema violations found in a provider reply.
type SchemaError struct {
	Problems []string
}

func (e *SchemaError) Error() string {
	if len(e.Problems) == 0 {
		return ErrExtractionSchema.Error()
	}
	return ErrExtractionSchema.Error() + ": " + strings.Join(e.Problems, "; ")
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrExtractionSchema
}
