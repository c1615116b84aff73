package risk

import "errors"

var (
	// ErrInvalidInput indicates a malformed or unknown applicant field.
	ErrInvalidInput = errors.New("invalid input")

	// ErrModelUnavailable indicates the model weights could not be loaded or are inconsistent.
	ErrModelUnavailable = errors.New("model unavailable")
)
