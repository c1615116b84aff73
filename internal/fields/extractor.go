package fields

import (
	"context"
	"errors"
	"fmt"

	"loangate-backend/internal/llm"
)

// Fields are the identity fields read from an Aadhaar card.
type Fields struct {
	AadhaarNumber string `json:"aadhaar_number"`
	Name          string `json:"name"`
	Age           int    `json:"age"`
	Gender        string `json:"gender"`
}

// Result pairs the validated fields with the provider's raw reply.
type Result struct {
	Fields Fields
	Raw    string
}

// Extractor turns OCR text into structured fields through an LLM provider.
type Extractor struct {
	LLM llm.Completer
}

// NewExtractor constructs an Extractor.
func NewExtractor(completer llm.Completer) *Extractor {
	return &Extractor{LLM: completer}
}

// ExtractFields sends one prompt and validates the reply. Provider failures
// are wrapped in ErrExtractionService and are not retried. On a schema
// failure the raw reply is still returned in Result.Raw.
func (e *Extractor) ExtractFields(ctx context.Context, text string) (Result, error) {
	if e == nil || e.LLM == nil {
		return Result{}, fmt.Errorf("%w: %w", ErrExtractionService, llm.ErrNotConfigured)
	}
	raw, err := e.LLM.Complete(ctx, BuildPrompt(text))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrExtractionService, err)
	}
	res := Result{Raw: raw}

	f, err := parseFields(llm.StripCodeFence(raw))
	if err != nil {
		var schemaErr *SchemaError
		if errors.As(err, &schemaErr) {
			return res, err
		}
		return res, fmt.Errorf("%w: %w", ErrExtractionSchema, err)
	}
	res.Fields = f
	return res, nil
}
