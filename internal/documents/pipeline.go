package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"loangate-backend/internal/fields"
	"loangate-backend/internal/shared/metrics"
	"loangate-backend/internal/shared/storage/object"
	"loangate-backend/internal/shared/telemetry"
	"loangate-backend/internal/shared/util"
)

const unassignedNamespace = "unassigned"

// TextExtractor reads text from a document image.
type TextExtractor interface {
	ExtractText(ctx context.Context, r io.Reader) (string, error)
}

// FieldExtractor turns raw text into structured identity fields.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text string) (fields.Result, error)
}

// IngestInput is one uploaded identity document.
type IngestInput struct {
	LoanApplicationID string
	FileName          string
	Body              io.Reader
}

// Pipeline runs received -> text_extracted -> fields_extracted -> persisted.
// A record is written only after every earlier stage succeeded.
type Pipeline struct {
	Store  object.ObjectStore
	Repo   Repo
	OCR    TextExtractor
	Fields FieldExtractor
	Now    func() time.Time
}

// Ingest stores the upload, extracts text and fields, then persists a record.
// Failures after the upload was stored remove the stored object.
func (p *Pipeline) Ingest(ctx context.Context, in IngestInput) (DocumentRecord, error) {
	fileName := strings.TrimSpace(in.FileName)
	if fileName == "" || in.Body == nil {
		return DocumentRecord{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}

	namespace := strings.TrimSpace(in.LoanApplicationID)
	if namespace == "" {
		namespace = unassignedNamespace
	}

	var (
		key      string
		size     int64
		mimeType string
	)
	err := p.stage(ctx, StageReceived, func() error {
		var err error
		key, size, mimeType, err = p.Store.Save(ctx, namespace, fileName, in.Body)
		if errors.Is(err, util.ErrInvalidFileName) {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		return nil
	})
	if err != nil {
		return DocumentRecord{}, err
	}

	var text string
	err = p.stage(ctx, StageTextExtracted, func() error {
		rc, err := p.Store.Open(ctx, key)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
		defer rc.Close()
		text, err = p.OCR.ExtractText(ctx, rc)
		return err
	})
	if err != nil {
		p.discard(key)
		return DocumentRecord{}, err
	}

	var extracted fields.Result
	err = p.stage(ctx, StageFieldsExtracted, func() error {
		var err error
		extracted, err = p.Fields.ExtractFields(ctx, text)
		return err
	})
	if err != nil {
		p.discard(key)
		return DocumentRecord{}, err
	}

	rec := DocumentRecord{
		ID:                uuid.NewString(),
		LoanApplicationID: strings.TrimSpace(in.LoanApplicationID),
		FileName:          fileName,
		StorageKey:        key,
		MimeType:          mimeType,
		SizeBytes:         size,
		ExtractedText:     text,
		ProcessedData:     extracted.Raw,
		Fields:            extracted.Fields,
		CreatedAt:         p.now(),
	}
	err = p.stage(ctx, StagePersisted, func() error {
		return p.Repo.CreateRecord(ctx, rec)
	})
	if err != nil {
		p.discard(key)
		return DocumentRecord{}, err
	}

	telemetry.Info("document.ingested", map[string]any{
		"document_id":         rec.ID,
		"loan_application_id": rec.LoanApplicationID,
		"size_bytes":          rec.SizeBytes,
		"text_chars":          len(text),
	})
	return rec, nil
}

// stage times fn and wraps any failure in a StageError.
func (p *Pipeline) stage(ctx context.Context, stage Stage, fn func() error) error {
	if err := ctx.Err(); err != nil {
		metrics.IngestionFailuresTotal.WithLabelValues(string(stage)).Inc()
		return &StageError{Stage: stage, Err: err}
	}
	start := time.Now()
	err := fn()
	metrics.IngestionStageDuration.WithLabelValues(string(stage)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.IngestionFailuresTotal.WithLabelValues(string(stage)).Inc()
		return &StageError{Stage: stage, Err: err}
	}
	return nil
}

func (p *Pipeline) discard(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.Store.Delete(ctx, key); err != nil {
		telemetry.Warn("document.cleanup_failed", map[string]any{
			"storage_key": key,
			"error":       err,
		})
	}
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}
