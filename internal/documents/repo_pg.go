package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// CreateRecord inserts a document record.
func (r *PGRepo) CreateRecord(ctx context.Context, rec DocumentRecord) error {
	const query = `
INSERT INTO document_records (
    id,
    loan_application_id,
    file_name,
    storage_key,
    mime_type,
    size_bytes,
    extracted_text,
    processed_data,
    aadhaar_number,
    holder_name,
    holder_age,
    holder_gender,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		rec.ID,
		nullString(rec.LoanApplicationID),
		pgText(rec.FileName),
		rec.StorageKey,
		nullString(rec.MimeType),
		rec.SizeBytes,
		pgText(rec.ExtractedText),
		pgText(rec.ProcessedData),
		nullString(rec.Fields.AadhaarNumber),
		nullString(pgText(rec.Fields.Name)),
		rec.Fields.Age,
		nullString(rec.Fields.Gender),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// GetRecord returns a document record by id.
func (r *PGRepo) GetRecord(ctx context.Context, id string) (DocumentRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return DocumentRecord{}, ErrNotFound
	}
	const query = `
SELECT id, loan_application_id, file_name, storage_key, mime_type, size_bytes, extracted_text, processed_data,
       aadhaar_number, holder_name, holder_age, holder_gender, created_at
FROM document_records
WHERE id = $1`

	var (
		rec      DocumentRecord
		appID    sql.NullString
		mimeType sql.NullString
		aadhaar  sql.NullString
		name     sql.NullString
		age      sql.NullInt64
		gender   sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&appID,
		&rec.FileName,
		&rec.StorageKey,
		&mimeType,
		&rec.SizeBytes,
		&rec.ExtractedText,
		&rec.ProcessedData,
		&aadhaar,
		&name,
		&age,
		&gender,
		&rec.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return DocumentRecord{}, ErrNotFound
	}
	if err != nil {
		return DocumentRecord{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	rec.LoanApplicationID = appID.String
	rec.MimeType = mimeType.String
	rec.Fields.AadhaarNumber = aadhaar.String
	rec.Fields.Name = name.String
	rec.Fields.Age = int(age.Int64)
	rec.Fields.Gender = gender.String
	return rec, nil
}

// CreateSupportingSet inserts a supporting document set with its files as JSONB.
func (r *PGRepo) CreateSupportingSet(ctx context.Context, set SupportingDocumentSet) error {
	const query = `
INSERT INTO supporting_document_sets (id, loan_application_id, email, files, created_at)
VALUES ($1, $2, $3, $4::jsonb, $5)`

	files, err := json.Marshal(set.Files)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query,
		set.ID,
		nullString(set.LoanApplicationID),
		nullString(set.Email),
		string(files),
		set.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

// GetSupportingSet returns a supporting document set by id.
func (r *PGRepo) GetSupportingSet(ctx context.Context, id string) (SupportingDocumentSet, error) {
	if _, err := uuid.Parse(id); err != nil {
		return SupportingDocumentSet{}, ErrNotFound
	}
	const query = `
SELECT id, loan_application_id, email, files, created_at
FROM supporting_document_sets
WHERE id = $1`

	var (
		set   SupportingDocumentSet
		appID sql.NullString
		email sql.NullString
		files []byte
	)
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&set.ID, &appID, &email, &files, &set.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SupportingDocumentSet{}, ErrNotFound
	}
	if err != nil {
		return SupportingDocumentSet{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if err := json.Unmarshal(files, &set.Files); err != nil {
		return SupportingDocumentSet{}, fmt.Errorf("decode files: %w", err)
	}
	set.LoanApplicationID = appID.String
	set.Email = email.String
	return set, nil
}

// pgText drops NUL bytes and replaces invalid UTF-8, neither of which a
// Postgres TEXT column accepts. PDF text layers and OCR output carry both.
func pgText(s string) string {
	return strings.ToValidUTF8(strings.ReplaceAll(s, "\x00", ""), "\uFFFD")
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Repo = (*PGRepo)(nil)
