package documents

import (
	"time"

	"loangate-backend/internal/fields"
)

// Stage is a step of the ingestion pipeline. A StageError carries the stage
// that was being entered when the failure happened.
type Stage string

const (
	StageReceived        Stage = "received"
	StageTextExtracted   Stage = "text_extracted"
	StageFieldsExtracted Stage = "fields_extracted"
	StagePersisted       Stage = "persisted"
)

// RequiredSupportingDocuments lists the upload keys every submission must carry, in check order.
var RequiredSupportingDocuments = []string{"idCard", "addressProof", "bankStatements"}

// DocumentRecord is the append-only result of ingesting one identity document.
type DocumentRecord struct {
	ID                string
	LoanApplicationID string
	FileName          string
	StorageKey        string
	MimeType          string
	SizeBytes         int64
	ExtractedText     string
	ProcessedData     string
	Fields            fields.Fields
	CreatedAt         time.Time
}

// StoredFile references one uploaded supporting document.
type StoredFile struct {
	FileName   string `json:"fileName"`
	StorageKey string `json:"storageKey"`
	MimeType   string `json:"mimeType"`
	SizeBytes  int64  `json:"sizeBytes"`
}

// SupportingDocumentSet is created once per submission. Repeat submissions
// create new sets.
type SupportingDocumentSet struct {
	ID                string
	LoanApplicationID string
	Email             string
	Files             map[string]StoredFile
	CreatedAt         time.Time
}
