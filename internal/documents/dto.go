package documents

import (
	"time"

	"loangate-backend/internal/fields"
)

// RecordResponse is the outward-facing representation of a document record.
type RecordResponse struct {
	DocumentID        string        `json:"documentId"`
	LoanApplicationID string        `json:"loanApplicationId,omitempty"`
	FileName          string        `json:"fileName"`
	MimeType          string        `json:"mimeType"`
	SizeBytes         int64         `json:"sizeBytes"`
	ExtractedText     string        `json:"extractedText"`
	ProcessedData     string        `json:"processedData"`
	Fields            fields.Fields `json:"fields"`
	CreatedAt         time.Time     `json:"createdAt"`
}

func toRecordResponse(rec DocumentRecord) RecordResponse {
	return RecordResponse{
		DocumentID:        rec.ID,
		LoanApplicationID: rec.LoanApplicationID,
		FileName:          rec.FileName,
		MimeType:          rec.MimeType,
		SizeBytes:         rec.SizeBytes,
		ExtractedText:     rec.ExtractedText,
		ProcessedData:     rec.ProcessedData,
		Fields:            rec.Fields,
		CreatedAt:         rec.CreatedAt,
	}
}

// SupportingSetResponse is the outward-facing representation of a supporting document set.
type SupportingSetResponse struct {
	DocumentSetID     string                `json:"documentSetId"`
	LoanApplicationID string                `json:"loanApplicationId,omitempty"`
	Email             string                `json:"email,omitempty"`
	Files             map[string]StoredFile `json:"files"`
	CreatedAt         time.Time             `json:"createdAt"`
}

func toSupportingSetResponse(set SupportingDocumentSet) SupportingSetResponse {
	return SupportingSetResponse{
		DocumentSetID:     set.ID,
		LoanApplicationID: set.LoanApplicationID,
		Email:             set.Email,
		Files:             set.Files,
		CreatedAt:         set.CreatedAt,
	}
}
