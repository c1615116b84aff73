package documents

import "context"

// Repo defines persistence operations for document records and supporting sets.
type Repo interface {
	CreateRecord(ctx context.Context, rec DocumentRecord) error
	GetRecord(ctx context.Context, id string) (DocumentRecord, error)
	CreateSupportingSet(ctx context.Context, set SupportingDocumentSet) error
	GetSupportingSet(ctx context.Context, id string) (SupportingDocumentSet, error)
}
