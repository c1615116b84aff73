package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"loangate-backend/internal/shared/storage/object"
	"loangate-backend/internal/shared/telemetry"
	"loangate-backend/internal/shared/util"
)

// SupportingFile is one uploaded file under a document category key.
type SupportingFile struct {
	Key      string
	FileName string
	Body     io.Reader
}

// SubmitInput is one supporting-documents submission.
type SubmitInput struct {
	LoanApplicationID string `validate:"max=128"`
	Email             string `validate:"omitempty,email"`
	Files             []SupportingFile
}

// Service contains business logic for stored documents.
type Service struct {
	Store    object.ObjectStore
	Repo     Repo
	Validate *validator.Validate
	Now      func() time.Time
}

// NewService constructs a Service.
func NewService(store object.ObjectStore, repo Repo) *Service {
	return &Service{Store: store, Repo: repo, Validate: validator.New()}
}

// SubmitSupportingDocuments checks the required keys in order, saves every
// file and records one SupportingDocumentSet. If any save fails, files saved
// by this call are removed and nothing is recorded.
func (s *Service) SubmitSupportingDocuments(ctx context.Context, in SubmitInput) (SupportingDocumentSet, error) {
	in.LoanApplicationID = strings.TrimSpace(in.LoanApplicationID)
	in.Email = strings.TrimSpace(in.Email)
	if s.Validate != nil {
		if err := s.Validate.Struct(in); err != nil {
			return SupportingDocumentSet{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
	}

	present := make(map[string]bool, len(in.Files))
	for _, f := range in.Files {
		present[f.Key] = true
	}
	for _, key := range RequiredSupportingDocuments {
		if !present[key] {
			return SupportingDocumentSet{}, &MissingDocumentError{Key: key}
		}
	}

	namespace := in.LoanApplicationID
	if namespace == "" {
		namespace = unassignedNamespace
	}

	stored := make(map[string]StoredFile, len(in.Files))
	var saved []string
	for _, f := range in.Files {
		if _, dup := stored[f.Key]; dup {
			continue
		}
		key, size, mimeType, err := s.Store.Save(ctx, namespace, f.FileName, f.Body)
		if err != nil {
			s.discard(saved)
			if errors.Is(err, util.ErrInvalidFileName) {
				return SupportingDocumentSet{}, fmt.Errorf("%w: %s: %w", ErrInvalidInput, f.Key, err)
			}
			return SupportingDocumentSet{}, fmt.Errorf("%w: save %s: %w", ErrStoreUnavailable, f.Key, err)
		}
		saved = append(saved, key)
		stored[f.Key] = StoredFile{
			FileName:   f.FileName,
			StorageKey: key,
			MimeType:   mimeType,
			SizeBytes:  size,
		}
	}

	set := SupportingDocumentSet{
		ID:                uuid.NewString(),
		LoanApplicationID: in.LoanApplicationID,
		Email:             in.Email,
		Files:             stored,
		CreatedAt:         s.now(),
	}
	if err := s.Repo.CreateSupportingSet(ctx, set); err != nil {
		s.discard(saved)
		if errors.Is(err, ErrStoreUnavailable) {
			return SupportingDocumentSet{}, err
		}
		return SupportingDocumentSet{}, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return set, nil
}

// GetRecord returns a document record by id.
func (s *Service) GetRecord(ctx context.Context, id string) (DocumentRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return DocumentRecord{}, ErrNotFound
	}
	return s.Repo.GetRecord(ctx, id)
}

// GetSupportingSet returns a supporting document set by id.
func (s *Service) GetSupportingSet(ctx context.Context, id string) (SupportingDocumentSet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return SupportingDocumentSet{}, ErrNotFound
	}
	return s.Repo.GetSupportingSet(ctx, id)
}

func (s *Service) discard(keys []string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, key := range keys {
		if err := s.Store.Delete(ctx, key); err != nil {
			telemetry.Warn("document.cleanup_failed", map[string]any{
				"storage_key": key,
				"error":       err,
			})
		}
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
