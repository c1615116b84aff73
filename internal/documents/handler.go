package documents

import (
	"errors"
	"mime/multipart"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"loangate-backend/internal/shared/server/middleware"
	"loangate-backend/internal/shared/server/respond"
)

const maxUploadSize = 10 << 20 // 10MB

// Handler wires HTTP handlers to the pipeline and service.
type Handler struct {
	Pipeline *Pipeline
	Svc      *Service
}

// NewHandler constructs a Handler.
func NewHandler(pipeline *Pipeline, svc *Service) *Handler {
	return &Handler{Pipeline: pipeline, Svc: svc}
}

// RegisterRoutes attaches the read-only document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/document-records/:id", h.getRecord)
	rg.GET("/supporting-documents/:id", h.getSupportingSet)
}

// RegisterUploadRoutes attaches the upload routes. They are registered
// separately so the router can rate limit them.
func (h *Handler) RegisterUploadRoutes(rg *gin.RouterGroup) {
	rg.POST("/process-aadhar", h.processAadhaar)
	rg.POST("/submit-remaining-documents", h.submitRemaining)
}

func (h *Handler) processAadhaar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "No file uploaded", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	appID := c.PostForm("loan_application_id")
	if appID != "" {
		c.Set(middleware.ApplicationIDKey, appID)
	}

	rec, err := h.Pipeline.Ingest(c.Request.Context(), IngestInput{
		LoanApplicationID: appID,
		FileName:          fileHeader.Filename,
		Body:              file,
	})
	if err != nil {
		var stageErr *StageError
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.As(err, &stageErr):
			respond.ErrorWithCause(c, http.StatusInternalServerError, "processing_failed", "Failed to process document", gin.H{"stage": stageErr.Stage}, err)
		default:
			respond.ErrorWithCause(c, http.StatusInternalServerError, "internal_error", "Internal server error", nil, err)
		}
		return
	}

	c.Set(middleware.DocumentIDKey, rec.ID)
	respond.OK(c, gin.H{
		"success":        true,
		"message":        "Aadhaar processed and saved successfully.",
		"documentId":     rec.ID,
		"extracted_data": rec.ProcessedData,
		"fields":         rec.Fields,
	})
}

func (h *Handler) submitRemaining(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 5*maxUploadSize)

	form, err := c.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid multipart form", nil)
		return
	}

	in := SubmitInput{}
	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()
	if form != nil {
		in.LoanApplicationID = firstValue(form.Value, "loan_application_id")
		in.Email = firstValue(form.Value, "email")
		for _, key := range orderedFileKeys(form.File) {
			headers := form.File[key]
			if len(headers) == 0 {
				continue
			}
			f, err := headers[0].Open()
			if err != nil {
				respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read "+key, nil)
				return
			}
			opened = append(opened, f)
			in.Files = append(in.Files, SupportingFile{Key: key, FileName: headers[0].Filename, Body: f})
		}
	}
	if in.LoanApplicationID != "" {
		c.Set(middleware.ApplicationIDKey, in.LoanApplicationID)
	}

	set, err := h.Svc.SubmitSupportingDocuments(c.Request.Context(), in)
	if err != nil {
		var missing *MissingDocumentError
		switch {
		case errors.As(err, &missing):
			respond.Error(c, http.StatusBadRequest, "missing_document", missing.Error(), gin.H{"key": missing.Key})
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.ErrorWithCause(c, http.StatusInternalServerError, "internal_error", "Internal server error", nil, err)
		}
		return
	}

	respond.OK(c, gin.H{
		"success":       true,
		"message":       "Documents submitted successfully.",
		"documentSetId": set.ID,
	})
}

func (h *Handler) getRecord(c *gin.Context) {
	rec, err := h.Svc.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document record not found", nil)
		default:
			respond.ErrorWithCause(c, http.StatusInternalServerError, "internal_error", "Internal server error", nil, err)
		}
		return
	}
	c.Set(middleware.DocumentIDKey, rec.ID)
	respond.OK(c, gin.H{"success": true, "documentRecord": toRecordResponse(rec)})
}

func (h *Handler) getSupportingSet(c *gin.Context) {
	set, err := h.Svc.GetSupportingSet(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "document set not found", nil)
		default:
			respond.ErrorWithCause(c, http.StatusInternalServerError, "internal_error", "Internal server error", nil, err)
		}
		return
	}
	respond.OK(c, gin.H{"success": true, "documentSet": toSupportingSetResponse(set)})
}

// orderedFileKeys returns the required keys first, then any extras sorted by name.
func orderedFileKeys(files map[string][]*multipart.FileHeader) []string {
	keys := make([]string, 0, len(files))
	for _, key := range RequiredSupportingDocuments {
		if _, ok := files[key]; ok {
			keys = append(keys, key)
		}
	}
	var extras []string
	for key := range files {
		if !slices.Contains(RequiredSupportingDocuments, key) {
			extras = append(extras, key)
		}
	}
	slices.Sort(extras)
	return append(keys, extras...)
}

func firstValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}
