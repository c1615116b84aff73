// Package uploads hands out presigned S3 URLs so large supporting documents
// can be uploaded directly to the bucket.
package uploads

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"loangate-backend/internal/shared/server/middleware"
	"loangate-backend/internal/shared/server/respond"
	"loangate-backend/internal/shared/telemetry"
	"loangate-backend/internal/shared/util"
)

const (
	maxUploadBytes   = 25 << 20
	presignExpires   = 15 * time.Minute
	defaultRegion    = "us-east-1"
	supportingPrefix = "supporting"
	unassigned       = "unassigned"
)

var allowedContentTypes = map[string]struct{}{
	"application/pdf": {},
	"image/png":       {},
	"image/jpeg":      {},
}

// Handler issues presigned PUT URLs under a bucket prefix.
type Handler struct {
	presign *s3.PresignClient
	bucket  string
	prefix  string
}

// NewHandler loads AWS config for region and builds a presigning Handler.
func NewHandler(ctx context.Context, region, bucket, prefix string) (*Handler, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("uploads: s3 bucket is required")
	}
	if strings.TrimSpace(region) == "" {
		region = defaultRegion
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return NewHandlerWithClient(s3.NewPresignClient(s3.NewFromConfig(cfg)), bucket, prefix), nil
}

// NewHandlerWithClient builds a Handler around an existing presign client.
func NewHandlerWithClient(presign *s3.PresignClient, bucket, prefix string) *Handler {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	return &Handler{presign: presign, bucket: bucket, prefix: prefix}
}

type presignRequest struct {
	LoanApplicationID string `json:"loan_application_id"`
	DocumentKey       string `json:"documentKey"`
	FileName          string `json:"fileName"`
	ContentType       string `json:"contentType"`
	SizeBytes         int64  `json:"sizeBytes"`
}

type presignResponse struct {
	UploadURL        string `json:"uploadUrl"`
	StorageKey       string `json:"storageKey"`
	ExpiresInSeconds int64  `json:"expiresInSeconds"`
}

// RegisterRoutes attaches the presign route to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/supporting-documents/presign", h.presignUpload)
}

func (h *Handler) presignUpload(c *gin.Context) {
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	req.FileName = strings.TrimSpace(req.FileName)
	req.ContentType = strings.TrimSpace(req.ContentType)
	req.DocumentKey = strings.TrimSpace(req.DocumentKey)
	appID := strings.TrimSpace(req.LoanApplicationID)

	if req.FileName == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "fileName is required", nil)
		return
	}
	if req.DocumentKey == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "documentKey is required", nil)
		return
	}
	if _, ok := allowedContentTypes[req.ContentType]; !ok {
		respond.Error(c, http.StatusBadRequest, "validation_error", "contentType is not allowed", nil)
		return
	}
	if req.SizeBytes <= 0 || req.SizeBytes > maxUploadBytes {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sizeBytes exceeds limit", nil)
		return
	}

	sanitized, err := util.SanitizeFileName(req.FileName)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid fileName", nil)
		return
	}
	docKey, err := util.SanitizeFileName(req.DocumentKey)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid documentKey", nil)
		return
	}

	namespace := unassigned
	if appID != "" {
		c.Set(middleware.ApplicationIDKey, appID)
		if namespace, err = util.SanitizeFileName(appID); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid loan_application_id", nil)
			return
		}
	}

	key := path.Join(h.prefix, supportingPrefix, namespace, docKey, uuid.NewString()+"-"+sanitized)
	out, err := h.presign.PresignPutObject(c.Request.Context(), presignInput(h.bucket, key), func(opts *s3.PresignOptions) {
		opts.Expires = presignExpires
	})
	if err != nil {
		telemetry.Error("uploads.presign.failed", map[string]any{
			"error":        err.Error(),
			"bucket":       h.bucket,
			"key":          key,
			"content_type": req.ContentType,
			"size_bytes":   req.SizeBytes,
			"request_id":   middleware.RequestIDFromContext(c),
		})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to generate upload url", nil)
		return
	}

	respond.OK(c, gin.H{
		"success": true,
		"upload": presignResponse{
			UploadURL:        out.URL,
			StorageKey:       key,
			ExpiresInSeconds: int64(presignExpires.Seconds()),
		},
	})
}

func presignInput(bucket, key string) *s3.PutObjectInput {
	return &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}
}
