package risk

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"loangate-backend/internal/shared/server/respond"
)

// Handler exposes the classifier over HTTP.
type Handler struct {
	Classifier *Classifier
}

// NewHandler constructs a Handler.
func NewHandler(classifier *Classifier) *Handler {
	return &Handler{Classifier: classifier}
}

// RegisterRoutes attaches scoring routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/check-loan-eligibility", h.score)
}

func (h *Handler) score(c *gin.Context) {
	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	profile, err := req.toProfile()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	assessment, err := h.Classifier.Score(c.Request.Context(), profile)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.ErrorWithCause(c, http.StatusInternalServerError, "internal_error", "failed to score application", nil, err)
		}
		return
	}

	respond.OK(c, scoreResponse{
		Probability: assessment.Probability,
		Prediction:  assessment.Prediction(),
	})
}
