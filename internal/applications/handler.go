package applications

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"loangate-backend/internal/risk"
	"loangate-backend/internal/shared/server/middleware"
	"loangate-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the Service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches the loan application routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/loans", h.create)
	rg.GET("/loans/:id", h.get)
	rg.PATCH("/loans/:id", h.updateStatus)
	rg.POST("/loans/:id/evaluate", h.evaluate)
}

func (h *Handler) create(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read body", nil)
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "No data provided", nil)
		return
	}
	var req createRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	app, err := h.Svc.Create(c.Request.Context(), req.input())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Set(middleware.ApplicationIDKey, app.ID)
	respond.Created(c, gin.H{
		"success":       true,
		"message":       "Loan application created successfully.",
		"applicationId": app.ID,
	})
}

func (h *Handler) get(c *gin.Context) {
	c.Set(middleware.ApplicationIDKey, c.Param("id"))
	app, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, gin.H{"success": true, "loanApplication": toApplicationResponse(app)})
}

func (h *Handler) updateStatus(c *gin.Context) {
	c.Set(middleware.ApplicationIDKey, c.Param("id"))
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Status == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Status is required", nil)
		return
	}

	tr, err := h.Svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, req.Version)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Set(middleware.StatusTransitionKey, string(tr.From)+"->"+string(tr.Application.Status))
	respond.OK(c, gin.H{
		"success":         true,
		"message":         "Loan application status updated successfully.",
		"loanApplication": toApplicationResponse(tr.Application),
	})
}

func (h *Handler) evaluate(c *gin.Context) {
	c.Set(middleware.ApplicationIDKey, c.Param("id"))
	ev, err := h.Svc.Evaluate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	tr := ev.Transition
	c.Set(middleware.StatusTransitionKey, string(tr.From)+"->"+string(tr.Application.Status))
	respond.OK(c, gin.H{
		"success":         true,
		"probability":     ev.Assessment.Probability,
		"prediction":      ev.Assessment.Prediction(),
		"loanApplication": toApplicationResponse(tr.Application),
	})
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "Loan application not found", nil)
	case errors.Is(err, ErrVersionConflict):
		respond.Error(c, http.StatusConflict, "version_conflict", "Loan application was modified concurrently", nil)
	case errors.Is(err, risk.ErrModelUnavailable):
		respond.ErrorWithCause(c, http.StatusInternalServerError, "model_unavailable", "Internal server error", nil, err)
	default:
		respond.ErrorWithCause(c, http.StatusInternalServerError, "internal_error", "Internal server error", nil, err)
	}
}
