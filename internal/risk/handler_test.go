package risk

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newScoreRouter(t *testing.T, w Weights) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	m, err := NewModelContext(w)
	if err != nil {
		t.Fatalf("NewModelContext: %v", err)
	}
	r := gin.New()
	NewHandler(&Classifier{Model: m}).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestScoreHandler(t *testing.T) {
	tests := []struct {
		name       string
		bias       float64
		body       string
		wantStatus int
		wantPred   string
	}{
		{
			name:       "approve",
			bias:       2,
			body:       `{"home_ownership":"Own Home","loan_amount":50000,"credit_score":710,"annual_income":90000,"monthly_debt":800,"years_in_job_numeric":4}`,
			wantStatus: http.StatusOK,
			wantPred:   "Yes",
		},
		{
			name:       "reject at threshold",
			bias:       0,
			body:       `{"home_ownership":"Rent","loan_amount":0,"credit_score":0,"annual_income":0,"monthly_debt":0,"years_in_job_numeric":0}`,
			wantStatus: http.StatusOK,
			wantPred:   "No",
		},
		{
			name:       "unknown home ownership",
			body:       `{"home_ownership":"Leasehold","loan_amount":1,"credit_score":1,"annual_income":1,"monthly_debt":1,"years_in_job_numeric":1}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing field",
			body:       `{"home_ownership":"Rent","loan_amount":1}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed json",
			body:       `{`,
			wantStatus: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newScoreRouter(t, zeroWeights(tt.bias))
			req := httptest.NewRequest(http.MethodPost, "/api/v1/check-loan-eligibility", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp := httptest.NewRecorder()
			r.ServeHTTP(resp, req)

			if resp.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, resp.Code, resp.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			var body scoreResponse
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Prediction != tt.wantPred {
				t.Fatalf("expected prediction %s, got %s", tt.wantPred, body.Prediction)
			}
			if body.Probability < 0 || body.Probability > 1 {
				t.Fatalf("probability out of range: %v", body.Probability)
			}
		})
	}
}
