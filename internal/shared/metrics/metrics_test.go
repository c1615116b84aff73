package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHandlerExposesRegisteredMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	RiskScoresTotal.WithLabelValues("approve").Inc()

	r := gin.New()
	r.GET("/metrics", Handler())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "risk_scores_total") {
		t.Fatalf("expected risk_scores_total in output")
	}
}

func TestTransitionCounter(t *testing.T) {
	before := testutil.ToFloat64(ApplicationTransitionsTotal.WithLabelValues("pending", "approved"))
	ApplicationTransitionsTotal.WithLabelValues("pending", "approved").Inc()
	after := testutil.ToFloat64(ApplicationTransitionsTotal.WithLabelValues("pending", "approved"))
	if after-before != 1 {
		t.Fatalf("expected counter to increase by 1, got %v", after-before)
	}
}
