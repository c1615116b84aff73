package applications

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"loangate-backend/internal/risk"
)

func newTestRouter(t *testing.T, scorer Scorer) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := NewHandler(NewService(NewMemoryRepo(), scorer))
	r := gin.New()
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return w, out
}

const createBody = `{"loan_application_id":"LA-1","email":"a@example.com","loanAmount":10000,"creditScore":720,` +
	`"annualIncome":60000,"monthlyDebts":500,"houseStatus":"Rent","yearsInJob":3}`

func TestCreateAndGetApplication(t *testing.T) {
	r := newTestRouter(t, nil)

	w, out := doJSON(t, r, http.MethodPost, "/api/v1/loans", createBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	id, _ := out["applicationId"].(string)
	if id == "" || out["success"] != true {
		t.Fatalf("unexpected create response %v", out)
	}

	w, out = doJSON(t, r, http.MethodGet, "/api/v1/loans/"+id, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	app, _ := out["loanApplication"].(map[string]any)
	if app["status"] != "pending" || app["loan_application_id"] != "LA-1" || app["createdAt"] != app["updatedAt"] {
		t.Fatalf("unexpected application %v", app)
	}
}

func TestCreateApplicationEmptyBody(t *testing.T) {
	r := newTestRouter(t, nil)
	for _, body := range []string{"", "{}"} {
		w, out := doJSON(t, r, http.MethodPost, "/api/v1/loans", body)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, w.Code)
		}
		if out["message"] != "No data provided" || out["success"] != false {
			t.Fatalf("body %q: unexpected response %v", body, out)
		}
	}
}

func TestGetApplicationNotFound(t *testing.T) {
	r := newTestRouter(t, nil)
	w, out := doJSON(t, r, http.MethodGet, "/api/v1/loans/does-not-exist", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if out["code"] != "not_found" || out["message"] != "Loan application not found" {
		t.Fatalf("unexpected response %v", out)
	}
}

func TestUpdateApplicationStatus(t *testing.T) {
	r := newTestRouter(t, nil)
	_, out := doJSON(t, r, http.MethodPost, "/api/v1/loans", createBody)
	id := out["applicationId"].(string)

	w, _ := doJSON(t, r, http.MethodPatch, "/api/v1/loans/"+id, `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing status: expected 400, got %d", w.Code)
	}

	w, out = doJSON(t, r, http.MethodPatch, "/api/v1/loans/"+id, `{"status":"approved","version":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	app := out["loanApplication"].(map[string]any)
	if app["status"] != "approved" || app["version"] != float64(2) {
		t.Fatalf("unexpected application %v", app)
	}

	w, out = doJSON(t, r, http.MethodPatch, "/api/v1/loans/"+id, `{"status":"closed","version":1}`)
	if w.Code != http.StatusConflict || out["code"] != "version_conflict" {
		t.Fatalf("expected 409 version_conflict, got %d %v", w.Code, out)
	}

	w, _ = doJSON(t, r, http.MethodPatch, "/api/v1/loans/"+id, `{"status":"unknown"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: expected 400, got %d", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodPatch, "/api/v1/loans/missing", `{"status":"closed"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown id: expected 404, got %d", w.Code)
	}
}

func TestEvaluateApplication(t *testing.T) {
	scorer := &fakeScorer{assessment: risk.Assessment{Probability: 0.91, Decision: risk.DecisionApprove}}
	r := newTestRouter(t, scorer)
	_, out := doJSON(t, r, http.MethodPost, "/api/v1/loans", createBody)
	id := out["applicationId"].(string)

	w, out := doJSON(t, r, http.MethodPost, "/api/v1/loans/"+id+"/evaluate", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if out["prediction"] != "Yes" || out["probability"] != 0.91 {
		t.Fatalf("unexpected response %v", out)
	}
	app := out["loanApplication"].(map[string]any)
	if app["status"] != "approved" || app["riskProbability"] != 0.91 {
		t.Fatalf("unexpected application %v", app)
	}
}

func TestEvaluateApplicationModelUnavailable(t *testing.T) {
	r := newTestRouter(t, &fakeScorer{err: risk.ErrModelUnavailable})
	_, out := doJSON(t, r, http.MethodPost, "/api/v1/loans", createBody)
	id := out["applicationId"].(string)

	w, out := doJSON(t, r, http.MethodPost, "/api/v1/loans/"+id+"/evaluate", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if out["message"] != "Internal server error" {
		t.Fatalf("unexpected response %v", out)
	}
}
