package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/user/phishguard/pkg/engine"
)

func newTestServer() *Server {
	analyzer := engine.NewAnalyzer(engine.NewExtractor(nil), nil, engine.NewFusion(engine.DefaultFusionConfig()), nil, engine.AnalyzerConfig{})
	orchestrator := engine.NewOrchestrator(analyzer, engine.DefaultOrchestratorConfig())
	return NewServer(analyzer, orchestrator, nil, engine.DefaultFusionConfig(), "gemini")
}

func doRequest(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	newTestServer().Routes().ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeEndpoint(t *testing.T) {
	body := `{"raw_email": "From: a@example.com\r\nSubject: hello\r\n\r\nplain body\r\n"}`

	rec := doRequest(t, http.MethodPost, "/analyze", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var assessment engine.RiskAssessment
	if err := json.Unmarshal(rec.Body.Bytes(), &assessment); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if assessment.ID == "" || assessment.Version != engine.EngineVersion {
		t.Errorf("assessment = %+v", assessment)
	}
	if assessment.Metadata.Sender != "a@example.com" {
		t.Errorf("sender = %q", assessment.Metadata.Sender)
	}
}

func TestAnalyzeEndpointValidation(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/analyze", `{"raw_email": ""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}

	var errResp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Error != "ValidationError" || errResp.Details["field"] != "raw_email" {
		t.Errorf("error response = %+v", errResp)
	}
	if errResp.Timestamp.IsZero() {
		t.Errorf("error timestamp missing")
	}
}

func TestAnalyzeEndpointBadJSON(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/analyze", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestBulkEndpoint(t *testing.T) {
	body := `{"emails": [
		{"raw_email": "From: a@example.com\r\n\r\nfirst\r\n"},
		{"raw_email": "From: b@example.com\r\n\r\nsecond\r\n"}
	]}`

	rec := doRequest(t, http.MethodPost, "/analyze/bulk", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp bulkResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Errorf("results = %d, want 2", len(resp.Results))
	}
	if resp.Summary.TotalEmails != 2 {
		t.Errorf("summary total = %d, want 2", resp.Summary.TotalEmails)
	}
	if resp.Results[0].Metadata.Sender != "a@example.com" || resp.Results[1].Metadata.Sender != "b@example.com" {
		t.Errorf("result order not preserved")
	}
}

func TestBulkEndpointEmptyBatch(t *testing.T) {
	rec := doRequest(t, http.MethodPost, "/analyze/bulk", `{"emails": []}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "healthy" {
		t.Errorf("status = %v", resp["status"])
	}
	if resp["provider_status"] != "not configured" {
		t.Errorf("provider_status = %v", resp["provider_status"])
	}
}

func TestHealthEndpointDegradedProvider(t *testing.T) {
	analyzer := engine.NewAnalyzer(engine.NewExtractor(nil), nil, engine.NewFusion(engine.DefaultFusionConfig()), nil, engine.AnalyzerConfig{})
	orchestrator := engine.NewOrchestrator(analyzer, engine.DefaultOrchestratorConfig())
	server := NewServer(analyzer, orchestrator, failingTester{}, engine.DefaultFusionConfig(), "gemini")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	server.Routes().ServeHTTP(rec, req)

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["status"] != "degraded" {
		t.Errorf("status = %v, want degraded", resp["status"])
	}
}

type failingTester struct{}

func (failingTester) TestConnection(ctx context.Context) (bool, string) {
	return false, "backend unreachable"
}

func TestStatusEndpoint(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		ServiceStatus string            `json:"service_status"`
		Components    map[string]string `json:"components"`
		Configuration map[string]any    `json:"configuration"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ServiceStatus != "operational" {
		t.Errorf("service_status = %q", resp.ServiceStatus)
	}
	if resp.Components["deterministic_checker"] != "operational" {
		t.Errorf("components = %v", resp.Components)
	}
	if resp.Configuration["high_risk_threshold"] != 70.0 {
		t.Errorf("configuration = %v", resp.Configuration)
	}
}

func TestRootEndpoint(t *testing.T) {
	rec := doRequest(t, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "/analyze/bulk") {
		t.Errorf("endpoint listing missing: %s", rec.Body.String())
	}
}
