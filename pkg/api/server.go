package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/user/phishguard/pkg/engine"
	"github.com/user/phishguard/pkg/logging"
	"github.com/user/phishguard/pkg/semantic"
)

const serviceName = "PhishGuard Email Analysis API"

// Server exposes the analysis pipeline over HTTP.
type Server struct {
	analyzer     *engine.Analyzer
	orchestrator *engine.Orchestrator
	tester       semantic.ConnectionTester
	scoring      engine.FusionConfig
	providerName string
}

func NewServer(analyzer *engine.Analyzer, orchestrator *engine.Orchestrator, tester semantic.ConnectionTester, scoring engine.FusionConfig, providerName string) *Server {
	return &Server{
		analyzer:     analyzer,
		orchestrator: orchestrator,
		tester:       tester,
		scoring:      scoring,
		providerName: providerName,
	}
}

// Routes builds the router. All responses are JSON.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Post("/analyze", s.handleAnalyze)
	r.Post("/analyze/bulk", s.handleBulkAnalyze)
	return r
}

type errorResponse struct {
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warnf("response encode failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, errorResponse{
		Error:     kind,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
}

// writeAnalysisError maps pipeline errors onto HTTP statuses. Validation
// problems are the caller's fault; everything else is ours.
func writeAnalysisError(w http.ResponseWriter, err error) {
	var verr *engine.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:     "ValidationError",
			Message:   verr.Message,
			Details:   map[string]string{"field": verr.Field},
			Timestamp: time.Now().UTC(),
		})
		return
	}
	writeError(w, http.StatusInternalServerError, "InternalServerError", "Analysis failed: "+err.Error())
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     serviceName,
		"version":     engine.EngineVersion,
		"description": "Hybrid deterministic and semantic phishing risk analysis for email",
		"endpoints": map[string]string{
			"analyze":      "/analyze",
			"bulk_analyze": "/analyze/bulk",
			"health":       "/health",
			"status":       "/status",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	providerStatus := "not configured"
	healthy := true
	if s.tester != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		ok, msg := s.tester.TestConnection(ctx)
		providerStatus = msg
		healthy = ok
	}

	status := http.StatusOK
	state := "healthy"
	if !healthy {
		// The deterministic path still works, so the service degrades
		// rather than going down.
		state = "degraded"
	}
	writeJSON(w, status, map[string]any{
		"status":          state,
		"version":         engine.EngineVersion,
		"provider_status": providerStatus,
		"timestamp":       time.Now().UTC(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	providerState := "not configured"
	if s.tester != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()
		if ok, _ := s.tester.TestConnection(ctx); ok {
			providerState = "operational"
		} else {
			providerState = "degraded"
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service_status": "operational",
		"components": map[string]string{
			"email_parser":          "operational",
			"deterministic_checker": "operational",
			"semantic_analyzer":     providerState,
			"risk_scorer":           "operational",
		},
		"configuration": map[string]any{
			"provider":              s.providerName,
			"deterministic_weight":  s.scoring.DeterministicWeight,
			"semantic_weight":       s.scoring.SemanticWeight,
			"high_risk_threshold":   s.scoring.HighThreshold,
			"medium_risk_threshold": s.scoring.MediumThreshold,
		},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var input engine.EmailInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid request body: "+err.Error())
		return
	}

	assessment, err := s.analyzer.Analyze(r.Context(), input)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

type bulkRequest struct {
	Emails []engine.EmailInput `json:"emails"`
}

type bulkResponse struct {
	Results               []engine.RiskAssessment `json:"results"`
	Summary               engine.BatchSummary     `json:"summary"`
	TotalProcessingTimeMS float64                 `json:"total_processing_time_ms"`
}

func (s *Server) handleBulkAnalyze(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "ValidationError", "invalid request body: "+err.Error())
		return
	}

	start := time.Now()
	results, summary, err := s.orchestrator.RunBatch(r.Context(), req.Emails)
	if err != nil {
		writeAnalysisError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, bulkResponse{
		Results:               results,
		Summary:               summary,
		TotalProcessingTimeMS: float64(time.Since(start).Microseconds()) / 1000.0,
	})
}
