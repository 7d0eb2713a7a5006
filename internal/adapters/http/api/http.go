// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/croply-ai/croply/internal/inference"
	"github.com/croply-ai/croply/pkg/logger"
)

// Analyzer runs an uploaded image through the hosted workflow.
type Analyzer interface {
	Analyze(ctx context.Context, img inference.Image) (inference.Diagnosis, error)
}

// Server wires HTTP routes for the analysis API.
type Server struct {
	healthHandler  *HealthHandler
	analyzeHandler *AnalyzeHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(analyzer Analyzer, log logger.Logger) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		analyzeHandler: NewAnalyzeHandler(analyzer, log),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/analyze", MetricsMiddleware(s.analyzeHandler.HandleAnalyze, "analyze"))
}

// Handler wraps next with the middleware every route shares.
func Handler(next http.Handler) http.Handler {
	return CORSMiddleware(RequestIDMiddleware(next))
}

type analyzeResponse struct {
	Success bool                 `json:"success"`
	Result  *inference.Diagnosis `json:"result,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Success: false, Message: message, Error: msg})
}
