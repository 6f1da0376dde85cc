// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/cors"

	"github.com/gallerist/curio/internal/adapters/repository"
	"github.com/gallerist/curio/internal/domain/dedupe"
	"github.com/gallerist/curio/internal/domain/model"
	"github.com/gallerist/curio/internal/domain/types"
	"github.com/gallerist/curio/internal/evaluate"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a submission for async processing. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, sub model.Submission) bool

	// EvaluateBatch runs the synchronous evaluate-normalize-rank pipeline.
	EvaluateBatch(ctx context.Context, persona string, images []evaluate.Image, topN int) (types.BatchResult, error)

	// Read operations expose critique history and persona configuration.
	GetCritique(ctx context.Context, id string) (repository.Record, error)
	ListCritiques(ctx context.Context, persona string, limit int) ([]repository.Record, error)
	Personas() []types.PersonaInfo
	DefaultPersona() string
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	critiquesHandler *CritiquesHandler
	batchesHandler   *BatchesHandler
	personasHandler  *PersonasHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxListLimit int) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		critiquesHandler: NewCritiquesHandler(deps, maxListLimit),
		batchesHandler:   NewBatchesHandler(deps),
		personasHandler:  NewPersonasHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/personas", MetricsMiddleware(s.personasHandler.HandleGetPersonas, "personas"))
	mux.HandleFunc("/critiques", MetricsMiddleware(s.critiquesHandler.HandleCritiques, "critiques"))
	mux.HandleFunc("/critiques/", MetricsMiddleware(s.critiquesHandler.HandleGetCritique, "critique"))
	mux.HandleFunc("/batches", MetricsMiddleware(s.batchesHandler.HandlePostBatch, "batches"))
}

// CORS returns the cross-origin middleware applied around the whole mux.
func CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
