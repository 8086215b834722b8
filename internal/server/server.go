package server

import (
	"log/slog"
	"net/http"

	"esales-dashboard/internal/handlers"
	"esales-dashboard/internal/observability"
	"esales-dashboard/internal/services"
)

type Server struct {
	store       *services.Store
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

// NewServer wires every route. metrics may be nil, in which case
// /metrics is not served.
func NewServer(store *services.Store, logger *slog.Logger, metrics *observability.Metrics) *Server {
	s := &Server{
		store:       store,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(store, logger),
		sseHandlers: handlers.NewSSEHandlers(store, logger),
	}
	s.setupRoutes(metrics)
	return s
}

func (s *Server) setupRoutes(metrics *observability.Metrics) {
	// Dashboard and operations
	s.mux.HandleFunc("GET /{$}", s.sseHandlers.HandleDashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)
	s.mux.HandleFunc("POST /admin/reload", s.apiHandlers.HandleReload)
	if metrics != nil {
		s.mux.Handle("GET /metrics", metrics.Handler())
	}

	// REST API endpoints
	s.mux.HandleFunc("GET /api/filters", s.apiHandlers.HandleFilters)
	s.mux.HandleFunc("GET /api/kpis", s.apiHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /api/summary/{view}", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/distribution/{dimension}", s.apiHandlers.HandleDistribution)
	s.mux.HandleFunc("GET /api/timeseries/{granularity}", s.apiHandlers.HandleTimeSeries)
	s.mux.HandleFunc("GET /api/heatmap", s.apiHandlers.HandleHeatmap)
	s.mux.HandleFunc("GET /api/calculators/{kind}", s.apiHandlers.HandleCalculator)
	s.mux.HandleFunc("GET /api/export", s.apiHandlers.HandleExport)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/kpis", s.sseHandlers.HandleKPIs)
	s.mux.HandleFunc("GET /sse/summary/{view}", s.sseHandlers.HandleSummary)
	s.mux.HandleFunc("GET /sse/calculators/{kind}", s.sseHandlers.HandleCalculator)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
