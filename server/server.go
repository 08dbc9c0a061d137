package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cenvi-org/geodash/dashboard"
	"github.com/cenvi-org/geodash/ingest"
)

// ============================================================================
// HTTP SURFACE — Dashboard API
// ============================================================================
// Thin JSON layer over the dashboard controller. All validation lives in
// the controller; handlers only decode, call, and map errors to status
// codes. Rejected inputs never change state, so every error response
// leaves the session exactly as it was.
// ============================================================================

// Server is the HTTP server for the dashboard API.
type Server struct {
	router *chi.Mux
	dash   *dashboard.Dashboard
	logger *slog.Logger
	srv    *http.Server

	maxUploadBytes int64
}

// New creates the server bound to addr.
func New(addr string, dash *dashboard.Dashboard, maxUploadBytes int64, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:         chi.NewRouter(),
		dash:           dash,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}

	s.setupRoutes()

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/dataset", s.handleUploadDataset)
		r.Get("/dataset", s.handleGetDataset)
		r.Get("/rows/{seq}", s.handleGetRow)

		r.Put("/columns", s.handleConfirmColumns)
		r.Put("/geo/columns", s.handleSetGeoColumns)

		r.Get("/filters", s.handleGetFilters)
		r.Put("/filters", s.handleSetFilters)

		r.Get("/summary", s.handleGetSummary)
		r.Put("/summary/column", s.handleSetSummaryColumn)
		r.Get("/summary/rows", s.handleDrillDown)

		r.Get("/pivots", s.handleListPivots)
		r.Post("/pivots", s.handleAddPivot)
		r.Get("/pivots/{id}", s.handleGetPivot)
		r.Put("/pivots/{id}", s.handleUpdatePivot)
		r.Delete("/pivots/{id}", s.handleRemovePivot)
		r.Post("/pivots/{id}/sort", s.handleSortPivot)

		r.Get("/geo/points", s.handleGeoPoints)

		r.Get("/export/workbook", s.handleExportWorkbook)
		r.Get("/export/csv", s.handleExportCSV)
		r.Get("/export/html", s.handleExportHTML)

		r.Post("/reset", s.handleReset)
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("server listening", "addr", s.srv.Addr)
	err := s.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.srv.Shutdown(ctx)
}

// Handler exposes the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps controller and ingest errors to status codes:
// bad uploads are 400s, configuration rejections are 422s, and unknown
// pivot ids are 404s.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	var ie *ingest.Error
	if errors.As(err, &ie) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var ce *dashboard.ConfigError
	if errors.As(err, &ce) {
		status := http.StatusUnprocessableEntity
		if ce.Kind == dashboard.KindUnknownPivot {
			status = http.StatusNotFound
		}
		s.writeError(w, status, err.Error())
		return
	}
	s.writeError(w, http.StatusInternalServerError, err.Error())
}
