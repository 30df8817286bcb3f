// Package api provides the HTTP shell around the conversation driver and
// the lifecycle engine. Inbound events arrive already shaped (the messaging
// transport itself is out of scope); the read endpoints are plain
// projections for operators and integrations.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qamqor-studio/qamqor/internal/app/dialog"
	"github.com/qamqor-studio/qamqor/internal/app/lifecycle"
	"github.com/qamqor-studio/qamqor/internal/domain"
)

// Server is the Qamqor HTTP API server.
type Server struct {
	driver         *dialog.Driver
	engine         *lifecycle.Service
	metricsEnabled bool
}

// NewServer creates a new API server.
func NewServer(driver *dialog.Driver, engine *lifecycle.Service) *Server {
	return &Server{driver: driver, engine: engine}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted. The timeout
// middleware bounds every event's lifetime; engine calls inherit that
// deadline through the request context.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/events", s.handleEvent)

		r.Get("/tasks", s.handleListTasks)
		r.Get("/tasks/{id}", s.handleGetTask)
		r.Get("/tasks/{id}/history", s.handleTaskHistory)

		r.Get("/specs", s.handleListSpecs)
		r.Get("/specs/{id}", s.handleGetSpec)
		r.Get("/specs/{id}/history", s.handleSpecHistory)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// handleEvent feeds one inbound event through the conversation driver and
// returns the tagged outcome.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var ev domain.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "invalid event payload")
		return
	}
	switch ev.Kind {
	case domain.EventCommand, domain.EventAction, domain.EventText, domain.EventContact:
	default:
		writeError(w, http.StatusBadRequest, "unknown event kind")
		return
	}
	if ev.UserID == 0 {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	writeJSON(w, http.StatusOK, s.driver.Handle(r.Context(), ev))
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	var filter domain.TaskFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status := domain.TaskStatus(raw)
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, "unknown task status")
			return
		}
		filter.Statuses = []domain.TaskStatus{status}
	}

	tasks, err := s.engine.ListTasks(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list tasks failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": emptyIfNil(tasks)})
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	task, err := s.engine.GetTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleTaskHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.engine.GetTask(r.Context(), id); err != nil {
		writeLookupError(w, err)
		return
	}
	records, err := s.engine.TaskHistory(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "task history failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": emptyIfNil(records)})
}

func (s *Server) handleListSpecs(w http.ResponseWriter, r *http.Request) {
	var filter domain.SpecFilter
	if r.URL.Query().Get("available") == "1" {
		filter.AvailableOnly = true
	}

	specs, err := s.engine.ListSpecs(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "list specs failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"specs": emptyIfNil(specs)})
}

func (s *Server) handleGetSpec(w http.ResponseWriter, r *http.Request) {
	spec, err := s.engine.GetSpec(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, spec)
}

func (s *Server) handleSpecHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.engine.GetSpec(r.Context(), id); err != nil {
		writeLookupError(w, err)
		return
	}
	records, err := s.engine.SpecHistory(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "spec history failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": emptyIfNil(records)})
}

func writeLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrTaskNotFound) || errors.Is(err, domain.ErrSpecNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "lookup failed")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "error",
		},
	})
}

// emptyIfNil keeps list responses as [] rather than null.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
