package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/PrinceV-hub/TechDigest/internal/models"
	"github.com/PrinceV-hub/TechDigest/internal/scheduler"
	"github.com/PrinceV-hub/TechDigest/internal/store"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// Trigger starts a manual fetch cycle. Satisfied by *scheduler.Scheduler.
type Trigger interface {
	TriggerNow() (string, error)
}

// Server holds dependencies for the HTTP handlers.
type Server struct {
	store   store.Store
	trigger Trigger
	logger  *slog.Logger
	mux     *http.ServeMux
}

// New wires up routes and returns a ready-to-use Server.
func New(s store.Store, trigger Trigger, logger *slog.Logger) *Server {
	srv := &Server{store: s, trigger: trigger, logger: logger, mux: http.NewServeMux()}
	srv.routes()
	return srv
}

// ServeHTTP makes Server satisfy the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ---------- Routes ----------

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/health", s.handleHealth)

	s.mux.HandleFunc("GET /api/news", s.handleNews)
	s.mux.HandleFunc("GET /api/stats", s.handleStats)
	s.mux.HandleFunc("GET /api/sources", s.handleSources)
	s.mux.HandleFunc("POST /api/fetch-now", s.handleFetchNow)
}

// ---------- Handlers ----------

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleNews serves the paginated feed. Out-of-range pages are not an
// error: they return an empty article list with the same page/pages
// metadata, and unknown source filters return an empty set.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil {
			page = parsed
		}
	}

	perPage := defaultPerPage
	if pp := r.URL.Query().Get("per_page"); pp != "" {
		if parsed, err := strconv.Atoi(pp); err == nil && parsed > 0 && parsed <= maxPerPage {
			perPage = parsed
		}
	}

	source := r.URL.Query().Get("source")

	articles, total, err := s.store.ListArticles(r.Context(), page, perPage, source)
	if err != nil {
		s.unavailable(w, "listing articles", err)
		return
	}

	pages := 0
	if total > 0 {
		pages = (total + perPage - 1) / perPage
	}
	if articles == nil {
		articles = []models.Article{}
	}
	writeJSON(w, http.StatusOK, models.ArticlePage{Articles: articles, Page: page, Pages: pages})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.unavailable(w, "computing stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.SourceNames(r.Context())
	if err != nil {
		s.unavailable(w, "listing sources", err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *Server) handleFetchNow(w http.ResponseWriter, _ *http.Request) {
	id, err := s.trigger.TriggerNow()
	if errors.Is(err, scheduler.ErrCycleInProgress) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "fetch cycle already in progress, try again later"})
		return
	}
	if err != nil {
		s.unavailable(w, "triggering fetch", err)
		return
	}
	s.logger.Info("manual fetch triggered", "cycle", id)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted", "cycle": id})
}

// ---------- Helpers ----------

func (s *Server) unavailable(w http.ResponseWriter, op string, err error) {
	s.logger.Error(op+" failed", "error", err)
	writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "temporarily unavailable"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
