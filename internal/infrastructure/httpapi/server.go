package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"sitecap/internal/application/port/output"
	"sitecap/internal/domain/entity"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog"
	"github.com/rs/zerolog"
)

// Server exposes stored capability documents over HTTP for downstream
// agents. It is read-only: recording happens through the CLI.
type Server struct {
	store  output.CapabilityStore
	log    zerolog.Logger
	server *http.Server
}

type Config struct {
	Addr    string
	Store   output.CapabilityStore
	JSONLog bool
	Verbose bool
}

func NewServer(cfg Config) *Server {
	logLevel := "info"
	if cfg.Verbose {
		logLevel = "debug"
	}
	logger := httplog.NewLogger("sitecap-api", httplog.Options{
		JSON:     cfg.JSONLog,
		Concise:  true,
		LogLevel: logLevel,
	})

	s := &Server{
		store: cfg.Store,
		log:   logger,
	}

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/capabilities", s.handleList)
		r.Get("/capabilities/{domain}", s.handleGet)
	})

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start blocks until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("capability API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("capability API shutting down")
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.store.List(r.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("list capabilities")
		writeError(w, http.StatusInternalServerError, "failed to list capabilities")
		return
	}
	if summaries == nil {
		summaries = []output.CapabilitySummary{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"capabilities": summaries})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	domain, err := entity.NormalizeDomain(chi.URLParam(r, "domain"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid domain")
		return
	}

	doc, err := s.store.Load(r.Context(), domain)
	if err != nil {
		s.log.Error().Err(err).Str("domain", domain).Msg("load capability")
		writeError(w, http.StatusInternalServerError, "failed to load capability")
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no capability recorded for %s", domain))
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
