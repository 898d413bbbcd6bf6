package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"

	"github.com/hazz-dev/apismoke/internal/checker"
	"github.com/hazz-dev/apismoke/internal/config"
)

// Runner executes a full pass over the configured services.
type Runner interface {
	Run(ctx context.Context, services []config.Service) checker.Report
}

// Observer receives every completed report.
type Observer interface {
	Observe(rep checker.Report)
}

// Server holds the chi router and its dependencies.
type Server struct {
	runner   Runner
	observer Observer
	services []config.Service
	router   chi.Router
	logger   *slog.Logger

	// mu serializes runs and guards last.
	mu      sync.Mutex
	last    *checker.Report
	lastRun time.Time
}

// New creates a new Server and registers all routes. observer and metrics
// may be nil.
func New(runner Runner, services []config.Service, observer Observer, metrics http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		runner:   runner,
		observer: observer,
		services: services,
		router:   chi.NewRouter(),
		logger:   logger,
	}
	s.registerRoutes(metrics)
	return s
}

// Router returns the chi router (for mounting or testing).
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) registerRoutes(metrics http.Handler) {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/services", s.handleListServices)
	r.Post("/api/run", s.handleRun)
	r.Get("/api/report", s.handleReport)
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
}

// --- Response helpers ---

type envelope struct {
	Data  any    `json:"data"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Error: msg})
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type endpointDetail struct {
	Name           string   `json:"name"`
	Path           string   `json:"path"`
	Method         string   `json:"method"`
	ExpectedStatus int      `json:"expected_status"`
	MaxResponseMs  *float64 `json:"max_response_ms"`
}

type serviceDetail struct {
	Name           string           `json:"name"`
	BaseURL        string           `json:"base_url"`
	TimeoutSeconds float64          `json:"timeout_seconds"`
	Endpoints      []endpointDetail `json:"endpoints"`
}

func (s *Server) handleListServices(w http.ResponseWriter, r *http.Request) {
	details := make([]serviceDetail, 0, len(s.services))
	for _, svc := range s.services {
		d := serviceDetail{
			Name:           svc.Name,
			BaseURL:        svc.BaseURL,
			TimeoutSeconds: svc.TimeoutSeconds,
			Endpoints:      make([]endpointDetail, 0, len(svc.Endpoints)),
		}
		for _, ep := range svc.Endpoints {
			d.Endpoints = append(d.Endpoints, endpointDetail{
				Name:           ep.Name,
				Path:           ep.Path,
				Method:         ep.Method,
				ExpectedStatus: ep.ExpectedStatus,
				MaxResponseMs:  ep.MaxResponseMs,
			})
		}
		details = append(details, d)
	}
	writeJSON(w, http.StatusOK, details)
}

type reportResponse struct {
	checker.Report
	RanAt time.Time `json:"ran_at"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Runs complete even when the client disconnects.
	ctx := context.WithoutCancel(r.Context())

	start := time.Now()
	rep := s.runner.Run(ctx, s.services)
	s.last = &rep
	s.lastRun = start

	if s.observer != nil {
		s.observer.Observe(rep)
	}
	s.logger.Info("run completed",
		"total", rep.Summary.Total,
		"failed", rep.Summary.Failed,
		"duration", time.Since(start),
	)

	writeJSON(w, http.StatusOK, reportResponse{Report: rep, RanAt: start.UTC()})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	last, ranAt := s.last, s.lastRun
	s.mu.Unlock()

	if last == nil {
		writeError(w, http.StatusNotFound, "no run yet")
		return
	}
	writeJSON(w, http.StatusOK, reportResponse{Report: *last, RanAt: ranAt.UTC()})
}

// --- Middleware ---

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}
