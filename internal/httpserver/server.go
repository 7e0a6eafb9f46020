// internal/httpserver/server.go
//
// HTTP server wiring for the word connections backend.
// Responsibilities:
//   - Router + middleware (request IDs, real IP, panic recovery, timeouts,
//     JSON content type, CORS, request logging, per-IP rate limiting on /api).
//   - Public endpoints: "/", "/health", "/metrics".
//   - Puzzle endpoints: /api/puzzle, /api/puzzle/enhanced, /api/puzzle/daily,
//     POST /api/puzzle/validate (routes_puzzle.go).
//   - Stats endpoints backed by the results store (routes_stats.go).
//   - Admin API guarded by a JWT, mounted only when an admin password hash is
//     configured (admin.go).
//
// Errors are always JSON: {"error": "...", "timestamp": "..."}.

package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/wordconnections/backend/internal/config"
	"github.com/wordconnections/backend/internal/puzzle"
	"github.com/wordconnections/backend/internal/results"
	"github.com/wordconnections/backend/internal/store"
)

// Results is the part of the results store the handlers use.
type Results interface {
	Record(ctx context.Context, r results.GameResult) error
	Summary(ctx context.Context) (results.Stats, error)
	Recent(ctx context.Context, limit int) ([]results.GameResult, error)
}

// Deps are the collaborators a Server needs. Results may be nil.
type Deps struct {
	Generator *puzzle.Generator
	Sessions  store.Store
	Results   Results
	Config    config.Config
	Version   string
}

// Server bundles the router and its collaborators.
type Server struct {
	r       *chi.Mux
	gen     *puzzle.Generator
	store   store.Store
	results Results
	cfg     config.Config
	version string
	started time.Time
	now     func() time.Time
	limiter *ipLimiter
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		gen:     d.Generator,
		store:   d.Sessions,
		results: d.Results,
		cfg:     d.Config,
		version: d.Version,
		started: time.Now(),
		now:     func() time.Time { return time.Now().UTC() },
		limiter: newIPLimiter(d.Config.RateLimitRPS, d.Config.RateLimitBurst),
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(requestLogger)                   // one zerolog line per request
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(chimw.SetHeader("X-Content-Type-Options", "nosniff"))
	s.r.Use(chimw.SetHeader("X-Frame-Options", "SAMEORIGIN"))
	s.r.Use(chimw.SetHeader("Referrer-Policy", "no-referrer"))
	s.r.Use(cors(d.Config.AllowedOrigins))

	// --- diagnostics ---
	s.r.Get("/", s.handleIndex)
	s.r.Get("/health", s.handleHealth)
	s.r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	s.r.Route("/api", func(r chi.Router) {
		r.Use(s.limiter.middleware)
		s.mountPuzzle(r)
		s.mountStats(r)
		if d.Config.AdminEnabled() {
			s.mountAdmin(r)
		}
	})

	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusNotFound, "Route "+r.Method+" "+r.URL.Path+" not found")
	})
	s.r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, http.StatusMethodNotAllowed, "Method "+r.Method+" not allowed")
	})

	return s
}

// Router exposes the internal router (useful for tests and http.Server).
func (s *Server) Router() chi.Router { return s.r }

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	endpoints := []string{
		"/health",
		"/metrics",
		"GET /api/puzzle?seed=",
		"GET /api/puzzle/enhanced?seed=",
		"GET /api/puzzle/daily",
		"POST /api/puzzle/validate",
		"GET /api/stats",
		"GET /api/stats/recent?limit=",
	}
	if s.cfg.AdminEnabled() {
		endpoints = append(endpoints, "POST /api/admin/login", "/api/admin/sessions")
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"service":   "wordconnections",
		"version":   s.version,
		"endpoints": endpoints,
	})
}

type healthRes struct {
	Status    string    `json:"status"`
	Uptime    float64   `json:"uptime"` // seconds
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, healthRes{
		Status:    "healthy",
		Uptime:    time.Since(s.started).Seconds(),
		Timestamp: s.now(),
		Version:   s.version,
	})
}

// ------------------------------ helpers ------------------------------------

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

type errorRes struct {
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	s.writeJSON(w, code, errorRes{Error: msg, Timestamp: s.now()})
}
