// internal/httpserver/routes_puzzle.go
//
// Puzzle routes, all under /api/puzzle:
//   - GET  /api/puzzle?seed=n          → basic puzzle (no session)
//   - GET  /api/puzzle/enhanced?seed=n → puzzle with solution; creates a session
//   - GET  /api/puzzle/daily           → enhanced puzzle for today's seed; creates a session
//   - POST /api/puzzle/validate        → apply a guess to a session
//
// Seeds are validated here; the generator only ever sees a shuffle.Seed.
// When a guess finishes a game the result is recorded best-effort.

package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/wordconnections/backend/internal/daily"
	"github.com/wordconnections/backend/internal/game"
	"github.com/wordconnections/backend/internal/metrics"
	"github.com/wordconnections/backend/internal/results"
	"github.com/wordconnections/backend/internal/shuffle"
	"github.com/wordconnections/backend/internal/store"
)

const maxValidateBody = 64 << 10

var seedPattern = regexp.MustCompile(`^\d+$`)

var errSeedFormat = errors.New("Seed must be a non-negative integer")

func (s *Server) mountPuzzle(r chi.Router) {
	r.Route("/puzzle", func(r chi.Router) {
		r.Get("/", s.handlePuzzle)
		r.Get("/enhanced", s.handleEnhanced)
		r.Get("/daily", s.handleDaily)
		r.Post("/validate", s.handleValidate)
	})
}

// parseSeed reads ?seed=. Absent or empty means no seed; otherwise it must
// match ^\d+$ and be at most max.
func parseSeed(r *http.Request, max int64) (shuffle.Seed, error) {
	raw := r.URL.Query().Get("seed")
	if raw == "" {
		return shuffle.NoSeed, nil
	}
	if !seedPattern.MatchString(raw) {
		return shuffle.NoSeed, errSeedFormat
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n > max {
		return shuffle.NoSeed, fmt.Errorf("Seed must be between 0 and %d", max)
	}
	return shuffle.SeedOf(n), nil
}

func (s *Server) handlePuzzle(w http.ResponseWriter, r *http.Request) {
	seed, err := parseSeed(r, s.cfg.MaxSeedValue)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p := s.gen.Generate(seed)
	metrics.PuzzlesGenerated.WithLabelValues("basic").Inc()
	log.Debug().Str("puzzleId", p.Meta.PuzzleID).Stringer("seed", seed).Msg("puzzle generated")
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleEnhanced(w http.ResponseWriter, r *http.Request) {
	seed, err := parseSeed(r, s.cfg.MaxSeedValue)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.serveEnhanced(w, r, seed, "enhanced")
}

// handleDaily serves today's puzzle; X-Puzzle-Date names the UTC date used.
func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	seed := daily.Seed(now, s.cfg.DailySalt, s.cfg.MaxSeedValue)
	w.Header().Set("X-Puzzle-Date", daily.DateKey(now))
	s.serveEnhanced(w, r, shuffle.SeedOf(seed), "daily")
}

func (s *Server) serveEnhanced(w http.ResponseWriter, r *http.Request, seed shuffle.Seed, kind string) {
	p := s.gen.GenerateEnhanced(seed)
	if _, err := s.store.Create(r.Context(), p); err != nil {
		log.Error().Err(err).Str("puzzleId", p.ID()).Msg("create session")
		s.writeError(w, http.StatusInternalServerError, "Failed to generate puzzle")
		return
	}
	metrics.PuzzlesGenerated.WithLabelValues(kind).Inc()
	log.Debug().Str("puzzleId", p.ID()).Str("kind", kind).Stringer("seed", seed).Msg("session created")
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req store.ValidateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxValidateBody)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PuzzleID == "" || req.Words == nil {
		s.writeError(w, http.StatusBadRequest, "puzzleId and words are required")
		return
	}

	res, err := s.store.Validate(r.Context(), req)
	if errors.Is(err, store.ErrSessionNotFound) {
		s.writeError(w, http.StatusNotFound, "Invalid puzzle session")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("puzzleId", req.PuzzleID).Msg("validate guess")
		s.writeError(w, http.StatusInternalServerError, "Failed to validate guess")
		return
	}

	metrics.Guesses.WithLabelValues(string(res.Outcome)).Inc()
	metrics.ValidateDuration.WithLabelValues(string(res.Outcome)).Observe(time.Since(start).Seconds())
	if res.Summary != nil {
		s.recordFinished(r, *res.Summary)
	}
	s.writeJSON(w, http.StatusOK, res)
}

// recordFinished counts and persists a finished game. Persistence failures
// are logged and never fail the guess.
func (s *Server) recordFinished(r *http.Request, sum game.Summary) {
	metrics.GamesFinished.WithLabelValues(string(sum.State)).Inc()
	log.Info().
		Str("puzzleId", sum.PuzzleID).
		Str("state", string(sum.State)).
		Int("mistakes", sum.Mistakes).
		Msg("game finished")
	if s.results == nil {
		return
	}
	if err := s.results.Record(r.Context(), results.FromSummary(sum)); err != nil {
		log.Warn().Err(err).Str("puzzleId", sum.PuzzleID).Msg("record game result")
	}
}
