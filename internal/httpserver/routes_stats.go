// internal/httpserver/routes_stats.go
//
// Aggregate stats over finished games:
//   - GET /api/stats               → played, won, lost, win rate, average mistakes
//   - GET /api/stats/recent?limit= → latest finished games (default 20, max 100)

package httpserver

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/wordconnections/backend/internal/results"
)

const maxRecentLimit = 100

func (s *Server) mountStats(r chi.Router) {
	r.Route("/stats", func(r chi.Router) {
		r.Get("/", s.handleStats)
		r.Get("/recent", s.handleRecent)
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Stats are not available")
		return
	}
	st, err := s.results.Summary(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("stats summary")
		s.writeError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

type recentRes struct {
	Results []results.GameResult `json:"results"`
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if s.results == nil {
		s.writeError(w, http.StatusServiceUnavailable, "Stats are not available")
		return
	}
	limit := results.DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxRecentLimit)
	}
	rows, err := s.results.Recent(r.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("recent results")
		s.writeError(w, http.StatusInternalServerError, "Failed to load stats")
		return
	}
	s.writeJSON(w, http.StatusOK, recentRes{Results: rows})
}
