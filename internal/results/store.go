// internal/results/store.go
//
// Persistence of finished games and aggregate stats.
// A row is written once per puzzle session; duplicates are ignored.
package results

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/wordconnections/backend/internal/game"
)

// DefaultRecentLimit is used when Recent is called with limit <= 0.
const DefaultRecentLimit = 20

// GameResult is one finished game.
type GameResult struct {
	PuzzleID   string     `json:"puzzleId"`
	Seed       *int64     `json:"seed,omitempty"`
	State      game.State `json:"state"`
	Mistakes   int        `json:"mistakes"`
	Solved     int        `json:"solved"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt time.Time  `json:"finishedAt"`
}

// FromSummary converts the engine's summary into a storable row.
func FromSummary(s game.Summary) GameResult {
	return GameResult{
		PuzzleID:   s.PuzzleID,
		Seed:       s.Seed,
		State:      s.State,
		Mistakes:   s.Mistakes,
		Solved:     s.Solved,
		StartedAt:  s.StartedAt.UTC(),
		FinishedAt: s.FinishedAt.UTC(),
	}
}

// Stats aggregates all recorded games.
type Stats struct {
	Played      int     `json:"played"`
	Won         int     `json:"won"`
	Lost        int     `json:"lost"`
	WinRate     float64 `json:"winRate"`
	AvgMistakes float64 `json:"avgMistakes"`
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

// Record inserts r. A second result for the same puzzle is ignored.
func (s *Store) Record(ctx context.Context, r GameResult) error {
	var seed sql.NullInt64
	if r.Seed != nil {
		seed = sql.NullInt64{Int64: *r.Seed, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT OR IGNORE INTO game_results
            (puzzle_id, seed, state, mistakes, solved, started_at, finished_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.PuzzleID, seed, string(r.State), r.Mistakes, r.Solved, r.StartedAt, r.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record result %s: %w", r.PuzzleID, err)
	}
	return nil
}

// Summary returns totals over every recorded game.
func (s *Store) Summary(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(1),
               COALESCE(SUM(CASE WHEN state = 'won' THEN 1 ELSE 0 END), 0),
               COALESCE(AVG(mistakes), 0.0)
        FROM game_results`,
	).Scan(&st.Played, &st.Won, &st.AvgMistakes)
	if err != nil {
		return Stats{}, fmt.Errorf("summary: %w", err)
	}
	st.Lost = st.Played - st.Won
	if st.Played > 0 {
		st.WinRate = float64(st.Won) / float64(st.Played)
	}
	return st, nil
}

// Recent returns the latest results, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]GameResult, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT puzzle_id, seed, state, mistakes, solved, started_at, finished_at
        FROM game_results
        ORDER BY finished_at DESC, created_at DESC
        LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent: %w", err)
	}
	defer rows.Close()

	out := make([]GameResult, 0, limit)
	for rows.Next() {
		var (
			r     GameResult
			seed  sql.NullInt64
			state string
		)
		if err := rows.Scan(&r.PuzzleID, &seed, &state, &r.Mistakes, &r.Solved, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		if seed.Valid {
			v := seed.Int64
			r.Seed = &v
		}
		r.State = game.State(state)
		out = append(out, r)
	}
	return out, rows.Err()
}
