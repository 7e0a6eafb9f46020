// internal/game/engine.go
//
// Guess evaluation for a single puzzle session.
// Responsibilities:
//   - Create sessions with MaxAttempts attempts and nothing solved.
//   - Classify guesses: exact match, one away, miss, malformed.
//   - Track state transitions: playing → won/lost.
//
// Rules:
//   - A guess with the wrong number of words changes nothing.
//   - Exact match is an order-independent, case-sensitive comparison with the
//     words of one category. It never costs an attempt.
//   - "One away": some category holds all but one of the guessed entries.
//     Entries are counted individually, so a duplicated word counts twice.
//   - Every other well-formed guess costs one attempt, floored at zero.
//   - Once won or lost the session is frozen; so is re-guessing a solved category.
//
// Sessions are not safe for concurrent use; the store serialises access.
package game

import (
	"sort"
	"time"

	"github.com/wordconnections/backend/internal/puzzle"
)

// NewSession starts a session for p.
func NewSession(p *puzzle.Enhanced, maxAttempts int, now time.Time) *Session {
	return &Session{
		PuzzleID:          p.ID(),
		Puzzle:            p,
		MaxAttempts:       maxAttempts,
		RemainingAttempts: maxAttempts,
		SolvedCategories:  []string{},
		CreatedAt:         now,
	}
}

// State derives the lifecycle state. Winning takes precedence.
func (s *Session) State() State {
	if len(s.SolvedCategories) >= len(s.Puzzle.Groups) {
		return StateWon
	}
	if s.RemainingAttempts <= 0 {
		return StateLost
	}
	return StatePlaying
}

// ApplyGuess evaluates words against the puzzle, mutating the session when
// the guess counts. now stamps the summary of a game that finishes here.
func (s *Session) ApplyGuess(words []string, now time.Time) Result {
	if len(words) != s.wordsPerGroup() {
		return s.result(OutcomeMalformed, "")
	}
	if s.State().Terminal() {
		return s.result(OutcomeIgnored, "")
	}

	guess := sortedCopy(words)
	for _, grp := range s.Puzzle.Groups {
		if !equalSorted(guess, sortedCopy(grp.Words)) {
			continue
		}
		if s.isSolved(grp.Theme) {
			return s.result(OutcomeIgnored, "")
		}
		s.SolvedCategories = append(s.SolvedCategories, grp.Theme)
		res := s.result(OutcomeCorrect, grp.Theme)
		res.IsCorrect = true
		s.finish(&res, now)
		return res
	}

	outcome := OutcomeMiss
	if s.oneAway(words) {
		outcome = OutcomeOneAway
	}
	if s.RemainingAttempts > 0 {
		s.RemainingAttempts--
	}
	res := s.result(outcome, "")
	res.IsOneAway = outcome == OutcomeOneAway
	s.finish(&res, now)
	return res
}

// Mistakes is the number of attempts used so far.
func (s *Session) Mistakes() int { return s.MaxAttempts - s.RemainingAttempts }

func (s *Session) wordsPerGroup() int {
	if len(s.Puzzle.Groups) == 0 {
		return 0
	}
	return len(s.Puzzle.Groups[0].Words)
}

func (s *Session) isSolved(theme string) bool {
	for _, t := range s.SolvedCategories {
		if t == theme {
			return true
		}
	}
	return false
}

// oneAway reports whether some category contains exactly n-1 of the guessed entries.
func (s *Session) oneAway(words []string) bool {
	target := s.wordsPerGroup() - 1
	for _, grp := range s.Puzzle.Groups {
		in := make(map[string]struct{}, len(grp.Words))
		for _, w := range grp.Words {
			in[w] = struct{}{}
		}
		n := 0
		for _, w := range words {
			if _, ok := in[w]; ok {
				n++
			}
		}
		if n == target {
			return true
		}
	}
	return false
}

// result snapshots the session; SolvedCategories is copied so callers may keep it.
func (s *Session) result(o Outcome, category string) Result {
	st := s.State()
	return Result{
		Category:          category,
		RemainingAttempts: s.RemainingAttempts,
		SolvedCategories:  append([]string{}, s.SolvedCategories...),
		IsGameComplete:    st == StateWon,
		AllSolved:         st == StateWon,
		State:             st,
		Outcome:           o,
	}
}

// finish attaches a Summary when the guess just ended the game.
func (s *Session) finish(res *Result, now time.Time) {
	if !res.State.Terminal() {
		return
	}
	res.Summary = &Summary{
		PuzzleID:   s.PuzzleID,
		Seed:       s.Puzzle.Meta.Seed,
		State:      res.State,
		Mistakes:   s.Mistakes(),
		Solved:     len(s.SolvedCategories),
		StartedAt:  s.CreatedAt,
		FinishedAt: now,
	}
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func equalSorted(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
