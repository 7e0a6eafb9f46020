// internal/game/types.go
//
// Core type definitions for a single puzzle session.
// Defines:
//   - State: playing, won or lost.
//   - Outcome: how a single guess was classified (used for metrics).
//   - Session: mutable play state for one generated puzzle.
//   - Result: the validation response returned to clients.
//   - Summary: the record of a finished game.

package game

import (
	"time"

	"github.com/wordconnections/backend/internal/puzzle"
)

// State is the coarse lifecycle of a session.
type State string

const (
	StatePlaying State = "playing"
	StateWon     State = "won"
	StateLost    State = "lost"
)

// Terminal reports whether no further guesses can change the session.
func (s State) Terminal() bool { return s == StateWon || s == StateLost }

// Outcome classifies one guess.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeOneAway   Outcome = "one_away"
	OutcomeMiss      Outcome = "miss"
	OutcomeMalformed Outcome = "malformed" // wrong word count, nothing changed
	OutcomeIgnored   Outcome = "ignored"   // finished game or category already solved
)

// Session holds the state of one puzzle being played.
type Session struct {
	PuzzleID          string           // Same string as Puzzle.Meta.PuzzleID.
	Puzzle            *puzzle.Enhanced // Owned; never mutated.
	MaxAttempts       int              // Mistakes allowed before the game is lost.
	RemainingAttempts int              // 0..MaxAttempts.
	SolvedCategories  []string         // Themes in the order they were solved.
	CreatedAt         time.Time
}

// Result is the JSON body of POST /api/puzzle/validate.
type Result struct {
	IsCorrect         bool     `json:"isCorrect"`
	Category          string   `json:"category,omitempty"`
	RemainingAttempts int      `json:"remainingAttempts"`
	SolvedCategories  []string `json:"solvedCategories"`
	IsOneAway         bool     `json:"isOneAway"`
	IsGameComplete    bool     `json:"isGameComplete"`
	AllSolved         bool     `json:"allSolved"`
	State             State    `json:"state"`

	Outcome Outcome  `json:"-"`
	Summary *Summary `json:"-"` // set only on the guess that finished the game
}

// Summary describes a game that just reached a terminal state.
type Summary struct {
	PuzzleID   string
	Seed       *int64
	State      State
	Mistakes   int
	Solved     int
	StartedAt  time.Time
	FinishedAt time.Time
}
