// internal/store/memory.go
//
// In-memory session store: puzzleId → game.Session.
//
// Characteristics:
//   - Sessions live only in process memory; a restart forgets them.
//   - The map is guarded by an RWMutex; each entry has its own mutex, so
//     guesses for one puzzle serialise while different puzzles run in parallel.
//   - Entries removed by Cleanup or ClearAll are tombstoned under their entry
//     lock, so a guess racing the removal sees ErrSessionNotFound.
//   - Memory is bounded only by the TTL sweep (RunSweeper).
//
// Lock order: never take the map lock while holding an entry lock.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/wordconnections/backend/internal/game"
	"github.com/wordconnections/backend/internal/puzzle"
)

// ErrSessionNotFound is returned for unknown, expired or cleared puzzle IDs.
var ErrSessionNotFound = errors.New("session not found")

// ValidateRequest is the body of POST /api/puzzle/validate.
type ValidateRequest struct {
	PuzzleID string   `json:"puzzleId"`
	Words    []string `json:"words"`
}

// Store is what the HTTP layer needs from a session store.
type Store interface {
	// Create registers a session for p and returns its ID (the puzzle ID).
	Create(ctx context.Context, p *puzzle.Enhanced) (string, error)

	// Validate applies a guess. ErrSessionNotFound if no session exists.
	Validate(ctx context.Context, req ValidateRequest) (game.Result, error)

	// Cleanup removes expired sessions and returns how many were removed.
	Cleanup(ctx context.Context) int

	// ClearAll drops every session and returns how many there were.
	ClearAll(ctx context.Context) int

	Count(ctx context.Context) int
	Has(ctx context.Context, id string) bool
}

// Options configures a Memory store.
type Options struct {
	MaxAttempts int
	TTL         time.Duration
	// Now defaults to time.Now. Tests inject a fake clock.
	Now func() time.Time
	// OnExpire is called after a sweep removed n > 0 sessions.
	OnExpire func(n int)
}

// DefaultOptions: 4 attempts, 30 minute TTL.
func DefaultOptions() Options {
	return Options{MaxAttempts: 4, TTL: 30 * time.Minute}
}

type entry struct {
	mu   sync.Mutex
	sess *game.Session
	gone bool
}

// Memory is the in-memory Store.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	opts     Options
}

var _ Store = (*Memory)(nil)

// NewMemory constructs an empty store.
func NewMemory(opts Options) *Memory {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultOptions().MaxAttempts
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultOptions().TTL
	}
	return &Memory{sessions: make(map[string]*entry), opts: opts}
}

// Create stores a new session keyed by the puzzle ID. An existing session
// with the same ID is replaced.
func (m *Memory) Create(ctx context.Context, p *puzzle.Enhanced) (string, error) {
	if p == nil || p.ID() == "" {
		return "", errors.New("create session: puzzle without id")
	}
	e := &entry{sess: game.NewSession(p, m.opts.MaxAttempts, m.opts.Now())}

	m.mu.Lock()
	old := m.sessions[p.ID()]
	m.sessions[p.ID()] = e
	m.mu.Unlock()

	if old != nil {
		old.mu.Lock()
		old.gone = true
		old.mu.Unlock()
	}
	return p.ID(), nil
}

// Validate applies req.Words to the session under its entry lock.
func (m *Memory) Validate(ctx context.Context, req ValidateRequest) (game.Result, error) {
	m.mu.RLock()
	e, ok := m.sessions[req.PuzzleID]
	m.mu.RUnlock()
	if !ok {
		return game.Result{}, ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gone {
		return game.Result{}, ErrSessionNotFound
	}
	return e.sess.ApplyGuess(req.Words, m.opts.Now()), nil
}

// Cleanup removes sessions whose puzzle is older than the TTL.
func (m *Memory) Cleanup(ctx context.Context) int {
	now := m.opts.Now()

	m.mu.RLock()
	snapshot := make(map[string]*entry, len(m.sessions))
	for id, e := range m.sessions {
		snapshot[id] = e
	}
	m.mu.RUnlock()

	var expired []string
	for id, e := range snapshot {
		e.mu.Lock()
		if !e.gone && now.Sub(e.sess.Puzzle.Meta.GeneratedAt) > m.opts.TTL {
			e.gone = true
			expired = append(expired, id)
		}
		e.mu.Unlock()
	}
	if len(expired) == 0 {
		return 0
	}

	m.mu.Lock()
	for _, id := range expired {
		// Create may have replaced the entry since the snapshot.
		if m.sessions[id] == snapshot[id] {
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	if m.opts.OnExpire != nil {
		m.opts.OnExpire(len(expired))
	}
	return len(expired)
}

// ClearAll drops every session.
func (m *Memory) ClearAll(ctx context.Context) int {
	m.mu.Lock()
	old := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range old {
		e.mu.Lock()
		e.gone = true
		e.mu.Unlock()
	}
	return len(old)
}

// Count returns the number of live sessions.
func (m *Memory) Count(ctx context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Has reports whether id names a live session.
func (m *Memory) Has(ctx context.Context, id string) bool {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.gone
}

// RunSweeper calls Cleanup every interval until ctx is cancelled. The
// returned channel is closed once the goroutine has exited.
func (m *Memory) RunSweeper(ctx context.Context, interval time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Debug().Msg("session sweeper stopped")
				return
			case <-t.C:
				if n := m.Cleanup(ctx); n > 0 {
					log.Info().Int("removed", n).Int("remaining", m.Count(ctx)).Msg("expired sessions removed")
				}
			}
		}
	}()
	return done
}
