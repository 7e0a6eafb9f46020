package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/wordconnections/backend/internal/categories"
	"github.com/wordconnections/backend/internal/config"
	"github.com/wordconnections/backend/internal/puzzle"
	"github.com/wordconnections/backend/internal/results"
	"github.com/wordconnections/backend/internal/store"
)

type fakeResults struct {
	mu   sync.Mutex
	rows []results.GameResult
}

func (f *fakeResults) Record(ctx context.Context, r results.GameResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, r)
	return nil
}

func (f *fakeResults) Summary(ctx context.Context) (results.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := results.Stats{Played: len(f.rows)}
	for _, r := range f.rows {
		if r.State == "won" {
			st.Won++
		}
	}
	st.Lost = st.Played - st.Won
	return st, nil
}

func (f *fakeResults) Recent(ctx context.Context, limit int) ([]results.GameResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.rows) {
		limit = len(f.rows)
	}
	return append([]results.GameResult(nil), f.rows[:limit]...), nil
}

func testConfig() config.Config {
	return config.Config{
		AllowedOrigins: []string{"*"},
		MaxAttempts:    4,
		MaxSeedValue:   2147483647,
		DailySalt:      "test",
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		AdminUser:      "admin",
		JWTSecret:      "test-secret",
		JWTExpires:     time.Hour,
	}
}

type testEnv struct {
	srv     *Server
	store   *store.Memory
	results *fakeResults
}

func newTestEnv(t *testing.T, cfg config.Config) *testEnv {
	t.Helper()
	groups := []categories.Group{
		{Theme: "Colors", Words: []string{"Red", "Blue", "Green", "Yellow"}, Difficulty: categories.Yellow},
		{Theme: "Genres", Words: []string{"Action", "Drama", "Horror", "Comedy"}, Difficulty: categories.Green},
		{Theme: "Fruits", Words: []string{"Apple", "Banana", "Grape", "Mango"}, Difficulty: categories.Blue},
		{Theme: "Emotions", Words: []string{"Happy", "Sad", "Angry", "Calm"}, Difficulty: categories.Purple},
	}
	gen, err := puzzle.New(groups, puzzle.DefaultConfig())
	if err != nil {
		t.Fatalf("puzzle.New: %v", err)
	}
	mem := store.NewMemory(store.Options{MaxAttempts: cfg.MaxAttempts, TTL: 30 * time.Minute})
	res := &fakeResults{}
	srv := New(Deps{Generator: gen, Sessions: mem, Results: res, Config: cfg, Version: "test"})
	return &testEnv{srv: srv, store: mem, results: res}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type validateRes struct {
	IsCorrect         bool     `json:"isCorrect"`
	Category          string   `json:"category"`
	RemainingAttempts int      `json:"remainingAttempts"`
	SolvedCategories  []string `json:"solvedCategories"`
	IsOneAway         bool     `json:"isOneAway"`
	IsGameComplete    bool     `json:"isGameComplete"`
	AllSolved         bool     `json:"allSolved"`
	State             string   `json:"state"`
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, testConfig())
	rec := env.do(t, http.MethodGet, "/health", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	h := decode[healthRes](t, rec)
	if h.Status != "healthy" || h.Version != "test" || h.Timestamp.IsZero() {
		t.Fatalf("health = %+v", h)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}
}

func TestPuzzleSeedIsDeterministic(t *testing.T) {
	env := newTestEnv(t, testConfig())
	a := decode[puzzle.Puzzle](t, env.do(t, http.MethodGet, "/api/puzzle?seed=123", nil, nil))
	b := decode[puzzle.Puzzle](t, env.do(t, http.MethodGet, "/api/puzzle?seed=123", nil, nil))
	if len(a.Words) != 16 || len(a.Categories) != 4 {
		t.Fatalf("puzzle = %+v", a)
	}
	if !reflect.DeepEqual(a.Words, b.Words) || !reflect.DeepEqual(a.Categories, b.Categories) {
		t.Fatal("same seed gave different puzzles")
	}
	if a.Meta.Seed == nil || *a.Meta.Seed != 123 || a.Meta.PuzzleID == b.Meta.PuzzleID {
		t.Fatalf("meta = %+v / %+v", a.Meta, b.Meta)
	}

	zero := decode[puzzle.Puzzle](t, env.do(t, http.MethodGet, "/api/puzzle?seed=0", nil, nil))
	if zero.Meta.Seed == nil || *zero.Meta.Seed != 0 {
		t.Fatalf("seed 0 lost: %+v", zero.Meta)
	}
	none := decode[puzzle.Puzzle](t, env.do(t, http.MethodGet, "/api/puzzle", nil, nil))
	if none.Meta.Seed != nil {
		t.Fatalf("unseeded puzzle reported seed %d", *none.Meta.Seed)
	}
	if env.store.Count(context.Background()) != 0 {
		t.Fatal("basic puzzle should not create a session")
	}
}

func TestPuzzleRejectsBadSeeds(t *testing.T) {
	cfg := testConfig()
	cfg.MaxSeedValue = 1000000
	env := newTestEnv(t, cfg)
	for _, q := range []string{"abc", "-1", "1.5", "+5", "1000001", "99999999999999999999"} {
		t.Run(q, func(t *testing.T) {
			for _, path := range []string{"/api/puzzle?seed=", "/api/puzzle/enhanced?seed="} {
				rec := env.do(t, http.MethodGet, path+q, nil, nil)
				if rec.Code != http.StatusBadRequest {
					t.Fatalf("%s%s: status = %d", path, q, rec.Code)
				}
				e := decode[errorRes](t, rec)
				if !strings.Contains(e.Error, "Seed") || e.Timestamp.IsZero() {
					t.Fatalf("error body = %+v", e)
				}
				if seedPattern.MatchString(q) {
					continue
				}
				if e.Error != "Seed must be a non-negative integer" {
					t.Fatalf("format error = %q", e.Error)
				}
			}
		})
	}
	if env.store.Count(context.Background()) != 0 {
		t.Fatal("rejected requests created sessions")
	}
}

func TestEmptySeedMeansUnseeded(t *testing.T) {
	env := newTestEnv(t, testConfig())
	rec := env.do(t, http.MethodGet, "/api/puzzle?seed=", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	p := decode[puzzle.Puzzle](t, rec)
	if p.Meta.Seed != nil {
		t.Fatalf("empty seed reported seed %d", *p.Meta.Seed)
	}
	if len(p.Words) != 16 {
		t.Fatalf("words = %v", p.Words)
	}

	rec = env.do(t, http.MethodGet, "/api/puzzle/enhanced?seed=", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("enhanced status = %d", rec.Code)
	}
	if env.store.Count(context.Background()) != 1 {
		t.Fatal("enhanced puzzle with empty seed should create a session")
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, testConfig())
	for _, path := range []string{"/health", "/api/puzzle", "/nope"} {
		rec := env.do(t, http.MethodGet, path, nil, nil)
		if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
			t.Fatalf("%s: X-Content-Type-Options = %q", path, got)
		}
		if got := rec.Header().Get("X-Frame-Options"); got != "SAMEORIGIN" {
			t.Fatalf("%s: X-Frame-Options = %q", path, got)
		}
		if got := rec.Header().Get("Referrer-Policy"); got != "no-referrer" {
			t.Fatalf("%s: Referrer-Policy = %q", path, got)
		}
	}
}

func TestEnhancedAndValidateFlow(t *testing.T) {
	env := newTestEnv(t, testConfig())
	p := decode[puzzle.Enhanced](t, env.do(t, http.MethodGet, "/api/puzzle/enhanced?seed=123", nil, nil))
	if p.Meta.PuzzleID == "" || len(p.Solution) != 4 || len(p.WordToCategory) != 16 || len(p.DifficultyOrder) != 4 {
		t.Fatalf("enhanced = %+v", p)
	}
	if !env.store.Has(context.Background(), p.Meta.PuzzleID) {
		t.Fatal("enhanced puzzle did not create a session")
	}

	guess := func(words ...string) validateRes {
		rec := env.do(t, http.MethodPost, "/api/puzzle/validate", store.ValidateRequest{PuzzleID: p.Meta.PuzzleID, Words: words}, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("validate status = %d: %s", rec.Code, rec.Body.String())
		}
		return decode[validateRes](t, rec)
	}

	res := guess("Red", "Blue", "Green", "Yellow")
	if !res.IsCorrect || res.Category != "Colors" || res.RemainingAttempts != 4 {
		t.Fatalf("correct guess = %+v", res)
	}
	res = guess("Action", "Drama", "Horror", "Wrong")
	if res.IsCorrect || !res.IsOneAway || res.RemainingAttempts != 3 {
		t.Fatalf("one away = %+v", res)
	}
	res = guess("Action", "Drama")
	if res.RemainingAttempts != 3 {
		t.Fatalf("malformed guess cost an attempt: %+v", res)
	}

	guess("Action", "Drama", "Horror", "Comedy")
	guess("Apple", "Banana", "Grape", "Mango")
	res = guess("Happy", "Sad", "Angry", "Calm")
	if !res.IsGameComplete || !res.AllSolved || res.State != "won" || len(res.SolvedCategories) != 4 {
		t.Fatalf("final guess = %+v", res)
	}

	if len(env.results.rows) != 1 {
		t.Fatalf("recorded %d results, want 1", len(env.results.rows))
	}
	row := env.results.rows[0]
	if row.PuzzleID != p.Meta.PuzzleID || row.State != "won" || row.Mistakes != 1 || row.Seed == nil || *row.Seed != 123 {
		t.Fatalf("recorded = %+v", row)
	}

	st := decode[results.Stats](t, env.do(t, http.MethodGet, "/api/stats", nil, nil))
	if st.Played != 1 || st.Won != 1 {
		t.Fatalf("stats = %+v", st)
	}
	recent := decode[recentRes](t, env.do(t, http.MethodGet, "/api/stats/recent?limit=5", nil, nil))
	if len(recent.Results) != 1 {
		t.Fatalf("recent = %+v", recent)
	}
}

func TestValidateErrors(t *testing.T) {
	env := newTestEnv(t, testConfig())

	rec := env.do(t, http.MethodPost, "/api/puzzle/validate", store.ValidateRequest{PuzzleID: "missing", Words: []string{"a", "b", "c", "d"}}, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown session status = %d", rec.Code)
	}
	if e := decode[errorRes](t, rec); e.Error != "Invalid puzzle session" {
		t.Fatalf("error = %q", e.Error)
	}

	rec = env.do(t, http.MethodPost, "/api/puzzle/validate", "{not json", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad json status = %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/api/puzzle/validate", map[string]string{"puzzleId": "x"}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing words status = %d", rec.Code)
	}
}

func TestDailyPuzzleIsStable(t *testing.T) {
	env := newTestEnv(t, testConfig())
	a := env.do(t, http.MethodGet, "/api/puzzle/daily", nil, nil)
	b := env.do(t, http.MethodGet, "/api/puzzle/daily", nil, nil)
	if a.Header().Get("X-Puzzle-Date") == "" {
		t.Fatal("missing X-Puzzle-Date")
	}
	pa := decode[puzzle.Enhanced](t, a)
	pb := decode[puzzle.Enhanced](t, b)
	if !reflect.DeepEqual(pa.Words, pb.Words) || pa.Meta.Seed == nil || pb.Meta.Seed == nil || *pa.Meta.Seed != *pb.Meta.Seed {
		t.Fatal("daily puzzle differs between calls")
	}
	if env.store.Count(context.Background()) != 2 {
		t.Fatalf("daily should create a session per call, have %d", env.store.Count(context.Background()))
	}
}

func TestStatsUnavailableWithoutResults(t *testing.T) {
	cfg := testConfig()
	env := newTestEnv(t, cfg)
	env.srv.results = nil
	if rec := env.do(t, http.MethodGet, "/api/stats", nil, nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/stats/recent?limit=abc", nil, nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestRecentRejectsBadLimit(t *testing.T) {
	env := newTestEnv(t, testConfig())
	if rec := env.do(t, http.MethodGet, "/api/stats/recent?limit=-2", nil, nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestNotFoundIsJSON(t *testing.T) {
	env := newTestEnv(t, testConfig())
	rec := env.do(t, http.MethodGet, "/nope", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	if e := decode[errorRes](t, rec); !strings.Contains(e.Error, "/nope") {
		t.Fatalf("error = %q", e.Error)
	}
}

func TestAdminNotMountedWithoutHash(t *testing.T) {
	env := newTestEnv(t, testConfig())
	rec := env.do(t, http.MethodPost, "/api/admin/login", adminLoginReq{Username: "admin", Password: "x"}, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAdminFlow(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.AdminPasswordHash = string(hash)
	env := newTestEnv(t, cfg)
	ctx := context.Background()

	if rec := env.do(t, http.MethodGet, "/api/admin/sessions", nil, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/admin/sessions", nil, map[string]string{"Authorization": "Bearer junk"}); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/admin/login", adminLoginReq{Username: "admin", Password: "wrong"}, nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d", rec.Code)
	}

	rec := env.do(t, http.MethodPost, "/api/admin/login", adminLoginReq{Username: "admin", Password: "hunter22"}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d: %s", rec.Code, rec.Body.String())
	}
	login := decode[adminLoginRes](t, rec)
	auth := map[string]string{"Authorization": "Bearer " + login.Token}

	p := decode[puzzle.Enhanced](t, env.do(t, http.MethodGet, "/api/puzzle/enhanced", nil, nil))

	count := decode[map[string]int](t, env.do(t, http.MethodGet, "/api/admin/sessions", nil, auth))
	if count["count"] != 1 {
		t.Fatalf("count = %v", count)
	}
	exists := decode[map[string]bool](t, env.do(t, http.MethodGet, "/api/admin/sessions/"+p.Meta.PuzzleID, nil, auth))
	if !exists["exists"] {
		t.Fatal("session should exist")
	}
	removed := decode[map[string]int](t, env.do(t, http.MethodPost, "/api/admin/sessions/cleanup", nil, auth))
	if removed["removed"] != 0 {
		t.Fatalf("fresh session removed: %v", removed)
	}
	cleared := decode[map[string]int](t, env.do(t, http.MethodDelete, "/api/admin/sessions", nil, auth))
	if cleared["cleared"] != 1 || env.store.Count(ctx) != 0 {
		t.Fatalf("cleared = %v, count = %d", cleared, env.store.Count(ctx))
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 2
	env := newTestEnv(t, cfg)
	for i := 0; i < 2; i++ {
		if rec := env.do(t, http.MethodGet, "/api/puzzle", nil, nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := env.do(t, http.MethodGet, "/api/puzzle", nil, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	// health is outside /api and never limited
	if rec := env.do(t, http.MethodGet, "/health", nil, nil); rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}
}

func TestLimiterDropsIdleClients(t *testing.T) {
	l := newIPLimiter(10, 10)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	l.allow("1.1.1.1")
	l.allow("2.2.2.2")
	now = now.Add(limiterIdleTTL + 2*time.Minute)
	l.allow("3.3.3.3")
	if l.size() != 1 {
		t.Fatalf("limiter kept %d clients, want 1", l.size())
	}
}
