// internal/puzzle/puzzle.go
//
// Puzzle generation: picks REQUIRED_GROUPS groups from the dataset and lays
// their words out in a shuffled 4x4 grid.
//
// Both shuffles (group selection and word order) use the same seed, each with
// a fresh generator, so a seed fully determines the words, categories,
// groups, solution and difficulty order. The puzzle ID and timestamp are not
// derived from the seed.
package puzzle

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/wordconnections/backend/internal/categories"
	"github.com/wordconnections/backend/internal/shuffle"
)

// Meta carries request-independent puzzle metadata.
type Meta struct {
	Seed        *int64    `json:"seed,omitempty"`
	GeneratedAt time.Time `json:"generatedAt"`
	TotalGroups int       `json:"totalGroups"`
	PuzzleID    string    `json:"puzzleId"`
}

// Puzzle is the basic payload for GET /api/puzzle.
type Puzzle struct {
	Words      []string `json:"puzzleWords"`
	Categories []string `json:"categories"`
	Meta       Meta     `json:"meta"`
}

// Enhanced adds the solution so clients (and the session store) can check guesses.
type Enhanced struct {
	Puzzle
	Solution        map[string][]string     `json:"solution"`
	WordToCategory  map[string]string       `json:"wordToCategory"`
	Groups          []categories.Group      `json:"groups"`
	DifficultyOrder []categories.Difficulty `json:"difficultyOrder"`
}

// ID returns the puzzle identifier.
func (e *Enhanced) ID() string { return e.Meta.PuzzleID }

// Config sizes a puzzle.
type Config struct {
	RequiredGroups int
	Limits         categories.Limits
}

// DefaultConfig returns the standard 4 groups x 4 words layout.
func DefaultConfig() Config {
	lim := categories.DefaultLimits()
	return Config{RequiredGroups: lim.RequiredGroups, Limits: lim}
}

// Generator owns the immutable dataset.
type Generator struct {
	groups []categories.Group
	cfg    Config
	now    func() time.Time
	newID  func() string
}

// New validates groups once and returns a generator over a private copy.
func New(groups []categories.Group, cfg Config) (*Generator, error) {
	lim := cfg.Limits
	if cfg.RequiredGroups > lim.RequiredGroups {
		lim.RequiredGroups = cfg.RequiredGroups
	}
	if err := categories.Validate(groups, lim); err != nil {
		return nil, err
	}
	own := make([]categories.Group, len(groups))
	for i, g := range groups {
		own[i] = g.Clone()
	}
	return &Generator{
		groups: own,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}, nil
}

// TotalGroups is the dataset size.
func (g *Generator) TotalGroups() int { return len(g.groups) }

// Generate builds a basic puzzle.
func (g *Generator) Generate(seed shuffle.Seed) Puzzle {
	selected := g.selectGroups(seed)
	return Puzzle{
		Words:      g.shuffleWords(selected, seed),
		Categories: themes(selected),
		Meta:       g.meta(seed),
	}
}

// GenerateEnhanced builds a puzzle with its solution.
func (g *Generator) GenerateEnhanced(seed shuffle.Seed) *Enhanced {
	selected := g.selectGroups(seed)
	words := g.shuffleWords(selected, seed)

	solution := make(map[string][]string, len(selected))
	wordToCategory := make(map[string]string, len(selected)*g.cfg.Limits.WordsPerGroup)
	for _, grp := range selected {
		solution[grp.Theme] = append([]string(nil), grp.Words...)
		for _, w := range grp.Words {
			wordToCategory[w] = grp.Theme
		}
	}

	return &Enhanced{
		Puzzle: Puzzle{
			Words:      words,
			Categories: themes(selected),
			Meta:       g.meta(seed),
		},
		Solution:        solution,
		WordToCategory:  wordToCategory,
		Groups:          selected,
		DifficultyOrder: difficultyOrder(selected),
	}
}

// selectGroups shuffles the dataset and keeps the first RequiredGroups, cloned.
func (g *Generator) selectGroups(seed shuffle.Seed) []categories.Group {
	shuffled := shuffle.Shuffle(g.groups, seed)
	out := make([]categories.Group, g.cfg.RequiredGroups)
	for i := range out {
		out[i] = shuffled[i].Clone()
	}
	return out
}

// shuffleWords flattens in canonical group order, then shuffles with the same seed.
func (g *Generator) shuffleWords(groups []categories.Group, seed shuffle.Seed) []string {
	all := make([]string, 0, len(groups)*g.cfg.Limits.WordsPerGroup)
	for _, grp := range groups {
		all = append(all, grp.Words...)
	}
	return shuffle.Shuffle(all, seed)
}

func (g *Generator) meta(seed shuffle.Seed) Meta {
	return Meta{
		Seed:        seed.Ptr(),
		GeneratedAt: g.now(),
		TotalGroups: len(g.groups),
		PuzzleID:    g.newID(),
	}
}

func themes(groups []categories.Group) []string {
	out := make([]string, len(groups))
	for i, grp := range groups {
		out[i] = grp.Theme
	}
	return out
}

// difficultyOrder returns the distinct difficulties in canonical order.
func difficultyOrder(groups []categories.Group) []categories.Difficulty {
	seen := make(map[categories.Difficulty]struct{}, len(groups))
	out := make([]categories.Difficulty, 0, len(groups))
	for _, grp := range groups {
		if _, ok := seen[grp.Difficulty]; ok {
			continue
		}
		seen[grp.Difficulty] = struct{}{}
		out = append(out, grp.Difficulty)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rank() < out[j].Rank() })
	return out
}
