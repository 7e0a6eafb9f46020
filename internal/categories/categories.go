// internal/categories/categories.go
//
// Static category dataset for the puzzle generator.
//
// Responsibilities:
//   - Load groups from PUZZLE_DATA_FILE (JSON, or YAML by extension) or fall back
//     to the embedded default dataset.
//   - Normalise difficulty labels to lowercase.
//   - Validate the dataset once; an invalid dataset is a startup failure.
//
// Rules enforced by Validate:
//   • at least RequiredGroups groups
//   • exactly WordsPerGroup words per group, each non-empty and ≤ MaxWordLength
//   • theme non-empty and ≤ MaxThemeLength, unique case-insensitively
//   • no word appears twice in the whole dataset (case-insensitive)
//   • difficulty is yellow, green, blue or purple
package categories

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/wordconnections/backend/assets"
)

// ErrInvalidDataset is wrapped by every validation failure.
var ErrInvalidDataset = errors.New("invalid category dataset")

// Difficulty is the colour band of a group, ordered yellow < green < blue < purple.
type Difficulty string

const (
	Yellow Difficulty = "yellow"
	Green  Difficulty = "green"
	Blue   Difficulty = "blue"
	Purple Difficulty = "purple"
)

// Difficulties lists the canonical order.
var Difficulties = []Difficulty{Yellow, Green, Blue, Purple}

// Rank returns the canonical position of d, or -1 if d is unknown.
func (d Difficulty) Rank() int {
	for i, x := range Difficulties {
		if x == d {
			return i
		}
	}
	return -1
}

// Valid reports whether d is one of the four known difficulties.
func (d Difficulty) Valid() bool { return d.Rank() >= 0 }

// Group is one themed set of words.
type Group struct {
	Theme      string     `json:"theme" yaml:"theme"`
	Words      []string   `json:"words" yaml:"words"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`
}

// Clone returns a deep copy so callers cannot mutate the dataset.
func (g Group) Clone() Group {
	g.Words = append([]string(nil), g.Words...)
	return g
}

// Limits bounds the dataset shape.
type Limits struct {
	RequiredGroups int
	WordsPerGroup  int
	MaxThemeLength int
	MaxWordLength  int
}

// DefaultLimits mirrors the production puzzle configuration.
func DefaultLimits() Limits {
	return Limits{RequiredGroups: 4, WordsPerGroup: 4, MaxThemeLength: 50, MaxWordLength: 50}
}

// Load reads the dataset from path, or the embedded default when path is empty.
// The result is normalised but not validated.
func Load(path string) ([]Group, error) {
	var (
		raw []byte
		err error
	)
	if path == "" {
		raw, err = assets.DefaultDataset()
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return Parse(raw, formatFor(path))
}

// Format selects the dataset decoder.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes and normalises raw dataset bytes.
func Parse(raw []byte, f Format) ([]Group, error) {
	var groups []Group
	var err error
	if f == FormatYAML {
		err = yaml.Unmarshal(raw, &groups)
	} else {
		err = json.Unmarshal(raw, &groups)
	}
	if err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	for i := range groups {
		groups[i].Theme = strings.TrimSpace(groups[i].Theme)
		groups[i].Difficulty = Difficulty(strings.ToLower(strings.TrimSpace(string(groups[i].Difficulty))))
	}
	return groups, nil
}

// Validate checks the whole dataset against lim.
func Validate(groups []Group, lim Limits) error {
	if len(groups) < lim.RequiredGroups {
		return fmt.Errorf("%w: minimum %d groups required, got %d", ErrInvalidDataset, lim.RequiredGroups, len(groups))
	}
	themes := make(map[string]int, len(groups))
	words := make(map[string]int, len(groups)*lim.WordsPerGroup)
	for i, g := range groups {
		if g.Theme == "" {
			return fmt.Errorf("%w: group %d has an empty theme", ErrInvalidDataset, i)
		}
		if utf8.RuneCountInString(g.Theme) > lim.MaxThemeLength {
			return fmt.Errorf("%w: group %d theme %q longer than %d", ErrInvalidDataset, i, g.Theme, lim.MaxThemeLength)
		}
		key := strings.ToLower(g.Theme)
		if prev, dup := themes[key]; dup {
			return fmt.Errorf("%w: theme %q used by groups %d and %d", ErrInvalidDataset, g.Theme, prev, i)
		}
		themes[key] = i

		if !g.Difficulty.Valid() {
			return fmt.Errorf("%w: group %q has unknown difficulty %q", ErrInvalidDataset, g.Theme, g.Difficulty)
		}
		if len(g.Words) != lim.WordsPerGroup {
			return fmt.Errorf("%w: group %q must have exactly %d words, got %d", ErrInvalidDataset, g.Theme, lim.WordsPerGroup, len(g.Words))
		}
		for _, w := range g.Words {
			if strings.TrimSpace(w) == "" {
				return fmt.Errorf("%w: group %q contains an empty word", ErrInvalidDataset, g.Theme)
			}
			if utf8.RuneCountInString(w) > lim.MaxWordLength {
				return fmt.Errorf("%w: word %q in group %q longer than %d", ErrInvalidDataset, w, g.Theme, lim.MaxWordLength)
			}
			wk := strings.ToLower(w)
			if prev, dup := words[wk]; dup {
				return fmt.Errorf("%w: word %q appears in groups %q and %q", ErrInvalidDataset, w, groups[prev].Theme, g.Theme)
			}
			words[wk] = i
		}
	}
	return nil
}

// LoadValidated is Load followed by Validate.
func LoadValidated(path string, lim Limits) ([]Group, error) {
	groups, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := Validate(groups, lim); err != nil {
		return nil, err
	}
	return groups, nil
}
