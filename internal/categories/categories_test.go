package categories

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sampleGroups() []Group {
	return []Group{
		{Theme: "Colors", Words: []string{"Red", "Blue", "Green", "Yellow"}, Difficulty: Yellow},
		{Theme: "Genres", Words: []string{"Action", "Drama", "Horror", "Comedy"}, Difficulty: Green},
		{Theme: "Fruits", Words: []string{"Apple", "Banana", "Grape", "Mango"}, Difficulty: Blue},
		{Theme: "Emotions", Words: []string{"Happy", "Sad", "Angry", "Calm"}, Difficulty: Purple},
	}
}

func TestValidateAcceptsWellFormedDataset(t *testing.T) {
	if err := Validate(sampleGroups(), DefaultLimits()); err != nil {
		t.Fatalf("expected valid dataset, got %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func([]Group) []Group
		want   string
	}{
		{"too few groups", func(g []Group) []Group { return g[:3] }, "minimum 4 groups required"},
		{"empty dataset", func(g []Group) []Group { return nil }, "minimum 4 groups required"},
		{"three words", func(g []Group) []Group { g[0].Words = g[0].Words[:3]; return g }, "exactly 4 words"},
		{"five words", func(g []Group) []Group { g[1].Words = append(g[1].Words, "Thriller"); return g }, "exactly 4 words"},
		{"empty theme", func(g []Group) []Group { g[2].Theme = ""; return g }, "empty theme"},
		{"long theme", func(g []Group) []Group { g[2].Theme = strings.Repeat("x", 51); return g }, "longer than 50"},
		{"long word", func(g []Group) []Group { g[2].Words[0] = strings.Repeat("y", 51); return g }, "longer than 50"},
		{"empty word", func(g []Group) []Group { g[3].Words[1] = "  "; return g }, "empty word"},
		{"duplicate word across groups", func(g []Group) []Group { g[3].Words[0] = "red"; return g }, "appears in groups"},
		{"duplicate word within group", func(g []Group) []Group { g[1].Words[3] = "ACTION"; return g }, "appears in groups"},
		{"duplicate theme", func(g []Group) []Group { g[1].Theme = "colors"; return g }, "used by groups"},
		{"unknown difficulty", func(g []Group) []Group { g[0].Difficulty = "orange"; return g }, "unknown difficulty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.mutate(sampleGroups()), DefaultLimits())
			if err == nil {
				t.Fatal("expected an error")
			}
			if !errors.Is(err, ErrInvalidDataset) {
				t.Fatalf("error %v does not wrap ErrInvalidDataset", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q should mention %q", err, tc.want)
			}
		})
	}
}

func TestEmbeddedDatasetIsValid(t *testing.T) {
	groups, err := LoadValidated("", DefaultLimits())
	if err != nil {
		t.Fatalf("embedded dataset invalid: %v", err)
	}
	if len(groups) < 4 {
		t.Fatalf("expected at least 4 groups, got %d", len(groups))
	}
}

func TestParseNormalisesDifficulty(t *testing.T) {
	raw := []byte(`[{"theme":" Colors ","words":["Red","Blue","Green","Yellow"],"difficulty":"YELLOW"}]`)
	groups, err := Parse(raw, FormatJSON)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if groups[0].Difficulty != Yellow {
		t.Fatalf("difficulty = %q, want %q", groups[0].Difficulty, Yellow)
	}
	if groups[0].Theme != "Colors" {
		t.Fatalf("theme = %q, want trimmed", groups[0].Theme)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	doc := `
- theme: Colors
  words: [Red, Blue, Green, Yellow]
  difficulty: Yellow
- theme: Genres
  words: [Action, Drama, Horror, Comedy]
  difficulty: green
- theme: Fruits
  words: [Apple, Banana, Grape, Mango]
  difficulty: blue
- theme: Emotions
  words: [Happy, Sad, Angry, Calm]
  difficulty: PURPLE
`
	path := filepath.Join(t.TempDir(), "groups.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	groups, err := LoadValidated(path, DefaultLimits())
	if err != nil {
		t.Fatalf("load yaml: %v", err)
	}
	if len(groups) != 4 || groups[3].Difficulty != Purple {
		t.Fatalf("unexpected groups: %+v", groups)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestDifficultyRank(t *testing.T) {
	for i, d := range []Difficulty{Yellow, Green, Blue, Purple} {
		if d.Rank() != i {
			t.Errorf("%s rank = %d, want %d", d, d.Rank(), i)
		}
	}
	if Difficulty("orange").Valid() {
		t.Error("orange should not be valid")
	}
}

func TestCloneIsDeep(t *testing.T) {
	g := sampleGroups()[0]
	c := g.Clone()
	c.Words[0] = "Crimson"
	if g.Words[0] != "Red" {
		t.Fatal("clone shares the words slice")
	}
}
