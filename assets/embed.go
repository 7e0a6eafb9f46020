package assets

import (
	"embed"
)

//go:embed puzzles.json
var FS embed.FS

// DefaultDatasetName is the embedded category dataset used when no
// PUZZLE_DATA_FILE is configured.
const DefaultDatasetName = "puzzles.json"

func DefaultDataset() ([]byte, error) {
	return FS.ReadFile(DefaultDatasetName)
}
