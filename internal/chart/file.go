package chart

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/lox/blackjackev/internal/fileutil"
)

const chartFileVersion = 1

// File is the on-disk form of a solved chart.
type File struct {
	Version     int       `json:"version"`
	GeneratedAt time.Time `json:"generated_at"`
	Chart       *Chart    `json:"chart"`
}

// Save writes the chart to path as JSON. The write is atomic.
func (c *Chart) Save(path string, generatedAt time.Time) error {
	if c == nil {
		return errors.New("nil chart")
	}
	if path == "" {
		return errors.New("destination path is required")
	}
	return fileutil.WriteJSONAtomic(path, File{
		Version:     chartFileVersion,
		GeneratedAt: generatedAt.UTC(),
		Chart:       c,
	}, 0o644)
}

// Load reads a chart written by Save and checks its rules are still valid.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var file File
	if err := json.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode chart: %w", err)
	}
	if file.Version != chartFileVersion {
		return nil, fmt.Errorf("unsupported chart version %d", file.Version)
	}
	if file.Chart == nil {
		return nil, errors.New("chart file has no chart")
	}
	if err := file.Chart.Rules.Validate(); err != nil {
		return nil, err
	}
	return &file, nil
}
