// Package staticdata loads the pre-baked same-origin JSON datasets served
// alongside the dashboard.
package staticdata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hondrospj/bivalve-flood-dashboard/internal/domain"
)

const (
	annualCountsFile   = "annual_counts.json"
	topEventsFile      = "top_ten_events.json"
	fallbackEventsFile = "fallback_events.json"
)

// AnnualCount is one row of the flood-days-per-year table.
type AnnualCount struct {
	Year     int `json:"year"`
	Minor    int `json:"minor"`
	Moderate int `json:"moderate"`
	Major    int `json:"major"`
}

// TopEvent is one row of the highest-crests-on-record table.
type TopEvent struct {
	Rank int             `json:"rank"`
	Date string          `json:"date"`
	Peak float64         `json:"peak"`
	Type domain.Category `json:"type"`
}

// Loader reads the static datasets from a data directory.
type Loader struct {
	dir string
}

// NewLoader creates a Loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// AnnualCounts loads the annual flood-day counts table.
func (l *Loader) AnnualCounts() ([]AnnualCount, error) {
	return loadJSON[AnnualCount](filepath.Join(l.dir, annualCountsFile))
}

// TopTen loads the top-ten historical events table.
func (l *Loader) TopTen() ([]TopEvent, error) {
	return loadJSON[TopEvent](filepath.Join(l.dir, topEventsFile))
}

// FallbackEvents loads the pre-baked event list used when the live
// daily-stats export cannot be fetched or parsed. Its types are trusted as
// stored. A failure here propagates: there is no further fallback.
func (l *Loader) FallbackEvents() ([]domain.FloodEvent, error) {
	return loadJSON[domain.FloodEvent](filepath.Join(l.dir, fallbackEventsFile))
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return out, nil
}
