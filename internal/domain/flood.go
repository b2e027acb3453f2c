package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// Category is a flood-severity classification of a water level.
type Category int

const (
	NoFlood Category = iota
	Minor
	Moderate
	Major
)

func (c Category) String() string {
	switch c {
	case Major:
		return "Major"
	case Moderate:
		return "Moderate"
	case Minor:
		return "Minor"
	default:
		return "No flood"
	}
}

// MarshalJSON emits the display label so API responses and the pre-baked
// datasets share one vocabulary.
func (c Category) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts the display labels used by the static datasets.
func (c *Category) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCategory(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory maps a display label back to a Category, case-insensitively.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "major":
		return Major, nil
	case "moderate":
		return Moderate, nil
	case "minor":
		return Minor, nil
	case "no flood", "none":
		return NoFlood, nil
	default:
		return NoFlood, fmt.Errorf("unknown flood category %q", s)
	}
}

// Thresholds are the three ascending flood-stage cutoffs in feet NAVD88.
type Thresholds struct {
	Minor    float64 `json:"minor"`
	Moderate float64 `json:"moderate"`
	Major    float64 `json:"major"`
}

// Validate rejects thresholds that are not strictly ascending.
func (t Thresholds) Validate() error {
	if !(t.Minor < t.Moderate && t.Moderate < t.Major) {
		return fmt.Errorf("thresholds must be strictly ascending: minor=%g moderate=%g major=%g",
			t.Minor, t.Moderate, t.Major)
	}
	return nil
}

// Classify maps a water level to its flood category. It is total: NaN and
// ±Inf (the in-band encodings of an absent reading) classify as NoFlood.
func (t Thresholds) Classify(feet float64) Category {
	if math.IsNaN(feet) || math.IsInf(feet, 0) {
		return NoFlood
	}
	switch {
	case feet >= t.Major:
		return Major
	case feet >= t.Moderate:
		return Moderate
	case feet >= t.Minor:
		return Minor
	default:
		return NoFlood
	}
}

// ClassifyReading classifies an optional reading; a nil reading is "No flood".
func (t Thresholds) ClassifyReading(feet *float64) Category {
	if feet == nil {
		return NoFlood
	}
	return t.Classify(*feet)
}

// Point is a single water-level reading or prediction at an instant, in feet.
type Point struct {
	Time time.Time `json:"t"`
	Feet float64   `json:"ft"`
}

// FloodEvent is a historical high/low reading classified against the
// site thresholds. Time is the assigned instant used for ordering; the
// static fallback dataset carries only the display string.
type FloodEvent struct {
	Datetime string   `json:"datetime"`
	Peak     float64  `json:"peak"`
	Type     Category `json:"type"`

	Time time.Time `json:"-"`
}

// Alert describes one active coastal-flood alert for the site.
type Alert struct {
	Title    string `json:"title"`
	Headline string `json:"headline"`
	URL      string `json:"url"`
}
