package domain

import "time"

// DayRange is the min/max observed level over the local calendar day.
// Nil fields mean no observation fell inside the day.
type DayRange struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// TodayRange filters points to the current local calendar day
// (midnight-to-midnight in loc) and returns the min and max levels.
func TodayRange(points []Point, loc *time.Location) DayRange {
	now := clock.Now().In(loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)

	var r DayRange
	for _, p := range points {
		t := p.Time.In(loc)
		if t.Before(start) || !t.Before(end) {
			continue
		}
		v := p.Feet
		if r.Min == nil || v < *r.Min {
			r.Min = &v
		}
		if r.Max == nil || v > *r.Max {
			r.Max = &v
		}
	}
	return r
}

// RunningMax returns the point with the greatest level; the first occurrence
// wins on ties. ok is false for an empty sequence.
func RunningMax(points []Point) (Point, bool) {
	var best Point
	for i, p := range points {
		if i == 0 || p.Feet > best.Feet {
			best = p
		}
	}
	return best, len(points) > 0
}

// NearMatch is a past point whose level came within tolerance of a target,
// annotated with the timestamp of the most recent observation it was
// compared against.
type NearMatch struct {
	Point  Point     `json:"point"`
	Latest time.Time `json:"latest"`
}

// NearLastMatch answers "when did the level last come this close to its
// current value". It scans an oldest-to-newest sequence backward starting at
// the second-to-last point (the most recent point itself is excluded) and
// returns the first point within tolerance of target. Sequences shorter than
// 3 points never match.
func NearLastMatch(points []Point, target, tolerance float64) (NearMatch, bool) {
	if len(points) < 3 {
		return NearMatch{}, false
	}
	latest := points[len(points)-1].Time
	for i := len(points) - 2; i >= 0; i-- {
		d := points[i].Feet - target
		if d < 0 {
			d = -d
		}
		if d <= tolerance {
			return NearMatch{Point: points[i], Latest: latest}, true
		}
	}
	return NearMatch{}, false
}
