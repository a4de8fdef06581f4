package prices

import (
	"sort"
	"time"
)

// Point is one dated closing price
type Point struct {
	Date  time.Time
	Close float64
}

// Series is a date-sorted closing price series with tolerance-bounded
// nearest lookup. Fundamentals period ends routinely land on weekends and
// holidays, so exact-date lookups would miss most of the time.
type Series struct {
	points []Point
	source string
}

// NewSeries builds a series from unordered points. Duplicate dates keep the
// last point given. The source tag names the vendor that produced the data.
func NewSeries(points []Point, source string) *Series {
	byDate := make(map[time.Time]Point, len(points))
	for _, p := range points {
		byDate[p.Date] = p
	}

	deduped := make([]Point, 0, len(byDate))
	for _, p := range byDate {
		deduped = append(deduped, p)
	}
	sort.Slice(deduped, func(i, j int) bool { return deduped[i].Date.Before(deduped[j].Date) })

	return &Series{points: deduped, source: source}
}

// Source returns the vendor tag
func (s *Series) Source() string {
	return s.source
}

// Len returns the number of points
func (s *Series) Len() int {
	return len(s.points)
}

// Nearest returns the close nearest to target within toleranceDays.
// The most recent trading day on or before target is preferred even when a
// later day is strictly closer; the side after target is only consulted when
// nothing usable precedes it.
func (s *Series) Nearest(target time.Time, toleranceDays int) (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	tolerance := time.Duration(toleranceDays) * 24 * time.Hour

	// First index strictly after target
	idx := sort.Search(len(s.points), func(i int) bool {
		return s.points[i].Date.After(target)
	})

	if idx > 0 {
		p := s.points[idx-1]
		if target.Sub(p.Date) <= tolerance {
			return p, true
		}
	}
	if idx < len(s.points) {
		p := s.points[idx]
		if p.Date.Sub(target) <= tolerance {
			return p, true
		}
	}
	return Point{}, false
}

// Latest returns the most recent point
func (s *Series) Latest() (Point, bool) {
	if len(s.points) == 0 {
		return Point{}, false
	}
	return s.points[len(s.points)-1], true
}
