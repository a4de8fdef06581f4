package fundamentals

import (
	"sort"
	"time"
)

// InstantSeries is a date-sorted series for point-in-time concepts such as
// equity and shares outstanding. A balance-sheet figure stays valid until a
// later one supersedes it, so lookups are floor queries.
type InstantSeries struct {
	dates  []time.Time
	values map[time.Time]float64
}

// BuildInstantSeries builds a series from raw facts. Only facts from accepted
// report forms are used; for duplicate period ends the latest filing wins.
func BuildInstantSeries(facts []Fact) *InstantSeries {
	latest := make(map[time.Time]Fact)
	for _, f := range facts {
		if !f.AcceptedForm() || f.End.IsZero() {
			continue
		}
		if prev, ok := latest[f.End]; !ok || f.Filed.After(prev.Filed) {
			latest[f.End] = f
		}
	}

	s := &InstantSeries{
		dates:  make([]time.Time, 0, len(latest)),
		values: make(map[time.Time]float64, len(latest)),
	}
	for end, f := range latest {
		s.dates = append(s.dates, end)
		s.values[end] = f.Value
	}
	sort.Slice(s.dates, func(i, j int) bool { return s.dates[i].Before(s.dates[j]) })
	return s
}

// Len returns the number of entries
func (s *InstantSeries) Len() int {
	return len(s.dates)
}

// AsOf returns the value in effect as of target: the entry at the greatest
// indexed date on or before target. ok is false when no entry precedes it.
func (s *InstantSeries) AsOf(target time.Time) (float64, bool) {
	// First index strictly after target
	idx := sort.Search(len(s.dates), func(i int) bool {
		return s.dates[i].After(target)
	})
	if idx == 0 {
		return 0, false
	}
	return s.values[s.dates[idx-1]], true
}

// Latest returns the most recent entry
func (s *InstantSeries) Latest() (time.Time, float64, bool) {
	if len(s.dates) == 0 {
		return time.Time{}, 0, false
	}
	last := s.dates[len(s.dates)-1]
	return last, s.values[last], true
}
