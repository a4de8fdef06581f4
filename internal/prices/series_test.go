package prices

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNearestPrefersFloorSide(t *testing.T) {
	// A close 3 days before the target and one 2 days after: the earlier
	// one wins even though the later one is strictly closer.
	s := NewSeries([]Point{
		{Date: day(2023, 6, 27), Close: 100},
		{Date: day(2023, 7, 2), Close: 110},
	}, SourceStooqDaily)

	p, ok := s.Nearest(day(2023, 6, 30), 5)

	require.True(t, ok)
	assert.Equal(t, 100.0, p.Close)
}

func TestNearest(t *testing.T) {
	s := NewSeries([]Point{
		{Date: day(2023, 6, 1), Close: 90},
		{Date: day(2023, 6, 15), Close: 95},
		{Date: day(2023, 6, 30), Close: 100},
	}, SourceStooqDaily)

	tests := []struct {
		name      string
		target    time.Time
		tolerance int
		want      float64
		ok        bool
	}{
		{"exact date", day(2023, 6, 15), 5, 95, true},
		{"weekend rolls back", day(2023, 6, 17), 5, 95, true},
		{"floor out of tolerance, ceiling in", day(2023, 6, 27), 3, 100, true},
		{"both sides out of tolerance", day(2023, 6, 22), 2, 0, false},
		{"before first point within tolerance", day(2023, 5, 30), 5, 90, true},
		{"before first point out of tolerance", day(2023, 5, 1), 5, 0, false},
		{"after last point within tolerance", day(2023, 7, 3), 5, 100, true},
		{"after last point out of tolerance", day(2023, 8, 1), 5, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := s.Nearest(tt.target, tt.tolerance)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, p.Close)
			}
		})
	}
}

func TestNearestEmptySeries(t *testing.T) {
	s := NewSeries(nil, SourceYahoo)
	_, ok := s.Nearest(day(2023, 6, 30), 5)
	assert.False(t, ok)
}

func TestNewSeriesSortsAndDedups(t *testing.T) {
	s := NewSeries([]Point{
		{Date: day(2023, 6, 30), Close: 100},
		{Date: day(2023, 6, 1), Close: 90},
		{Date: day(2023, 6, 30), Close: 101},
	}, SourceStooqWeekly)

	assert.Equal(t, 2, s.Len())
	p, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, day(2023, 6, 30), p.Date)
	assert.Equal(t, 101.0, p.Close, "last point wins on duplicate dates")
	assert.Equal(t, SourceStooqWeekly, s.Source())
}
