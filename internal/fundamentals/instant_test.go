package fundamentals

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instantFact(value float64, end string, form string) Fact {
	endDate, _ := timeParse(end)
	return Fact{Value: value, End: endDate, Form: form}
}

func TestBuildInstantSeriesFiltersForms(t *testing.T) {
	facts := []Fact{
		instantFact(1000, "2023-03-31", "10-Q"),
		instantFact(2000, "2023-06-30", "8-K"),
		instantFact(3000, "2023-09-30", "10-K/A"),
	}

	s := BuildInstantSeries(facts)

	assert.Equal(t, 2, s.Len())
	_, ok := s.AsOf(date(2023, 6, 30))
	require.True(t, ok)
	v, _ := s.AsOf(date(2023, 6, 30))
	assert.Equal(t, 1000.0, v, "8-K entry must not be indexed")
}

func TestInstantSeriesAsOfFloor(t *testing.T) {
	s := BuildInstantSeries([]Fact{
		instantFact(100, "2023-03-31", "10-Q"),
		instantFact(200, "2023-06-30", "10-Q"),
		instantFact(300, "2023-09-30", "10-Q"),
	})

	tests := []struct {
		name   string
		target string
		want   float64
		ok     bool
	}{
		{"before first entry", "2023-01-15", 0, false},
		{"exact match", "2023-06-30", 200, true},
		{"between entries", "2023-08-10", 200, true},
		{"after last entry", "2024-01-01", 300, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := timeParse(tt.target)
			require.NoError(t, err)

			v, ok := s.AsOf(target)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, v)
			}
		})
	}
}

func TestInstantSeriesDuplicateEndLatestFilingWins(t *testing.T) {
	original := instantFact(100, "2023-03-31", "10-Q")
	original.Filed = date(2023, 5, 1)
	restated := instantFact(120, "2023-03-31", "10-Q/A")
	restated.Filed = date(2023, 7, 1)

	s := BuildInstantSeries([]Fact{original, restated})

	require.Equal(t, 1, s.Len())
	v, ok := s.AsOf(date(2023, 4, 1))
	require.True(t, ok)
	assert.Equal(t, 120.0, v)
}

func TestInstantSeriesLatest(t *testing.T) {
	s := BuildInstantSeries(nil)
	_, _, ok := s.Latest()
	assert.False(t, ok)

	s = BuildInstantSeries([]Fact{
		instantFact(100, "2023-03-31", "10-Q"),
		instantFact(200, "2023-06-30", "10-Q"),
	})
	end, v, ok := s.Latest()
	require.True(t, ok)
	assert.Equal(t, date(2023, 6, 30), end)
	assert.Equal(t, 200.0, v)
}
