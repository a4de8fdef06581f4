package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockmetrics/backend/internal/fundamentals"
	"github.com/wonny/stockmetrics/backend/internal/prices"
	"github.com/wonny/stockmetrics/backend/pkg/config"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testFetcherConfig() config.FetcherConfig {
	return config.FetcherConfig{
		Workers:            1,
		MaxQuarters:        12,
		LookbackYears:      3,
		LookbackGraceDays:  7,
		PriceToleranceDays: 5,
		MatchToleranceDays: 10,
	}
}

// quarterSeries builds a series with consecutive calendar quarter ends
// starting at Q1 of year
func quarterSeries(year int, values ...float64) fundamentals.QuarterSeries {
	quarterEnds := []struct {
		m time.Month
		d int
	}{{3, 31}, {6, 30}, {9, 30}, {12, 31}}

	s := make(fundamentals.QuarterSeries)
	y, q := year, 0
	for _, v := range values {
		s[fundamentals.QuarterKey{Year: y, Quarter: q + 1}] = fundamentals.QuarterValue{
			End:   day(y, quarterEnds[q].m, quarterEnds[q].d),
			Value: v,
		}
		q++
		if q == 4 {
			q, y = 0, y+1
		}
	}
	return s
}

func instantSeries(entries map[string]float64) *fundamentals.InstantSeries {
	var facts []fundamentals.Fact
	for dateStr, v := range entries {
		end, _ := time.Parse("2006-01-02", dateStr)
		facts = append(facts, fundamentals.Fact{Value: v, End: end, Form: "10-Q"})
	}
	return fundamentals.BuildInstantSeries(facts)
}

func TestComposeFullQuarter(t *testing.T) {
	in := ComposeInput{
		Ticker:          "AAPL",
		Revenue:         quarterSeries(2023, 100),
		OperatingIncome: quarterSeries(2023, 30),
		EPS:             quarterSeries(2023, 1.5),
		Equity:          instantSeries(map[string]float64{"2023-03-31": 5000}),
		Shares:          instantSeries(map[string]float64{"2023-03-31": 1000}),
		Prices: prices.NewSeries([]prices.Point{
			{Date: day(2023, 3, 30), Close: 150},
		}, prices.SourceStooqDaily),
	}

	rows := NewComposer(testFetcherConfig()).Compose(in, day(2023, 8, 1))

	require.Len(t, rows, 1)
	row := rows[0]
	assert.Equal(t, "AAPL", row.Ticker)
	assert.Equal(t, day(2023, 3, 31), row.PeriodEnd)
	assert.Equal(t, 100.0, row.Revenue)
	assert.Equal(t, 30.0, row.OperatingIncome)
	assert.Equal(t, 1.5, row.EPS)
	assert.Equal(t, 150.0, row.Price)
	assert.Equal(t, prices.SourceStooqDaily, row.PriceSource)
	assert.InDelta(t, 100.0, row.PER, 1e-9)
	assert.InDelta(t, 30.0, row.PBR, 1e-9)
}

func TestComposeNewestFirstAndCap(t *testing.T) {
	// 16 quarters of revenue: only the newest 12 within lookback survive
	in := ComposeInput{
		Ticker: "AAPL",
		Revenue: quarterSeries(2020,
			1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16),
	}

	rows := NewComposer(testFetcherConfig()).Compose(in, day(2023, 12, 31))

	require.Len(t, rows, 12)
	assert.Equal(t, day(2023, 12, 31), rows[0].PeriodEnd)
	for i := 1; i < len(rows); i++ {
		assert.True(t, rows[i].PeriodEnd.Before(rows[i-1].PeriodEnd), "rows must be newest first")
	}
	// 2020 quarters fall outside the three-year lookback even before the cap
	assert.True(t, rows[len(rows)-1].PeriodEnd.After(day(2020, 12, 31)))
}

func TestComposeLookbackCutoffGrace(t *testing.T) {
	// A period end exactly at cutoff minus grace is kept; one day older
	// is dropped.
	asOf := day(2023, 6, 30)
	in := ComposeInput{
		Ticker: "AAPL",
		Revenue: fundamentals.QuarterSeries{
			{Year: 2020, Quarter: 2}: {End: day(2020, 6, 23), Value: 1},
			{Year: 2020, Quarter: 1}: {End: day(2020, 6, 22), Value: 2},
		},
	}

	rows := NewComposer(testFetcherConfig()).Compose(in, asOf)

	require.Len(t, rows, 1)
	assert.Equal(t, day(2020, 6, 23), rows[0].PeriodEnd)
}

func TestComposeNearbyEndsCollapse(t *testing.T) {
	// Revenue ends 2023-06-30, EPS ends 2023-07-01: one row, both filled
	in := ComposeInput{
		Ticker: "AAPL",
		Revenue: fundamentals.QuarterSeries{
			{Year: 2023, Quarter: 2}: {End: day(2023, 6, 30), Value: 100},
		},
		EPS: fundamentals.QuarterSeries{
			{Year: 2023, Quarter: 2}: {End: day(2023, 7, 1), Value: 1.5},
		},
	}

	rows := NewComposer(testFetcherConfig()).Compose(in, day(2023, 9, 1))

	require.Len(t, rows, 1)
	assert.Equal(t, 100.0, rows[0].Revenue)
	assert.Equal(t, 1.5, rows[0].EPS)
}

func TestComposeEPSDerivation(t *testing.T) {
	in := ComposeInput{
		Ticker:         "AAPL",
		Revenue:        quarterSeries(2023, 100),
		NetIncome:      quarterSeries(2023, 300),
		WeightedShares: quarterSeries(2023, 200),
	}

	rows := NewComposer(testFetcherConfig()).Compose(in, day(2023, 8, 1))

	require.Len(t, rows, 1)
	assert.InDelta(t, 1.5, rows[0].EPS, 1e-9)
}

func TestComposeEPSDerivationGuardsZeroShares(t *testing.T) {
	in := ComposeInput{
		Ticker:         "AAPL",
		Revenue:        quarterSeries(2023, 100),
		NetIncome:      quarterSeries(2023, 300),
		WeightedShares: quarterSeries(2023, 0),
	}

	rows := NewComposer(testFetcherConfig()).Compose(in, day(2023, 8, 1))

	require.Len(t, rows, 1)
	assert.True(t, IsMissing(rows[0].EPS))
}

func TestComposeRatioGuards(t *testing.T) {
	tests := []struct {
		name   string
		eps    float64
		equity float64
		shares float64
	}{
		{"zero eps", 0, 5000, 1000},
		{"zero equity", 1.5, 0, 1000},
		{"zero shares", 1.5, 5000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := ComposeInput{
				Ticker:  "AAPL",
				Revenue: quarterSeries(2023, 100),
				EPS:     quarterSeries(2023, tt.eps),
				Equity:  instantSeries(map[string]float64{"2023-03-31": tt.equity}),
				Shares:  instantSeries(map[string]float64{"2023-03-31": tt.shares}),
				Prices: prices.NewSeries([]prices.Point{
					{Date: day(2023, 3, 31), Close: 150},
				}, prices.SourceYahoo),
			}

			rows := NewComposer(testFetcherConfig()).Compose(in, day(2023, 8, 1))

			require.Len(t, rows, 1)
			if tt.eps == 0 {
				assert.True(t, IsMissing(rows[0].PER), "zero EPS must yield missing, not Inf")
			}
			if tt.equity == 0 || tt.shares == 0 {
				assert.True(t, IsMissing(rows[0].PBR), "zero denominator must yield missing, not Inf")
			}
		})
	}
}

func TestComposeNoFundamentalsNoRow(t *testing.T) {
	// Prices alone never produce a row
	in := ComposeInput{
		Ticker: "AAPL",
		Prices: prices.NewSeries([]prices.Point{
			{Date: day(2023, 3, 31), Close: 150},
		}, prices.SourceStooqDaily),
	}

	rows := NewComposer(testFetcherConfig()).Compose(in, day(2023, 8, 1))

	assert.Empty(t, rows)
}

func TestComposePriceOutsideTolerance(t *testing.T) {
	in := ComposeInput{
		Ticker:  "AAPL",
		Revenue: quarterSeries(2023, 100),
		Prices: prices.NewSeries([]prices.Point{
			{Date: day(2023, 3, 10), Close: 150},
		}, prices.SourceStooqDaily),
	}

	rows := NewComposer(testFetcherConfig()).Compose(in, day(2023, 8, 1))

	require.Len(t, rows, 1)
	assert.True(t, IsMissing(rows[0].Price))
	assert.Empty(t, rows[0].PriceSource)
	assert.True(t, IsMissing(rows[0].PER))
}

func TestComposeIdempotent(t *testing.T) {
	in := ComposeInput{
		Ticker:          "AAPL",
		Revenue:         quarterSeries(2022, 90, 95, 100, 105, 110, 115),
		OperatingIncome: quarterSeries(2022, 20, 22, 24, 26, 28, 30),
		EPS:             quarterSeries(2022, 1.0, 1.1, 1.2, 1.3, 1.4, 1.5),
	}
	composer := NewComposer(testFetcherConfig())
	asOf := day(2023, 8, 1)

	first := composer.Compose(in, asOf)
	second := composer.Compose(in, asOf)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, fmt.Sprintf("%+v", first[i]), fmt.Sprintf("%+v", second[i]))
	}
}
