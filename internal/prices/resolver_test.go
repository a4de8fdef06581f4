package prices

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockmetrics/backend/internal/external/stockanalysis"
	"github.com/wonny/stockmetrics/backend/internal/external/stooq"
	"github.com/wonny/stockmetrics/backend/internal/external/yahoo"
	"github.com/wonny/stockmetrics/backend/pkg/config"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

type fakeStooq struct {
	byInterval map[stooq.Interval][]stooq.Bar
	errs       map[stooq.Interval]error
	calls      []stooq.Interval
}

func (f *fakeStooq) History(_ context.Context, _ string, interval stooq.Interval) ([]stooq.Bar, error) {
	f.calls = append(f.calls, interval)
	if err, ok := f.errs[interval]; ok {
		return nil, err
	}
	return f.byInterval[interval], nil
}

type fakeYahoo struct {
	quotes []yahoo.Quote
	err    error
	called bool
}

func (f *fakeYahoo) History(_ context.Context, _ string) ([]yahoo.Quote, error) {
	f.called = true
	return f.quotes, f.err
}

type fakeScrape struct {
	rows   []stockanalysis.Row
	err    error
	called bool
}

func (f *fakeScrape) History(_ context.Context, _ string) ([]stockanalysis.Row, error) {
	f.called = true
	return f.rows, f.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "console"})
}

func TestResolveDailyWins(t *testing.T) {
	st := &fakeStooq{byInterval: map[stooq.Interval][]stooq.Bar{
		stooq.IntervalDaily: {{Date: day(2023, 6, 30), Close: 100}},
	}}
	ya := &fakeYahoo{}
	sc := &fakeScrape{}
	r := NewResolver(st, ya, sc, testLogger(t))

	series, err := r.Resolve(context.Background(), "AAPL")

	require.NoError(t, err)
	assert.Equal(t, SourceStooqDaily, series.Source())
	assert.Equal(t, []stooq.Interval{stooq.IntervalDaily}, st.calls, "ladder must short-circuit")
	assert.False(t, ya.called)
	assert.False(t, sc.called)
}

func TestResolveWalksLadderOnEmptyAndError(t *testing.T) {
	st := &fakeStooq{
		byInterval: map[stooq.Interval][]stooq.Bar{
			stooq.IntervalMonthly: {{Date: day(2023, 6, 30), Close: 100}},
		},
		errs: map[stooq.Interval]error{
			stooq.IntervalWeekly: errors.New("HTTP 503"),
		},
	}
	r := NewResolver(st, &fakeYahoo{}, &fakeScrape{}, testLogger(t))

	series, err := r.Resolve(context.Background(), "AAPL")

	require.NoError(t, err)
	assert.Equal(t, SourceStooqMonthly, series.Source())
	assert.Equal(t, []stooq.Interval{
		stooq.IntervalDaily,
		stooq.IntervalWeekly,
		stooq.IntervalMonthly,
	}, st.calls)
}

func TestResolveFallsToYahoo(t *testing.T) {
	st := &fakeStooq{}
	ya := &fakeYahoo{quotes: []yahoo.Quote{{Date: day(2023, 6, 30), Close: 189.59}}}
	sc := &fakeScrape{}
	r := NewResolver(st, ya, sc, testLogger(t))

	series, err := r.Resolve(context.Background(), "AAPL")

	require.NoError(t, err)
	assert.Equal(t, SourceYahoo, series.Source())
	assert.Equal(t, 1, series.Len())
	assert.False(t, sc.called)
}

func TestResolveFallsToScrape(t *testing.T) {
	st := &fakeStooq{}
	ya := &fakeYahoo{err: errors.New("rate limited")}
	sc := &fakeScrape{rows: []stockanalysis.Row{{Date: day(2023, 6, 30), Close: 189.59}}}
	r := NewResolver(st, ya, sc, testLogger(t))

	series, err := r.Resolve(context.Background(), "AAPL")

	require.NoError(t, err)
	assert.Equal(t, SourceStockAnalysis, series.Source())
}

func TestResolveAllEmpty(t *testing.T) {
	r := NewResolver(&fakeStooq{}, &fakeYahoo{}, &fakeScrape{}, testLogger(t))

	_, err := r.Resolve(context.Background(), "ZZZZ")

	assert.Error(t, err)
}
