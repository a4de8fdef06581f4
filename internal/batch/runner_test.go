package batch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockmetrics/backend/internal/metrics"
	"github.com/wonny/stockmetrics/backend/pkg/config"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

type fakeSource struct {
	mu      sync.Mutex
	calls   []string
	failing map[string]error
	delay   time.Duration
}

func (f *fakeSource) QuarterMetrics(_ context.Context, ticker string) ([]metrics.QuarterMetrics, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ticker)
	f.mu.Unlock()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if err, ok := f.failing[ticker]; ok {
		return nil, err
	}
	return []metrics.QuarterMetrics{{Ticker: ticker}}, nil
}

type fakeSink struct {
	mu      sync.Mutex
	tickers []string
	err     error
}

func (f *fakeSink) Upsert(_ context.Context, rows []metrics.QuarterMetrics) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.tickers = append(f.tickers, rows[0].Ticker)
	return nil
}

func testRunner(t *testing.T, source MetricsSource, sink Sink, workers int) *Runner {
	t.Helper()
	cfg := &config.Config{
		LogLevel:  "error",
		LogFormat: "console",
		Fetcher:   config.FetcherConfig{Workers: workers},
	}
	return NewRunner(source, sink, cfg, logger.New(cfg))
}

func TestRunAllSucceed(t *testing.T) {
	source := &fakeSource{}
	sink := &fakeSink{}
	runner := testRunner(t, source, sink, 3)

	summary := runner.Run(context.Background(), []string{"AAPL", "MSFT", "GOOG"})

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 0, summary.Failed)
	require.Len(t, summary.Results, 3)
	assert.ElementsMatch(t, []string{"AAPL", "MSFT", "GOOG"}, sink.tickers)

	// Results keep input order
	assert.Equal(t, "AAPL", summary.Results[0].Ticker)
	assert.Equal(t, "GOOG", summary.Results[2].Ticker)
}

func TestRunFailuresAreIsolated(t *testing.T) {
	source := &fakeSource{failing: map[string]error{
		"MSFT": errors.New("EDGAR timeout"),
	}}
	sink := &fakeSink{}
	runner := testRunner(t, source, sink, 2)

	summary := runner.Run(context.Background(), []string{"AAPL", "MSFT", "GOOG"})

	assert.Equal(t, 1, summary.Failed)
	assert.Error(t, summary.Results[1].Err)
	assert.NoError(t, summary.Results[0].Err)
	assert.NoError(t, summary.Results[2].Err)
	assert.ElementsMatch(t, []string{"AAPL", "GOOG"}, sink.tickers)
}

func TestRunSinkFailureCounts(t *testing.T) {
	source := &fakeSource{}
	sink := &fakeSink{err: errors.New("connection refused")}
	runner := testRunner(t, source, sink, 1)

	summary := runner.Run(context.Background(), []string{"AAPL"})

	assert.Equal(t, 1, summary.Failed)
	require.Error(t, summary.Results[0].Err)
	assert.NotEmpty(t, summary.Results[0].Rows, "computed rows survive a persist failure")
}

func TestRunNilSink(t *testing.T) {
	source := &fakeSource{}
	runner := testRunner(t, source, nil, 2)

	summary := runner.Run(context.Background(), []string{"AAPL", "MSFT"})

	assert.Equal(t, 0, summary.Failed)
}

func TestRunCancelledContext(t *testing.T) {
	source := &fakeSource{delay: 50 * time.Millisecond}
	runner := testRunner(t, source, nil, 1)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	tickers := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	summary := runner.Run(ctx, tickers)

	assert.Equal(t, len(tickers), summary.Total)
	assert.Greater(t, summary.Failed, 0, "undispatched tickers must carry the context error")

	source.mu.Lock()
	dispatched := len(source.calls)
	source.mu.Unlock()
	assert.Less(t, dispatched, len(tickers))
}
