package batch

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/stockmetrics/backend/internal/metrics"
	"github.com/wonny/stockmetrics/backend/pkg/config"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

// MetricsSource computes the quarter rows for one ticker
type MetricsSource interface {
	QuarterMetrics(ctx context.Context, ticker string) ([]metrics.QuarterMetrics, error)
}

// Sink persists composed rows. Nil sink means compute-only runs.
type Sink interface {
	Upsert(ctx context.Context, rows []metrics.QuarterMetrics) error
}

// Result is the per-ticker outcome of a batch run
type Result struct {
	Ticker   string
	Rows     []metrics.QuarterMetrics
	Err      error
	Duration time.Duration
}

// Summary aggregates one batch run
type Summary struct {
	Total    int
	Failed   int
	Duration time.Duration
	Results  []Result
}

// Runner fans a ticker list out over a fixed worker pool. One slow or
// failing ticker never blocks the rest; failures are collected, not fatal.
type Runner struct {
	source  MetricsSource
	sink    Sink
	workers int
	logger  *logger.Logger
}

// NewRunner creates a batch runner
func NewRunner(source MetricsSource, sink Sink, cfg *config.Config, log *logger.Logger) *Runner {
	workers := cfg.Fetcher.Workers
	if workers < 1 {
		workers = 1
	}
	return &Runner{
		source:  source,
		sink:    sink,
		workers: workers,
		logger:  log.WithField("module", "batch"),
	}
}

// Run processes every ticker and returns the aggregated summary.
// Results keep the input order regardless of completion order.
func (r *Runner) Run(ctx context.Context, tickers []string) Summary {
	start := time.Now()
	r.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"workers": r.workers,
	}).Info("Starting batch run")

	type job struct {
		idx    int
		ticker string
	}
	jobs := make(chan job)
	results := make([]Result, len(tickers))

	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				results[j.idx] = r.runOne(ctx, j.ticker)
			}
		}()
	}

dispatch:
	for i, ticker := range tickers {
		select {
		case jobs <- job{idx: i, ticker: ticker}:
		case <-ctx.Done():
			for k := i; k < len(tickers); k++ {
				results[k] = Result{Ticker: tickers[k], Err: ctx.Err()}
			}
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	summary := Summary{
		Total:    len(tickers),
		Duration: time.Since(start),
		Results:  results,
	}
	for _, res := range results {
		if res.Err != nil {
			summary.Failed++
		}
	}

	r.logger.WithFields(map[string]interface{}{
		"total":    summary.Total,
		"failed":   summary.Failed,
		"duration": summary.Duration.String(),
	}).Info("Batch run finished")
	return summary
}

func (r *Runner) runOne(ctx context.Context, ticker string) Result {
	start := time.Now()

	rows, err := r.source.QuarterMetrics(ctx, ticker)
	if err != nil {
		r.logger.WithError(err).WithField("ticker", ticker).Error("Ticker failed")
		return Result{Ticker: ticker, Err: err, Duration: time.Since(start)}
	}

	if r.sink != nil && len(rows) > 0 {
		if err := r.sink.Upsert(ctx, rows); err != nil {
			r.logger.WithError(err).WithField("ticker", ticker).Error("Persist failed")
			return Result{Ticker: ticker, Rows: rows, Err: err, Duration: time.Since(start)}
		}
	}

	return Result{Ticker: ticker, Rows: rows, Duration: time.Since(start)}
}
