package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/stockmetrics/backend/internal/batch"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

// MetricsRefreshJob recomputes quarter metrics for a fixed ticker universe.
// Filings land after market close, so the default schedule runs nightly
// after the EDGAR dissemination window.
type MetricsRefreshJob struct {
	runner   *batch.Runner
	tickers  []string
	schedule string
	logger   *logger.Logger
}

// NewMetricsRefreshJob creates the nightly refresh job
func NewMetricsRefreshJob(runner *batch.Runner, tickers []string, schedule string, log *logger.Logger) *MetricsRefreshJob {
	if schedule == "" {
		schedule = "0 3 * * *" // 03:00 UTC, after the US filing day settles
	}
	return &MetricsRefreshJob{
		runner:   runner,
		tickers:  tickers,
		schedule: schedule,
		logger:   log.WithField("job", "metrics_refresh"),
	}
}

// Name implements scheduler.Job
func (j *MetricsRefreshJob) Name() string {
	return "metrics_refresh"
}

// Schedule implements scheduler.Job
func (j *MetricsRefreshJob) Schedule() string {
	return j.schedule
}

// Run implements scheduler.Job
func (j *MetricsRefreshJob) Run(ctx context.Context) error {
	if len(j.tickers) == 0 {
		j.logger.Warn("No tickers configured, nothing to refresh")
		return nil
	}

	summary := j.runner.Run(ctx, j.tickers)
	if summary.Failed == summary.Total {
		return fmt.Errorf("all %d tickers failed", summary.Total)
	}
	if summary.Failed > 0 {
		j.logger.WithFields(map[string]interface{}{
			"failed": summary.Failed,
			"total":  summary.Total,
		}).Warn("Refresh finished with partial failures")
	}
	return nil
}
