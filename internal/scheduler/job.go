package scheduler

import "context"

// Job is one scheduled unit of work
type Job interface {
	// Name identifies the job in logs
	Name() string

	// Schedule returns the cron expression, standard 5-field format
	Schedule() string

	// Run executes the job. Long jobs must honor ctx cancellation.
	Run(ctx context.Context) error
}
