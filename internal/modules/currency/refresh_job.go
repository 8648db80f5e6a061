package currency

import (
	"context"
	"time"
)

// RefreshJob runs RateProvider.Refresh on the scheduler.
type RefreshJob struct {
	provider *RateProvider
	timeout  time.Duration
}

// NewRefreshJob creates a refresh job bounded by a 15 second timeout.
func NewRefreshJob(provider *RateProvider) *RefreshJob {
	return &RefreshJob{provider: provider, timeout: 15 * time.Second}
}

// Run refreshes the rate once.
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	_, err := j.provider.Refresh(ctx)
	return err
}

// Name returns the job name for scheduling and logging.
func (j *RefreshJob) Name() string {
	return "exchange_rate_refresh"
}
