package di

import (
	"fmt"

	"github.com/aristath/avgdown/internal/clientdata"
	"github.com/aristath/avgdown/internal/config"
	"github.com/aristath/avgdown/internal/modules/currency"
	"github.com/aristath/avgdown/internal/reliability"
	"github.com/aristath/avgdown/internal/scheduler"
	"github.com/rs/zerolog"
)

// cleanupSchedule sweeps expired cache rows once an hour.
const cleanupSchedule = "@hourly"

const maintenanceSchedule = "@weekly"

// RegisterJobs creates the background jobs and registers them with a new scheduler.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	container.Scheduler = scheduler.New(log)

	instances := &JobInstances{
		RateRefresh:       currency.NewRefreshJob(container.RateProvider),
		ClientDataCleanup: clientdata.NewCleanupJob(container.ClientDataRepo, log),
		Maintenance:       reliability.NewMaintenanceJob(container.ClientDataDB, log),
	}

	if err := container.Scheduler.AddJob(cfg.ExchangeRate.Refresh, instances.RateRefresh); err != nil {
		return nil, fmt.Errorf("failed to register rate refresh job: %w", err)
	}
	if err := container.Scheduler.AddJob(cleanupSchedule, instances.ClientDataCleanup); err != nil {
		return nil, fmt.Errorf("failed to register cleanup job: %w", err)
	}
	if err := container.Scheduler.AddJob(maintenanceSchedule, instances.Maintenance); err != nil {
		return nil, fmt.Errorf("failed to register maintenance job: %w", err)
	}

	return instances, nil
}
