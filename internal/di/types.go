// Package di provides dependency injection type definitions.
package di

import (
	"github.com/aristath/avgdown/internal/clientdata"
	"github.com/aristath/avgdown/internal/clients/exchangerate"
	"github.com/aristath/avgdown/internal/database"
	"github.com/aristath/avgdown/internal/modules/averaging"
	"github.com/aristath/avgdown/internal/modules/currency"
	"github.com/aristath/avgdown/internal/reliability"
	"github.com/aristath/avgdown/internal/scheduler"
)

// Container holds all dependencies for the application.
// It is created by Wire() and passed to the server and commands.
type Container struct {
	// Databases
	ClientDataDB *database.DB

	// Repositories
	ClientDataRepo *clientdata.Repository

	// Clients
	ExchangeRateClient *exchangerate.Client

	// Services
	RateProvider *currency.RateProvider
	Engine       *averaging.Engine

	// Background work
	Scheduler *scheduler.Scheduler
}

// JobInstances holds the registered jobs for manual triggering.
type JobInstances struct {
	RateRefresh       *currency.RefreshJob
	ClientDataCleanup *clientdata.CleanupJob
	Maintenance       *reliability.MaintenanceJob
}

// All returns every job instance.
func (j *JobInstances) All() []scheduler.Job {
	return []scheduler.Job{j.RateRefresh, j.ClientDataCleanup, j.Maintenance}
}

// Close releases the container's resources.
func (c *Container) Close() error {
	if c.ClientDataDB != nil {
		return c.ClientDataDB.Close()
	}
	return nil
}
