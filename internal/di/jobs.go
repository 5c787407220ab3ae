// Package di provides dependency injection for background job registration.
package di

import (
	"fmt"

	"github.com/aristath/insights/internal/clientdata"
	"github.com/aristath/insights/internal/config"
	"github.com/aristath/insights/internal/modules/identifiers"
	"github.com/aristath/insights/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates all background jobs and registers them with a new scheduler.
// The scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) (*JobInstances, error) {
	jobs := &JobInstances{
		RegistryRefresh:     identifiers.NewRefreshJob(container.IdentifierCache, log),
		ClientDataCleanup:   clientdata.NewCleanupJob(container.ClientDataRepo, log),
		DatabaseMaintenance: scheduler.NewDatabaseMaintenanceJob(container.ClientDataDB, log),
	}

	sched := scheduler.New(log)

	if err := sched.AddJob(cfg.Registry.RefreshSchedule, jobs.RegistryRefresh); err != nil {
		return nil, fmt.Errorf("failed to register %s job: %w", jobs.RegistryRefresh.Name(), err)
	}
	if err := sched.AddJob(cfg.CleanupSchedule, jobs.ClientDataCleanup); err != nil {
		return nil, fmt.Errorf("failed to register %s job: %w", jobs.ClientDataCleanup.Name(), err)
	}
	if err := sched.AddJob(cfg.MaintenanceSchedule, jobs.DatabaseMaintenance); err != nil {
		return nil, fmt.Errorf("failed to register %s job: %w", jobs.DatabaseMaintenance.Name(), err)
	}

	container.Scheduler = sched

	return jobs, nil
}
