/**
 * Package di provides dependency injection type definitions.
 *
 * This package defines the Container type which holds all application dependencies.
 * The Container is the single source of truth for all service instances and is
 * passed to the server for access to services.
 */
package di

import (
	"github.com/aristath/insights/internal/clientdata"
	"github.com/aristath/insights/internal/clients/edgar"
	"github.com/aristath/insights/internal/clients/yahoo"
	"github.com/aristath/insights/internal/database"
	"github.com/aristath/insights/internal/modules/correlation"
	"github.com/aristath/insights/internal/modules/filings"
	"github.com/aristath/insights/internal/modules/identifiers"
	"github.com/aristath/insights/internal/modules/prices"
	"github.com/aristath/insights/internal/modules/staging"
	"github.com/aristath/insights/internal/scheduler"
)

// Container holds all application dependencies
type Container struct {
	// Databases
	ClientDataDB *database.DB // client_data.db: registry snapshot (sqlite store) and staged filings

	// Repositories
	ClientDataRepo *clientdata.Repository

	// Clients
	EdgarClient *edgar.Client
	YahooClient *yahoo.Client

	// Services
	SnapshotStore   identifiers.Store
	IdentifierCache *identifiers.Cache
	FilingLocator   *filings.Locator
	DocumentFetcher *filings.Fetcher
	PriceAligner    *prices.Aligner
	Pipeline        *correlation.Pipeline
	StagingService  *staging.Service

	Scheduler *scheduler.Scheduler
}

// JobInstances holds references to all registered jobs for manual triggering
type JobInstances struct {
	RegistryRefresh     *identifiers.RefreshJob
	ClientDataCleanup   *clientdata.CleanupJob
	DatabaseMaintenance *scheduler.DatabaseMaintenanceJob
}

// Close releases the container's databases
func (c *Container) Close() error {
	if c.ClientDataDB != nil {
		return c.ClientDataDB.Close()
	}
	return nil
}
