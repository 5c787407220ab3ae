// Package di provides dependency injection for service implementations.
package di

import (
	"fmt"

	"github.com/aristath/insights/internal/clients/edgar"
	"github.com/aristath/insights/internal/clients/yahoo"
	"github.com/aristath/insights/internal/config"
	"github.com/aristath/insights/internal/modules/correlation"
	"github.com/aristath/insights/internal/modules/filings"
	"github.com/aristath/insights/internal/modules/identifiers"
	"github.com/aristath/insights/internal/modules/prices"
	"github.com/aristath/insights/internal/modules/staging"
	"github.com/rs/zerolog"
)

// InitializeServices creates clients and services in dependency order
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	// Clients
	container.EdgarClient = edgar.NewClient(edgar.Config{
		UserAgent:      cfg.SEC.UserAgent,
		TickersURL:     cfg.SEC.TickersURL,
		SubmissionsURL: cfg.SEC.SubmissionsURL,
		ArchivesURL:    cfg.SEC.ArchivesURL,
		Timeout:        cfg.HTTPTimeout,
	}, log)
	container.YahooClient = yahoo.NewClient(cfg.Yahoo.ChartURL, cfg.HTTPTimeout, log)

	// Identifier cache and its snapshot store
	switch cfg.Registry.Store {
	case config.StoreFile:
		container.SnapshotStore = identifiers.NewFileStore(cfg.SnapshotPath())
	case config.StoreSQLite:
		container.SnapshotStore = identifiers.NewClientDataStore(container.ClientDataRepo)
	default:
		return fmt.Errorf("unknown registry store %q", cfg.Registry.Store)
	}

	container.IdentifierCache = identifiers.New(
		container.EdgarClient,
		container.SnapshotStore,
		identifiers.Options{Freshness: cfg.Registry.Freshness},
		log,
	)

	// Pipeline stages
	container.FilingLocator = filings.NewLocator(container.EdgarClient, container.EdgarClient.ArchivesURL(), log)
	container.DocumentFetcher = filings.NewFetcher(container.EdgarClient, log)
	container.PriceAligner = prices.NewAligner(container.YahooClient, cfg.Yahoo.Range, log)

	container.Pipeline = correlation.NewPipeline(
		container.IdentifierCache,
		container.FilingLocator,
		container.DocumentFetcher,
		container.PriceAligner,
		cfg.FilingType,
		log,
	)

	// Storage collaborator
	container.StagingService = staging.NewService(container.ClientDataRepo, cfg.StagingTTL, log)

	log.Debug().Str("registry_store", cfg.Registry.Store).Msg("Services initialized")

	return nil
}
