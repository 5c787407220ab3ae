// Package correlation runs the filing pipeline: resolve the symbol, locate its latest filing,
// then fetch the document and align prices in parallel before assembling one result.
package correlation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aristath/insights/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// DefaultFilingType is the form type located when none is configured
const DefaultFilingType = "10-Q"

// Resolver maps a symbol to its registry entry
type Resolver interface {
	Resolve(ctx context.Context, symbol string) (domain.RegistryEntry, error)
}

// FilingLocator finds the most recent filing of a type
type FilingLocator interface {
	Locate(ctx context.Context, entry domain.RegistryEntry, filingType string) (*domain.FilingRecord, error)
}

// DocumentFetcher retrieves a filing document
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// PriceAligner matches a filing date to a price series
type PriceAligner interface {
	Align(ctx context.Context, symbol string, filingDate time.Time) (domain.AlignedPrices, error)
}

// Pipeline sequences the pipeline stages. It holds no per-run state and is safe for concurrent use.
type Pipeline struct {
	resolver   Resolver
	locator    FilingLocator
	fetcher    DocumentFetcher
	aligner    PriceAligner
	filingType string
	log        zerolog.Logger
}

// NewPipeline creates a new pipeline
func NewPipeline(
	resolver Resolver,
	locator FilingLocator,
	fetcher DocumentFetcher,
	aligner PriceAligner,
	filingType string,
	log zerolog.Logger,
) *Pipeline {
	if filingType == "" {
		filingType = DefaultFilingType
	}
	return &Pipeline{
		resolver:   resolver,
		locator:    locator,
		fetcher:    fetcher,
		aligner:    aligner,
		filingType: filingType,
		log:        log.With().Str("component", "correlation_pipeline").Logger(),
	}
}

// FilingType returns the default form type
func (p *Pipeline) FilingType() string {
	return p.filingType
}

// ResolveAndCorrelate runs the pipeline for symbol using the default filing type.
// On failure it returns a *domain.PipelineError and never a partial result.
func (p *Pipeline) ResolveAndCorrelate(ctx context.Context, symbol string) (*domain.CorrelationResult, error) {
	return p.Run(ctx, symbol, p.filingType)
}

// Run executes the pipeline for symbol and filingType.
//
// Started stages are not aborted by caller cancellation; a caller that goes away simply
// discards the result. Network time limits come from the clients' HTTP timeouts.
func (p *Pipeline) Run(ctx context.Context, symbol, filingType string) (*domain.CorrelationResult, error) {
	ctx = context.WithoutCancel(ctx)
	if filingType == "" {
		filingType = p.filingType
	}

	r := &run{
		symbol:     strings.ToUpper(strings.TrimSpace(symbol)),
		filingType: filingType,
		stage:      domain.StageResolveIdentifier,
		started:    time.Now(),
	}

	for {
		var err error
		switch r.stage {
		case domain.StageResolveIdentifier:
			err = p.resolveIdentifier(ctx, r)
		case domain.StageLocateFiling:
			err = p.locateFiling(ctx, r)
		case domain.StageFetchDocument:
			// AlignPrices runs alongside; this stage completes when both branches have joined
			err = p.fetchAndAlign(ctx, r)
		case domain.StageAssemble:
			return p.assemble(r), nil
		}

		if err != nil {
			return nil, p.fail(r, err)
		}
	}
}

// run carries the values gathered by the stages of one pipeline execution
type run struct {
	symbol     string
	filingType string
	stage      domain.Stage
	started    time.Time

	entry    domain.RegistryEntry
	filing   *domain.FilingRecord
	document string
	prices   domain.AlignedPrices
}

func (p *Pipeline) resolveIdentifier(ctx context.Context, r *run) error {
	entry, err := p.resolver.Resolve(ctx, r.symbol)
	if err != nil {
		return err
	}
	r.entry = entry
	r.stage = domain.StageLocateFiling
	return nil
}

func (p *Pipeline) locateFiling(ctx context.Context, r *run) error {
	filing, err := p.locator.Locate(ctx, r.entry, r.filingType)
	if err != nil {
		return err
	}
	r.filing = filing
	r.stage = domain.StageFetchDocument
	return nil
}

// fetchAndAlign runs the two independent branches. Only the document branch can fail the run.
func (p *Pipeline) fetchAndAlign(ctx context.Context, r *run) error {
	var g errgroup.Group

	g.Go(func() error {
		text, err := p.fetcher.Fetch(ctx, r.filing.DocumentURL)
		if err != nil {
			return err
		}
		r.document = text
		return nil
	})

	g.Go(func() error {
		prices, err := p.aligner.Align(ctx, r.entry.Symbol, r.filing.FilingDate)
		if err != nil {
			p.log.Warn().
				Err(err).
				Str("symbol", r.symbol).
				Str("stage", string(domain.StageAlignPrices)).
				Msg("Price data unavailable, continuing without prices")
			return nil
		}
		r.prices = prices
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	r.stage = domain.StageAssemble
	return nil
}

// assemble is the only place the terminal result is allocated
func (p *Pipeline) assemble(r *run) *domain.CorrelationResult {
	result := &domain.CorrelationResult{
		Symbol:                         r.entry.Symbol,
		CompanyName:                    r.filing.CompanyName,
		FilingType:                     r.filing.FilingType,
		FilingDate:                     r.filing.FilingDate,
		FilingURL:                      r.filing.DocumentURL,
		AccessionID:                    r.filing.AccessionID,
		FilingPriceAtOrAfterFilingDate: r.prices.AtOrAfterFiling,
		MostRecentPrice:                r.prices.MostRecent,
		DocumentText:                   r.document,
	}

	p.log.Info().
		Str("symbol", result.Symbol).
		Str("filing_type", result.FilingType).
		Str("accession", result.AccessionID).
		Bool("has_prices", result.MostRecentPrice != nil).
		Dur("duration", time.Since(r.started)).
		Msg("Filing correlated")

	return result
}

func (p *Pipeline) fail(r *run, err error) error {
	perr := &domain.PipelineError{Symbol: r.symbol, Stage: r.stage, Cause: err}

	ev := p.log.Warn()
	if errors.Is(err, domain.ErrUnknownSymbol) || errors.Is(err, domain.ErrNoFilingFound) {
		ev = p.log.Info()
	}
	ev.Err(err).
		Str("symbol", r.symbol).
		Str("stage", string(r.stage)).
		Msg("Pipeline aborted")

	return perr
}
