// Package filings locates the most recent filing of a given type and fetches its primary document.
package filings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/insights/internal/clients/edgar"
	"github.com/aristath/insights/internal/domain"
	"github.com/rs/zerolog"
)

const filingDateLayout = "2006-01-02"

// IndexSource returns the filings index for a registry identifier
type IndexSource interface {
	FetchSubmissions(ctx context.Context, cik string) (*edgar.Submissions, error)
}

// Locator selects filings from the filings index
type Locator struct {
	source      IndexSource
	archivesURL string
	log         zerolog.Logger
}

// NewLocator creates a new filing locator. archivesURL is the document archive base path.
func NewLocator(source IndexSource, archivesURL string, log zerolog.Logger) *Locator {
	return &Locator{
		source:      source,
		archivesURL: strings.TrimRight(archivesURL, "/"),
		log:         log.With().Str("component", "filing_locator").Logger(),
	}
}

// Locate returns the most recent filing of filingType for the registry entry.
// Returns domain.ErrNoFilingFound when the index holds no filing of that type.
func (l *Locator) Locate(ctx context.Context, entry domain.RegistryEntry, filingType string) (*domain.FilingRecord, error) {
	subs, err := l.source.FetchSubmissions(ctx, entry.Identifier)
	if err != nil {
		return nil, err
	}

	idx, ok := SelectFiling(subs.Recent, filingType)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %s in %d recent filings",
			domain.ErrNoFilingFound, entry.Symbol, filingType, subs.Recent.Len())
	}

	accession := strings.TrimSpace(subs.Recent.AccessionNumber[idx])
	document := strings.TrimSpace(subs.Recent.PrimaryDocument[idx])
	if accession == "" || document == "" {
		return nil, fmt.Errorf("%w: filing %d lacks accession number or primary document", domain.ErrMalformedSource, idx)
	}

	filingDate, err := time.Parse(filingDateLayout, strings.TrimSpace(subs.Recent.FilingDate[idx]))
	if err != nil {
		return nil, fmt.Errorf("%w: filing date %q: %v", domain.ErrMalformedSource, subs.Recent.FilingDate[idx], err)
	}

	name := subs.Name
	if name == "" {
		name = entry.Name
	}

	record := &domain.FilingRecord{
		Symbol:      entry.Symbol,
		CompanyName: name,
		FilingType:  filingType,
		FilingDate:  filingDate,
		DocumentURL: BuildDocumentURL(l.archivesURL, entry.Identifier, accession, document),
		AccessionID: accession,
	}

	l.log.Debug().
		Str("symbol", entry.Symbol).
		Str("accession", accession).
		Str("filing_date", filingDate.Format(filingDateLayout)).
		Msg("Located filing")

	return record, nil
}

// SelectFiling returns the index of the first entry whose form equals filingType exactly.
// The index is ordered most recent first, so the first match is the latest filing.
func SelectFiling(recent edgar.RecentFilings, filingType string) (int, bool) {
	for i, form := range recent.Form {
		if form == filingType {
			return i, true
		}
	}
	return -1, false
}

// BuildDocumentURL composes {archives}/{cik without leading zeros}/{accession without hyphens}/{document}.
// The archive rejects any other spelling of these segments.
func BuildDocumentURL(archivesURL, cik, accession, document string) string {
	trimmed := strings.TrimLeft(cik, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	return fmt.Sprintf("%s/%s/%s/%s",
		strings.TrimRight(archivesURL, "/"),
		trimmed,
		strings.ReplaceAll(accession, "-", ""),
		document,
	)
}
