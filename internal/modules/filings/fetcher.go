package filings

import (
	"context"

	"github.com/rs/zerolog"
)

// DocumentSource retrieves raw document text by URL
type DocumentSource interface {
	FetchDocument(ctx context.Context, url string) (string, error)
}

// Fetcher retrieves the primary document of a located filing.
// There is no retry: any failure is returned as-is and no partial text is ever returned.
type Fetcher struct {
	source DocumentSource
	log    zerolog.Logger
}

// NewFetcher creates a new document fetcher
func NewFetcher(source DocumentSource, log zerolog.Logger) *Fetcher {
	return &Fetcher{
		source: source,
		log:    log.With().Str("component", "document_fetcher").Logger(),
	}
}

// Fetch returns the document text at url
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	text, err := f.source.FetchDocument(ctx, url)
	if err != nil {
		return "", err
	}

	f.log.Debug().Int("bytes", len(text)).Msg("Fetched filing document")
	return text, nil
}
