package filings

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aristath/insights/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDocuments struct {
	text string
	err  error
	urls []string
}

func (f *fakeDocuments) FetchDocument(ctx context.Context, url string) (string, error) {
	f.urls = append(f.urls, url)
	return f.text, f.err
}

func TestFetch(t *testing.T) {
	docs := &fakeDocuments{text: "<html>quarterly report</html>"}
	fetcher := NewFetcher(docs, zerolog.Nop())

	text, err := fetcher.Fetch(context.Background(), "https://example.test/doc.htm")
	require.NoError(t, err)
	assert.Equal(t, "<html>quarterly report</html>", text)
	assert.Equal(t, []string{"https://example.test/doc.htm"}, docs.urls)
}

func TestFetch_FailureReturnsNoText(t *testing.T) {
	docs := &fakeDocuments{text: "partial", err: fmt.Errorf("%w: status 404", domain.ErrFetchFailure)}
	fetcher := NewFetcher(docs, zerolog.Nop())

	text, err := fetcher.Fetch(context.Background(), "https://example.test/doc.htm")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetchFailure))
	assert.Empty(t, text)
	assert.Len(t, docs.urls, 1, "no retry")
}
