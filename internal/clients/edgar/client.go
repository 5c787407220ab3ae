// Package edgar provides a client for the SEC EDGAR data sources: the bulk
// company ticker registry, the per-company submissions index and the filing archive.
package edgar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aristath/insights/internal/domain"
	"github.com/rs/zerolog"
)

const (
	defaultTickersURL     = "https://www.sec.gov/files/company_tickers.json"
	defaultSubmissionsURL = "https://data.sec.gov/submissions"
	defaultArchivesURL    = "https://www.sec.gov/Archives/edgar/data"

	// Quarterly reports with exhibits inlined can be large; anything above this is rejected
	// rather than truncated.
	maxDocumentBytes = 64 << 20
)

// Config holds EDGAR client configuration
type Config struct {
	// UserAgent is mandatory under the SEC fair access policy ("Company admin@example.com").
	UserAgent      string
	TickersURL     string
	SubmissionsURL string
	ArchivesURL    string
	Timeout        time.Duration
}

// Client is the EDGAR client
type Client struct {
	tickersURL     string
	submissionsURL string
	archivesURL    string
	userAgent      string
	httpClient     *http.Client
	log            zerolog.Logger
}

// NewClient creates a new EDGAR client. Empty URLs fall back to the public SEC endpoints.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.TickersURL == "" {
		cfg.TickersURL = defaultTickersURL
	}
	if cfg.SubmissionsURL == "" {
		cfg.SubmissionsURL = defaultSubmissionsURL
	}
	if cfg.ArchivesURL == "" {
		cfg.ArchivesURL = defaultArchivesURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		tickersURL:     cfg.TickersURL,
		submissionsURL: strings.TrimRight(cfg.SubmissionsURL, "/"),
		archivesURL:    strings.TrimRight(cfg.ArchivesURL, "/"),
		userAgent:      cfg.UserAgent,
		httpClient:     &http.Client{Timeout: cfg.Timeout},
		log:            log.With().Str("client", "edgar").Logger(),
	}
}

// ArchivesURL returns the base path filing documents are composed against
func (c *Client) ArchivesURL() string {
	return c.archivesURL
}

// FetchDocument retrieves a filing document as text.
// Transport failures, non-2xx statuses and empty bodies all surface as domain.ErrFetchFailure.
func (c *Client) FetchDocument(ctx context.Context, documentURL string) (string, error) {
	body, err := c.get(ctx, documentURL, "text/html, text/plain, */*", maxDocumentBytes)
	if err != nil {
		return "", err
	}
	if len(body) == 0 {
		return "", fmt.Errorf("%w: empty document", domain.ErrFetchFailure)
	}

	c.log.Debug().Int("bytes", len(body)).Msg("Fetched filing document")

	return string(body), nil
}

// get performs a GET with the identifying User-Agent and returns the full body
func (c *Client) get(ctx context.Context, url, accept string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrFetchFailure, err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: EDGAR returned status %d", domain.ErrFetchFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", domain.ErrFetchFailure, err)
	}
	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: response exceeds %d bytes", domain.ErrFetchFailure, limit)
	}

	return body, nil
}
