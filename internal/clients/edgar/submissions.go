package edgar

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aristath/insights/internal/domain"
)

const maxSubmissionsBytes = 16 << 20

// RecentFilings holds the parallel arrays of filings.recent, most recent first
type RecentFilings struct {
	Form            []string
	AccessionNumber []string
	PrimaryDocument []string
	FilingDate      []string
}

// Len returns the number of filings
func (r RecentFilings) Len() int {
	return len(r.Form)
}

// Submissions is the validated subset of a company's submissions index
type Submissions struct {
	CIK    string
	Name   string
	Recent RecentFilings
}

type submissionsPayload struct {
	Name    string `json:"name"`
	Filings *struct {
		Recent *struct {
			Form            *[]string `json:"form"`
			AccessionNumber *[]string `json:"accessionNumber"`
			PrimaryDocument *[]string `json:"primaryDocument"`
			FilingDate      *[]string `json:"filingDate"`
		} `json:"recent"`
	} `json:"filings"`
}

// SubmissionsURL returns the filings index address for a 10-digit identifier
func (c *Client) SubmissionsURL(cik string) string {
	return fmt.Sprintf("%s/CIK%s.json", c.submissionsURL, cik)
}

// FetchSubmissions retrieves the filings index for an identifier
func (c *Client) FetchSubmissions(ctx context.Context, cik string) (*Submissions, error) {
	body, err := c.get(ctx, c.SubmissionsURL(cik), "application/json", maxSubmissionsBytes)
	if err != nil {
		return nil, err
	}

	subs, err := ParseSubmissions(body)
	if err != nil {
		return nil, err
	}
	subs.CIK = cik

	c.log.Debug().Str("cik", cik).Int("recent", subs.Recent.Len()).Msg("Fetched submissions index")

	return subs, nil
}

// ParseSubmissions decodes and validates a submissions index document.
// Missing filings.recent arrays or arrays of unequal length are malformed.
func ParseSubmissions(body []byte) (*Submissions, error) {
	var payload submissionsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: submissions index: %v", domain.ErrMalformedSource, err)
	}

	if payload.Filings == nil || payload.Filings.Recent == nil {
		return nil, fmt.Errorf("%w: submissions index lacks filings.recent", domain.ErrMalformedSource)
	}

	recent := payload.Filings.Recent
	fields := map[string]*[]string{
		"form":            recent.Form,
		"accessionNumber": recent.AccessionNumber,
		"primaryDocument": recent.PrimaryDocument,
		"filingDate":      recent.FilingDate,
	}
	for name, field := range fields {
		if field == nil {
			return nil, fmt.Errorf("%w: filings.recent lacks %s", domain.ErrMalformedSource, name)
		}
	}

	n := len(*recent.Form)
	if len(*recent.AccessionNumber) != n || len(*recent.PrimaryDocument) != n || len(*recent.FilingDate) != n {
		return nil, fmt.Errorf("%w: filings.recent arrays differ in length", domain.ErrMalformedSource)
	}

	return &Submissions{
		Name: payload.Name,
		Recent: RecentFilings{
			Form:            *recent.Form,
			AccessionNumber: *recent.AccessionNumber,
			PrimaryDocument: *recent.PrimaryDocument,
			FilingDate:      *recent.FilingDate,
		},
	}, nil
}
