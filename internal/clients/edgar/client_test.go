package edgar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aristath/insights/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "Insights Test test@example.com"

func newTestClient(serverURL string) *Client {
	return NewClient(Config{
		UserAgent:      testUserAgent,
		TickersURL:     serverURL + "/files/company_tickers.json",
		SubmissionsURL: serverURL + "/submissions/",
		ArchivesURL:    serverURL + "/Archives/edgar/data/",
	}, zerolog.Nop())
}

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(Config{UserAgent: testUserAgent}, zerolog.Nop())

	assert.Equal(t, defaultTickersURL, client.tickersURL)
	assert.Equal(t, defaultSubmissionsURL, client.submissionsURL)
	assert.Equal(t, defaultArchivesURL, client.ArchivesURL())
	assert.Equal(t, "https://data.sec.gov/submissions/CIK0000320193.json", client.SubmissionsURL("0000320193"))
}

func TestFetchRegistry_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files/company_tickers.json", r.URL.Path)
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
			"1": {"cik_str": "789019", "ticker": "msft", "title": "MICROSOFT CORP"},
			"2": {"cik_str": 1, "title": "no ticker"}
		}`))
	}))
	defer server.Close()

	entries, err := newTestClient(server.URL).FetchRegistry(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, domain.RegistryEntry{Symbol: "AAPL", Identifier: "0000320193", Name: "Apple Inc."}, entries[0])
	assert.Equal(t, domain.RegistryEntry{Symbol: "MSFT", Identifier: "0000789019", Name: "MICROSOFT CORP"}, entries[1])
}

func TestFetchRegistry_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchRegistry(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetchFailure))
	assert.Contains(t, err.Error(), "403")
}

func TestFetchRegistry_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).FetchRegistry(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetchFailure))
}

func TestParseRegistry(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantSymbols []string
		wantSkipped int
		wantErr     error
	}{
		{
			name:        "numeric key order preserved and first duplicate wins",
			body:        `{"10":{"cik_str":3,"ticker":"DUP"},"2":{"cik_str":2,"ticker":"DUP"},"1":{"cik_str":1,"ticker":"ONE"}}`,
			wantSymbols: []string{"ONE", "DUP"},
		},
		{
			name:        "bad identifiers skipped",
			body:        `{"0":{"cik_str":"abc","ticker":"BAD"},"1":{"cik_str":null,"ticker":"NUL"},"2":{"cik_str":5,"ticker":"OK"}}`,
			wantSymbols: []string{"OK"},
			wantSkipped: 2,
		},
		{
			name:    "array is malformed",
			body:    `[{"cik_str":1,"ticker":"A"}]`,
			wantErr: domain.ErrMalformedSource,
		},
		{
			name:    "no usable entries",
			body:    `{"0":{"title":"nothing"}}`,
			wantErr: domain.ErrMalformedSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, skipped, err := ParseRegistry([]byte(tt.body))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr))
				return
			}
			require.NoError(t, err)

			symbols := make([]string, len(entries))
			for i, e := range entries {
				symbols[i] = e.Symbol
			}
			assert.Equal(t, tt.wantSymbols, symbols)
			assert.Equal(t, tt.wantSkipped, skipped)
		})
	}
}

func TestNormalizeCIK(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
		wantErr  bool
	}{
		{`320193`, "0000320193", false},
		{`"320193"`, "0000320193", false},
		{`"0000320193"`, "0000320193", false},
		{`1234567890`, "1234567890", false},
		{`12345678901`, "", true},
		{`0`, "", true},
		{`-5`, "", true},
		{`"x1"`, "", true},
		{`null`, "", true},
		{``, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := NormalizeCIK(json.RawMessage(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFetchSubmissions_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/submissions/CIK0000320193.json", r.URL.Path)
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))

		w.Write([]byte(`{
			"cik": "320193",
			"name": "Apple Inc.",
			"filings": {"recent": {
				"form": ["10-K", "10-Q"],
				"accessionNumber": ["0000320193-24-000001", "0000320193-24-000069"],
				"primaryDocument": ["aapl-20231230.htm", "aapl-20240330.htm"],
				"filingDate": ["2024-01-01", "2024-04-01"],
				"reportDate": ["2023-12-30", "2024-03-30"]
			}}
		}`))
	}))
	defer server.Close()

	subs, err := newTestClient(server.URL).FetchSubmissions(context.Background(), "0000320193")
	require.NoError(t, err)

	assert.Equal(t, "0000320193", subs.CIK)
	assert.Equal(t, "Apple Inc.", subs.Name)
	assert.Equal(t, 2, subs.Recent.Len())
	assert.Equal(t, []string{"10-K", "10-Q"}, subs.Recent.Form)
	assert.Equal(t, "aapl-20240330.htm", subs.Recent.PrimaryDocument[1])
}

func TestParseSubmissions_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"no filings", `{"name":"X"}`},
		{"no recent", `{"filings":{}}`},
		{"missing form", `{"filings":{"recent":{"accessionNumber":[],"primaryDocument":[],"filingDate":[]}}}`},
		{"length mismatch", `{"filings":{"recent":{"form":["10-Q"],"accessionNumber":[],"primaryDocument":["a"],"filingDate":["2024-01-01"]}}}`},
		{"wrong type", `{"filings":{"recent":{"form":"10-Q","accessionNumber":[],"primaryDocument":[],"filingDate":[]}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSubmissions([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrMalformedSource))
		})
	}
}

func TestParseSubmissions_EmptyArraysAreValid(t *testing.T) {
	subs, err := ParseSubmissions([]byte(`{"filings":{"recent":{"form":[],"accessionNumber":[],"primaryDocument":[],"filingDate":[]}}}`))
	require.NoError(t, err)
	assert.Equal(t, 0, subs.Recent.Len())
}

func TestFetchDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/doc.htm":
			w.Write([]byte("<html>QUARTERLY REPORT</html>"))
		case "/empty.htm":
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	text, err := client.FetchDocument(context.Background(), server.URL+"/doc.htm")
	require.NoError(t, err)
	assert.True(t, strings.Contains(text, "QUARTERLY REPORT"))

	_, err = client.FetchDocument(context.Background(), server.URL+"/empty.htm")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetchFailure))

	_, err = client.FetchDocument(context.Background(), server.URL+"/missing.htm")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetchFailure))
}
