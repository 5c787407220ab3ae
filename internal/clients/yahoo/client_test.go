package yahoo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/insights/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chartBody = `{"chart":{"result":[{
	"meta":{"symbol":"AAPL"},
	"timestamp":[1700000000,1710000000,1720000000],
	"indicators":{"quote":[{"close":[101,111,121]}],"adjclose":[{"adjclose":[100.25,110,120.125]}]}
}],"error":null}}`

func TestGetDailyAdjustedCloses_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/AAPL", r.URL.Path)
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "5y", r.URL.Query().Get("range"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(chartBody))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, zerolog.Nop())

	prices, err := client.GetDailyAdjustedCloses(context.Background(), "AAPL", "5y")
	require.NoError(t, err)
	require.Len(t, prices, 3)

	assert.Equal(t, time.Unix(1700000000, 0).UTC(), prices[0].Timestamp)
	assert.Equal(t, "100.25", prices[0].Price.String())
	assert.Equal(t, "110", prices[1].Price.String())
	assert.Equal(t, "120.125", prices[2].Price.String())
}

func TestGetDailyAdjustedCloses_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second, zerolog.Nop())

	_, err := client.GetDailyAdjustedCloses(context.Background(), "AAPL", "5y")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFetchFailure))
}

func TestParseChart(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantLen   int
		wantErr   error
		wantFirst string
	}{
		{
			name:      "nulls dropped pairwise",
			body:      `{"chart":{"result":[{"timestamp":[1,2,3],"indicators":{"adjclose":[{"adjclose":[null,2.5,3.5]}]}}],"error":null}}`,
			wantLen:   2,
			wantFirst: "2.5",
		},
		{
			name:    "empty range",
			body:    `{"chart":{"result":[{"meta":{}}],"error":null}}`,
			wantLen: 0,
		},
		{
			name:    "api error",
			body:    `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`,
			wantErr: domain.ErrFetchFailure,
		},
		{
			name:    "missing chart",
			body:    `{"finance":{}}`,
			wantErr: domain.ErrMalformedSource,
		},
		{
			name:    "no result",
			body:    `{"chart":{"result":[],"error":null}}`,
			wantErr: domain.ErrMalformedSource,
		},
		{
			name:    "missing adjclose",
			body:    `{"chart":{"result":[{"timestamp":[1],"indicators":{"quote":[{"close":[1]}]}}],"error":null}}`,
			wantErr: domain.ErrMalformedSource,
		},
		{
			name:    "length mismatch",
			body:    `{"chart":{"result":[{"timestamp":[1,2],"indicators":{"adjclose":[{"adjclose":[1]}]}}],"error":null}}`,
			wantErr: domain.ErrMalformedSource,
		},
		{
			name:    "not ascending",
			body:    `{"chart":{"result":[{"timestamp":[2,1],"indicators":{"adjclose":[{"adjclose":[1,2]}]}}],"error":null}}`,
			wantErr: domain.ErrMalformedSource,
		},
		{
			name:    "not json",
			body:    `<html>`,
			wantErr: domain.ErrMalformedSource,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prices, err := ParseChart([]byte(tt.body))
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, prices, tt.wantLen)
			if tt.wantFirst != "" {
				assert.Equal(t, tt.wantFirst, prices[0].Price.String())
			}
		})
	}
}
