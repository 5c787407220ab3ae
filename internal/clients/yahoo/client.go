// Package yahoo provides a Yahoo Finance chart API client for daily price history.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aristath/insights/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Client is a Yahoo Finance API client
type Client struct {
	chartURL string
	client   *http.Client
	log      zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(chartURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if chartURL == "" {
		chartURL = defaultChartURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		chartURL: strings.TrimRight(chartURL, "/"),
		client:   &http.Client{Timeout: timeout},
		log:      log.With().Str("client", "yahoo").Logger(),
	}
}

// chartResponse mirrors the subset of the chart API we consume.
// Prices are json.Number so decimals keep the precision Yahoo sent; nulls decode to nil.
type chartResponse struct {
	Chart *struct {
		Result []struct {
			Timestamp  []*int64 `json:"timestamp"`
			Indicators *struct {
				AdjClose []struct {
					AdjClose []*json.Number `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// GetDailyAdjustedCloses fetches the daily adjusted close series for symbol over rangeStr
// (1mo, 1y, 5y, max, ...). Observations are ascending by timestamp. Positions where Yahoo
// sent null for either the timestamp or the price are dropped.
func (c *Client) GetDailyAdjustedCloses(ctx context.Context, symbol, rangeStr string) ([]domain.PriceObservation, error) {
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("range", rangeStr)
	params.Add("events", "div,splits")

	reqURL := c.chartURL + "/" + url.PathEscape(symbol) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrFetchFailure, err)
	}

	// Set headers to mimic browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch historical data: %v", domain.ErrFetchFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: Yahoo Finance API returned status %d", domain.ErrFetchFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", domain.ErrFetchFailure, err)
	}

	prices, err := ParseChart(body)
	if err != nil {
		return nil, err
	}

	c.log.Debug().
		Str("symbol", symbol).
		Str("range", rangeStr).
		Int("count", len(prices)).
		Msg("Fetched historical prices")

	return prices, nil
}

// ParseChart converts a chart API document into ascending price observations
func ParseChart(body []byte) ([]domain.PriceObservation, error) {
	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to parse chart response: %v", domain.ErrMalformedSource, err)
	}

	if result.Chart == nil {
		return nil, fmt.Errorf("%w: chart response lacks chart", domain.ErrMalformedSource)
	}
	if result.Chart.Error != nil {
		return nil, fmt.Errorf("%w: Yahoo Finance API error: %v", domain.ErrFetchFailure, result.Chart.Error)
	}
	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: chart response has no result", domain.ErrMalformedSource)
	}

	data := result.Chart.Result[0]
	if len(data.Timestamp) == 0 {
		// Yahoo omits timestamp and indicators entirely when the range holds no trading days
		return []domain.PriceObservation{}, nil
	}
	if data.Indicators == nil || len(data.Indicators.AdjClose) == 0 {
		return nil, fmt.Errorf("%w: chart result lacks indicators.adjclose", domain.ErrMalformedSource)
	}

	closes := data.Indicators.AdjClose[0].AdjClose
	if len(closes) != len(data.Timestamp) {
		return nil, fmt.Errorf("%w: %d timestamps but %d adjclose values",
			domain.ErrMalformedSource, len(data.Timestamp), len(closes))
	}

	prices := make([]domain.PriceObservation, 0, len(closes))
	var last int64
	for i, ts := range data.Timestamp {
		if ts == nil || closes[i] == nil {
			continue
		}
		if len(prices) > 0 && *ts <= last {
			return nil, fmt.Errorf("%w: timestamps not strictly ascending at index %d", domain.ErrMalformedSource, i)
		}

		price, err := decimal.NewFromString(closes[i].String())
		if err != nil {
			return nil, fmt.Errorf("%w: adjclose[%d]: %v", domain.ErrMalformedSource, i, err)
		}

		prices = append(prices, domain.PriceObservation{
			Timestamp: time.Unix(*ts, 0).UTC(),
			Price:     price,
		})
		last = *ts
	}

	return prices, nil
}
