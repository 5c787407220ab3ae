package edgar

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aristath/insights/internal/domain"
)

const maxRegistryBytes = 32 << 20

// registryItem is one value of company_tickers.json:
// {"0":{"cik_str":320193,"ticker":"AAPL","title":"Apple Inc."}, ...}
type registryItem struct {
	CIK    json.RawMessage `json:"cik_str"`
	Ticker *string         `json:"ticker"`
	Title  string          `json:"title"`
}

// FetchRegistry downloads the full ticker registry in one request.
// Entries come back in source order; when a ticker appears more than once the first wins.
func (c *Client) FetchRegistry(ctx context.Context) ([]domain.RegistryEntry, error) {
	body, err := c.get(ctx, c.tickersURL, "application/json", maxRegistryBytes)
	if err != nil {
		return nil, err
	}

	entries, skipped, err := ParseRegistry(body)
	if err != nil {
		return nil, err
	}

	if skipped > 0 {
		c.log.Warn().Int("skipped", skipped).Msg("Registry contained entries without ticker or cik_str")
	}
	c.log.Debug().Int("entries", len(entries)).Msg("Fetched ticker registry")

	return entries, nil
}

// ParseRegistry decodes a bulk registry document. skipped counts values missing
// a usable ticker or identifier. A document with no usable entries is malformed.
func ParseRegistry(body []byte) (entries []domain.RegistryEntry, skipped int, err error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, 0, fmt.Errorf("%w: registry is not a JSON object: %v", domain.ErrMalformedSource, err)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sortRegistryKeys(keys)

	seen := make(map[string]bool, len(keys))
	entries = make([]domain.RegistryEntry, 0, len(keys))

	for _, k := range keys {
		var item registryItem
		if err := json.Unmarshal(raw[k], &item); err != nil || item.Ticker == nil {
			skipped++
			continue
		}

		symbol := strings.ToUpper(strings.TrimSpace(*item.Ticker))
		cik, err := NormalizeCIK(item.CIK)
		if symbol == "" || err != nil {
			skipped++
			continue
		}
		if seen[symbol] {
			continue
		}
		seen[symbol] = true

		entries = append(entries, domain.RegistryEntry{
			Symbol:     symbol,
			Identifier: cik,
			Name:       item.Title,
		})
	}

	if len(entries) == 0 {
		return nil, skipped, fmt.Errorf("%w: registry has no usable entries", domain.ErrMalformedSource)
	}

	return entries, skipped, nil
}

// NormalizeCIK accepts a JSON number or string and returns the 10-digit zero-padded identifier
func NormalizeCIK(raw json.RawMessage) (string, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return "", fmt.Errorf("missing cik")
	}

	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return "", err
		}
		s = strings.TrimSpace(str)
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n == 0 {
		return "", fmt.Errorf("invalid cik %q", s)
	}
	if n > 9999999999 {
		return "", fmt.Errorf("cik %q exceeds 10 digits", s)
	}

	return fmt.Sprintf("%010d", n), nil
}

// sortRegistryKeys orders numeric keys numerically, then anything else lexically
func sortRegistryKeys(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
}
