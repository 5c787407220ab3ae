// Package prices aligns a filing date against a daily adjusted-close price series.
package prices

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/insights/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultRange is the chart range requested when none is configured
const DefaultRange = "5y"

// SeriesSource returns ascending daily adjusted closes for a symbol
type SeriesSource interface {
	GetDailyAdjustedCloses(ctx context.Context, symbol, rangeStr string) ([]domain.PriceObservation, error)
}

// Aligner fetches a price series and matches it to a filing date
type Aligner struct {
	source   SeriesSource
	rangeStr string
	log      zerolog.Logger
}

// NewAligner creates a new price aligner
func NewAligner(source SeriesSource, rangeStr string, log zerolog.Logger) *Aligner {
	if rangeStr == "" {
		rangeStr = DefaultRange
	}
	return &Aligner{
		source:   source,
		rangeStr: rangeStr,
		log:      log.With().Str("component", "price_aligner").Logger(),
	}
}

// Align returns the first price at or after the filing day and the most recent price.
// Any source failure or an empty series yields domain.ErrPriceUnavailable.
func (a *Aligner) Align(ctx context.Context, symbol string, filingDate time.Time) (domain.AlignedPrices, error) {
	series, err := a.source.GetDailyAdjustedCloses(ctx, symbol, a.rangeStr)
	if err != nil {
		return domain.AlignedPrices{}, fmt.Errorf("%w: %v", domain.ErrPriceUnavailable, err)
	}
	if len(series) == 0 {
		return domain.AlignedPrices{}, fmt.Errorf("%w: empty series for %s", domain.ErrPriceUnavailable, symbol)
	}

	aligned := AlignSeries(series, filingDate)

	ev := a.log.Debug().Str("symbol", symbol).Int("observations", len(series))
	if aligned.AtOrAfterFiling == nil {
		ev = ev.Bool("filing_after_series", true)
	}
	ev.Msg("Aligned prices")

	return aligned, nil
}

// AlignSeries scans an ascending series once. The first observation at or after the filing day
// wins; the last observation is always the most recent price. If the filing day is after every
// observation, AtOrAfterFiling stays nil.
func AlignSeries(series []domain.PriceObservation, filingDate time.Time) domain.AlignedPrices {
	var out domain.AlignedPrices
	cutoff := FilingDay(filingDate)

	for i := range series {
		obs := series[i]
		if out.AtOrAfterFiling == nil && !obs.Timestamp.Before(cutoff) {
			p := obs.Price
			out.AtOrAfterFiling = &p
		}
		last := obs.Price
		out.MostRecent = &last
	}
	return out
}

// FilingDay discards the sub-day portion of t, in UTC
func FilingDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
