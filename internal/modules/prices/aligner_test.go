package prices

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aristath/insights/internal/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSeries struct {
	series   []domain.PriceObservation
	err      error
	rangeArg string
}

func (f *fakeSeries) GetDailyAdjustedCloses(ctx context.Context, symbol, rangeStr string) ([]domain.PriceObservation, error) {
	f.rangeArg = rangeStr
	return f.series, f.err
}

func series(pairs ...int64) []domain.PriceObservation {
	out := make([]domain.PriceObservation, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.PriceObservation{
			Timestamp: time.Unix(pairs[i], 0).UTC(),
			Price:     decimal.NewFromInt(pairs[i+1]),
		})
	}
	return out
}

func TestAlignSeries_ScenarioB(t *testing.T) {
	s := series(1700000000, 100, 1710000000, 110, 1720000000, 120)

	got := AlignSeries(s, time.Unix(1705000000, 0))

	require.NotNil(t, got.AtOrAfterFiling)
	require.NotNil(t, got.MostRecent)
	assert.True(t, got.AtOrAfterFiling.Equal(decimal.NewFromInt(110)))
	assert.True(t, got.MostRecent.Equal(decimal.NewFromInt(120)))
}

func TestAlignSeries_FilingBeforeAllObservations(t *testing.T) {
	s := series(1700000000, 100, 1710000000, 110, 1720000000, 120)

	got := AlignSeries(s, time.Unix(1600000000, 0))

	require.NotNil(t, got.AtOrAfterFiling)
	assert.True(t, got.AtOrAfterFiling.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.MostRecent.Equal(decimal.NewFromInt(120)))
}

func TestAlignSeries_FilingAfterAllObservations(t *testing.T) {
	s := series(1700000000, 100, 1710000000, 110, 1720000000, 120)

	got := AlignSeries(s, time.Unix(1730000000, 0))

	assert.Nil(t, got.AtOrAfterFiling)
	require.NotNil(t, got.MostRecent)
	assert.True(t, got.MostRecent.Equal(decimal.NewFromInt(120)))
}

func TestAlignSeries_SameDayMatchesRegardlessOfTimeOfDay(t *testing.T) {
	// Observation at 14:30 UTC on the filing day; filing recorded at 23:59 the same day
	obs := time.Date(2024, 4, 1, 14, 30, 0, 0, time.UTC)
	s := []domain.PriceObservation{
		{Timestamp: obs.AddDate(0, 0, -1), Price: decimal.NewFromInt(1)},
		{Timestamp: obs, Price: decimal.NewFromInt(2)},
		{Timestamp: obs.AddDate(0, 0, 1), Price: decimal.NewFromInt(3)},
	}

	got := AlignSeries(s, time.Date(2024, 4, 1, 23, 59, 0, 0, time.UTC))

	require.NotNil(t, got.AtOrAfterFiling)
	assert.True(t, got.AtOrAfterFiling.Equal(decimal.NewFromInt(2)))
}

func TestAlignSeries_Empty(t *testing.T) {
	got := AlignSeries(nil, time.Now())
	assert.Nil(t, got.AtOrAfterFiling)
	assert.Nil(t, got.MostRecent)
}

func TestAlignSeries_ResultDoesNotAliasSeries(t *testing.T) {
	s := series(1700000000, 100, 1710000000, 110)
	got := AlignSeries(s, time.Unix(1600000000, 0))

	s[0].Price = decimal.NewFromInt(999)
	assert.True(t, got.AtOrAfterFiling.Equal(decimal.NewFromInt(100)))
}

func TestFilingDay(t *testing.T) {
	got := FilingDay(time.Unix(1705000000, 0))
	assert.Equal(t, int64(1704931200), got.Unix())

	loc := time.FixedZone("UTC-5", -5*3600)
	got = FilingDay(time.Date(2024, 4, 1, 22, 0, 0, 0, loc))
	assert.Equal(t, time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), got)
}

func TestAligner_Align(t *testing.T) {
	src := &fakeSeries{series: series(1700000000, 100, 1710000000, 110, 1720000000, 120)}
	aligner := NewAligner(src, "", zerolog.Nop())

	got, err := aligner.Align(context.Background(), "AAPL", time.Unix(1705000000, 0))
	require.NoError(t, err)
	assert.Equal(t, DefaultRange, src.rangeArg)
	assert.True(t, got.AtOrAfterFiling.Equal(decimal.NewFromInt(110)))
	assert.True(t, got.MostRecent.Equal(decimal.NewFromInt(120)))
}

func TestAligner_Unavailable(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSeries
	}{
		{"source failure", &fakeSeries{err: fmt.Errorf("%w: status 429", domain.ErrFetchFailure)}},
		{"malformed source", &fakeSeries{err: fmt.Errorf("%w: no result", domain.ErrMalformedSource)}},
		{"empty series", &fakeSeries{series: []domain.PriceObservation{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aligner := NewAligner(tt.src, "1y", zerolog.Nop())

			got, err := aligner.Align(context.Background(), "AAPL", time.Now())
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrPriceUnavailable))
			assert.Nil(t, got.AtOrAfterFiling)
			assert.Nil(t, got.MostRecent)
		})
	}
}
