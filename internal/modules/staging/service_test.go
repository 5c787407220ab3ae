package staging

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/aristath/insights/internal/clientdata"
	"github.com/aristath/insights/internal/domain"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE registry_snapshot (source TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE staged_filings (id TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
`

func setupService(t *testing.T) *Service {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return NewService(clientdata.NewRepository(db), time.Hour, zerolog.Nop())
}

func testResult() *domain.CorrelationResult {
	filing := decimal.RequireFromString("110.25")
	latest := decimal.NewFromInt(120)
	return &domain.CorrelationResult{
		Symbol:                         "AAPL",
		CompanyName:                    "Apple Inc.",
		FilingType:                     "10-Q",
		FilingDate:                     time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		FilingURL:                      "https://www.sec.gov/Archives/edgar/data/320193/000032019324000069/aapl-20240330.htm",
		AccessionID:                    "0000320193-24-000069",
		FilingPriceAtOrAfterFilingDate: &filing,
		MostRecentPrice:                &latest,
		DocumentText:                   "<html>10-Q</html>",
	}
}

func TestStageAndGet(t *testing.T) {
	svc := setupService(t)

	staged, err := svc.Stage(testResult())
	require.NoError(t, err)
	_, err = uuid.Parse(staged.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, staged.ExpiresAt.Sub(staged.StagedAt))

	got, err := svc.Get(staged.ID)
	require.NoError(t, err)
	assert.Equal(t, staged.ID, got.ID)
	assert.Equal(t, "AAPL", got.Result.Symbol)
	assert.Equal(t, "<html>10-Q</html>", got.Result.DocumentText)
	assert.True(t, got.Result.FilingDate.Equal(testResult().FilingDate))
	require.NotNil(t, got.Result.FilingPriceAtOrAfterFilingDate)
	assert.True(t, got.Result.FilingPriceAtOrAfterFilingDate.Equal(decimal.RequireFromString("110.25")))
}

func TestStage_NullPricesSurvive(t *testing.T) {
	svc := setupService(t)
	result := testResult()
	result.FilingPriceAtOrAfterFilingDate = nil
	result.MostRecentPrice = nil

	staged, err := svc.Stage(result)
	require.NoError(t, err)

	got, err := svc.Get(staged.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Result.FilingPriceAtOrAfterFilingDate)
	assert.Nil(t, got.Result.MostRecentPrice)
}

func TestStage_CopiesResult(t *testing.T) {
	svc := setupService(t)
	result := testResult()

	staged, err := svc.Stage(result)
	require.NoError(t, err)
	result.DocumentText = "mutated by caller"

	got, err := svc.Get(staged.ID)
	require.NoError(t, err)
	assert.Equal(t, "<html>10-Q</html>", got.Result.DocumentText)
}

func TestStage_Nil(t *testing.T) {
	svc := setupService(t)
	_, err := svc.Stage(nil)
	assert.Error(t, err)
}

func TestGet_NotFound(t *testing.T) {
	svc := setupService(t)

	for _, id := range []string{uuid.New().String(), "not-a-uuid", ""} {
		_, err := svc.Get(id)
		assert.True(t, errors.Is(err, ErrNotFound), id)
	}
}

func TestGet_Expired(t *testing.T) {
	svc := setupService(t)
	svc.ttl = -time.Minute

	staged, err := svc.Stage(testResult())
	require.NoError(t, err)

	_, err = svc.Get(staged.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDiscard(t *testing.T) {
	svc := setupService(t)

	staged, err := svc.Stage(testResult())
	require.NoError(t, err)

	require.NoError(t, svc.Discard(staged.ID))

	_, err = svc.Get(staged.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.True(t, errors.Is(svc.Discard(staged.ID), ErrNotFound))
	assert.True(t, errors.Is(svc.Discard("bogus"), ErrNotFound))
}
