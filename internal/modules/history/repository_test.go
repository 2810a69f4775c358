package history

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testhelpers "github.com/aristath/riskd/internal/testing"
)

func newTestRepo(t *testing.T) (*Repository, func()) {
	t.Helper()
	db, cleanup := testhelpers.NewTestDB(t, "history")
	return NewRepository(db, zerolog.Nop()), cleanup
}

func d(day int) time.Time {
	return time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC)
}

func TestUpsertAndLoadSeries(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	// Insert out of order, the series must come back sorted
	written, err := repo.UpsertCloses("VUSA", []DailyClose{
		{Date: d(3), Close: 101.5},
		{Date: d(1), Close: 100.0},
		{Date: d(2), Close: 99.8},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, written)

	series, err := repo.CloseSeries("VUSA")
	require.NoError(t, err)
	require.Equal(t, 3, series.Len())
	assert.Equal(t, d(1), series.Date(0))
	assert.Equal(t, 100.0, series.Value(0))
	assert.Equal(t, d(3), series.Date(2))
	assert.Equal(t, 101.5, series.Value(2))
}

func TestUpsertReplacesExisting(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	_, err := repo.UpsertCloses("VUSA", []DailyClose{{Date: d(1), Close: 100.0}})
	require.NoError(t, err)

	_, err = repo.UpsertCloses("VUSA", []DailyClose{{Date: d(1), Close: 105.0}})
	require.NoError(t, err)

	series, err := repo.CloseSeries("VUSA")
	require.NoError(t, err)
	require.Equal(t, 1, series.Len())
	assert.Equal(t, 105.0, series.Value(0))
}

func TestUpsertNormalizesDates(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	// Intraday timestamps collapse to the same UTC day
	_, err := repo.UpsertCloses("VUSA", []DailyClose{
		{Date: time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC), Close: 100.0},
	})
	require.NoError(t, err)
	_, err = repo.UpsertCloses("VUSA", []DailyClose{
		{Date: time.Date(2024, 1, 1, 17, 0, 0, 0, time.UTC), Close: 101.0},
	})
	require.NoError(t, err)

	count, err := repo.Count("VUSA")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestUpsertRejectsNonPositiveClose(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	_, err := repo.UpsertCloses("VUSA", []DailyClose{{Date: d(1), Close: 0}})
	assert.Error(t, err)

	// The failed transaction must not leave partial rows behind
	count, err := repo.Count("VUSA")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestListSymbols(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	_, err := repo.UpsertCloses("VUSA", []DailyClose{
		{Date: d(1), Close: 100.0},
		{Date: d(2), Close: 101.0},
	})
	require.NoError(t, err)
	_, err = repo.UpsertCloses("AGGH", []DailyClose{{Date: d(5), Close: 50.0}})
	require.NoError(t, err)

	summaries, err := repo.ListSymbols()
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, "AGGH", summaries[0].Symbol)
	assert.Equal(t, 1, summaries[0].Count)
	assert.Equal(t, "VUSA", summaries[1].Symbol)
	assert.Equal(t, 2, summaries[1].Count)
	assert.Equal(t, d(1), summaries[1].FirstDate)
	assert.Equal(t, d(2), summaries[1].LastDate)
}

func TestDeleteSymbol(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	_, err := repo.UpsertCloses("VUSA", []DailyClose{
		{Date: d(1), Close: 100.0},
		{Date: d(2), Close: 101.0},
	})
	require.NoError(t, err)

	deleted, err := repo.DeleteSymbol("VUSA")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	deleted, err = repo.DeleteSymbol("VUSA")
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestCloseSeriesEmptySymbol(t *testing.T) {
	repo, cleanup := newTestRepo(t)
	defer cleanup()

	series, err := repo.CloseSeries("UNKNOWN")
	require.NoError(t, err)
	assert.Equal(t, 0, series.Len())
}
