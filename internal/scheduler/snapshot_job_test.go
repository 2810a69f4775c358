package scheduler

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskd/internal/database"
	"github.com/aristath/riskd/internal/modules/history"
	"github.com/aristath/riskd/internal/modules/risk"
	testhelpers "github.com/aristath/riskd/internal/testing"
)

func seedCloses(t *testing.T, repo *history.Repository, symbol string, prices []float64) {
	t.Helper()
	var closes []history.DailyClose
	for i, p := range prices {
		closes = append(closes, history.DailyClose{
			Date:  time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC),
			Close: p,
		})
	}
	_, err := repo.UpsertCloses(symbol, closes)
	require.NoError(t, err)
}

func TestVarSnapshotJobSkipsShortHistories(t *testing.T) {
	historyDB, cleanupHistory := testhelpers.NewTestDB(t, "history")
	defer cleanupHistory()
	cacheDB, cleanupCache := testhelpers.NewTestDB(t, "cache")
	defer cleanupCache()

	repo := history.NewRepository(historyDB, zerolog.Nop())
	seedCloses(t, repo, "VUSA", []float64{100, 102, 101, 103, 102, 104, 105})
	seedCloses(t, repo, "AGGH", []float64{50, 51})

	snapshots := risk.NewSnapshotRepository(cacheDB, zerolog.Nop())
	service := risk.NewService(repo, snapshots, zerolog.Nop())

	job := NewVarSnapshotJob(repo, service, snapshots, 3, 0.9, 2, zerolog.Nop())
	assert.Equal(t, "var-snapshots", job.Name())
	require.NoError(t, job.Run())

	// VUSA has enough history for one snapshot, AGGH does not
	got, err := snapshots.ListBySymbol("VUSA", 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = snapshots.ListBySymbol("AGGH", 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWALCheckpointJob(t *testing.T) {
	historyDB, cleanup := testhelpers.NewTestDB(t, "history")
	defer cleanup()

	job := NewWALCheckpointJob([]*database.DB{historyDB}, zerolog.Nop())
	assert.Equal(t, "wal-checkpoint", job.Name())
	assert.NoError(t, job.Run())
}
