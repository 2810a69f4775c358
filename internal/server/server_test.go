package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskd/internal/config"
	"github.com/aristath/riskd/internal/database"
	"github.com/aristath/riskd/internal/modules/history"
	historyhandlers "github.com/aristath/riskd/internal/modules/history/handlers"
	"github.com/aristath/riskd/internal/modules/risk"
	riskhandlers "github.com/aristath/riskd/internal/modules/risk/handlers"
	testhelpers "github.com/aristath/riskd/internal/testing"
)

func newTestServer(t *testing.T) (*Server, func()) {
	t.Helper()

	historyDB, cleanupHistory := testhelpers.NewTestDB(t, "history")
	cacheDB, cleanupCache := testhelpers.NewTestDB(t, "cache")

	log := zerolog.Nop()
	repo := history.NewRepository(historyDB, log)
	snapshots := risk.NewSnapshotRepository(cacheDB, log)
	service := risk.NewService(repo, snapshots, log)

	srv := New(Config{
		Log:            log,
		Config:         &config.Config{Port: 0, DataDir: t.TempDir(), DevMode: true},
		Databases:      []*database.DB{historyDB, cacheDB},
		HistoryHandler: historyhandlers.NewHandler(repo, log),
		RiskHandler:    riskhandlers.NewHandler(service, log),
		SystemHandlers: NewSystemHandlers(log, t.TempDir(), []*database.DB{historyDB, cacheDB}, nil),
	})

	return srv, func() {
		cleanupHistory()
		cleanupCache()
	}
}

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := get(t, srv, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestSystemStatusEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := get(t, srv, "/api/system/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"databases"`)
}

func TestDatabaseStatsEndpoint(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := get(t, srv, "/api/system/database/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"history"`)
	assert.Contains(t, rec.Body.String(), `"cache"`)
}

func TestBackupsUnconfigured(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	rec := get(t, srv, "/api/system/backups")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRoutesAreWired(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	// Unknown symbol still resolves the route (404 from the handler, not chi)
	rec := get(t, srv, "/api/history/securities/NOPE/closes")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, srv, "/api/risk/securities/NOPE/variance")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
