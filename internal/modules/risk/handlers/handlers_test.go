package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/riskd/internal/modules/history"
	"github.com/aristath/riskd/internal/modules/risk"
	testhelpers "github.com/aristath/riskd/internal/testing"
)

func setupRouter(t *testing.T) (*chi.Mux, func()) {
	t.Helper()

	historyDB, cleanupHistory := testhelpers.NewTestDB(t, "history")
	cacheDB, cleanupCache := testhelpers.NewTestDB(t, "cache")

	repo := history.NewRepository(historyDB, zerolog.Nop())

	// Day 2 repeats day 1's price, so the return index skips 2024-01-02
	var closes []history.DailyClose
	prices := []float64{100, 100, 102, 101, 103, 102, 104}
	for i, p := range prices {
		closes = append(closes, history.DailyClose{
			Date:  time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC),
			Close: p,
		})
	}
	_, err := repo.UpsertCloses("VUSA", closes)
	require.NoError(t, err)

	snapshots := risk.NewSnapshotRepository(cacheDB, zerolog.Nop())
	service := risk.NewService(repo, snapshots, zerolog.Nop())
	handler := NewHandler(service, zerolog.Nop())

	router := chi.NewRouter()
	router.Route("/api", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})

	return router, func() {
		cleanupHistory()
		cleanupCache()
	}
}

func doRequest(t *testing.T, router *chi.Mux, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Contains(t, envelope, "data")
	require.Contains(t, envelope, "metadata")
	return envelope
}

func TestGetVariance(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	rec := doRequest(t, router, http.MethodGet, "/api/risk/securities/VUSA/variance", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "riskmetrics", data["method"])
	assert.Equal(t, "VUSA", data["symbol"])

	series := data["series"].([]interface{})
	require.Len(t, series, 6)

	// NaN head serializes as null
	first := series[0].(map[string]interface{})
	assert.Nil(t, first["value"])
	second := series[1].(map[string]interface{})
	assert.Greater(t, second["value"].(float64), 0.0)
}

func TestGetVarianceUnknownSymbol(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	rec := doRequest(t, router, http.MethodGet, "/api/risk/securities/NOPE/variance", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetHistoricalVaR(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	rec := doRequest(t, router, http.MethodGet,
		"/api/risk/securities/VUSA/var/historical?start=2024-01-07&end=2024-01-07&window=3&confidence=0.9", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "historical", data["method"])
	assert.Equal(t, 3.0, data["window"])
	assert.Equal(t, 0.9, data["confidence"])

	series := data["series"].([]interface{})
	require.Len(t, series, 1)
	point := series[0].(map[string]interface{})
	assert.Equal(t, "2024-01-07", point["date"])
	assert.IsType(t, 0.0, point["value"])
}

func TestGetHistoricalVaRMissingParams(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	rec := doRequest(t, router, http.MethodGet, "/api/risk/securities/VUSA/var/historical", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHistoricalVaRInvalidConfidence(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	rec := doRequest(t, router, http.MethodGet,
		"/api/risk/securities/VUSA/var/historical?start=2024-01-07&end=2024-01-07&window=3&confidence=1.5", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetHistoricalVaRDateNotInIndex(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	// 2024-01-02 is a stale print dropped from the return index
	rec := doRequest(t, router, http.MethodGet,
		"/api/risk/securities/VUSA/var/historical?start=2024-01-02&end=2024-01-07&window=3&confidence=0.9", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetHistoricalVaRWindowUnderflow(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	rec := doRequest(t, router, http.MethodGet,
		"/api/risk/securities/VUSA/var/historical?start=2024-01-07&end=2024-01-07&window=10&confidence=0.9", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetWeightedVaRWithLambda(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	rec := doRequest(t, router, http.MethodGet,
		"/api/risk/securities/VUSA/var/weighted?start=2024-01-07&end=2024-01-07&window=3&confidence=0.9&lambda=0.94", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	envelope := decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "weighted", data["method"])
	assert.Equal(t, 0.94, data["lambda"])
}

func TestSnapshotLifecycle(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	rec := doRequest(t, router, http.MethodPost, "/api/risk/snapshots", map[string]interface{}{
		"symbol":     "VUSA",
		"method":     "historical",
		"start":      "2024-01-06",
		"end":        "2024-01-07",
		"window":     3,
		"confidence": 0.9,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	envelope := decodeEnvelope(t, rec)
	created := envelope["data"].(map[string]interface{})
	id := created["id"].(string)
	require.NotEmpty(t, id)

	rec = doRequest(t, router, http.MethodGet, "/api/risk/snapshots/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	envelope = decodeEnvelope(t, rec)
	loaded := envelope["data"].(map[string]interface{})
	assert.Equal(t, "VUSA", loaded["symbol"])
	assert.Len(t, loaded["points"].([]interface{}), 2)

	rec = doRequest(t, router, http.MethodGet, "/api/risk/securities/VUSA/snapshots", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	envelope = decodeEnvelope(t, rec)
	data := envelope["data"].(map[string]interface{})
	assert.Len(t, data["snapshots"].([]interface{}), 1)
}

func TestGetSnapshotUnknownID(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	rec := doRequest(t, router, http.MethodGet, "/api/risk/snapshots/no-such-id", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateSnapshotInvalidMethod(t *testing.T) {
	router, cleanup := setupRouter(t)
	defer cleanup()

	rec := doRequest(t, router, http.MethodPost, "/api/risk/snapshots", map[string]interface{}{
		"symbol": "VUSA",
		"method": "garch",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
