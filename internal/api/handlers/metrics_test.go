package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockmetrics/backend/internal/metrics"
	"github.com/wonny/stockmetrics/backend/pkg/config"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

type fakeSource struct {
	rows []metrics.QuarterMetrics
	err  error
	got  string
}

func (f *fakeSource) QuarterMetrics(_ context.Context, ticker string) ([]metrics.QuarterMetrics, error) {
	f.got = ticker
	return f.rows, f.err
}

type fakeStore struct {
	rows  []metrics.QuarterMetrics
	err   error
	limit int
}

func (f *fakeStore) History(_ context.Context, _ string, limit int) ([]metrics.QuarterMetrics, error) {
	f.limit = limit
	return f.rows, f.err
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "console"})
}

func sampleRow() metrics.QuarterMetrics {
	return metrics.QuarterMetrics{
		Ticker:    "AAPL",
		PeriodEnd: time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC),
		Revenue:   100,
		EPS:       1.5,
		Price:     150,
		PER:       100,
		PBR:       metrics.Missing(),
	}
}

func doRequest(h http.HandlerFunc, path string, vars map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req = mux.SetURLVars(req, vars)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestGetQuarterMetrics(t *testing.T) {
	source := &fakeSource{rows: []metrics.QuarterMetrics{sampleRow()}}
	h := NewMetricsHandler(source, nil, testLogger(t))

	rec := doRequest(h.GetQuarterMetrics, "/api/v1/metrics/aapl", map[string]string{"ticker": "aapl"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "AAPL", source.got, "ticker must be normalized before lookup")

	var body struct {
		Ticker   string                   `json:"ticker"`
		Quarters []map[string]interface{} `json:"quarters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "AAPL", body.Ticker)
	require.Len(t, body.Quarters, 1)
	assert.Equal(t, 100.0, body.Quarters[0]["revenue"])
	assert.Nil(t, body.Quarters[0]["pbr"], "missing metrics serialize as null")
}

func TestGetQuarterMetricsUnknownTicker(t *testing.T) {
	source := &fakeSource{err: errors.New("ticker ZZZZ not found")}
	h := NewMetricsHandler(source, nil, testLogger(t))

	rec := doRequest(h.GetQuarterMetrics, "/api/v1/metrics/ZZZZ", map[string]string{"ticker": "ZZZZ"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetStoredMetrics(t *testing.T) {
	store := &fakeStore{rows: []metrics.QuarterMetrics{sampleRow()}}
	h := NewMetricsHandler(&fakeSource{}, store, testLogger(t))

	rec := doRequest(h.GetStoredMetrics, "/api/v1/metrics/AAPL/history?limit=4", map[string]string{"ticker": "AAPL"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4, store.limit)
}

func TestGetStoredMetricsDefaultLimit(t *testing.T) {
	store := &fakeStore{}
	h := NewMetricsHandler(&fakeSource{}, store, testLogger(t))

	rec := doRequest(h.GetStoredMetrics, "/api/v1/metrics/AAPL/history", map[string]string{"ticker": "AAPL"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 12, store.limit)
}

func TestGetStoredMetricsBadLimit(t *testing.T) {
	h := NewMetricsHandler(&fakeSource{}, &fakeStore{}, testLogger(t))

	rec := doRequest(h.GetStoredMetrics, "/api/v1/metrics/AAPL/history?limit=0", map[string]string{"ticker": "AAPL"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStoredMetricsNoStore(t *testing.T) {
	h := NewMetricsHandler(&fakeSource{}, nil, testLogger(t))

	rec := doRequest(h.GetStoredMetrics, "/api/v1/metrics/AAPL/history", map[string]string{"ticker": "AAPL"})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
