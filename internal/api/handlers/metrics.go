package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wonny/stockmetrics/backend/internal/metrics"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

// MetricsSource computes quarter metrics live from the upstreams
type MetricsSource interface {
	QuarterMetrics(ctx context.Context, ticker string) ([]metrics.QuarterMetrics, error)
}

// HistoryStore reads previously persisted rows
type HistoryStore interface {
	History(ctx context.Context, ticker string, limit int) ([]metrics.QuarterMetrics, error)
}

// MetricsHandler serves quarter metrics over HTTP
type MetricsHandler struct {
	source MetricsSource
	store  HistoryStore
	logger *logger.Logger
}

// NewMetricsHandler creates a metrics handler. store may be nil when the
// server runs without a database.
func NewMetricsHandler(source MetricsSource, store HistoryStore, log *logger.Logger) *MetricsHandler {
	return &MetricsHandler{
		source: source,
		store:  store,
		logger: log.WithField("handler", "metrics"),
	}
}

// GetQuarterMetrics handles GET /api/v1/metrics/{ticker}.
// Rows are computed live against the upstream sources.
func (h *MetricsHandler) GetQuarterMetrics(w http.ResponseWriter, r *http.Request) {
	ticker := normalizeTicker(mux.Vars(r)["ticker"])
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	rows, err := h.source.QuarterMetrics(r.Context(), ticker)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("Metrics computation failed")
		respondError(w, http.StatusNotFound, "ticker not found: "+ticker)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":   ticker,
		"quarters": rows,
	})
}

// GetStoredMetrics handles GET /api/v1/metrics/{ticker}/history
func (h *MetricsHandler) GetStoredMetrics(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "persistence is not configured")
		return
	}

	ticker := normalizeTicker(mux.Vars(r)["ticker"])
	if ticker == "" {
		respondError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	limit := 12
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			respondError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	rows, err := h.store.History(r.Context(), ticker, limit)
	if err != nil {
		h.logger.WithError(err).WithField("ticker", ticker).Error("History query failed")
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticker":   ticker,
		"quarters": rows,
	})
}

func normalizeTicker(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}
