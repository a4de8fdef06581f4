package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wonny/stockmetrics/backend/internal/api/handlers"
	"github.com/wonny/stockmetrics/backend/pkg/logger"
)

// NewRouter builds the HTTP route table
func NewRouter(metricsHandler *handlers.MetricsHandler, healthHandler *handlers.HealthHandler, log *logger.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(recoveryMiddleware(log))
	r.Use(loggingMiddleware(log))

	r.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/metrics/{ticker}", metricsHandler.GetQuarterMetrics).Methods(http.MethodGet)
	v1.HandleFunc("/metrics/{ticker}/history", metricsHandler.GetStoredMetrics).Methods(http.MethodGet)

	return r
}

// statusRecorder captures the response status for the access log
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start).String(),
				"remote":   r.RemoteAddr,
			}).Info("HTTP request")
		})
	}
}

func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"panic": err,
						"path":  r.URL.Path,
					}).Error("Handler panicked")
					http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
