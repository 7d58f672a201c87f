package monitoring

import (
	"encoding/json"
	"maps"
	"net/http"
	"net/http/pprof"
	"sync"
	"time"

	"github.com/aashari/go-itinerary-gateway/internal/logger"
	"github.com/aashari/go-itinerary-gateway/internal/utils"
)

// Metrics holds application metrics
type Metrics struct {
	mu               sync.RWMutex
	RequestCount     int64
	RequestDuration  time.Duration
	ErrorCount       int64
	StatusCodeCounts map[int]int64
	ErrorCodeCounts  map[string]int64
	StrategyCounts   map[string]int64
	ActionCounts     map[string]int64
	StartTime        time.Time
}

// NewMetrics creates an empty metrics set
func NewMetrics() *Metrics {
	return &Metrics{
		StatusCodeCounts: make(map[int]int64),
		ErrorCodeCounts:  make(map[string]int64),
		StrategyCounts:   make(map[string]int64),
		ActionCounts:     make(map[string]int64),
		StartTime:        time.Now(),
	}
}

// Global metrics instance
var globalMetrics = NewMetrics()

// GetMetrics returns the global metrics instance
func GetMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest records a request with its duration and status
func (m *Metrics) RecordRequest(duration time.Duration, statusCode int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RequestCount++
	m.RequestDuration += duration
	m.StatusCodeCounts[statusCode]++

	if statusCode >= http.StatusBadRequest {
		m.ErrorCount++
	}
}

// RecordPipelineResult counts how the credential was resolved and, on
// failure, which error code was returned. Empty values are skipped.
func (m *Metrics) RecordPipelineResult(strategy, errorCode string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strategy != "" {
		m.StrategyCounts[strategy]++
	}
	if errorCode != "" {
		m.ErrorCodeCounts[errorCode]++
	}
}

// RecordAction counts an action callback
func (m *Metrics) RecordAction(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ActionCounts[name]++
}

// Stats is the JSON snapshot served by MetricsHandler
type Stats struct {
	UptimeSeconds     float64          `json:"uptime_seconds"`
	TotalRequests     int64            `json:"total_requests"`
	TotalErrors       int64            `json:"total_errors"`
	AverageDurationMs int64            `json:"average_duration_ms"`
	RequestsPerSecond float64          `json:"requests_per_second"`
	ErrorRate         float64          `json:"error_rate"`
	StatusCodeCounts  map[int]int64    `json:"status_code_counts"`
	ErrorCodeCounts   map[string]int64 `json:"error_code_counts"`
	StrategyCounts    map[string]int64 `json:"strategy_counts"`
	ActionCounts      map[string]int64 `json:"action_counts"`
	StartTime         string           `json:"start_time"`
}

// GetStats returns current statistics
func (m *Metrics) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	uptime := time.Since(m.StartTime)
	stats := Stats{
		UptimeSeconds:    uptime.Seconds(),
		TotalRequests:    m.RequestCount,
		TotalErrors:      m.ErrorCount,
		StatusCodeCounts: maps.Clone(m.StatusCodeCounts),
		ErrorCodeCounts:  maps.Clone(m.ErrorCodeCounts),
		StrategyCounts:   maps.Clone(m.StrategyCounts),
		ActionCounts:     maps.Clone(m.ActionCounts),
		StartTime:        m.StartTime.Format(time.RFC3339),
	}

	if m.RequestCount > 0 {
		stats.AverageDurationMs = (m.RequestDuration / time.Duration(m.RequestCount)).Milliseconds()
		stats.ErrorRate = float64(m.ErrorCount) / float64(m.RequestCount)
	}
	if uptime > 0 {
		stats.RequestsPerSecond = float64(m.RequestCount) / uptime.Seconds()
	}

	return stats
}

// Reset resets all metrics (useful for testing)
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RequestCount = 0
	m.RequestDuration = 0
	m.ErrorCount = 0
	m.StatusCodeCounts = make(map[int]int64)
	m.ErrorCodeCounts = make(map[string]int64)
	m.StrategyCounts = make(map[string]int64)
	m.ActionCounts = make(map[string]int64)
	m.StartTime = time.Now()
}

// Middleware wraps HTTP handlers to collect request metrics into m
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriterWrapper{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		m.RecordRequest(duration, wrapper.statusCode)

		ctx := logger.WithComponent(r.Context(), logger.ComponentNames.Monitoring)
		logger.Debug(ctx, "Request metrics recorded",
			"request_method", r.Method,
			"request_path", r.URL.Path,
			"response_status_code", wrapper.statusCode,
			"duration_ms", duration.Milliseconds(),
		)
	})
}

// MetricsMiddleware collects into the global metrics instance
func MetricsMiddleware(next http.Handler) http.Handler {
	return globalMetrics.Middleware(next)
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Flush keeps streamed upstream responses flowing through the wrapper
func (w *responseWriterWrapper) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *responseWriterWrapper) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// SetupPprofRoutes adds pprof endpoints to the router
func SetupPprofRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	mux.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	mux.Handle("/debug/pprof/block", pprof.Handler("block"))
}

// Handler serves m as JSON
func (m *Metrics) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(utils.HeaderContentType, utils.ContentTypeJSON)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(m.GetStats()); err != nil {
		logger.Error(r.Context(), "Failed to encode metrics", err)
	}
}

// MetricsHandler returns the global metrics as JSON
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	globalMetrics.Handler(w, r)
}
