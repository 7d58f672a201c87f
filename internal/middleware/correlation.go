package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aashari/go-itinerary-gateway/internal/logger"
	"github.com/aashari/go-itinerary-gateway/internal/utils"
)

// Header constants
const (
	RequestIDHeader     = utils.HeaderRequestID
	CorrelationIDHeader = utils.HeaderCorrelationID
)

// healthPath requests are only logged when they fail
const healthPath = "/health"

// TrackingIDSources contains information about where tracking IDs came from
type TrackingIDSources struct {
	RequestIDSource     string `json:"request_id_source"`
	CorrelationIDSource string `json:"correlation_id_source"`
}

// RequestCorrelationMiddleware assigns request and correlation ids, echoes
// them as response headers and logs the request lifecycle. Responses are
// written through unbuffered so streamed upstream output is not delayed.
func RequestCorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID, correlationID, sources := extractTrackingIDsWithPriority(r)

		w.Header().Set(RequestIDHeader, requestID)
		w.Header().Set(CorrelationIDHeader, correlationID)

		ctx := logger.WithRequestID(r.Context(), requestID)
		ctx = context.WithValue(ctx, logger.CorrelationIDKey, correlationID)
		ctx = logger.WithComponent(ctx, logger.ComponentNames.Middleware)

		logger.Debug(logger.WithStage(ctx, logger.LogStages.TrackingSetup), "Generated tracking IDs",
			"request_id_source", sources.RequestIDSource,
			"correlation_id_source", sources.CorrelationIDSource,
		)

		isHealth := r.URL.Path == healthPath
		if !isHealth {
			logger.Info(logger.WithStage(ctx, logger.LogStages.RequestReceived), "Incoming request",
				"request_method", r.Method,
				"request_endpoint", r.URL.Path,
				"request_user_agent", r.Header.Get(utils.HeaderUserAgent),
				"request_client_ip", getClientIP(r),
				"request_content_length", r.ContentLength,
				"request_headers", utils.SanitizeHeaders(r.Header),
			)
		}

		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r.WithContext(ctx))

		logResponse(ctx, wrapper, time.Since(start), isHealth)
	})
}

// extractTrackingIDsWithPriority picks ids from client headers before generating them
func extractTrackingIDsWithPriority(r *http.Request) (requestID, correlationID string, sources TrackingIDSources) {
	switch {
	case r.Header.Get(utils.HeaderRequestID) != "":
		requestID = r.Header.Get(utils.HeaderRequestID)
		sources.RequestIDSource = "client-x-request-id"
	case r.Header.Get(utils.HeaderCloudFlareRay) != "":
		requestID = r.Header.Get(utils.HeaderCloudFlareRay)
		sources.RequestIDSource = "cloudflare-ray"
	case r.Header.Get(utils.HeaderXForwardedFor) != "":
		requestID = generateHashFromIP(r.Header.Get(utils.HeaderXForwardedFor))
		sources.RequestIDSource = "x-forwarded-for-hash"
	default:
		requestID = utils.GenerateRequestID()
		sources.RequestIDSource = "generated"
	}

	switch {
	case r.Header.Get(utils.HeaderCorrelationID) != "":
		correlationID = r.Header.Get(utils.HeaderCorrelationID)
		sources.CorrelationIDSource = "client-x-correlation-id"
	case r.Header.Get(utils.HeaderCloudFlareRay) != "":
		correlationID = r.Header.Get(utils.HeaderCloudFlareRay)
		sources.CorrelationIDSource = "cloudflare-ray"
	default:
		correlationID = requestID
		sources.CorrelationIDSource = "request-id-fallback"
	}

	return requestID, correlationID, sources
}

// generateHashFromIP creates a per-client id from the first forwarded address
func generateHashFromIP(ipHeader string) string {
	ip := strings.TrimSpace(strings.Split(ipHeader, ",")[0])
	hash := fmt.Sprintf("%x", ip)
	if len(hash) > 16 {
		hash = hash[:16]
	}
	return fmt.Sprintf("%s-%d", hash, time.Now().UnixNano()%10000)
}

func logResponse(ctx context.Context, w *responseWriterWrapper, duration time.Duration, isHealth bool) {
	stage := logger.LogStages.RequestCompleted
	if w.statusCode >= http.StatusBadRequest {
		stage = logger.LogStages.RequestFailed
	}
	ctx = logger.WithStage(ctx, stage)

	attrs := []any{
		"response_status_code", w.statusCode,
		"response_bytes", w.bytes,
		"response_content_type", w.Header().Get(utils.HeaderContentType),
		"duration_ms", duration.Milliseconds(),
	}

	switch {
	case isHealth && w.statusCode >= http.StatusBadRequest:
		logger.Warn(ctx, "Health check failed", attrs...)
	case isHealth:
		logger.Debug(ctx, "Health check completed", attrs...)
	default:
		logger.Info(ctx, "Request completed", attrs...)
	}
}

// getClientIP extracts client IP with priority cascade
func getClientIP(r *http.Request) string {
	if forwardedFor := r.Header.Get(utils.HeaderXForwardedFor); forwardedFor != "" {
		return strings.TrimSpace(strings.Split(forwardedFor, ",")[0])
	}
	if realIP := r.Header.Get(utils.HeaderXRealIP); realIP != "" {
		return realIP
	}
	if cfIP := r.Header.Get(utils.HeaderCFConnectingIP); cfIP != "" {
		return cfIP
	}
	return r.RemoteAddr
}

// responseWriterWrapper records status and size while writing through
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode    int
	bytes         int
	headerWritten bool
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	if !w.headerWritten {
		w.statusCode = statusCode
		w.headerWritten = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWrapper) Write(data []byte) (int, error) {
	w.headerWritten = true
	n, err := w.ResponseWriter.Write(data)
	w.bytes += n
	return n, err
}

// Flush implements http.Flusher interface for streaming support
func (w *responseWriterWrapper) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (w *responseWriterWrapper) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
