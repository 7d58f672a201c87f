package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/aashari/go-itinerary-gateway/internal/logger"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.Config{Level: logger.LevelError, Output: "stderr", ServiceName: "test", Environment: "test"}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	os.Exit(m.Run())
}

func TestRequestCorrelationMiddleware_GzippedResponse(t *testing.T) {
	var gzipBuffer bytes.Buffer
	gzipWriter := gzip.NewWriter(&gzipBuffer)
	_, _ = gzipWriter.Write([]byte(`{"message":"Hello, World!"}`))
	_ = gzipWriter.Close()
	gzippedResponse := gzipBuffer.Bytes()

	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Content-Encoding", "gzip")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(gzippedResponse)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/copilotkit", strings.NewReader(`{"test": "data"}`))
	rr := httptest.NewRecorder()

	RequestCorrelationMiddleware(testHandler).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", rr.Code)
	}
	if rr.Header().Get("Content-Encoding") != "gzip" {
		t.Errorf("Expected Content-Encoding: gzip, got %s", rr.Header().Get("Content-Encoding"))
	}

	gzipReader, err := gzip.NewReader(bytes.NewReader(rr.Body.Bytes()))
	if err != nil {
		t.Fatalf("Failed to create gzip reader: %v", err)
	}
	defer gzipReader.Close()

	decompressed, err := io.ReadAll(gzipReader)
	if err != nil {
		t.Fatalf("Failed to decompress response: %v", err)
	}
	if string(decompressed) != `{"message":"Hello, World!"}` {
		t.Errorf("Unexpected decompressed body: %s", decompressed)
	}
}

func TestRequestCorrelationMiddleware_LargeBodyNotTruncated(t *testing.T) {
	large := strings.Repeat("a", 64<<10)
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(large))
	})

	rr := httptest.NewRecorder()
	RequestCorrelationMiddleware(testHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))

	if rr.Body.Len() != len(large) {
		t.Errorf("Expected %d body bytes, got %d", len(large), rr.Body.Len())
	}
}

func TestRequestCorrelationMiddleware_RequestBodyUntouched(t *testing.T) {
	var seen string
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = string(body)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/copilotkit", strings.NewReader(`{"messages":[]}`))
	RequestCorrelationMiddleware(testHandler).ServeHTTP(httptest.NewRecorder(), req)

	if seen != `{"messages":[]}` {
		t.Errorf("Handler saw body %q", seen)
	}
}

func TestRequestCorrelationMiddleware_StreamingFlushes(t *testing.T) {
	testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = w.Write([]byte("data: one\n\n"))
		if err := http.NewResponseController(w).Flush(); err != nil {
			t.Errorf("Flush failed: %v", err)
		}
	})

	rr := httptest.NewRecorder()
	RequestCorrelationMiddleware(testHandler).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/copilotkit", nil))

	if !rr.Flushed {
		t.Error("Expected response to be flushed through the middleware")
	}
	if rr.Body.String() != "data: one\n\n" {
		t.Errorf("Unexpected body %q", rr.Body.String())
	}
}

func TestRequestCorrelationMiddleware_TrackingIDs(t *testing.T) {
	tests := []struct {
		name                  string
		headers               map[string]string
		expectedRequestID     string
		expectedCorrelationID string
	}{
		{
			name:                  "client ids",
			headers:               map[string]string{"X-Request-ID": "req-1", "X-Correlation-ID": "corr-1"},
			expectedRequestID:     "req-1",
			expectedCorrelationID: "corr-1",
		},
		{
			name:                  "cloudflare ray",
			headers:               map[string]string{"cf-ray": "ray-1"},
			expectedRequestID:     "ray-1",
			expectedCorrelationID: "ray-1",
		},
		{
			name:                  "request id becomes correlation id",
			headers:               map[string]string{"X-Request-ID": "req-2"},
			expectedRequestID:     "req-2",
			expectedCorrelationID: "req-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ctxRequestID string
			testHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxRequestID = logger.RequestIDFromContext(r.Context())
			})

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			RequestCorrelationMiddleware(testHandler).ServeHTTP(rr, req)

			if got := rr.Header().Get(RequestIDHeader); got != tt.expectedRequestID {
				t.Errorf("Expected request id %q, got %q", tt.expectedRequestID, got)
			}
			if got := rr.Header().Get(CorrelationIDHeader); got != tt.expectedCorrelationID {
				t.Errorf("Expected correlation id %q, got %q", tt.expectedCorrelationID, got)
			}
			if ctxRequestID != tt.expectedRequestID {
				t.Errorf("Expected request id %q in context, got %q", tt.expectedRequestID, ctxRequestID)
			}
		})
	}
}

func TestRequestCorrelationMiddleware_GeneratedIDs(t *testing.T) {
	rr := httptest.NewRecorder()
	RequestCorrelationMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	requestID := rr.Header().Get(RequestIDHeader)
	if requestID == "" {
		t.Fatal("Expected a generated request id")
	}
	if rr.Header().Get(CorrelationIDHeader) != requestID {
		t.Errorf("Expected correlation id to fall back to request id")
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if ip := getClientIP(req); ip != "203.0.113.7" {
		t.Errorf("Expected first forwarded address, got %q", ip)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "198.51.100.2")
	if ip := getClientIP(req); ip != "198.51.100.2" {
		t.Errorf("Expected X-Real-IP, got %q", ip)
	}
}

func TestCORSMiddleware(t *testing.T) {
	called := false
	handler := CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/copilotkit", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Expected preflight status 200, got %d", rr.Code)
	}
	if called {
		t.Error("Preflight request must not reach the handler")
	}
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Expected permissive origin, got %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/copilotkit", nil))
	if !called {
		t.Error("Expected POST to reach the handler")
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Methods"), "POST") {
		t.Errorf("Expected POST in allowed methods, got %q", rr.Header().Get("Access-Control-Allow-Methods"))
	}
}
