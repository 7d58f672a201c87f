package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/aashari/go-itinerary-gateway/internal/app"
	"github.com/aashari/go-itinerary-gateway/internal/config"
	"github.com/aashari/go-itinerary-gateway/internal/logger"
)

// TestCallbackToken is the action callback token configured when research is enabled
const TestCallbackToken = "callback-integration-0123456789"

// EngineRequest is one request received by the fake engine
type EngineRequest struct {
	Path          string
	Authorization string
	Actions       string
	ActionToken   string
	Body          string
}

// EngineResponse is what the fake engine answers with. Chunks are written
// and flushed one by one.
type EngineResponse struct {
	Status      int
	ContentType string
	Chunks      []string
}

// FakeEngine is an OpenAI-compatible endpoint that records every request
type FakeEngine struct {
	server   *httptest.Server
	mu       sync.Mutex
	requests []EngineRequest
	response EngineResponse
}

func newFakeEngine() *FakeEngine {
	engine := &FakeEngine{
		response: EngineResponse{
			Status:      http.StatusOK,
			ContentType: "application/json",
			Chunks:      []string{`{"id":"chatcmpl-test","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Day 1: Alfama"}}]}`},
		},
	}
	engine.server = httptest.NewServer(http.HandlerFunc(engine.serve))
	return engine
}

func (e *FakeEngine) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	e.mu.Lock()
	e.requests = append(e.requests, EngineRequest{
		Path:          r.URL.Path,
		Authorization: r.Header.Get("Authorization"),
		Actions:       r.Header.Get("X-Copilot-Actions"),
		ActionToken:   r.Header.Get("X-Copilot-Action-Token"),
		Body:          string(body),
	})
	response := e.response
	e.mu.Unlock()

	w.Header().Set("Content-Type", response.ContentType)
	w.WriteHeader(response.Status)
	for _, chunk := range response.Chunks {
		_, _ = w.Write([]byte(chunk))
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

// Respond replaces the engine's response for subsequent requests
func (e *FakeEngine) Respond(response EngineResponse) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.response = response
}

// Requests returns a copy of the received requests
func (e *FakeEngine) Requests() []EngineRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]EngineRequest(nil), e.requests...)
}

// LastRequest returns the most recent request, or false when none arrived
func (e *FakeEngine) LastRequest() (EngineRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.requests) == 0 {
		return EngineRequest{}, false
	}
	return e.requests[len(e.requests)-1], true
}

// URL returns the engine's base URL
func (e *FakeEngine) URL() string {
	return e.server.URL
}

// Close stops the engine; later exchanges fail at the transport level
func (e *FakeEngine) Close() {
	e.server.Close()
}

// TestServer represents a test server instance with common utilities
type TestServer struct {
	server     *httptest.Server
	research   *httptest.Server
	app        *app.App
	baseURL    string
	httpClient *http.Client
	t          *testing.T

	Engine *FakeEngine
}

// TestConfig holds configuration for test server setup
type TestConfig struct {
	Timeout         time.Duration
	ServiceName     string
	FallbackAPIKey  string
	ResearchEnabled bool
	CORSEnabled     bool
}

// DefaultTestConfig returns default configuration for tests
func DefaultTestConfig() TestConfig {
	return TestConfig{
		Timeout:     30 * time.Second,
		ServiceName: "test-server",
		CORSEnabled: true,
	}
}

// NewTestServer creates a gateway wired to a fake engine and, when enabled,
// a fake research provider
func NewTestServer(t *testing.T, testConfig TestConfig) *TestServer {
	t.Helper()

	loggerConfig := logger.Config{
		Level:       logger.LevelError,
		Format:      "json",
		Output:      "stderr",
		ServiceName: testConfig.ServiceName,
		Environment: "test",
	}
	if err := logger.Init(loggerConfig); err != nil {
		t.Fatalf("Failed to initialize logger: %v", err)
	}

	engine := newFakeEngine()

	cfg := config.DefaultConfig()
	cfg.Upstream.BaseURL = engine.URL() + "/v1"
	cfg.Upstream.Timeout = testConfig.Timeout
	cfg.Upstream.FallbackAPIKey = testConfig.FallbackAPIKey
	cfg.Security.CORSEnabled = testConfig.CORSEnabled

	var research *httptest.Server
	if testConfig.ResearchEnabled {
		research = newFakeResearch()
		cfg.Research.APIKey = "tvly-test-key"
		cfg.Research.BaseURL = research.URL
		cfg.Research.CallbackToken = TestCallbackToken
	}

	application, err := app.NewApp(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}
	// counters are process wide; each server starts from zero
	application.Metrics.Reset()

	server := httptest.NewServer(application.SetupRoutes())

	return &TestServer{
		server:     server,
		research:   research,
		app:        application,
		baseURL:    server.URL,
		httpClient: &http.Client{Timeout: testConfig.Timeout},
		t:          t,
		Engine:     engine,
	}
}

// SetupTestServer creates a test server with the default configuration
func SetupTestServer(t *testing.T) *TestServer {
	return NewTestServer(t, DefaultTestConfig())
}

// newFakeResearch answers search calls with a fixed answer naming the query
func newFakeResearch() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query string `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"answer": "Findings about " + req.Query,
			"results": []map[string]interface{}{
				{"title": "Guide", "url": "https://example.com/guide", "content": "Travel notes", "score": 0.9},
			},
		})
	}))
}

// Teardown shuts down the gateway and its fake dependencies
func (ts *TestServer) Teardown() {
	ts.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ts.app.Shutdown(ctx); err != nil {
		ts.t.Logf("App shutdown returned: %v", err)
	}
}

// Close shuts down the test servers
func (ts *TestServer) Close() {
	if ts.server != nil {
		ts.server.Close()
	}
	if ts.research != nil {
		ts.research.Close()
	}
	if ts.Engine != nil {
		ts.Engine.Close()
	}
}

// BaseURL returns the base URL of the test server
func (ts *TestServer) BaseURL() string {
	return ts.baseURL
}

// HTTPClient returns the client used for requests
func (ts *TestServer) HTTPClient() *http.Client {
	return ts.httpClient
}

// App returns the application instance
func (ts *TestServer) App() *app.App {
	return ts.app
}

// MakeRequest makes an HTTP request to the test server. A []byte or string
// body is sent as-is; anything else is JSON encoded.
func (ts *TestServer) MakeRequest(method, endpoint string, body interface{}, headers map[string]string) (*http.Response, []byte, error) {
	var reqBody io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reqBody = bytes.NewReader(b)
	case string:
		reqBody = bytes.NewBufferString(b)
	default:
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, ts.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "ItineraryGateway-Test/1.0")

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := ts.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to make request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp, nil, fmt.Errorf("failed to read response body: %v", err)
	}

	return resp, respBody, nil
}

// AssertStatusCode asserts that the response has the expected status code
func (ts *TestServer) AssertStatusCode(resp *http.Response, expected int) {
	ts.t.Helper()
	if resp.StatusCode != expected {
		ts.t.Errorf("Expected status code %d, got %d", expected, resp.StatusCode)
	}
}

// AssertJSONResponse asserts that the response body is valid JSON and unmarshals it
func (ts *TestServer) AssertJSONResponse(body []byte, target interface{}) {
	ts.t.Helper()
	if err := json.Unmarshal(body, target); err != nil {
		ts.t.Fatalf("Failed to parse JSON response: %v\nBody: %s", err, string(body))
	}
}

// AssertErrorCode asserts the error envelope's status and code
func (ts *TestServer) AssertErrorCode(resp *http.Response, body []byte, status int, code string) ErrorResponse {
	ts.t.Helper()
	ts.AssertStatusCode(resp, status)

	var errResp ErrorResponse
	ts.AssertJSONResponse(body, &errResp)
	if errResp.Code != code {
		ts.t.Errorf("Expected error code %q, got %q (message: %s)", code, errResp.Code, errResp.Message)
	}
	if errResp.Status != status {
		ts.t.Errorf("Expected envelope status %d, got %d", status, errResp.Status)
	}
	return errResp
}

// LogResponse logs the response for debugging
func (ts *TestServer) LogResponse(resp *http.Response, body []byte) {
	ts.t.Logf("Response Status: %d", resp.StatusCode)
	ts.t.Logf("Response Headers: %v", resp.Header)
	ts.t.Logf("Response Body: %s", string(body))
}
