package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/aashari/go-itinerary-gateway/internal/credential"
	"github.com/aashari/go-itinerary-gateway/internal/database"
	"github.com/aashari/go-itinerary-gateway/internal/logger"
	"github.com/aashari/go-itinerary-gateway/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey     = "sk-abcdefghijklmnopqrstuvwxyz0123456789"
	fallbackKey = "sk-fallbackfallbackfallback"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.Config{Level: logger.LevelError, Output: "stderr", ServiceName: "test", Environment: "test"}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	os.Exit(m.Run())
}

type fakeDispatcher struct {
	mu          sync.Mutex
	credentials []string
	bodies      [][]byte
	outcome     func(cred credential.Credential) *upstream.Outcome
}

func (f *fakeDispatcher) Dispatch(_ context.Context, cred credential.Credential, body []byte) *upstream.Outcome {
	f.mu.Lock()
	f.credentials = append(f.credentials, cred.Value())
	f.bodies = append(f.bodies, body)
	f.mu.Unlock()
	return f.outcome(cred)
}

func (f *fakeDispatcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.credentials)
}

func succeed(body string) func(credential.Credential) *upstream.Outcome {
	return func(credential.Credential) *upstream.Outcome {
		return upstream.Succeeded(&http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(body)),
		})
	}
}

func fail(outcome upstream.Outcome) func(credential.Credential) *upstream.Outcome {
	return func(credential.Credential) *upstream.Outcome { return &outcome }
}

type recordingRecorder struct {
	mu      sync.Mutex
	records []database.PipelineRecord
}

func (r *recordingRecorder) Record(_ context.Context, record database.PipelineRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
}

type countingMetrics struct {
	strategies []string
	codes      []string
}

func (m *countingMetrics) RecordPipelineResult(strategy, errorCode string) {
	m.strategies = append(m.strategies, strategy)
	m.codes = append(m.codes, errorCode)
}

func newPipeline(dispatcher Dispatcher, options Options) *Pipeline {
	return New(credential.NewExtractor(), credential.NewValidator(), dispatcher, options)
}

func serve(p *Pipeline, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/copilotkit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	p.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Status  int    `json:"status"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	assert.Equal(t, w.Code, body.Status)
	return body
}

func TestPipelineEmbeddedJSONCredential(t *testing.T) {
	dispatcher := &fakeDispatcher{outcome: succeed(`{"id":"chat-1"}`)}
	p := newPipeline(dispatcher, Options{})

	payload := `{"messages":[{"content":"please use {\"apiKey\":\"` + testKey + `\"}"}]}`
	w := serve(p, payload)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"id":"chat-1"}`, w.Body.String())
	require.Equal(t, 1, dispatcher.calls())
	assert.Equal(t, testKey, dispatcher.credentials[0])
	assert.JSONEq(t, payload, string(dispatcher.bodies[0]))
}

func TestPipelineShortCredentialNeverDispatches(t *testing.T) {
	dispatcher := &fakeDispatcher{outcome: succeed(`{}`)}
	p := newPipeline(dispatcher, Options{FallbackCredential: fallbackKey})

	w := serve(p, `{"action":{"arguments":{"apiKey":"short"}}}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "invalid_api_key_format", body.Code)
	assert.Contains(t, body.Message, "too_short_to_inspect")
	assert.Equal(t, 0, dispatcher.calls())
}

func TestPipelineBadFormatCredential(t *testing.T) {
	dispatcher := &fakeDispatcher{outcome: succeed(`{}`)}
	p := newPipeline(dispatcher, Options{})

	w := serve(p, `{"action":{"arguments":{"formData":{"apiKey":"pk-0123456789abcdef"}}}}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "invalid_api_key_format", body.Code)
	assert.Contains(t, body.Message, "bad_format")
	assert.Contains(t, body.Message, `"sk-"`)
	assert.Equal(t, 0, dispatcher.calls())
}

func TestPipelineMissingCredential(t *testing.T) {
	tests := []struct {
		name            string
		payload         string
		expectedPreview string
	}{
		{
			name:            "preview of first message",
			payload:         `{"messages":[{"content":"Plan 3 days in Lisbon"},{"content":"thanks"}]}`,
			expectedPreview: "Plan 3 days in Lisbon",
		},
		{
			name:    "no messages",
			payload: `{}`,
		},
		{
			name:    "empty messages",
			payload: `{"messages":[]}`,
		},
		{
			name:    "first message without content",
			payload: `{"messages":[{"role":"user"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &fakeDispatcher{outcome: succeed(`{}`)}
			p := newPipeline(dispatcher, Options{})

			w := serve(p, tt.payload)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, "missing_api_key", body.Code)
			if tt.expectedPreview != "" {
				assert.Contains(t, body.Message, tt.expectedPreview)
			} else {
				assert.NotContains(t, body.Message, "first message")
			}
			assert.Equal(t, 0, dispatcher.calls())
		})
	}
}

func TestPipelineMissingCredentialPreviewIsBounded(t *testing.T) {
	p := newPipeline(&fakeDispatcher{outcome: succeed(`{}`)}, Options{})

	long := strings.Repeat("x", 500)
	w := serve(p, `{"messages":[{"content":"`+long+`"}]}`)

	body := decodeError(t, w)
	assert.Contains(t, body.Message, strings.Repeat("x", 200))
	assert.NotContains(t, body.Message, strings.Repeat("x", 201))
}

func TestPipelineMissingCredentialPreviewMasksSecrets(t *testing.T) {
	p := newPipeline(&fakeDispatcher{outcome: succeed(`{}`)}, Options{})

	// wrong key name, so no strategy matches
	w := serve(p, `{"messages":[{"content":"my key is sk-leakedleakedleaked"}]}`)

	body := decodeError(t, w)
	assert.Equal(t, "missing_api_key", body.Code)
	assert.NotContains(t, body.Message, "sk-leakedleakedleaked")
}

func TestPipelineFallbackCredential(t *testing.T) {
	dispatcher := &fakeDispatcher{outcome: succeed(`{}`)}
	recorder := &recordingRecorder{}
	p := newPipeline(dispatcher, Options{FallbackCredential: fallbackKey, Recorder: recorder})

	w := serve(p, `{"messages":[{"content":"no key here"}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, dispatcher.calls())
	assert.Equal(t, fallbackKey, dispatcher.credentials[0])
	require.Len(t, recorder.records, 1)
	assert.Equal(t, credential.StrategyFallback, recorder.records[0].Strategy)
}

func TestPipelinePayloadCredentialBeatsFallback(t *testing.T) {
	dispatcher := &fakeDispatcher{outcome: succeed(`{}`)}
	p := newPipeline(dispatcher, Options{FallbackCredential: fallbackKey})

	serve(p, `{"action":{"arguments":{"apiKey":"`+testKey+`"}}}`)

	require.Equal(t, 1, dispatcher.calls())
	assert.Equal(t, testKey, dispatcher.credentials[0])
}

func TestPipelineUpstreamFailures(t *testing.T) {
	tests := []struct {
		name            string
		outcome         upstream.Outcome
		expectedStatus  int
		expectedCode    string
		expectedMessage string
		expectCORS      bool
	}{
		{
			name:            "auth with upstream message",
			outcome:         upstream.Outcome{Kind: upstream.KindAuth, StatusCode: 401, Code: "invalid_api_key", Message: "Incorrect API key provided"},
			expectedStatus:  http.StatusUnauthorized,
			expectedCode:    "invalid_api_key",
			expectedMessage: "Incorrect API key provided",
			expectCORS:      true,
		},
		{
			name:            "auth without message",
			outcome:         upstream.Outcome{Kind: upstream.KindAuth, StatusCode: 401},
			expectedStatus:  http.StatusUnauthorized,
			expectedCode:    "invalid_api_key",
			expectedMessage: "API key rejected",
			expectCORS:      true,
		},
		{
			name:           "rate limit",
			outcome:        upstream.Outcome{Kind: upstream.KindRateLimit, StatusCode: 429, Message: "slow down"},
			expectedStatus: http.StatusTooManyRequests,
			expectedCode:   "rate_limit_exceeded",
		},
		{
			name:            "generic with upstream status and code",
			outcome:         upstream.Outcome{Kind: upstream.KindGeneric, StatusCode: 503, Code: "overloaded", Message: "engine overloaded"},
			expectedStatus:  http.StatusServiceUnavailable,
			expectedCode:    "overloaded",
			expectedMessage: "engine overloaded",
		},
		{
			name:            "generic without status",
			outcome:         upstream.Outcome{Kind: upstream.KindGeneric, Err: fmt.Errorf("weird failure")},
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    "unknown_error",
			expectedMessage: "weird failure",
		},
		{
			name:            "transport",
			outcome:         upstream.Outcome{Kind: upstream.KindTransport, Message: "dial tcp: connection refused", Err: fmt.Errorf("dial tcp: connection refused")},
			expectedStatus:  http.StatusInternalServerError,
			expectedCode:    "unknown_error",
			expectedMessage: "dial tcp: connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &fakeDispatcher{outcome: fail(tt.outcome)}
			p := newPipeline(dispatcher, Options{})

			w := serve(p, `{"action":{"arguments":{"apiKey":"`+testKey+`"}}}`)

			assert.Equal(t, tt.expectedStatus, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, tt.expectedCode, body.Code)
			if tt.expectedMessage != "" {
				assert.Equal(t, tt.expectedMessage, body.Message)
			}
			if tt.expectCORS {
				assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
			assert.Equal(t, 1, dispatcher.calls())
		})
	}
}

func TestPipelineBodyParseFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty", body: ""},
		{name: "invalid json", body: `{"messages":`},
		{name: "not an object", body: `["sk-abcdefghijklmnop"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &fakeDispatcher{outcome: succeed(`{}`)}
			p := newPipeline(dispatcher, Options{FallbackCredential: fallbackKey})

			w := serve(p, tt.body)

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			body := decodeError(t, w)
			assert.Equal(t, "internal_error", body.Code)
			assert.Equal(t, "could not process request", body.Message)
			assert.Equal(t, 0, dispatcher.calls())
		})
	}
}

func TestPipelineBodyTooLarge(t *testing.T) {
	dispatcher := &fakeDispatcher{outcome: succeed(`{}`)}
	p := newPipeline(dispatcher, Options{MaxBodyBytes: 16, FallbackCredential: fallbackKey})

	w := serve(p, `{"messages":[{"content":"this body is longer than sixteen bytes"}]}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", decodeError(t, w).Code)
	assert.Equal(t, 0, dispatcher.calls())
}

func TestPipelineRecoversFromPanic(t *testing.T) {
	dispatcher := &fakeDispatcher{outcome: func(credential.Credential) *upstream.Outcome { panic("boom") }}
	p := newPipeline(dispatcher, Options{})

	var w *httptest.ResponseRecorder
	assert.NotPanics(t, func() {
		w = serve(p, `{"action":{"arguments":{"apiKey":"`+testKey+`"}}}`)
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "internal_error", body.Code)
	assert.Equal(t, "could not process request", body.Message)
}

func TestPipelineNilOutcome(t *testing.T) {
	p := newPipeline(&fakeDispatcher{outcome: func(credential.Credential) *upstream.Outcome { return nil }}, Options{})

	w := serve(p, `{"action":{"arguments":{"apiKey":"`+testKey+`"}}}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "unknown_error", decodeError(t, w).Code)
}

func TestPipelineMethodNotAllowed(t *testing.T) {
	dispatcher := &fakeDispatcher{outcome: succeed(`{}`)}
	p := newPipeline(dispatcher, Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/copilotkit", nil)
	w := httptest.NewRecorder()
	p.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "method_not_allowed", decodeError(t, w).Code)
	assert.Equal(t, 0, dispatcher.calls())
}

func TestPipelineRecordsAndCounts(t *testing.T) {
	recorder := &recordingRecorder{}
	metrics := &countingMetrics{}
	dispatcher := &fakeDispatcher{outcome: fail(upstream.Outcome{Kind: upstream.KindAuth, StatusCode: 401})}
	p := newPipeline(dispatcher, Options{Recorder: recorder, Metrics: metrics, Endpoint: "copilotkit"})

	serve(p, `{"action":{"arguments":{"apiKey":"`+testKey+`"}}}`)

	require.Len(t, recorder.records, 1)
	record := recorder.records[0]
	assert.Equal(t, "copilotkit", record.Endpoint)
	assert.Equal(t, credential.StrategyActionArguments, record.Strategy)
	assert.Equal(t, "auth", record.OutcomeKind)
	assert.Equal(t, http.StatusUnauthorized, record.StatusCode)
	assert.Equal(t, "invalid_api_key", record.ErrorCode)
	assert.Equal(t, "sk-...6789", record.CredentialHint)
	assert.NotContains(t, fmt.Sprintf("%+v", record), testKey)

	assert.Equal(t, []string{credential.StrategyActionArguments}, metrics.strategies)
	assert.Equal(t, []string{"invalid_api_key"}, metrics.codes)
}

func TestPipelineRecordsRejection(t *testing.T) {
	recorder := &recordingRecorder{}
	p := newPipeline(&fakeDispatcher{outcome: succeed(`{}`)}, Options{Recorder: recorder})

	serve(p, `{"action":{"arguments":{"apiKey":"short"}}}`)

	require.Len(t, recorder.records, 1)
	assert.Equal(t, OutcomeRejected, recorder.records[0].OutcomeKind)
	assert.Equal(t, string(credential.ReasonTooShort), recorder.records[0].RejectionReason)
	assert.Equal(t, http.StatusBadRequest, recorder.records[0].StatusCode)
}

func TestPipelineConcurrentCredentialsStayIsolated(t *testing.T) {
	dispatcher := &fakeDispatcher{outcome: func(cred credential.Credential) *upstream.Outcome {
		return upstream.Succeeded(&http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader(cred.Value())),
		})
	}}
	p := newPipeline(dispatcher, Options{FallbackCredential: fallbackKey})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("sk-concurrent-caller-%04d", i)
			w := serve(p, `{"action":{"arguments":{"apiKey":"`+key+`"}}}`)
			assert.Equal(t, key, w.Body.String())
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, dispatcher.calls())
}
