package upstream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aashari/go-itinerary-gateway/internal/actions"
	"github.com/aashari/go-itinerary-gateway/internal/credential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	requests []ExchangeRequest
	exchange func(ExchangeRequest) (*http.Response, error)
}

func (f *fakeEngine) Exchange(_ context.Context, req ExchangeRequest) (*http.Response, error) {
	f.requests = append(f.requests, req)
	return f.exchange(req)
}

func respond(status int, body string) func(ExchangeRequest) (*http.Response, error) {
	return func(ExchangeRequest) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	}
}

func researchRegistry() *actions.Registry {
	registry := actions.NewRegistry()
	registry.Register(actions.Action{Definition: actions.Definition{Name: "research"}})
	return registry
}

func TestDispatchSuccess(t *testing.T) {
	engine := &fakeEngine{exchange: respond(http.StatusOK, `{"id":"1"}`)}
	dispatcher := NewDispatcher(engine, researchRegistry())
	body := []byte(`{"messages":[]}`)
	cred := validCredential(t, testKey)

	outcome := dispatcher.Dispatch(context.Background(), cred, body)

	require.True(t, outcome.Success())
	defer outcome.Response.Body.Close()
	require.Len(t, engine.requests, 1)
	assert.Equal(t, testKey, engine.requests[0].Credential.Value())
	assert.Equal(t, body, engine.requests[0].Body)
	require.Len(t, engine.requests[0].Actions, 1)
	assert.Equal(t, "research", engine.requests[0].Actions[0].Name)
}

func TestDispatchForwardsACopy(t *testing.T) {
	engine := &fakeEngine{exchange: func(req ExchangeRequest) (*http.Response, error) {
		req.Body[0] = 'X'
		return respond(http.StatusOK, `{}`)(req)
	}}
	body := []byte(`{"messages":[]}`)

	NewDispatcher(engine, nil).Dispatch(context.Background(), validCredential(t, testKey), body)

	assert.Equal(t, `{"messages":[]}`, string(body))
}

func TestDispatchWithoutActions(t *testing.T) {
	engine := &fakeEngine{exchange: respond(http.StatusOK, `{}`)}

	NewDispatcher(engine, nil).Dispatch(context.Background(), validCredential(t, testKey), []byte(`{}`))
	NewDispatcher(engine, actions.NewRegistry()).Dispatch(context.Background(), validCredential(t, testKey), []byte(`{}`))

	require.Len(t, engine.requests, 2)
	assert.Empty(t, engine.requests[0].Actions)
	assert.Empty(t, engine.requests[1].Actions)
}

func TestDispatchFailures(t *testing.T) {
	tests := []struct {
		name         string
		exchange     func(ExchangeRequest) (*http.Response, error)
		expectedKind Kind
		expectedCode string
	}{
		{
			name:         "engine error",
			exchange:     func(ExchangeRequest) (*http.Response, error) { return nil, &APIError{StatusCode: 401} },
			expectedKind: KindAuth,
		},
		{
			name:         "error response without error value",
			exchange:     respond(http.StatusTooManyRequests, `{"error":{"code":"rate_limit_exceeded"}}`),
			expectedKind: KindRateLimit,
			expectedCode: "rate_limit_exceeded",
		},
		{
			name:         "transport",
			exchange:     func(ExchangeRequest) (*http.Response, error) { return nil, context.DeadlineExceeded },
			expectedKind: KindTransport,
		},
		{
			name:         "nil response",
			exchange:     func(ExchangeRequest) (*http.Response, error) { return nil, nil },
			expectedKind: KindGeneric,
		},
		{
			name:         "engine panic",
			exchange:     func(ExchangeRequest) (*http.Response, error) { panic("boom") },
			expectedKind: KindGeneric,
		},
		{
			name:         "generic error",
			exchange:     func(ExchangeRequest) (*http.Response, error) { return nil, errors.New("weird") },
			expectedKind: KindGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := NewDispatcher(&fakeEngine{exchange: tt.exchange}, nil)

			var outcome *Outcome
			assert.NotPanics(t, func() {
				outcome = dispatcher.Dispatch(context.Background(), validCredential(t, testKey), []byte(`{}`))
			})

			require.NotNil(t, outcome)
			assert.Equal(t, tt.expectedKind, outcome.Kind)
			assert.Equal(t, tt.expectedCode, outcome.Code)
			assert.Nil(t, outcome.Response)
		})
	}
}

func TestDispatchRejectsZeroCredential(t *testing.T) {
	engine := &fakeEngine{exchange: respond(http.StatusOK, `{}`)}

	outcome := NewDispatcher(engine, nil).Dispatch(context.Background(), credential.Credential{}, []byte(`{}`))

	assert.False(t, outcome.Success())
	assert.Empty(t, engine.requests)
}
