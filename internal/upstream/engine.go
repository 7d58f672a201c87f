package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/aashari/go-itinerary-gateway/internal/actions"
	"github.com/aashari/go-itinerary-gateway/internal/credential"
	"github.com/aashari/go-itinerary-gateway/internal/utils"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// maxErrorBodyBytes bounds how much of an error response is read for classification
const maxErrorBodyBytes = 64 << 10

// ExchangeRequest is everything one engine call needs. Body is the caller's
// payload, forwarded unmodified.
type ExchangeRequest struct {
	Credential credential.Credential
	Body       []byte
	Actions    []actions.Definition
}

// Engine performs the request/response exchange with the AI engine.
// A non-nil response has a status below 400; failures are returned as errors,
// ideally *APIError when the engine answered with a structured error.
type Engine interface {
	Exchange(ctx context.Context, req ExchangeRequest) (*http.Response, error)
}

// OpenAIEngine talks to an OpenAI-compatible endpoint. A client is built per
// call from the request's credential; the only secret the engine holds is the
// operator's action callback token.
type OpenAIEngine struct {
	baseURL     string
	path        string
	httpClient  *http.Client
	actionToken string
}

// NewOpenAIEngine creates an engine posting to baseURL + path
func NewOpenAIEngine(baseURL, path string, httpClient *http.Client) *OpenAIEngine {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	// a relative path resolves under the base URL's path
	return &OpenAIEngine{
		baseURL:    baseURL,
		path:       strings.TrimPrefix(path, "/"),
		httpClient: httpClient,
	}
}

// WithActionToken sets the token the engine must present when it calls an
// advertised action back. It is sent only alongside a non-empty action set.
func (e *OpenAIEngine) WithActionToken(token string) *OpenAIEngine {
	e.actionToken = token
	return e
}

// Exchange posts the body and returns the raw response for streaming relay
func (e *OpenAIEngine) Exchange(ctx context.Context, req ExchangeRequest) (*http.Response, error) {
	var failure *APIError

	// keep the engine's own error body; the SDK error alone loses flat shapes
	capture := func(r *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		resp, err := next(r)
		if err != nil || resp.StatusCode < http.StatusBadRequest {
			return resp, err
		}
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		resp.Body.Close()
		if readErr != nil {
			body = nil
		}
		failure = ParseAPIError(resp.StatusCode, body)
		resp.Body = io.NopCloser(bytes.NewReader(body))
		return resp, nil
	}

	opts := []option.RequestOption{
		option.WithAPIKey(req.Credential.Value()),
		option.WithBaseURL(e.baseURL),
		option.WithHTTPClient(e.httpClient),
		option.WithMaxRetries(0),
		option.WithMiddleware(capture),
	}
	if header, ok := encodeActions(req.Actions); ok {
		opts = append(opts, option.WithHeader(utils.HeaderCopilotActions, header))
		if e.actionToken != "" {
			opts = append(opts, option.WithHeader(utils.HeaderCopilotActionToken, e.actionToken))
		}
	}

	client := openai.NewClient(opts...)

	var resp *http.Response
	err := client.Post(ctx, e.path, nil, &resp, option.WithRequestBody(utils.ContentTypeJSON, bytes.NewReader(req.Body)))
	if err != nil {
		if failure != nil {
			return nil, mergeSDKError(failure, err)
		}
		return nil, err
	}
	return resp, nil
}

// mergeSDKError fills fields the raw body did not carry from the SDK's parsed error
func mergeSDKError(apiErr *APIError, err error) *APIError {
	sdk := asAPIError(err)
	if sdk == nil || sdk == apiErr {
		return apiErr
	}
	if apiErr.Message == "" {
		apiErr.Message = sdk.Message
	}
	if apiErr.Code == "" {
		apiErr.Code = sdk.Code
	}
	if apiErr.Type == "" {
		apiErr.Type = sdk.Type
	}
	return apiErr
}

// encodeActions renders the advertised action set for the actions header
func encodeActions(definitions []actions.Definition) (string, bool) {
	if len(definitions) == 0 {
		return "", false
	}
	data, err := json.Marshal(definitions)
	if err != nil {
		return "", false
	}
	return string(data), true
}
