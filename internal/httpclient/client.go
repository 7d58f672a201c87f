package httpclient

import (
	"net/http"
	"time"

	"github.com/aashari/go-itinerary-gateway/internal/utils"
)

// Options holds HTTP client configuration options
type Options struct {
	Timeout   time.Duration
	UserAgent string
}

// Factory creates configured HTTP clients for outbound calls to the engine
// and the research provider. Clients never retry.
type Factory struct {
	defaultOptions Options
	transport      *http.Transport
}

// NewFactory creates a new HTTP client factory with default options
func NewFactory(defaultOptions Options) *Factory {
	if defaultOptions.Timeout == 0 {
		defaultOptions.Timeout = 60 * time.Second
	}
	if defaultOptions.UserAgent == "" {
		defaultOptions.UserAgent = utils.ServiceName
	}

	return &Factory{
		defaultOptions: defaultOptions,
		transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// CreateClient creates an HTTP client with the specified options.
// Clients share one connection pool; no per-call state is kept on them.
func (f *Factory) CreateClient(options Options) *http.Client {
	if options.Timeout == 0 {
		options.Timeout = f.defaultOptions.Timeout
	}
	if options.UserAgent == "" {
		options.UserAgent = f.defaultOptions.UserAgent
	}

	return &http.Client{
		Timeout: options.Timeout,
		Transport: &userAgentTransport{
			base:      f.transport,
			userAgent: options.UserAgent,
		},
	}
}

// CreateStreamingClient creates a client for long-lived streamed responses.
// Only the wait for response headers is bounded; the body is read for as
// long as the request context allows.
func (f *Factory) CreateStreamingClient(headerTimeout time.Duration) *http.Client {
	if headerTimeout == 0 {
		headerTimeout = f.defaultOptions.Timeout
	}

	transport := f.transport.Clone()
	transport.ResponseHeaderTimeout = headerTimeout

	return &http.Client{
		Transport: &userAgentTransport{
			base:      transport,
			userAgent: f.defaultOptions.UserAgent,
		},
	}
}

// CreateDefaultClient creates a client with default options
func (f *Factory) CreateDefaultClient() *http.Client {
	return f.CreateClient(Options{})
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(utils.HeaderUserAgent) != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set(utils.HeaderUserAgent, t.userAgent)
	return t.base.RoundTrip(clone)
}
