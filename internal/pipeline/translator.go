package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/aashari/go-itinerary-gateway/internal/errors"
	"github.com/aashari/go-itinerary-gateway/internal/logger"
	"github.com/aashari/go-itinerary-gateway/internal/upstream"
	"github.com/aashari/go-itinerary-gateway/internal/utils"
)

const relayBufferSize = 32 << 10

// hopHeaders are connection-scoped and never relayed
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
	"Content-Length":      true,
}

// Translator turns a dispatch outcome into the HTTP response
type Translator struct{}

func NewTranslator() *Translator {
	return &Translator{}
}

// Result is what the translator wrote
type Result struct {
	StatusCode int
	Code       string
	Err        *errors.APIError
}

// Translate writes outcome to w. Success relays the upstream status, headers
// and body, flushing as chunks arrive; failures write the error envelope.
func (t *Translator) Translate(ctx context.Context, w http.ResponseWriter, outcome *upstream.Outcome) Result {
	ctx = logger.WithComponent(ctx, logger.ComponentNames.Translator)

	if outcome.Success() && outcome.Response != nil {
		return t.relay(ctx, w, outcome.Response)
	}

	apiErr := t.ErrorFor(outcome)
	errors.WriteError(ctx, w, apiErr)
	return Result{StatusCode: apiErr.Status, Code: apiErr.Code, Err: apiErr}
}

// ErrorFor maps a failed outcome onto the error taxonomy
func (t *Translator) ErrorFor(outcome *upstream.Outcome) *errors.APIError {
	if outcome == nil {
		return errors.NewUpstreamError(http.StatusInternalServerError, "", "upstream returned no outcome")
	}

	switch outcome.Kind {
	case upstream.KindAuth:
		return errors.NewUpstreamAuthError(outcome.Message)
	case upstream.KindRateLimit:
		return errors.NewRateLimitError()
	case upstream.KindTransport:
		cause := outcome.Err
		if cause == nil {
			cause = fmt.Errorf("%s", messageOf(outcome))
		}
		return errors.NewTransportError(cause)
	default:
		apiErr := errors.NewUpstreamError(outcome.StatusCode, outcome.Code, messageOf(outcome))
		apiErr.Err = outcome.Err
		return apiErr
	}
}

func messageOf(outcome *upstream.Outcome) string {
	switch {
	case outcome.Message != "":
		return outcome.Message
	case outcome.Err != nil:
		return outcome.Err.Error()
	default:
		return "upstream request failed"
	}
}

func (t *Translator) relay(ctx context.Context, w http.ResponseWriter, resp *http.Response) Result {
	defer resp.Body.Close()

	for key, values := range resp.Header {
		if hopHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.Header().Set(utils.HeaderXAccelBuffering, utils.XAccelBufferingNo)
	w.WriteHeader(resp.StatusCode)

	controller := http.NewResponseController(w)
	buf := make([]byte, relayBufferSize)
	var relayed int64

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				logger.Warn(logger.WithStage(ctx, logger.LogStages.StreamRelay), "Client went away during relay",
					"error_message", writeErr.Error(),
					"response_bytes", relayed,
				)
				break
			}
			relayed += int64(n)
			_ = controller.Flush()
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			logger.Warn(logger.WithStage(ctx, logger.LogStages.StreamRelay), "Upstream stream ended with error",
				"error_message", readErr.Error(),
				"response_bytes", relayed,
			)
			break
		}
	}

	logger.Debug(logger.WithStage(ctx, logger.LogStages.Translated), "Upstream response relayed",
		"response_status_code", resp.StatusCode,
		"response_bytes", relayed,
	)
	return Result{StatusCode: resp.StatusCode}
}
