package upstream

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"github.com/openai/openai-go"
)

// Kind tags an Outcome
type Kind string

const (
	KindSuccess   Kind = "success"
	KindAuth      Kind = "auth"
	KindRateLimit Kind = "rate_limit"
	KindTransport Kind = "transport"
	KindGeneric   Kind = "generic"
)

// Outcome is the result of one dispatch. On success Response holds the
// engine's response and its body must be relayed and closed by the caller.
// On failure StatusCode is the upstream status, or 0 when none was received.
type Outcome struct {
	Kind       Kind
	Response   *http.Response
	StatusCode int
	Code       string
	Message    string
	Err        error
}

// Success reports whether the outcome carries a response to relay
func (o *Outcome) Success() bool {
	return o != nil && o.Kind == KindSuccess
}

// Succeeded wraps a successful engine response
func Succeeded(resp *http.Response) *Outcome {
	return &Outcome{Kind: KindSuccess, Response: resp, StatusCode: resp.StatusCode}
}

// Classify turns any exchange error into a tagged failure outcome
func Classify(err error) *Outcome {
	if err == nil {
		return &Outcome{Kind: KindGeneric, Message: "upstream returned no response"}
	}

	if apiErr := asAPIError(err); apiErr != nil {
		outcome := &Outcome{
			StatusCode: apiErr.StatusCode,
			Code:       apiErr.Code,
			Message:    apiErr.Message,
			Err:        err,
		}
		switch {
		case apiErr.IsAuth():
			outcome.Kind = KindAuth
		case apiErr.IsRateLimit():
			outcome.Kind = KindRateLimit
		default:
			outcome.Kind = KindGeneric
			if outcome.Message == "" {
				outcome.Message = err.Error()
			}
		}
		return outcome
	}

	if isTransportError(err) {
		return &Outcome{Kind: KindTransport, Message: err.Error(), Err: err}
	}

	return &Outcome{Kind: KindGeneric, Message: err.Error(), Err: err}
}

// asAPIError finds a structured engine error in err's chain, converting SDK errors
func asAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var sdkErr *openai.Error
	if errors.As(err, &sdkErr) {
		return &APIError{
			StatusCode: sdkErr.StatusCode,
			Code:       sdkErr.Code,
			Type:       sdkErr.Type,
			Message:    sdkErr.Message,
		}
	}

	return nil
}

func isTransportError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
