package upstream

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// Upstream codes and types that carry classification meaning
const (
	CodeInvalidAPIKey      = "invalid_api_key"
	CodeRateLimitExceeded  = "rate_limit_exceeded"
	TypeAuthenticationFail = "authentication_error"
)

// APIError is a structured error returned by the engine
type APIError struct {
	StatusCode int
	Code       string
	Type       string
	Message    string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream API error [%d]: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Code != "" {
		return fmt.Sprintf("upstream API error [%d] %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("upstream API error [%d]: %s", e.StatusCode, e.Message)
}

// IsAuth reports an explicit auth code/type or HTTP 401
func (e *APIError) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized ||
		e.Code == CodeInvalidAPIKey ||
		e.Type == TypeAuthenticationFail
}

// IsRateLimit reports HTTP 429 or an explicit rate limit code
func (e *APIError) IsRateLimit() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.Code == CodeRateLimitExceeded
}

// ParseAPIError reads an engine error body. Both the nested OpenAI shape
// {"error":{"message","code","type"}} and a flat {"message","code"} are accepted;
// an unreadable body still yields an error carrying the status.
func ParseAPIError(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode}
	if len(body) == 0 || !gjson.ValidBytes(body) {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}

	root := gjson.ParseBytes(body)
	nested := root.Get("error")
	if nested.IsObject() {
		root = nested
	} else if nested.Type == gjson.String && root.Get("message").Type != gjson.String {
		apiErr.Message = nested.String()
	}

	if msg := root.Get("message"); msg.Type == gjson.String {
		apiErr.Message = msg.String()
	}
	// some providers send numeric codes
	if code := root.Get("code"); code.Exists() && code.Type != gjson.Null {
		apiErr.Code = code.String()
	}
	if errType := root.Get("type"); errType.Type == gjson.String {
		apiErr.Type = errType.String()
	}
	if status := root.Get("status"); apiErr.StatusCode == 0 && status.Type == gjson.Number {
		apiErr.StatusCode = int(status.Int())
	}

	return apiErr
}
