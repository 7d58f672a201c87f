package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/aashari/go-itinerary-gateway/internal/logger"
	"github.com/aashari/go-itinerary-gateway/internal/utils"
)

// Kind classifies every failure the gateway can report
type Kind string

const (
	KindMissingCredential       Kind = "MissingCredential"
	KindInvalidCredentialFormat Kind = "InvalidCredentialFormat"
	KindUpstreamAuthRejected    Kind = "UpstreamAuthRejected"
	KindUpstreamRateLimited     Kind = "UpstreamRateLimited"
	KindUpstreamGenericError    Kind = "UpstreamGenericError"
	KindBodyParseFailure        Kind = "BodyParseFailure"
	KindTransportFailure        Kind = "TransportFailure"
	KindNotFound                Kind = "NotFound"
	KindMethodNotAllowed        Kind = "MethodNotAllowed"
	KindInvalidRequest          Kind = "InvalidRequest"
	KindConfiguration           Kind = "Configuration"
	KindCallbackUnauthorized    Kind = "CallbackUnauthorized"
)

// Machine-readable codes returned in the "code" field
const (
	CodeMissingAPIKey       = "missing_api_key"
	CodeInvalidAPIKeyFormat = "invalid_api_key_format"
	CodeInvalidAPIKey       = "invalid_api_key"
	CodeRateLimitExceeded   = "rate_limit_exceeded"
	CodeUnknownError        = "unknown_error"
	CodeInternalError       = "internal_error"
	CodeActionNotFound      = "action_not_found"
	CodeMethodNotAllowed    = "method_not_allowed"
	CodeInvalidRequest      = "invalid_request"
	CodeConfigurationError  = "configuration_error"
	CodeInvalidCallbackAuth = "invalid_callback_token"
)

// Default messages
const (
	MessageAPIKeyRejected  = "API key rejected"
	MessageRateLimited     = "Rate limit exceeded, please retry later"
	MessageCouldNotProcess = "could not process request"
	MessageMissingAPIKey   = "No API key was provided in the request and no default key is configured"
)

const (
	titleMissingAPIKey    = "Missing API Key"
	titleInvalidFormat    = "Invalid API Key Format"
	titleInvalidAPIKey    = "Invalid API Key"
	titleRateLimited      = "Rate Limit Exceeded"
	titleUpstreamError    = "Upstream Error"
	titleTransportFailure = "Transport Failure"
	titleInternalError    = "Internal Server Error"
	titleNotFound         = "Not Found"
	titleMethodNotAllowed = "Method Not Allowed"
	titleInvalidRequest   = "Invalid Request"
	titleConfiguration    = "Configuration Error"
	titleUnauthorized     = "Unauthorized"
)

// APIError is the error envelope written to callers: {error, message, code, status}
type APIError struct {
	Title   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Status  int    `json:"status"`

	Kind Kind  `json:"-"`
	Err  error `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewAPIError creates a new APIError
func NewAPIError(kind Kind, status int, code, title, message string) *APIError {
	return &APIError{
		Title:   title,
		Message: message,
		Code:    code,
		Status:  status,
		Kind:    kind,
	}
}

// NewMissingCredentialError builds the 400 returned when no key could be resolved.
// preview is the already-masked diagnostic excerpt of the first message, may be empty.
func NewMissingCredentialError(preview string) *APIError {
	message := MessageMissingAPIKey
	if preview != "" {
		message = fmt.Sprintf("%s (first message: %q)", message, preview)
	}
	return NewAPIError(KindMissingCredential, http.StatusBadRequest, CodeMissingAPIKey, titleMissingAPIKey, message)
}

// NewInvalidCredentialFormatError names the rule the candidate violated
func NewInvalidCredentialFormatError(reason, rule string, cause error) *APIError {
	e := NewAPIError(KindInvalidCredentialFormat, http.StatusBadRequest, CodeInvalidAPIKeyFormat, titleInvalidFormat,
		fmt.Sprintf("API key failed validation (%s): %s", reason, rule))
	e.Err = cause
	return e
}

func NewUpstreamAuthError(message string) *APIError {
	if message == "" {
		message = MessageAPIKeyRejected
	}
	return NewAPIError(KindUpstreamAuthRejected, http.StatusUnauthorized, CodeInvalidAPIKey, titleInvalidAPIKey, message)
}

func NewRateLimitError() *APIError {
	return NewAPIError(KindUpstreamRateLimited, http.StatusTooManyRequests, CodeRateLimitExceeded, titleRateLimited, MessageRateLimited)
}

// NewUpstreamError covers every upstream failure that is neither auth nor rate limit
func NewUpstreamError(status int, code, message string) *APIError {
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	if code == "" {
		code = CodeUnknownError
	}
	return NewAPIError(KindUpstreamGenericError, status, code, titleUpstreamError, message)
}

func NewTransportError(cause error) *APIError {
	message := "upstream exchange failed"
	if cause != nil {
		message = cause.Error()
	}
	e := NewAPIError(KindTransportFailure, http.StatusInternalServerError, CodeUnknownError, titleTransportFailure, message)
	e.Err = cause
	return e
}

// NewBodyParseError is also used for recovered panics
func NewBodyParseError(cause error) *APIError {
	e := NewAPIError(KindBodyParseFailure, http.StatusInternalServerError, CodeInternalError, titleInternalError, MessageCouldNotProcess)
	e.Err = cause
	return e
}

func NewNotFoundError(code, message string) *APIError {
	return NewAPIError(KindNotFound, http.StatusNotFound, code, titleNotFound, message)
}

func NewMethodNotAllowedError(method string) *APIError {
	return NewAPIError(KindMethodNotAllowed, http.StatusMethodNotAllowed, CodeMethodNotAllowed, titleMethodNotAllowed,
		fmt.Sprintf("method %s is not allowed", method))
}

func NewInvalidRequestError(message string) *APIError {
	return NewAPIError(KindInvalidRequest, http.StatusBadRequest, CodeInvalidRequest, titleInvalidRequest, message)
}

// NewCallbackUnauthorizedError is returned to action callers that do not
// present the configured callback token
func NewCallbackUnauthorizedError() *APIError {
	return NewAPIError(KindCallbackUnauthorized, http.StatusUnauthorized, CodeInvalidCallbackAuth, titleUnauthorized,
		"action callbacks require the configured callback token")
}

// NewConfigurationError reports an invalid startup configuration
func NewConfigurationError(message string) *APIError {
	return NewAPIError(KindConfiguration, http.StatusInternalServerError, CodeConfigurationError, titleConfiguration, message)
}

// As returns the APIError wrapped in err, if any
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// WithCORS adds permissive CORS headers so browser callers can read the error body
func WithCORS(w http.ResponseWriter) {
	w.Header().Set(utils.HeaderAccessControlAllowOrigin, utils.CORSAllowOriginAll)
	w.Header().Set(utils.HeaderAccessControlAllowMethods, utils.CORSAllowMethodsAll)
	w.Header().Set(utils.HeaderAccessControlAllowHeaders, utils.CORSAllowHeadersStd)
	w.Header().Set(utils.HeaderAccessControlExposeHeaders, utils.CORSExposeHeadersStd)
}

// HandleError writes a standardized error response to the HTTP response writer.
// An APIError anywhere in err's chain decides the status; otherwise statusCode is used.
func HandleError(w http.ResponseWriter, err error, statusCode int) {
	HandleErrorContext(context.Background(), w, err, statusCode)
}

// HandleErrorContext is HandleError with request-scoped logging
func HandleErrorContext(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	apiError, ok := As(err)
	if !ok {
		apiError = inferError(err, statusCode)
	}
	WriteError(ctx, w, apiError)
}

// WriteError serializes apiErr with its own status
func WriteError(ctx context.Context, w http.ResponseWriter, apiErr *APIError) {
	if apiErr.Kind == KindUpstreamAuthRejected {
		WithCORS(w)
	}

	w.Header().Set(utils.HeaderContentType, utils.ContentTypeJSON)
	w.WriteHeader(apiErr.Status)

	if jsonBytes, jsonErr := json.Marshal(apiErr); jsonErr == nil {
		_, _ = w.Write(jsonBytes)
	} else {
		logger.Error(ctx, "Error marshaling error response", jsonErr)
		_, _ = w.Write([]byte(`{"error":"Internal Server Error","message":"could not process request","code":"internal_error","status":500}`))
	}

	logger.Warn(ctx, "API error response",
		"response_status_code", apiErr.Status,
		"error_code", apiErr.Code,
		"error_kind", string(apiErr.Kind),
		"error_message", utils.SanitizeString(apiErr.Message),
	)
}

// inferError converts a plain error using the status the caller chose
func inferError(err error, statusCode int) *APIError {
	message := MessageCouldNotProcess
	if err != nil {
		message = err.Error()
	}

	switch statusCode {
	case http.StatusBadRequest:
		return NewInvalidRequestError(message)
	case http.StatusUnauthorized:
		return NewUpstreamAuthError(message)
	case http.StatusNotFound:
		return NewNotFoundError(CodeUnknownError, message)
	case http.StatusMethodNotAllowed:
		return NewAPIError(KindMethodNotAllowed, statusCode, CodeMethodNotAllowed, titleMethodNotAllowed, message)
	case http.StatusTooManyRequests:
		return NewRateLimitError()
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return NewUpstreamError(statusCode, CodeUnknownError, message)
	default:
		e := NewBodyParseError(err)
		if statusCode >= http.StatusBadRequest {
			e.Status = statusCode
		}
		return e
	}
}
