package handlers

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aashari/go-itinerary-gateway/internal/actions"
	"github.com/aashari/go-itinerary-gateway/internal/errors"
	"github.com/aashari/go-itinerary-gateway/internal/health"
	"github.com/aashari/go-itinerary-gateway/internal/logger"
	"github.com/aashari/go-itinerary-gateway/internal/utils"
)

// maxActionBodyBytes bounds an action callback body
const maxActionBodyBytes = 1 << 20

// startTime tracks when the application started
var startTime = time.Now()

// HealthResponse represents the structured health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Details   map[string]any    `json:"details"`
}

// ActionRecorder counts executed actions
type ActionRecorder interface {
	RecordAction(name string)
}

// APIHandlers contains the dependencies needed for API handlers
type APIHandlers struct {
	Pipeline      http.Handler
	Actions       *actions.Registry
	CallbackToken string
	HealthChecker *health.HealthChecker
	Metrics       ActionRecorder
}

// NewAPIHandlers creates a new APIHandlers instance. An empty callbackToken
// disables action callbacks.
func NewAPIHandlers(pipeline http.Handler, registry *actions.Registry, callbackToken string, checker *health.HealthChecker, metrics ActionRecorder) *APIHandlers {
	return &APIHandlers{
		Pipeline:      pipeline,
		Actions:       registry,
		CallbackToken: callbackToken,
		HealthChecker: checker,
		Metrics:       metrics,
	}
}

// ActionCallbacksEnabled reports whether the action callback route should be served
func (h *APIHandlers) ActionCallbacksEnabled() bool {
	return h.CallbackToken != ""
}

// HealthHandler handles the health check endpoint
// @Summary      Health check endpoint
// @Description  Returns structured health covering configuration, fallback credential, research action and database. Pass check to run a single check.
// @Tags         health
// @Produce      json
// @Param        check  query     string          false  "Run only the named check (e.g. 'research')"
// @Success      200    {object}  handlers.HealthResponse  "Healthy or degraded"
// @Failure      404    {object}  ErrorResponse   "Unknown check"
// @Failure      503    {object}  handlers.HealthResponse  "Unhealthy"
// @Router       /health [get]
func (h *APIHandlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithStage(logger.WithComponent(r.Context(), logger.ComponentNames.Handler), logger.LogStages.HealthCheck)

	version := os.Getenv("VERSION")
	if version == "" {
		version = "unknown"
	}

	var (
		overallStatus health.HealthStatus
		results       map[string]health.HealthCheckResult
	)

	if name := r.URL.Query().Get("check"); name != "" {
		result, err := h.HealthChecker.ExecuteCheck(ctx, name)
		if err != nil {
			errors.WriteError(ctx, w, errors.NewNotFoundError(errors.CodeUnknownError, err.Error()))
			return
		}
		overallStatus = result.Status
		results = map[string]health.HealthCheckResult{name: *result}
	} else {
		overallStatus, results = h.HealthChecker.GetOverallHealth(ctx)
	}

	services := make(map[string]string, len(results))
	checks := make(map[string]string, len(results))
	for name, result := range results {
		services[name] = serviceState(result.Status)
		checks[name] = result.Message
	}

	healthResponse := HealthResponse{
		Status:    string(overallStatus),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
		Details: map[string]any{
			"version": version,
			"uptime":  int64(time.Since(startTime).Seconds()),
			"checks":  checks,
		},
	}

	// degraded is still serving traffic
	statusCode := http.StatusOK
	if overallStatus == health.StatusUnhealthy || overallStatus == health.StatusUnknown {
		statusCode = http.StatusServiceUnavailable
	}

	writeJSON(ctx, w, statusCode, healthResponse)
}

func serviceState(status health.HealthStatus) string {
	switch status {
	case health.StatusHealthy:
		return "up"
	case health.StatusDegraded:
		return "degraded"
	default:
		return "down"
	}
}

// CopilotKitHandler handles the pipeline entry point
// @Summary      Chat and action requests
// @Description  Resolves the caller's API key from the payload (action arguments, then embedded message JSON, then message text), falls back to the configured default, validates it and relays the engine's response. Streaming responses are flushed as they arrive.
// @Tags         copilotkit
// @Accept       json
// @Produce      json
// @Produce      text/event-stream
// @Param        request  body      CopilotKitRequest  true  "Chat or action payload"
// @Success      200      {string}  string             "Engine response, relayed unmodified"
// @Failure      400      {object}  ErrorResponse      "Missing API key or invalid API key format"
// @Failure      401      {object}  ErrorResponse      "API key rejected by the engine"
// @Failure      429      {object}  ErrorResponse      "Rate limited by the engine"
// @Failure      500      {object}  ErrorResponse      "Unparseable body or engine failure"
// @Router       /api/copilotkit [post]
func (h *APIHandlers) CopilotKitHandler(w http.ResponseWriter, r *http.Request) {
	h.Pipeline.ServeHTTP(w, r)
}

// ActionHandler executes a server-side action on behalf of the engine
// @Summary      Execute a server-side action
// @Description  Called back by the engine to run an advertised action such as 'research'. The bearer token must equal the configured ACTION_CALLBACK_TOKEN, which the gateway sends to the engine in X-Copilot-Action-Token. The route is not served when no token is configured.
// @Tags         actions
// @Accept       json
// @Produce      json
// @Param        name     path      string          true  "Action name"
// @Param        request  body      ActionRequest   true  "Action arguments"
// @Security     BearerAuth
// @Success      200      {object}  ActionResponse  "Action result"
// @Failure      400      {object}  ErrorResponse   "Invalid arguments"
// @Failure      401      {object}  ErrorResponse   "Missing or unknown callback token"
// @Failure      404      {object}  ErrorResponse   "Unknown or disabled action"
// @Failure      502      {object}  ErrorResponse   "Action provider failed"
// @Router       /api/copilotkit/actions/{name} [post]
func (h *APIHandlers) ActionHandler(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithStage(logger.WithComponent(r.Context(), logger.ComponentNames.Handler), logger.LogStages.ActionExecution)
	name := r.PathValue("name")

	if !h.authorizedCallback(r) {
		logger.Warn(ctx, "Action callback rejected", "action", name, "has_bearer", r.Header.Get(utils.HeaderAuthorization) != "")
		errors.WriteError(ctx, w, errors.NewCallbackUnauthorizedError())
		return
	}

	if _, found := h.Actions.Lookup(name); !found {
		errors.WriteError(ctx, w, errors.NewNotFoundError(errors.CodeActionNotFound, fmt.Sprintf("action %q is not available", name)))
		return
	}

	args, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxActionBodyBytes))
	if err != nil {
		errors.HandleErrorContext(ctx, w, fmt.Errorf("reading action arguments: %w", err), http.StatusBadRequest)
		return
	}
	if !json.Valid(args) {
		errors.WriteError(ctx, w, errors.NewInvalidRequestError("request body must be a JSON object"))
		return
	}

	start := time.Now()
	result, err := h.Actions.Execute(ctx, name, args)
	if h.Metrics != nil {
		h.Metrics.RecordAction(name)
	}
	if err != nil {
		errors.HandleErrorContext(ctx, w, actionError(name, err), http.StatusBadGateway)
		return
	}

	logger.Info(ctx, "Action executed",
		"action", name,
		"result_chars", len(result),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	writeJSON(ctx, w, http.StatusOK, ActionResponse{Result: result})
}

// actionError classifies known failures; anything else becomes a 502
func actionError(name string, err error) error {
	switch {
	case stderrors.Is(err, actions.ErrUnknownAction):
		return errors.NewNotFoundError(errors.CodeActionNotFound, fmt.Sprintf("action %q is not available", name))
	case stderrors.Is(err, actions.ErrInvalidArguments):
		return errors.NewInvalidRequestError(err.Error())
	default:
		return fmt.Errorf("action %q failed: %w", name, err)
	}
}

// authorizedCallback compares the bearer token with the configured callback token in constant time
func (h *APIHandlers) authorizedCallback(r *http.Request) bool {
	if h.CallbackToken == "" {
		return false
	}
	token, ok := bearerToken(r)
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.CallbackToken)) == 1
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(r.Header.Get(utils.HeaderAuthorization)), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, body any) {
	jsonResponse, err := json.Marshal(body)
	if err != nil {
		logger.Error(ctx, "Failed to marshal response", err)
		errors.WriteError(ctx, w, errors.NewBodyParseError(err))
		return
	}

	w.Header().Set(utils.HeaderContentType, utils.ContentTypeJSON)
	w.WriteHeader(statusCode)
	if _, err := w.Write(jsonResponse); err != nil {
		logger.Error(ctx, "Failed to write response", err, "response_size", len(jsonResponse))
	}
}

// Swagger type definitions

// CopilotKitRequest is the shape of a pipeline request. Only the fields the
// gateway reads are listed; everything else is forwarded unmodified.
type CopilotKitRequest struct {
	Action   *ActionPayload `json:"action,omitempty"`
	Messages []Message      `json:"messages"`
}

// ActionPayload carries structured action arguments
type ActionPayload struct {
	Name      string         `json:"name,omitempty" example:"planTrip"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role" example:"user"`
	Content string `json:"content" example:"Plan 3 days in Lisbon"`
}

// ActionRequest is the body of an action callback
type ActionRequest struct {
	Topic string `json:"topic" example:"best time to visit Lisbon"`
}

// ActionResponse is the result of an action callback
type ActionResponse struct {
	Result string `json:"result" example:"Research results for: best time to visit Lisbon"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"Invalid API Key Format"`
	Message string `json:"message" example:"API key must start with \"sk-\""`
	Code    string `json:"code" example:"invalid_api_key_format"`
	Status  int    `json:"status" example:"400"`
}
