package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Logger levels
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// Context keys
type contextKey string

const (
	RequestIDKey     contextKey = "request_id"
	CorrelationIDKey contextKey = "correlation_id"
	ComponentKey     contextKey = "component"
	StageKey         contextKey = "stage"
)

// Global logger instance
var Logger *slog.Logger

// Service configuration
var (
	ServiceName = "itinerary-gateway"
	Environment = "development"
)

// Config for logger
type Config struct {
	Level       slog.Level
	Format      string // "json" or "text"
	Output      string // "stdout", "stderr", or file path
	ServiceName string
	Environment string
}

// DefaultConfig is used when nothing else initialized the logger
var DefaultConfig = Config{
	Level:       LevelInfo,
	Format:      "json",
	Output:      "stdout",
	ServiceName: "itinerary-gateway",
	Environment: "development",
}

// StructuredLogEntry is the JSON line written for every record
type StructuredLogEntry struct {
	Timestamp   string                 `json:"timestamp"`
	Level       string                 `json:"level"`
	Message     string                 `json:"message"`
	Service     string                 `json:"service"`
	Environment string                 `json:"environment"`
	Component   string                 `json:"component,omitempty"`
	Stage       string                 `json:"stage,omitempty"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
	Request     map[string]interface{} `json:"request,omitempty"`
	Response    map[string]interface{} `json:"response,omitempty"`
	Error       map[string]interface{} `json:"error,omitempty"`
}

// Init initializes the global logger
func Init(config Config) error {
	var output io.Writer

	ServiceName = config.ServiceName
	Environment = config.Environment

	switch config.Output {
	case "stdout", "":
		output = os.Stdout
	case "stderr":
		output = os.Stderr
	default:
		f, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", config.Output, err)
		}
		output = f
	}

	Logger = slog.New(newHandler(output, config))
	return nil
}

func newHandler(output io.Writer, config Config) slog.Handler {
	if config.Format == "text" {
		return slog.NewTextHandler(output, &slog.HandlerOptions{Level: config.Level})
	}
	return NewStructuredJSONHandler(output, config)
}

// StructuredJSONHandler implements a custom JSON handler for our structured format
type StructuredJSONHandler struct {
	mu          *sync.Mutex
	writer      io.Writer
	level       slog.Level
	serviceName string
	environment string
	attrs       []slog.Attr
}

// NewStructuredJSONHandler creates a handler writing one JSON object per line
func NewStructuredJSONHandler(w io.Writer, config Config) *StructuredJSONHandler {
	return &StructuredJSONHandler{
		mu:          &sync.Mutex{},
		writer:      w,
		level:       config.Level,
		serviceName: config.ServiceName,
		environment: config.Environment,
	}
}

func (h *StructuredJSONHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *StructuredJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &clone
}

func (h *StructuredJSONHandler) WithGroup(_ string) slog.Handler {
	return h // groups are flattened into attributes
}

func (h *StructuredJSONHandler) Handle(ctx context.Context, r slog.Record) error {
	entry := StructuredLogEntry{
		Timestamp:   r.Time.UTC().Format(time.RFC3339),
		Level:       r.Level.String(),
		Message:     r.Message,
		Service:     h.serviceName,
		Environment: h.environment,
	}

	if ctx != nil {
		if requestID, ok := ctx.Value(RequestIDKey).(string); ok && requestID != "" {
			entry.setRequest("request_id", requestID)
		}
		if correlationID, ok := ctx.Value(CorrelationIDKey).(string); ok && correlationID != "" {
			entry.setRequest("correlation_id", correlationID)
		}
		if component, ok := ctx.Value(ComponentKey).(string); ok {
			entry.Component = component
		}
		if stage, ok := ctx.Value(StageKey).(string); ok {
			entry.Stage = stage
		}
	}

	for _, a := range h.attrs {
		entry.route(a.Key, a.Value.Any())
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.route(a.Key, a.Value.Any())
		return true
	})

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = fmt.Fprintln(h.writer, string(data))
	return err
}

func (e *StructuredLogEntry) setRequest(key string, value interface{}) {
	if e.Request == nil {
		e.Request = make(map[string]interface{})
	}
	e.Request[key] = value
}

// route places an attribute into the request/response/error section by key prefix
func (e *StructuredLogEntry) route(key string, value interface{}) {
	switch {
	case strings.HasPrefix(key, "request_"):
		e.setRequest(strings.TrimPrefix(key, "request_"), value)
	case strings.HasPrefix(key, "response_"):
		if e.Response == nil {
			e.Response = make(map[string]interface{})
		}
		e.Response[strings.TrimPrefix(key, "response_")] = value
	case key == "error":
		if e.Error == nil {
			e.Error = make(map[string]interface{})
		}
		if err, ok := value.(error); ok {
			e.Error["message"] = err.Error()
			e.Error["type"] = fmt.Sprintf("%T", err)
		} else {
			e.Error["message"] = fmt.Sprintf("%v", value)
		}
	case strings.HasPrefix(key, "error_"):
		if e.Error == nil {
			e.Error = make(map[string]interface{})
		}
		e.Error[strings.TrimPrefix(key, "error_")] = value
	case key == "component":
		if s, ok := value.(string); ok {
			e.Component = s
		}
	case key == "stage":
		if s, ok := value.(string); ok {
			e.Stage = s
		}
	default:
		if e.Attributes == nil {
			e.Attributes = make(map[string]interface{})
		}
		e.Attributes[key] = value
	}
}

// WithComponent tags the context with the component name used in log lines
func WithComponent(ctx context.Context, component string) context.Context {
	return context.WithValue(ctx, ComponentKey, component)
}

// WithStage tags the context with the processing stage used in log lines
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

// WithRequestID tags the context with the request id
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestIDFromContext returns the request id stored by the correlation middleware
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

func get() *slog.Logger {
	if Logger == nil {
		if err := Init(DefaultConfig); err != nil {
			return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: LevelDebug}))
		}
	}
	return Logger
}

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func Debug(ctx context.Context, msg string, args ...any) {
	get().DebugContext(ensureContext(ctx), msg, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	get().InfoContext(ensureContext(ctx), msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	get().WarnContext(ensureContext(ctx), msg, args...)
}

// Error logs msg at error level; err may be nil.
func Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err)
	}
	get().ErrorContext(ensureContext(ctx), msg, args...)
}

// InitFromEnv initializes the logger from environment variables
func InitFromEnv() error {
	config := DefaultConfig

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		config.Level = ParseLevel(level, config.Level)
	}
	if format := os.Getenv("LOG_FORMAT"); format != "" {
		config.Format = format
	}
	if output := os.Getenv("LOG_OUTPUT"); output != "" {
		config.Output = output
	}
	if serviceName := os.Getenv("SERVICE_NAME"); serviceName != "" {
		config.ServiceName = serviceName
	}
	if environment := os.Getenv("ENVIRONMENT"); environment != "" {
		config.Environment = environment
	} else if env := os.Getenv("ENV"); env != "" {
		config.Environment = env
	}

	return Init(config)
}

// ParseLevel maps a level name onto slog levels, returning fallback when unknown
func ParseLevel(level string, fallback slog.Level) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return LevelDebug
	case "INFO":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarn
	case "ERROR":
		return LevelError
	default:
		return fallback
	}
}
