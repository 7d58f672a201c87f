// Package pipeline is the request boundary: it resolves the caller's
// credential from the payload, validates it, dispatches the request to the
// upstream engine and writes a well-formed response for every outcome.
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aashari/go-itinerary-gateway/internal/credential"
	"github.com/aashari/go-itinerary-gateway/internal/database"
	"github.com/aashari/go-itinerary-gateway/internal/errors"
	"github.com/aashari/go-itinerary-gateway/internal/logger"
	"github.com/aashari/go-itinerary-gateway/internal/upstream"
	"github.com/aashari/go-itinerary-gateway/internal/utils"
)

// Outcome kinds recorded for runs that never reached the engine
const (
	OutcomeMissingCredential = "missing_credential"
	OutcomeRejected          = "rejected"
	OutcomeBodyParseFailure  = "body_parse_failure"
	OutcomeMethodNotAllowed  = "method_not_allowed"
)

// Dispatcher forwards a validated request upstream
type Dispatcher interface {
	Dispatch(ctx context.Context, cred credential.Credential, body []byte) *upstream.Outcome
}

// Recorder stores the outcome of a run
type Recorder interface {
	Record(ctx context.Context, record database.PipelineRecord)
}

// MetricsSink counts resolution strategies and error codes
type MetricsSink interface {
	RecordPipelineResult(strategy, errorCode string)
}

// Options configures a Pipeline
type Options struct {
	// FallbackCredential is used when the payload carries no credential
	FallbackCredential string
	MaxBodyBytes       int64
	Endpoint           string
	Recorder           Recorder
	Metrics            MetricsSink
}

// Pipeline handles one chat/action request per ServeHTTP call.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	extractor  *credential.Extractor
	validator  *credential.Validator
	dispatcher Dispatcher
	translator *Translator
	options    Options
}

// New creates a pipeline
func New(extractor *credential.Extractor, validator *credential.Validator, dispatcher Dispatcher, options Options) *Pipeline {
	if options.MaxBodyBytes <= 0 {
		options.MaxBodyBytes = 10 << 20
	}
	return &Pipeline{
		extractor:  extractor,
		validator:  validator,
		dispatcher: dispatcher,
		translator: NewTranslator(),
		options:    options,
	}
}

// run accumulates what one execution learned, for logging and recording
type run struct {
	start           time.Time
	requestBytes    int
	strategy        string
	credentialHint  string
	rejectionReason string
	outcomeKind     string
	result          Result
}

// ServeHTTP executes the pipeline for r
func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithComponent(r.Context(), logger.ComponentNames.Pipeline)
	tw := &trackingWriter{ResponseWriter: w}
	state := &run{start: time.Now()}

	defer p.finish(ctx, r, state)
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("pipeline panic: %v", rec)
			logger.Error(ctx, "Recovered from panic in request pipeline", err)
			state.outcomeKind = string(upstream.KindGeneric)
			if tw.wroteHeader {
				return
			}
			p.fail(ctx, tw, state, errors.NewBodyParseError(err))
		}
	}()

	if r.Method != http.MethodPost {
		state.outcomeKind = OutcomeMethodNotAllowed
		p.fail(ctx, tw, state, errors.NewMethodNotAllowedError(r.Method))
		return
	}

	payload, err := p.readPayload(tw, r)
	if err != nil {
		logger.Warn(logger.WithStage(ctx, logger.LogStages.BodyParsed), "Request body could not be parsed",
			"error_message", err.Error(),
		)
		state.outcomeKind = OutcomeBodyParseFailure
		p.fail(ctx, tw, state, errors.NewBodyParseError(err))
		return
	}
	state.requestBytes = len(payload.Body())

	candidate, ok := p.resolve(ctx, payload)
	if !ok {
		preview := ""
		if first, found := payload.FirstMessageContent(); found {
			preview = utils.TruncatePreview(first, utils.DiagnosticPreviewLimit)
		}
		state.outcomeKind = OutcomeMissingCredential
		p.fail(ctx, tw, state, errors.NewMissingCredentialError(preview))
		return
	}
	state.strategy = candidate.Strategy
	state.credentialHint = utils.CredentialHint(candidate.Value)

	cred, err := p.validator.Validate(ctx, candidate)
	if err != nil {
		reason, rule := string(credential.ReasonBadFormat), err.Error()
		var rejection *credential.RejectionError
		if stderrors.As(err, &rejection) {
			reason, rule = string(rejection.Reason), rejection.Rule
		}
		state.rejectionReason = reason
		state.outcomeKind = OutcomeRejected
		p.fail(ctx, tw, state, errors.NewInvalidCredentialFormatError(reason, rule, err))
		return
	}
	logger.Debug(logger.WithStage(ctx, logger.LogStages.CredentialValidated), "Credential validated",
		"strategy", cred.Source(),
		"credential_hint", cred.Hint(),
	)

	outcome := p.dispatcher.Dispatch(ctx, cred, payload.Body())
	if outcome == nil {
		outcome = upstream.Classify(nil)
	}
	state.outcomeKind = string(outcome.Kind)
	state.result = p.translator.Translate(ctx, tw, outcome)
}

// readPayload reads at most MaxBodyBytes and parses the JSON object
func (p *Pipeline) readPayload(w http.ResponseWriter, r *http.Request) (*credential.Payload, error) {
	if r.Body == nil {
		return nil, credential.ErrMalformedPayload
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, p.options.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	return credential.ParsePayload(body)
}

// resolve runs the extractor, then falls back to the configured default
func (p *Pipeline) resolve(ctx context.Context, payload *credential.Payload) (credential.Candidate, bool) {
	ctx = logger.WithStage(ctx, logger.LogStages.CredentialResolved)

	if candidate, ok := p.extractor.Extract(ctx, payload); ok {
		return candidate, true
	}

	if p.options.FallbackCredential != "" {
		logger.Debug(logger.WithStage(ctx, logger.LogStages.Fallback), "Using fallback credential")
		return credential.Candidate{Value: p.options.FallbackCredential, Strategy: credential.StrategyFallback}, true
	}

	return credential.Candidate{}, false
}

func (p *Pipeline) fail(ctx context.Context, w http.ResponseWriter, state *run, apiErr *errors.APIError) {
	errors.WriteError(ctx, w, apiErr)
	state.result = Result{StatusCode: apiErr.Status, Code: apiErr.Code, Err: apiErr}
}

func (p *Pipeline) finish(ctx context.Context, r *http.Request, state *run) {
	duration := time.Since(state.start)

	logger.Info(logger.WithStage(ctx, logger.LogStages.RequestCompleted), "Pipeline completed",
		"strategy", state.strategy,
		"outcome_kind", state.outcomeKind,
		"response_status_code", state.result.StatusCode,
		"error_code", state.result.Code,
		"duration_ms", duration.Milliseconds(),
	)

	if p.options.Metrics != nil {
		p.options.Metrics.RecordPipelineResult(state.strategy, state.result.Code)
	}

	if p.options.Recorder == nil {
		return
	}

	record := database.PipelineRecord{
		RequestID:       logger.RequestIDFromContext(ctx),
		Endpoint:        p.endpoint(r),
		Strategy:        state.strategy,
		CredentialHint:  state.credentialHint,
		RejectionReason: state.rejectionReason,
		OutcomeKind:     state.outcomeKind,
		StatusCode:      state.result.StatusCode,
		ErrorCode:       state.result.Code,
		RequestBytes:    state.requestBytes,
		DurationMs:      duration.Milliseconds(),
		RequestedAt:     state.start,
	}
	if state.result.Err != nil {
		record.ErrorMessage = utils.SanitizeString(state.result.Err.Message)
	}
	p.options.Recorder.Record(ctx, record)
}

func (p *Pipeline) endpoint(r *http.Request) string {
	if p.options.Endpoint != "" {
		return p.options.Endpoint
	}
	return r.URL.Path
}

// trackingWriter remembers whether the response has started
type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *trackingWriter) WriteHeader(statusCode int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
