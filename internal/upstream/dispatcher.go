package upstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aashari/go-itinerary-gateway/internal/actions"
	"github.com/aashari/go-itinerary-gateway/internal/credential"
	"github.com/aashari/go-itinerary-gateway/internal/logger"
)

// Dispatcher forwards a validated request to the engine and never lets an
// error escape: every failure comes back as a tagged Outcome.
type Dispatcher struct {
	engine  Engine
	actions *actions.Registry
}

// NewDispatcher creates a dispatcher. registry may be nil or empty, in which
// case no actions are advertised.
func NewDispatcher(engine Engine, registry *actions.Registry) *Dispatcher {
	return &Dispatcher{engine: engine, actions: registry}
}

// Dispatch sends a copy of body to the engine authenticated with cred
func (d *Dispatcher) Dispatch(ctx context.Context, cred credential.Credential, body []byte) (outcome *Outcome) {
	ctx = logger.WithComponent(ctx, logger.ComponentNames.Dispatcher)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			outcome = Classify(fmt.Errorf("upstream exchange panicked: %v", r))
			logger.Error(ctx, "Upstream exchange panicked", outcome.Err)
		}
	}()

	if cred.IsZero() {
		return &Outcome{Kind: KindGeneric, Message: "dispatch attempted without a validated credential"}
	}

	req := ExchangeRequest{
		Credential: cred,
		Body:       bytes.Clone(body),
		Actions:    d.actions.Definitions(),
	}

	logger.Debug(logger.WithStage(ctx, logger.LogStages.UpstreamRequest), "Dispatching to upstream engine",
		"credential_hint", cred.Hint(),
		"credential_source", cred.Source(),
		"actions", d.actions.Names(),
		"request_body_bytes", len(req.Body),
	)

	resp, err := d.engine.Exchange(ctx, req)
	duration := time.Since(start)

	switch {
	case err != nil:
		outcome = Classify(err)
	case resp == nil:
		outcome = Classify(nil)
	case resp.StatusCode >= http.StatusBadRequest:
		outcome = Classify(readAPIError(resp))
	default:
		logger.Info(logger.WithStage(ctx, logger.LogStages.UpstreamResponse), "Upstream exchange succeeded",
			"response_status_code", resp.StatusCode,
			"response_content_type", resp.Header.Get("Content-Type"),
			"duration_ms", duration.Milliseconds(),
		)
		return Succeeded(resp)
	}

	logger.Warn(logger.WithStage(ctx, logger.LogStages.UpstreamError), "Upstream exchange failed",
		"error_kind", string(outcome.Kind),
		"error_code", outcome.Code,
		"response_status_code", outcome.StatusCode,
		"duration_ms", duration.Milliseconds(),
	)
	return outcome
}

// readAPIError covers engines that return error responses instead of errors
func readAPIError(resp *http.Response) *APIError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	return ParseAPIError(resp.StatusCode, body)
}
