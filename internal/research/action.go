// Package research implements the optional research action: a web search on
// the trip's destination and dates, backed by the Tavily API and a result cache.
package research

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/aashari/go-itinerary-gateway/internal/actions"
	"github.com/aashari/go-itinerary-gateway/internal/logger"
)

// ActionName is the name the engine calls the action by
const ActionName = "research"

// Definition is what the engine sees for the research action
var Definition = actions.Definition{
	Name:        ActionName,
	Description: "Call this function to conduct research on latest events happening in the destination country and within the timelines.",
	Parameters: []actions.Parameter{
		{
			Name:        "topic",
			Type:        "string",
			Description: "Latest events happening in destination country/region. Also please consider the weather forecasts",
			Required:    true,
		},
	},
}

// Researcher runs searches through a cache
type Researcher struct {
	searcher Searcher
	cache    Cache
	ttl      time.Duration
}

// NewResearcher creates a researcher. cache may be nil to disable caching.
func NewResearcher(searcher Searcher, cache Cache, ttl time.Duration) *Researcher {
	return &Researcher{searcher: searcher, cache: cache, ttl: ttl}
}

// Research returns the rendered result for topic. Cache failures are logged
// and never fail the call.
func (r *Researcher) Research(ctx context.Context, topic string) (string, error) {
	ctx = logger.WithComponent(ctx, logger.ComponentNames.Research)

	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("%w: topic is required", actions.ErrInvalidArguments)
	}

	key := CacheKey(topic)
	if r.cache != nil {
		value, found, err := r.cache.Get(ctx, key)
		switch {
		case err != nil:
			logger.Warn(ctx, "Research cache read failed", "error_message", err.Error(), "cache_backend", r.cache.Backend())
		case found:
			logger.Debug(ctx, "Research cache hit", "cache_backend", r.cache.Backend())
			return value, nil
		}
	}

	start := time.Now()
	result, err := r.searcher.Search(ctx, topic)
	if err != nil {
		logger.Error(ctx, "Research search failed", err, "duration_ms", time.Since(start).Milliseconds())
		return "", fmt.Errorf("research %q: %w", topic, err)
	}

	logger.Info(ctx, "Research completed",
		"topic_chars", len(topic),
		"result_chars", len(result),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if r.cache != nil {
		if err := r.cache.Set(ctx, key, result, r.ttl); err != nil {
			logger.Warn(ctx, "Research cache write failed", "error_message", err.Error(), "cache_backend", r.cache.Backend())
		}
	}

	return result, nil
}

type researchArgs struct {
	Topic string `json:"topic"`
}

// Action exposes the researcher as a registrable action
func (r *Researcher) Action() actions.Action {
	return actions.Action{
		Definition: Definition,
		Execute: func(ctx context.Context, args json.RawMessage) (string, error) {
			var a researchArgs
			if err := json.Unmarshal(args, &a); err != nil {
				return "", fmt.Errorf("%w: %v", actions.ErrInvalidArguments, err)
			}
			return r.Research(ctx, a.Topic)
		},
	}
}
