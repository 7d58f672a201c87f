package credential

import (
	"context"
	"regexp"

	"github.com/aashari/go-itinerary-gateway/internal/logger"
	"github.com/aashari/go-itinerary-gateway/internal/utils"
	"github.com/tidwall/gjson"
)

// Strategy names, also recorded with every pipeline outcome
const (
	StrategyActionArguments = "action_arguments"
	StrategyActionFormData  = "action_form_data"
	StrategyMessageJSON     = "message_embedded_json"
	StrategyMessageFormData = "message_embedded_form_data"
	StrategyMessagePattern  = "message_pattern"
	StrategyFallback        = "fallback_config"
)

// Candidate is an untrusted credential and the strategy that produced it
type Candidate struct {
	Value    string
	Strategy string
}

// String never prints the raw value
func (c Candidate) String() string {
	return c.Strategy + ":" + utils.CredentialHint(c.Value)
}

// Strategy pulls a candidate credential out of a payload.
// Implementations must not panic on malformed input; they report false instead.
type Strategy interface {
	Name() string
	Extract(p *Payload) (string, bool)
}

// Extractor runs strategies in order; the first match wins
type Extractor struct {
	strategies []Strategy
}

// NewExtractor creates an extractor. With no strategies it uses DefaultStrategies.
func NewExtractor(strategies ...Strategy) *Extractor {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}
	return &Extractor{strategies: strategies}
}

// DefaultStrategies returns the structured lookups followed by the free-text sniffers
func DefaultStrategies() []Strategy {
	return []Strategy{
		FieldStrategy{name: StrategyActionArguments, path: pathActionArguments + "." + keyAPIKey},
		FieldStrategy{name: StrategyActionFormData, path: pathActionArguments + "." + keyFormData + "." + keyAPIKey},
		EmbeddedObjectStrategy{name: StrategyMessageJSON, pattern: embeddedAPIKeyObject, path: keyAPIKey},
		EmbeddedObjectStrategy{name: StrategyMessageFormData, pattern: embeddedFormDataObject, path: keyFormData + "." + keyAPIKey},
		PatternStrategy{name: StrategyMessagePattern, pattern: apiKeyPair},
	}
}

// Extract returns the first candidate found, or false when no strategy matched
func (e *Extractor) Extract(ctx context.Context, p *Payload) (Candidate, bool) {
	ctx = logger.WithComponent(ctx, logger.ComponentNames.Extractor)

	if p == nil {
		return Candidate{}, false
	}

	for _, strategy := range e.strategies {
		if value, ok := strategy.Extract(p); ok {
			logger.Debug(ctx, "Credential candidate found", "strategy", strategy.Name())
			return Candidate{Value: value, Strategy: strategy.Name()}, true
		}
	}

	logger.Debug(ctx, "No credential candidate found", "strategies_tried", len(e.strategies))
	return Candidate{}, false
}

// FieldStrategy reads a direct string field from the payload
type FieldStrategy struct {
	name string
	path string
}

func NewFieldStrategy(name, path string) FieldStrategy {
	return FieldStrategy{name: name, path: path}
}

func (s FieldStrategy) Name() string { return s.name }

func (s FieldStrategy) Extract(p *Payload) (string, bool) {
	return nonEmptyString(p.root, s.path)
}

// The object patterns only match innermost literals; formData allows one level of nesting.
var (
	embeddedAPIKeyObject   = regexp.MustCompile(`\{[^{}]*"apiKey"[^{}]*\}`)
	embeddedFormDataObject = regexp.MustCompile(`\{[^{}]*"formData"\s*:\s*\{[^{}]*\}[^{}]*\}`)
	apiKeyPair             = regexp.MustCompile(`"apiKey"\s*:\s*"([^"]*)"`)
)

// EmbeddedObjectStrategy scans the last message for JSON object literals and
// tries each match in order until one parses and yields a value at path.
type EmbeddedObjectStrategy struct {
	name    string
	pattern *regexp.Regexp
	path    string
}

func (s EmbeddedObjectStrategy) Name() string { return s.name }

func (s EmbeddedObjectStrategy) Extract(p *Payload) (string, bool) {
	content, ok := p.LastMessageContent()
	if !ok {
		return "", false
	}

	for _, match := range s.pattern.FindAllString(content, -1) {
		if !gjson.Valid(match) {
			continue
		}
		if value, ok := nonEmptyString(gjson.Parse(match), s.path); ok {
			return value, true
		}
	}
	return "", false
}

// PatternStrategy matches "apiKey": "<value>" anywhere in the last message
type PatternStrategy struct {
	name    string
	pattern *regexp.Regexp
}

func NewPatternStrategy(name string, pattern *regexp.Regexp) PatternStrategy {
	return PatternStrategy{name: name, pattern: pattern}
}

func (s PatternStrategy) Name() string { return s.name }

func (s PatternStrategy) Extract(p *Payload) (string, bool) {
	content, ok := p.LastMessageContent()
	if !ok {
		return "", false
	}

	for _, match := range s.pattern.FindAllStringSubmatch(content, -1) {
		if len(match) > 1 && match[1] != "" {
			return match[1], true
		}
	}
	return "", false
}
