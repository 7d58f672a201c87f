package credential

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aashari/go-itinerary-gateway/internal/logger"
	"github.com/aashari/go-itinerary-gateway/internal/utils"
)

// Reason classifies why a candidate was rejected
type Reason string

const (
	ReasonTooShort  Reason = "too_short_to_inspect"
	ReasonBadFormat Reason = "bad_format"
)

// RejectionError is returned by Validate; Rule is a human-readable statement of the violated rule
type RejectionError struct {
	Reason   Reason
	Rule     string
	Strategy string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("credential rejected (%s): %s", e.Reason, e.Rule)
}

// Credential is a candidate that passed structural validation.
// Only Validate constructs one with a value.
type Credential struct {
	value  string
	source string
}

// Value returns the secret for building an authenticated client
func (c Credential) Value() string { return c.value }

// Source is the strategy the credential was resolved by
func (c Credential) Source() string { return c.source }

// Hint is a masked form safe for logs and records
func (c Credential) Hint() string { return utils.CredentialHint(c.value) }

func (c Credential) IsZero() bool { return c.value == "" }

func (c Credential) String() string { return c.Hint() }

// Validator enforces the minimum length and literal prefix rules
type Validator struct {
	prefix    string
	minLength int
}

func NewValidator() *Validator {
	return &Validator{
		prefix:    utils.CredentialPrefix,
		minLength: utils.CredentialMinLength,
	}
}

// Validate checks rules in order; the first failure wins.
// Length is counted in characters, not bytes.
func (v *Validator) Validate(ctx context.Context, candidate Candidate) (Credential, error) {
	ctx = logger.WithComponent(ctx, logger.ComponentNames.Validator)

	if utf8.RuneCountInString(candidate.Value) < v.minLength {
		return Credential{}, v.reject(ctx, candidate, ReasonTooShort,
			fmt.Sprintf("API key must be longer than %d characters", v.minLength-1))
	}

	if !strings.HasPrefix(candidate.Value, v.prefix) {
		return Credential{}, v.reject(ctx, candidate, ReasonBadFormat,
			fmt.Sprintf("API key must start with %q", v.prefix))
	}

	return Credential{value: candidate.Value, source: candidate.Strategy}, nil
}

func (v *Validator) reject(ctx context.Context, candidate Candidate, reason Reason, rule string) *RejectionError {
	logger.Debug(ctx, "Credential candidate rejected",
		"reason", string(reason),
		"strategy", candidate.Strategy,
		"credential_hint", utils.CredentialHint(candidate.Value),
	)
	return &RejectionError{Reason: reason, Rule: rule, Strategy: candidate.Strategy}
}
