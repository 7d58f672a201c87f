package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/aashari/go-itinerary-gateway/internal/errors"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ValidateConfiguration validates the complete application configuration
func ValidateConfiguration(cfg *Config) *errors.APIError {
	if cfg == nil {
		return errors.NewConfigurationError("Configuration is nil")
	}

	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	return validateBusinessRules(cfg)
}

// validateBusinessRules covers what struct tags cannot express
func validateBusinessRules(cfg *Config) *errors.APIError {
	if cfg.Research.RedisURL != "" {
		if u, err := url.Parse(cfg.Research.RedisURL); err != nil || (u.Scheme != "redis" && u.Scheme != "rediss") {
			return errors.NewConfigurationError("REDIS_URL must use the redis:// or rediss:// scheme")
		}
	}

	if cfg.Storage.MongoURI != "" && !strings.HasPrefix(cfg.Storage.MongoURI, "mongodb") {
		return errors.NewConfigurationError("MONGODB_URI must use the mongodb:// or mongodb+srv:// scheme")
	}

	return nil
}

// formatValidationError formats validator errors into APIError
func formatValidationError(err error) *errors.APIError {
	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, formatFieldError(e))
		}
		return errors.NewConfigurationError(fmt.Sprintf("Configuration validation failed: %s", strings.Join(messages, "; ")))
	}
	return errors.NewConfigurationError(fmt.Sprintf("Configuration validation failed: %s", err.Error()))
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	field := strings.TrimPrefix(e.Namespace(), "Config.")
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", field)
	case "url":
		return fmt.Sprintf("field '%s' must be a valid URL", field)
	case "startswith":
		return fmt.Sprintf("field '%s' must start with '%s'", field, e.Param())
	case "min", "max":
		return fmt.Sprintf("field '%s' must be %s %s", field, map[string]string{"min": "at least", "max": "at most"}[e.Tag()], e.Param())
	case "gt":
		return fmt.Sprintf("field '%s' must be greater than %s", field, e.Param())
	default:
		return fmt.Sprintf("field '%s' failed validation: %s", field, e.Tag())
	}
}
