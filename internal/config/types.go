package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Upstream UpstreamConfig `json:"upstream"`
	Research ResearchConfig `json:"research"`
	Storage  StorageConfig  `json:"storage"`
	Security SecurityConfig `json:"security"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string        `json:"host" validate:"required"`
	Port         int           `json:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `json:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `json:"write_timeout" validate:"gt=0"`
	IdleTimeout  time.Duration `json:"idle_timeout" validate:"gt=0"`
	MaxBodyBytes int64         `json:"max_body_bytes" validate:"gt=0"`
	EnablePprof  bool          `json:"enable_pprof"`
}

// UpstreamConfig describes the AI engine the pipeline dispatches to.
// FallbackAPIKey is the process-wide default credential, read-only after startup.
type UpstreamConfig struct {
	BaseURL        string        `json:"base_url" validate:"required,url"`
	Path           string        `json:"path" validate:"required,startswith=/"`
	Timeout        time.Duration `json:"timeout" validate:"gt=0"`
	FallbackAPIKey string        `json:"-"`
}

// ResearchConfig enables the research action when both APIKey and
// CallbackToken are set. The engine calls the action back with CallbackToken
// as its bearer token.
type ResearchConfig struct {
	APIKey        string        `json:"-"`
	CallbackToken string        `json:"-" validate:"omitempty,min=16"`
	BaseURL       string        `json:"base_url" validate:"required,url"`
	Timeout       time.Duration `json:"timeout" validate:"gt=0"`
	MaxResults    int           `json:"max_results" validate:"min=1,max=20"`
	CacheTTL      time.Duration `json:"cache_ttl" validate:"gt=0"`
	RedisURL      string        `json:"-" validate:"omitempty,url"`
}

// StorageConfig holds the optional pipeline outcome store
type StorageConfig struct {
	MongoURI string `json:"-" validate:"omitempty,url"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSEnabled bool `json:"cors_enabled"`
}

// HasFallbackCredential reports whether a default credential is configured.
// The value itself is never exposed through this method.
func (c *Config) HasFallbackCredential() bool {
	return c.Upstream.FallbackAPIKey != ""
}

// ResearchEnabled reports whether the research action should be advertised.
// Without a callback token the action endpoint is not mounted, so the action
// stays off even when a provider key is present.
func (c *Config) ResearchEnabled() bool {
	return c.Research.APIKey != "" && c.Research.CallbackToken != ""
}

// DatabaseEnabled reports whether pipeline outcomes are recorded
func (c *Config) DatabaseEnabled() bool {
	return c.Storage.MongoURI != ""
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8082,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  60 * time.Second,
			MaxBodyBytes: 10 << 20,
		},
		Upstream: UpstreamConfig{
			BaseURL: "https://api.openai.com/v1",
			Path:    "/chat/completions",
			Timeout: 5 * time.Minute,
		},
		Research: ResearchConfig{
			BaseURL:    "https://api.tavily.com",
			Timeout:    30 * time.Second,
			MaxResults: 5,
			CacheTTL:   15 * time.Minute,
		},
		Security: SecurityConfig{
			CORSEnabled: true,
		},
	}
}
