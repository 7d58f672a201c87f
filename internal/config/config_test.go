package config

import (
	"testing"
	"time"

	"github.com/aashari/go-itinerary-gateway/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configKeys = []string{
	"HOST", "PORT", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT", "SERVER_IDLE_TIMEOUT", "MAX_BODY_BYTES",
	"UPSTREAM_BASE_URL", "UPSTREAM_PATH", "UPSTREAM_TIMEOUT", "OPENAI_API_KEY",
	"TAVILY_API_KEY", "ACTION_CALLBACK_TOKEN", "RESEARCH_BASE_URL", "RESEARCH_TIMEOUT", "RESEARCH_MAX_RESULTS", "RESEARCH_CACHE_TTL", "REDIS_URL",
	"MONGODB_URI", "CORS_ENABLED",
}

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	require.Nil(t, err)

	assert.Equal(t, DefaultConfig(), cfg)
	assert.False(t, cfg.HasFallbackCredential())
	assert.False(t, cfg.ResearchEnabled())
	assert.False(t, cfg.DatabaseEnabled())
}

func TestLoadFromEnvironment(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("SERVER_READ_TIMEOUT", "15")
	t.Setenv("UPSTREAM_BASE_URL", "http://localhost:4000/v1")
	t.Setenv("UPSTREAM_TIMEOUT", "90s")
	t.Setenv("OPENAI_API_KEY", "  sk-fallbackfallbackfallback  ")
	t.Setenv("TAVILY_API_KEY", "tvly-research")
	t.Setenv("ACTION_CALLBACK_TOKEN", "callback-0123456789abcdef")
	t.Setenv("RESEARCH_CACHE_TTL", "2m")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("CORS_ENABLED", "false")

	cfg, err := Load()
	require.Nil(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "http://localhost:4000/v1", cfg.Upstream.BaseURL)
	assert.Equal(t, 90*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "sk-fallbackfallbackfallback", cfg.Upstream.FallbackAPIKey)
	assert.Equal(t, 2*time.Minute, cfg.Research.CacheTTL)
	assert.Equal(t, "callback-0123456789abcdef", cfg.Research.CallbackToken)
	assert.True(t, cfg.HasFallbackCredential())
	assert.True(t, cfg.ResearchEnabled())
	assert.True(t, cfg.DatabaseEnabled())
	assert.False(t, cfg.Security.CORSEnabled)
}

func TestResearchNeedsCallbackToken(t *testing.T) {
	tests := []struct {
		name     string
		apiKey   string
		token    string
		expected bool
	}{
		{name: "both set", apiKey: "tvly-research", token: "callback-0123456789abcdef", expected: true},
		{name: "provider key only", apiKey: "tvly-research", expected: false},
		{name: "token only", token: "callback-0123456789abcdef", expected: false},
		{name: "neither", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Research.APIKey = tt.apiKey
			cfg.Research.CallbackToken = tt.token
			assert.Equal(t, tt.expected, cfg.ResearchEnabled())
		})
	}
}

func TestSummaryNeverLeaksSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Upstream.FallbackAPIKey = "sk-secretsecretsecret"
	cfg.Research.APIKey = "tvly-secret"
	cfg.Research.CallbackToken = "callback-secret-0123456789"

	for _, v := range cfg.Summary() {
		if s, ok := v.(string); ok {
			assert.NotContains(t, s, "secret")
		}
	}
}

func TestValidateConfiguration(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError string
	}{
		{
			name:   "valid_defaults",
			mutate: func(*Config) {},
		},
		{
			name:        "bad_upstream_url",
			mutate:      func(c *Config) { c.Upstream.BaseURL = "not a url" },
			expectError: "Upstream.BaseURL",
		},
		{
			name:        "upstream_path_without_slash",
			mutate:      func(c *Config) { c.Upstream.Path = "chat/completions" },
			expectError: "Upstream.Path",
		},
		{
			name:        "zero_timeout",
			mutate:      func(c *Config) { c.Upstream.Timeout = 0 },
			expectError: "Upstream.Timeout",
		},
		{
			name:        "too_many_research_results",
			mutate:      func(c *Config) { c.Research.MaxResults = 50 },
			expectError: "Research.MaxResults",
		},
		{
			name:        "short_callback_token",
			mutate:      func(c *Config) { c.Research.CallbackToken = "short" },
			expectError: "Research.CallbackToken",
		},
		{
			name:        "redis_wrong_scheme",
			mutate:      func(c *Config) { c.Research.RedisURL = "http://localhost:6379" },
			expectError: "REDIS_URL",
		},
		{
			name:        "mongo_wrong_scheme",
			mutate:      func(c *Config) { c.Storage.MongoURI = "postgres://localhost" },
			expectError: "MONGODB_URI",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := ValidateConfiguration(cfg)

			if tt.expectError == "" {
				assert.Nil(t, err)
				return
			}
			require.NotNil(t, err)
			assert.Equal(t, errors.KindConfiguration, err.Kind)
			assert.Contains(t, err.Message, tt.expectError)
		})
	}
}

func TestValidateNilConfiguration(t *testing.T) {
	err := ValidateConfiguration(nil)
	require.NotNil(t, err)
	assert.Equal(t, errors.CodeConfigurationError, err.Code)
}
