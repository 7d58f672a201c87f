package config

import (
	"github.com/aashari/go-itinerary-gateway/internal/errors"
	"github.com/aashari/go-itinerary-gateway/internal/utils"
)

// Load builds the configuration from the process environment on top of
// DefaultConfig and validates it. Call LoadEnvFile first to pick up .env.
func Load() (*Config, *errors.APIError) {
	cfg := DefaultConfig()

	cfg.Server.Host = utils.GetEnvString("HOST", cfg.Server.Host)
	cfg.Server.Port = utils.GetEnvPort("PORT", cfg.Server.Port)
	cfg.Server.ReadTimeout = utils.GetEnvDuration("SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = utils.GetEnvDuration("SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = utils.GetEnvDuration("SERVER_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.MaxBodyBytes = utils.GetEnvInt64("MAX_BODY_BYTES", cfg.Server.MaxBodyBytes)
	cfg.Server.EnablePprof = utils.GetEnvBool("ENABLE_PPROF", cfg.Server.EnablePprof)

	cfg.Upstream.BaseURL = utils.GetEnvString("UPSTREAM_BASE_URL", cfg.Upstream.BaseURL)
	cfg.Upstream.Path = utils.GetEnvString("UPSTREAM_PATH", cfg.Upstream.Path)
	cfg.Upstream.Timeout = utils.GetEnvDuration("UPSTREAM_TIMEOUT", cfg.Upstream.Timeout)
	cfg.Upstream.FallbackAPIKey = utils.GetEnvString("OPENAI_API_KEY", "")

	cfg.Research.APIKey = utils.GetEnvString("TAVILY_API_KEY", "")
	cfg.Research.CallbackToken = utils.GetEnvString("ACTION_CALLBACK_TOKEN", "")
	cfg.Research.BaseURL = utils.GetEnvString("RESEARCH_BASE_URL", cfg.Research.BaseURL)
	cfg.Research.Timeout = utils.GetEnvDuration("RESEARCH_TIMEOUT", cfg.Research.Timeout)
	cfg.Research.MaxResults = utils.GetEnvInt("RESEARCH_MAX_RESULTS", cfg.Research.MaxResults)
	cfg.Research.CacheTTL = utils.GetEnvDuration("RESEARCH_CACHE_TTL", cfg.Research.CacheTTL)
	cfg.Research.RedisURL = utils.GetEnvString("REDIS_URL", "")

	cfg.Storage.MongoURI = utils.GetEnvString("MONGODB_URI", "")

	cfg.Security.CORSEnabled = utils.GetEnvBool("CORS_ENABLED", cfg.Security.CORSEnabled)

	if err := ValidateConfiguration(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Summary returns loggable configuration attributes with secrets reduced to presence flags
func (c *Config) Summary() []any {
	return []any{
		"host", c.Server.Host,
		"port", c.Server.Port,
		"upstream_base_url", c.Upstream.BaseURL,
		"upstream_path", c.Upstream.Path,
		"fallback_credential", c.HasFallbackCredential(),
		"research_enabled", c.ResearchEnabled(),
		"action_callback_token", c.Research.CallbackToken != "",
		"research_cache", c.researchCacheBackend(),
		"database_enabled", c.DatabaseEnabled(),
		"cors_enabled", c.Security.CORSEnabled,
	}
}

func (c *Config) researchCacheBackend() string {
	if c.Research.RedisURL != "" {
		return "redis"
	}
	return "memory"
}
