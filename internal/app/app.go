package app

import (
	"context"
	"net/http"
	"os"

	"github.com/aashari/go-itinerary-gateway/internal/actions"
	"github.com/aashari/go-itinerary-gateway/internal/config"
	"github.com/aashari/go-itinerary-gateway/internal/credential"
	"github.com/aashari/go-itinerary-gateway/internal/database"
	"github.com/aashari/go-itinerary-gateway/internal/handlers"
	"github.com/aashari/go-itinerary-gateway/internal/health"
	"github.com/aashari/go-itinerary-gateway/internal/httpclient"
	"github.com/aashari/go-itinerary-gateway/internal/logger"
	"github.com/aashari/go-itinerary-gateway/internal/monitoring"
	"github.com/aashari/go-itinerary-gateway/internal/pipeline"
	"github.com/aashari/go-itinerary-gateway/internal/research"
	"github.com/aashari/go-itinerary-gateway/internal/router"
	"github.com/aashari/go-itinerary-gateway/internal/upstream"
	"github.com/aashari/go-itinerary-gateway/internal/utils"
)

// pipelineEndpoint is recorded with every pipeline run
const pipelineEndpoint = "/api/copilotkit"

// App centralizes the application's dependencies and configuration
type App struct {
	Config        *config.Config
	Actions       *actions.Registry
	Pipeline      *pipeline.Pipeline
	APIHandlers   *handlers.APIHandlers
	HealthChecker *health.HealthChecker
	Metrics       *monitoring.Metrics
	Recorder      *database.Recorder

	db         *database.Connection
	redisCache *research.RedisCache
}

// NewApp creates a new App instance with all dependencies.
// The research cache and the database are optional: when they cannot be
// reached the app starts without them and logs why.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	ctx = logger.WithStage(logger.WithComponent(ctx, logger.ComponentNames.App), logger.LogStages.Initialization)

	if err := config.ValidateConfiguration(cfg); err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Actions: actions.NewRegistry(),
		Metrics: monitoring.GetMetrics(),
	}

	clientFactory := httpclient.NewFactory(httpclient.Options{Timeout: cfg.Upstream.Timeout})

	cacheBackend, cachePing := a.setupResearch(ctx, clientFactory)
	databasePing := a.setupDatabase(ctx)

	// empty unless the research action is registered
	var callbackToken string
	if cfg.ResearchEnabled() {
		callbackToken = cfg.Research.CallbackToken
	}

	// UPSTREAM_TIMEOUT bounds the wait for response headers; streamed bodies run until the caller goes away
	engine := upstream.NewOpenAIEngine(cfg.Upstream.BaseURL, cfg.Upstream.Path, clientFactory.CreateStreamingClient(cfg.Upstream.Timeout)).
		WithActionToken(callbackToken)
	dispatcher := upstream.NewDispatcher(engine, a.Actions)

	options := pipeline.Options{
		FallbackCredential: cfg.Upstream.FallbackAPIKey,
		MaxBodyBytes:       cfg.Server.MaxBodyBytes,
		Endpoint:           pipelineEndpoint,
		Metrics:            a.Metrics,
	}
	if a.Recorder != nil {
		options.Recorder = a.Recorder
	}
	a.Pipeline = pipeline.New(credential.NewExtractor(), credential.NewValidator(), dispatcher, options)

	a.HealthChecker = health.CreateStandardHealthChecks(health.Dependencies{
		Config:       cfg,
		Actions:      a.Actions,
		CacheBackend: cacheBackend,
		CachePing:    cachePing,
		DatabasePing: databasePing,
	})

	a.APIHandlers = handlers.NewAPIHandlers(a.Pipeline, a.Actions, callbackToken, a.HealthChecker, a.Metrics)

	logger.Info(ctx, "Application initialized", append(cfg.Summary(), "actions", a.Actions.Names())...)

	return a, nil
}

// setupResearch registers the research action when a provider key is configured
func (a *App) setupResearch(ctx context.Context, clientFactory *httpclient.Factory) (string, health.PingFunc) {
	cfg := a.Config
	if !cfg.ResearchEnabled() {
		if cfg.Research.APIKey != "" {
			logger.Warn(ctx, "Research action disabled, ACTION_CALLBACK_TOKEN is not configured")
		} else {
			logger.Info(ctx, "Research action disabled, no provider key configured")
		}
		return "", nil
	}

	var (
		cache     research.Cache = research.NewMemoryCache(cfg.Research.CacheTTL)
		cachePing health.PingFunc
	)

	if cfg.Research.RedisURL != "" {
		redisCache, err := research.NewRedisCacheFromURL(ctx, cfg.Research.RedisURL)
		if err != nil {
			logger.Warn(ctx, "Redis unavailable, using in-process research cache", "error_message", err.Error())
		} else {
			a.redisCache = redisCache
			cache = redisCache
			cachePing = redisCache.Ping
		}
	}

	searcher := research.NewTavilyClient(
		cfg.Research.BaseURL,
		cfg.Research.APIKey,
		cfg.Research.MaxResults,
		clientFactory.CreateClient(httpclient.Options{Timeout: cfg.Research.Timeout}),
	)
	a.Actions.Register(research.NewResearcher(searcher, cache, cfg.Research.CacheTTL).Action())

	return cache.Backend(), cachePing
}

// setupDatabase connects the pipeline outcome store when MONGODB_URI is set
func (a *App) setupDatabase(ctx context.Context) health.PingFunc {
	if !a.Config.DatabaseEnabled() {
		return nil
	}

	environment := utils.GetEnvString("ENVIRONMENT", "development")
	dbConfig := database.NewDatabaseConfig(
		a.Config.Storage.MongoURI,
		environment,
		utils.GetEnvString("SERVICE_NAME", ""),
	)

	conn, err := database.Connect(ctx, dbConfig)
	if err != nil {
		logger.Warn(logger.WithStage(ctx, logger.LogStages.DatabaseOperation), "Database unavailable, pipeline outcomes will not be recorded",
			"error_message", err.Error(),
		)
		return nil
	}

	a.db = conn
	a.Recorder = database.NewRecorder(conn.GetPipelineRecordRepository(), dbConfig.Environment, os.Getenv("VERSION"))
	return conn.HealthCheck
}

// SetupRoutes returns the fully wrapped HTTP handler
func (a *App) SetupRoutes() http.Handler {
	return router.SetupRoutes(a.APIHandlers, router.Options{
		Metrics:     a.Metrics,
		EnablePprof: a.Config.Server.EnablePprof,
		CORSEnabled: a.Config.Security.CORSEnabled,
	})
}

// Shutdown flushes pending records and closes optional backends
func (a *App) Shutdown(ctx context.Context) error {
	ctx = logger.WithComponent(ctx, logger.ComponentNames.App)

	a.Recorder.Wait(ctx)

	var firstErr error
	if a.db != nil {
		if err := a.db.Disconnect(ctx); err != nil {
			logger.Error(ctx, "Failed to disconnect from MongoDB", err)
			firstErr = err
		}
	}
	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			logger.Error(ctx, "Failed to close Redis client", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
