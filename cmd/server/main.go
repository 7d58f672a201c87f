package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/aashari/go-itinerary-gateway/internal/app"
	"github.com/aashari/go-itinerary-gateway/internal/config"
	"github.com/aashari/go-itinerary-gateway/internal/logger"
)

// @title           Itinerary Gateway
// @version         1.0
// @description     Request gateway for the itinerary planner. Resolves the caller's API key from the request payload, validates it and relays the request to an OpenAI-compatible engine.
// @termsOfService  https://github.com/aashari/go-itinerary-gateway/blob/main/LICENSE

// @contact.name   API Support
// @contact.url    https://github.com/aashari/go-itinerary-gateway

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8082
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the configured action callback token.

const shutdownTimeout = 30 * time.Second

func main() {
	// .env must be loaded before the logger reads LOG_LEVEL and friends
	envErr := config.LoadEnvFromMultiplePaths()

	if err := logger.InitFromEnv(); err != nil {
		// Can't use logger here as it failed to initialize
		_, _ = os.Stderr.WriteString("FATAL: Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx := logger.WithComponent(context.Background(), logger.ComponentNames.App)
	if envErr != nil {
		logger.Warn(ctx, "Failed to load .env file", "error_message", envErr.Error())
	}

	if err := run(ctx); err != nil {
		logger.Error(ctx, "Server failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, cfgErr := config.Load()
	if cfgErr != nil {
		return cfgErr
	}

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	srv := &http.Server{
		Addr:         addr,
		Handler:      application.SetupRoutes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info(ctx, "Server starting", "address", addr)
		logger.Info(ctx, "Swagger documentation available", "url", "http://"+addr+"/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case err, ok := <-serverErr:
		if ok {
			return err
		}
		return nil
	case sig := <-signals:
		logger.Info(ctx, "Shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Graceful shutdown failed", err)
	}
	if err := application.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down application: %w", err)
	}

	logger.Info(ctx, "Server stopped")
	return nil
}
