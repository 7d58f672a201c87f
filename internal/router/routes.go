package router

import (
	"net/http"

	_ "github.com/aashari/go-itinerary-gateway/docs"
	"github.com/aashari/go-itinerary-gateway/internal/handlers"
	"github.com/aashari/go-itinerary-gateway/internal/middleware"
	"github.com/aashari/go-itinerary-gateway/internal/monitoring"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Options toggles the optional parts of the route table
type Options struct {
	Metrics     *monitoring.Metrics
	EnablePprof bool
	CORSEnabled bool
}

// SetupRoutes configures all routes for the application
func SetupRoutes(apiHandlers *handlers.APIHandlers, opts Options) http.Handler {
	metrics := opts.Metrics
	if metrics == nil {
		metrics = monitoring.GetMetrics()
	}

	mux := http.NewServeMux()

	// the pipeline answers every method itself so 405s carry the error envelope
	mux.HandleFunc("/api/copilotkit", apiHandlers.CopilotKitHandler)
	if apiHandlers.ActionCallbacksEnabled() {
		mux.HandleFunc("POST /api/copilotkit/actions/{name}", apiHandlers.ActionHandler)
	}
	mux.HandleFunc("GET /health", apiHandlers.HealthHandler)
	mux.HandleFunc("GET /metrics", metrics.Handler)

	if opts.EnablePprof {
		monitoring.SetupPprofRoutes(mux)
	}

	// Serve Swagger UI with proper configuration
	mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
		httpSwagger.DocExpansion("none"),
		httpSwagger.DomID("swagger-ui"),
	))

	var handler http.Handler = metrics.Middleware(mux)
	if opts.CORSEnabled {
		handler = middleware.CORSMiddleware(handler)
	}
	return middleware.RequestCorrelationMiddleware(handler)
}
