package health

import (
	"context"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/aashari/go-itinerary-gateway/internal/actions"
	"github.com/aashari/go-itinerary-gateway/internal/config"
	"github.com/aashari/go-itinerary-gateway/internal/logger"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
	StatusUnknown   HealthStatus = "unknown"
)

// startTime tracks when the process started
var startTime = time.Now()

// HealthCheck represents a single health check
type HealthCheck struct {
	Name        string
	Description string
	Check       func(ctx context.Context) HealthCheckResult
	Timeout     time.Duration
	Critical    bool // If true, failure affects overall system health
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status    HealthStatus   `json:"status"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Duration  time.Duration  `json:"duration_ns"`
	Error     error          `json:"-"`
}

// HealthChecker manages and executes health checks
type HealthChecker struct {
	checks map[string]*HealthCheck
	mutex  sync.RWMutex
}

// NewHealthChecker creates a new health checker
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		checks: make(map[string]*HealthCheck),
	}
}

// RegisterCheck registers a new health check
func (hc *HealthChecker) RegisterCheck(check *HealthCheck) {
	hc.mutex.Lock()
	defer hc.mutex.Unlock()

	if check.Timeout == 0 {
		check.Timeout = 5 * time.Second
	}

	hc.checks[check.Name] = check

	logger.Debug(logger.WithComponent(context.Background(), logger.ComponentNames.Monitoring), "Health check registered",
		"name", check.Name,
		"description", check.Description,
		"critical", check.Critical,
		"timeout", check.Timeout.String(),
	)
}

// Names returns the registered check names
func (hc *HealthChecker) Names() []string {
	hc.mutex.RLock()
	defer hc.mutex.RUnlock()

	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	return names
}

// ExecuteCheck executes a single health check
func (hc *HealthChecker) ExecuteCheck(ctx context.Context, name string) (*HealthCheckResult, error) {
	hc.mutex.RLock()
	check, exists := hc.checks[name]
	hc.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("health check %s not found", name)
	}

	return hc.executeCheck(ctx, check), nil
}

// ExecuteAllChecks executes all registered health checks concurrently
func (hc *HealthChecker) ExecuteAllChecks(ctx context.Context) map[string]HealthCheckResult {
	hc.mutex.RLock()
	checks := maps.Clone(hc.checks)
	hc.mutex.RUnlock()

	results := make(map[string]HealthCheckResult, len(checks))
	var wg sync.WaitGroup
	var resultMutex sync.Mutex

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check *HealthCheck) {
			defer wg.Done()

			result := hc.executeCheck(ctx, check)

			resultMutex.Lock()
			results[name] = *result
			resultMutex.Unlock()
		}(name, check)
	}

	wg.Wait()
	return results
}

// executeCheck executes a single health check with timeout
func (hc *HealthChecker) executeCheck(ctx context.Context, check *HealthCheck) *HealthCheckResult {
	ctx = logger.WithStage(logger.WithComponent(ctx, logger.ComponentNames.Monitoring), logger.LogStages.HealthCheck)
	checkCtx, cancel := context.WithTimeout(ctx, check.Timeout)
	defer cancel()

	start := time.Now()

	result := check.Check(checkCtx)
	if result.Status == "" {
		result.Status = StatusUnknown
	}
	result.Timestamp = start
	result.Duration = time.Since(start)

	logger.Debug(ctx, "Health check executed",
		"name", check.Name,
		"status", string(result.Status),
		"duration_ms", result.Duration.Milliseconds(),
		"message", result.Message,
	)

	return &result
}

// GetOverallHealth determines the overall system health.
// A failing critical check makes the system unhealthy; any other failure or
// degraded check makes it degraded.
func (hc *HealthChecker) GetOverallHealth(ctx context.Context) (HealthStatus, map[string]HealthCheckResult) {
	results := hc.ExecuteAllChecks(ctx)

	overallStatus := StatusHealthy
	criticalFailures := 0
	totalFailures := 0

	hc.mutex.RLock()
	for name, result := range results {
		check, ok := hc.checks[name]
		switch result.Status {
		case StatusUnhealthy, StatusUnknown:
			totalFailures++
			if ok && check.Critical {
				criticalFailures++
			}
		case StatusDegraded:
			overallStatus = StatusDegraded
		}
	}
	hc.mutex.RUnlock()

	if criticalFailures > 0 {
		overallStatus = StatusUnhealthy
	} else if totalFailures > 0 {
		overallStatus = StatusDegraded
	}

	if overallStatus != StatusHealthy {
		logger.Warn(logger.WithStage(ctx, logger.LogStages.HealthCheck), "Health assessment not healthy",
			"overall_status", string(overallStatus),
			"total_checks", len(results),
			"total_failures", totalFailures,
			"critical_failures", criticalFailures,
		)
	}

	return overallStatus, results
}

// PingFunc checks an optional backing service
type PingFunc func(ctx context.Context) error

// Dependencies are the components the standard checks inspect.
// Nil ping functions mean the backing service is not configured.
type Dependencies struct {
	Config       *config.Config
	Actions      *actions.Registry
	CacheBackend string
	CachePing    PingFunc
	DatabasePing PingFunc
}

// CreateStandardHealthChecks creates the gateway's health checks
func CreateStandardHealthChecks(deps Dependencies) *HealthChecker {
	hc := NewHealthChecker()

	hc.RegisterCheck(&HealthCheck{
		Name:        "application",
		Description: "Basic application health",
		Critical:    true,
		Timeout:     2 * time.Second,
		Check: func(ctx context.Context) HealthCheckResult {
			return HealthCheckResult{
				Status:  StatusHealthy,
				Message: "Application is running",
				Details: map[string]any{
					"uptime_seconds": int64(time.Since(startTime).Seconds()),
				},
			}
		},
	})

	hc.RegisterCheck(&HealthCheck{
		Name:        "configuration",
		Description: "Configuration validation",
		Critical:    true,
		Timeout:     2 * time.Second,
		Check: func(ctx context.Context) HealthCheckResult {
			if deps.Config == nil {
				return HealthCheckResult{Status: StatusUnhealthy, Message: "No configuration loaded"}
			}
			if err := config.ValidateConfiguration(deps.Config); err != nil {
				return HealthCheckResult{Status: StatusUnhealthy, Message: err.Message, Error: err}
			}
			return HealthCheckResult{
				Status:  StatusHealthy,
				Message: "Configuration is valid",
				Details: map[string]any{
					"upstream_base_url": deps.Config.Upstream.BaseURL,
					"actions":           deps.Actions.Names(),
				},
			}
		},
	})

	hc.RegisterCheck(&HealthCheck{
		Name:        "fallback_credential",
		Description: "Process-wide default credential",
		Critical:    false,
		Timeout:     time.Second,
		Check: func(ctx context.Context) HealthCheckResult {
			configured := deps.Config != nil && deps.Config.HasFallbackCredential()
			message := "Fallback credential configured"
			if !configured {
				message = "No fallback credential; callers must supply a key"
			}
			return HealthCheckResult{
				Status:  StatusHealthy,
				Message: message,
				Details: map[string]any{"configured": configured},
			}
		},
	})

	hc.RegisterCheck(&HealthCheck{
		Name:        "research",
		Description: "Research action and its cache",
		Critical:    false,
		Timeout:     3 * time.Second,
		Check: func(ctx context.Context) HealthCheckResult {
			if deps.Config == nil || !deps.Config.ResearchEnabled() {
				return HealthCheckResult{Status: StatusHealthy, Message: "Research action disabled", Details: map[string]any{"enabled": false}}
			}
			details := map[string]any{"enabled": true, "cache_backend": deps.CacheBackend}
			if deps.CachePing != nil {
				if err := deps.CachePing(ctx); err != nil {
					return HealthCheckResult{
						Status:  StatusDegraded,
						Message: fmt.Sprintf("Research cache unreachable: %v", err),
						Details: details,
						Error:   err,
					}
				}
			}
			return HealthCheckResult{Status: StatusHealthy, Message: "Research action available", Details: details}
		},
	})

	if deps.DatabasePing != nil {
		hc.RegisterCheck(&HealthCheck{
			Name:        "database",
			Description: "Pipeline outcome store",
			Critical:    false,
			Timeout:     5 * time.Second,
			Check: func(ctx context.Context) HealthCheckResult {
				if err := deps.DatabasePing(ctx); err != nil {
					return HealthCheckResult{
						Status:  StatusUnhealthy,
						Message: fmt.Sprintf("Database ping failed: %v", err),
						Error:   err,
					}
				}
				return HealthCheckResult{Status: StatusHealthy, Message: "Database reachable"}
			},
		})
	}

	return hc
}
