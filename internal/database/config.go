package database

import (
	"fmt"
	"net/url"
	"strings"
)

// DatabaseConfig holds MongoDB connection configuration
type DatabaseConfig struct {
	// MongoDB connection URI (includes all connection details including auth)
	URI string
	// The current environment (local, development, production, or test)
	Environment string
	// Database name based on environment and service name
	DatabaseName string
	// Application name for MongoDB connection
	AppName string
}

// NewDatabaseConfig derives the database name from the service name and
// environment: {env-prefix}-{service-name}
func NewDatabaseConfig(uri, environment, serviceName string) *DatabaseConfig {
	environment = strings.ToLower(environment)
	if serviceName == "" {
		serviceName = "go-itinerary-gateway"
	}

	var envPrefix string
	switch environment {
	case "production", "prod":
		envPrefix = "prod"
		environment = "production"
	case "local":
		envPrefix = "loc"
	case "test":
		envPrefix = "test"
	default:
		// development, staging and anything unknown
		envPrefix = "dev"
		environment = "development"
	}

	dbServiceName := strings.ReplaceAll(serviceName, "_", "-")
	dbServiceName = strings.TrimPrefix(dbServiceName, "go-")

	return &DatabaseConfig{
		URI:          uri,
		Environment:  environment,
		DatabaseName: fmt.Sprintf("%s-%s", envPrefix, dbServiceName),
		AppName:      serviceName,
	}
}

// DatabaseNameFromURI returns the database named in the URI path, if any
func (c *DatabaseConfig) DatabaseNameFromURI() string {
	parsed, err := url.Parse(c.URI)
	if err != nil {
		return ""
	}
	return strings.Trim(parsed.Path, "/")
}

// ResolvedDatabaseName prefers a database named in the URI over the derived name
func (c *DatabaseConfig) ResolvedDatabaseName() string {
	if name := c.DatabaseNameFromURI(); name != "" {
		return name
	}
	return c.DatabaseName
}

// MaskSensitiveData returns a copy of the config with sensitive data masked for logging
func (c *DatabaseConfig) MaskSensitiveData() *DatabaseConfig {
	masked := *c
	at := strings.LastIndex(masked.URI, "@")
	scheme := strings.Index(masked.URI, "//")
	if at > 0 && scheme >= 0 && scheme < at {
		masked.URI = masked.URI[:scheme+2] + "***:***" + masked.URI[at:]
	}
	return &masked
}
