package database

import (
	"context"
	"fmt"
	"time"

	"github.com/aashari/go-itinerary-gateway/internal/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 2 * time.Second
)

// Connection holds the MongoDB connection and configuration
type Connection struct {
	Client   *mongo.Client
	Database *mongo.Database
	Config   *DatabaseConfig
}

// Connect opens and verifies a MongoDB connection, then ensures indexes
func Connect(ctx context.Context, config *DatabaseConfig) (*Connection, error) {
	ctx = logger.WithComponent(ctx, logger.ComponentNames.Database)
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(config.URI)
	if config.AppName != "" {
		clientOptions.SetAppName(config.AppName)
	}

	databaseName := config.ResolvedDatabaseName()
	logger.Info(ctx, "Connecting to MongoDB",
		"database", databaseName,
		"uri", config.MaskSensitiveData().URI,
	)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	connection := &Connection{
		Client:   client,
		Database: client.Database(databaseName),
		Config:   config,
	}

	logger.Info(ctx, "Connected to MongoDB", "database", databaseName)

	// The store still works without indexes, only slower
	if err := connection.createIndexes(ctx); err != nil {
		logger.Warn(ctx, "Failed to create database indexes", "error_message", err.Error())
	}

	return connection, nil
}

// Disconnect closes the MongoDB connection
func (c *Connection) Disconnect(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return c.Client.Disconnect(ctx)
}

// GetCollection returns a MongoDB collection
func (c *Connection) GetCollection(name string) *mongo.Collection {
	return c.Database.Collection(name)
}

// createIndexes creates the pipeline-records indexes
func (c *Connection) createIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
		{
			Keys:    bson.D{{Key: "request_id", Value: 1}},
			Options: options.Index().SetName("request_id"),
		},
		{
			Keys:    bson.D{{Key: "outcome_kind", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("outcome_kind_created_at_desc"),
		},
		{
			Keys:    bson.D{{Key: "status_code", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("status_code_created_at_desc"),
		},
	}

	if _, err := c.GetCollection(PipelineRecordsCollection).Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create %s indexes: %w", PipelineRecordsCollection, err)
	}

	logger.Debug(ctx, "Database indexes ready", "collection", PipelineRecordsCollection)
	return nil
}

// HealthCheck performs a health check on the MongoDB connection
func (c *Connection) HealthCheck(ctx context.Context) error {
	if c == nil || c.Client == nil {
		return fmt.Errorf("MongoDB client is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := c.Client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("MongoDB ping failed: %w", err)
	}

	return nil
}
