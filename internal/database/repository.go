package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PipelineRecordRepository provides operations for pipeline records
type PipelineRecordRepository struct {
	collection *mongo.Collection
}

// NewPipelineRecordRepository wraps a collection
func NewPipelineRecordRepository(collection *mongo.Collection) *PipelineRecordRepository {
	return &PipelineRecordRepository{collection: collection}
}

// GetPipelineRecordRepository returns a repository over the pipeline-records collection
func (c *Connection) GetPipelineRecordRepository() *PipelineRecordRepository {
	return NewPipelineRecordRepository(c.GetCollection(PipelineRecordsCollection))
}

// Insert stores a new record
func (r *PipelineRecordRepository) Insert(ctx context.Context, record *PipelineRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert pipeline record: %w", err)
	}
	return nil
}

// FindByRequestID returns the record for a request, or nil when none exists
func (r *PipelineRecordRepository) FindByRequestID(ctx context.Context, requestID string) (*PipelineRecord, error) {
	var record PipelineRecord
	err := r.collection.FindOne(ctx, bson.M{"request_id": requestID}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline record: %w", err)
	}
	return &record, nil
}

// ListRecent returns the newest records first
func (r *PipelineRecordRepository) ListRecent(ctx context.Context, limit int64) ([]PipelineRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list pipeline records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []PipelineRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode pipeline records: %w", err)
	}
	return records, nil
}

// CountByOutcome aggregates records created since the given time by outcome kind
func (r *PipelineRecordRepository) CountByOutcome(ctx context.Context, since time.Time) ([]OutcomeCount, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{"_id": "$outcome_kind", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate pipeline records: %w", err)
	}
	defer cursor.Close(ctx)

	var counts []OutcomeCount
	if err := cursor.All(ctx, &counts); err != nil {
		return nil, fmt.Errorf("failed to decode outcome counts: %w", err)
	}
	return counts, nil
}
