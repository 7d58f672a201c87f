package database

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PipelineRecordsCollection stores one document per pipeline run
const PipelineRecordsCollection = "pipeline-records"

// PipelineRecord is the stored outcome of one pipeline run.
// It never holds the credential itself, only its masked hint.
type PipelineRecord struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"id"`

	RequestID string `bson:"request_id" json:"request_id"`
	Endpoint  string `bson:"endpoint" json:"endpoint"`

	// Credential resolution
	Strategy        string `bson:"strategy,omitempty" json:"strategy,omitempty"`
	CredentialHint  string `bson:"credential_hint,omitempty" json:"credential_hint,omitempty"`
	RejectionReason string `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`

	// Outcome
	OutcomeKind  string `bson:"outcome_kind" json:"outcome_kind"`
	StatusCode   int    `bson:"status_code" json:"status_code"`
	ErrorCode    string `bson:"error_code,omitempty" json:"error_code,omitempty"`
	ErrorMessage string `bson:"error_message,omitempty" json:"error_message,omitempty"`

	RequestBytes int   `bson:"request_bytes" json:"request_bytes"`
	DurationMs   int64 `bson:"duration_ms" json:"duration_ms"`

	Environment string `bson:"environment,omitempty" json:"environment,omitempty"`
	Version     string `bson:"version,omitempty" json:"version,omitempty"`

	RequestedAt time.Time `bson:"requested_at" json:"requested_at"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// OutcomeCount is one row of the per-outcome aggregation
type OutcomeCount struct {
	OutcomeKind string `bson:"_id" json:"outcome_kind"`
	Count       int64  `bson:"count" json:"count"`
}
