package database

import (
	"context"
	"sync"
	"time"

	"github.com/aashari/go-itinerary-gateway/internal/logger"
)

const recordTimeout = 5 * time.Second

// RecordStore persists pipeline records
type RecordStore interface {
	Insert(ctx context.Context, record *PipelineRecord) error
}

// Recorder writes pipeline records in the background. A write failure is
// logged and never reaches the request that produced the record.
type Recorder struct {
	store       RecordStore
	environment string
	version     string
	wg          sync.WaitGroup
}

// NewRecorder creates a recorder over store
func NewRecorder(store RecordStore, environment, version string) *Recorder {
	return &Recorder{store: store, environment: environment, version: version}
}

// Record stores record asynchronously. The write outlives the request
// context but keeps its logging fields.
func (r *Recorder) Record(ctx context.Context, record PipelineRecord) {
	if r == nil || r.store == nil {
		return
	}

	if record.Environment == "" {
		record.Environment = r.environment
	}
	if record.Version == "" {
		record.Version = r.version
	}

	writeCtx := logger.WithComponent(context.WithoutCancel(ctx), logger.ComponentNames.Database)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		dbCtx, cancel := context.WithTimeout(writeCtx, recordTimeout)
		defer cancel()

		if err := r.store.Insert(dbCtx, &record); err != nil {
			logger.Warn(dbCtx, "Failed to record pipeline outcome",
				"error_message", err.Error(),
				"outcome_kind", record.OutcomeKind,
			)
			return
		}
		logger.Debug(dbCtx, "Pipeline outcome recorded", "outcome_kind", record.OutcomeKind)
	}()
}

// Wait blocks until pending writes finish or ctx is done
func (r *Recorder) Wait(ctx context.Context) {
	if r == nil {
		return
	}

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn(ctx, "Timed out waiting for pending pipeline records")
	}
}
