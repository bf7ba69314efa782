// Package store holds helpers shared by the snapshot store backends.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/VoidMesh/terrain/internal/logging"
	"github.com/VoidMesh/terrain/internal/terrain"
)

const (
	// DefaultListLimit applies when a caller passes a non-positive limit.
	DefaultListLimit = 50
	// MaxListLimit caps a single page.
	MaxListLimit = 500
)

// ClampLimit maps a requested page size into [1, MaxListLimit].
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

// LoggingStore wraps a terrain.Store to add debug logging
type LoggingStore struct {
	inner  terrain.Store
	logger logging.Interface
}

// NewLoggingStore creates a new LoggingStore instance
func NewLoggingStore(inner terrain.Store, backend string, logger logging.Interface) *LoggingStore {
	return &LoggingStore{
		inner:  inner,
		logger: logger.With("component", "snapshot-store", "backend", backend),
	}
}

// Helper function to log query execution
func (ls *LoggingStore) logQuery(queryName string, start time.Time, err error, args ...interface{}) {
	kv := append([]interface{}{"query", queryName, "duration", time.Since(start)}, args...)
	if err != nil {
		ls.logger.Debug("Database query failed", append(kv, "error", err)...)
		return
	}
	ls.logger.Debug("Database query executed", kv...)
}

// Save with logging
func (ls *LoggingStore) Save(ctx context.Context, rec terrain.Record) error {
	start := time.Now()
	err := ls.inner.Save(ctx, rec)
	ls.logQuery("Save", start, err, "snapshot_id", rec.ID, "bytes", len(rec.Heights))
	return err
}

// Get with logging
func (ls *LoggingStore) Get(ctx context.Context, id uuid.UUID) (terrain.Record, error) {
	start := time.Now()
	rec, err := ls.inner.Get(ctx, id)
	ls.logQuery("Get", start, err, "snapshot_id", id)
	return rec, err
}

// List with logging
func (ls *LoggingStore) List(ctx context.Context, limit int) ([]terrain.Record, error) {
	start := time.Now()
	records, err := ls.inner.List(ctx, limit)
	ls.logQuery("List", start, err, "limit", limit, "count", len(records))
	return records, err
}
