package terrain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

//go:generate go tool mockgen -source=store.go -destination=../testmocks/terrain/mock_store.go -package=mockterrain

var (
	// ErrSnapshotNotFound is returned when no stored snapshot has the
	// requested ID.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrNoTerrain is returned before the first terrain is published.
	ErrNoTerrain = errors.New("no terrain generated yet")
	// ErrNoStore is returned by history operations on a manager without a
	// store.
	ErrNoStore = errors.New("snapshot store not configured")
)

// Record is the persisted form of a snapshot. The mesh is rebuilt from
// Params and Heights on load.
type Record struct {
	ID        uuid.UUID     `json:"id"`
	Params    Params        `json:"params"`
	Heights   []byte        `json:"-"`
	Duration  time.Duration `json:"duration"`
	CreatedAt time.Time     `json:"created_at"`
}

// Store persists snapshot records.
type Store interface {
	Save(ctx context.Context, rec Record) error
	// Get returns ErrSnapshotNotFound (possibly wrapped) for unknown IDs.
	Get(ctx context.Context, id uuid.UUID) (Record, error)
	// List returns up to limit records newest first, without heights.
	List(ctx context.Context, limit int) ([]Record, error)
}
