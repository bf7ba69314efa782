// Package terrain ties noise, height synthesis and mesh building together
// behind a manager that publishes complete snapshots atomically.
package terrain

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/VoidMesh/terrain/internal/heightfield"
	"github.com/VoidMesh/terrain/internal/logging"
	"github.com/VoidMesh/terrain/internal/mesh"
	"github.com/VoidMesh/terrain/internal/noise"
	"github.com/VoidMesh/terrain/internal/wire"
)

// LoggerInterface abstracts logging operations for dependency injection.
type LoggerInterface = logging.Interface

// NewDefaultLoggerWrapper returns a logger backed by the global logger.
func NewDefaultLoggerWrapper() LoggerInterface {
	return logging.NewDefaultWrapper()
}

// Snapshot is one fully built terrain. It is never modified after the
// manager publishes it.
type Snapshot struct {
	ID          uuid.UUID
	Params      Params
	Heights     *heightfield.Field
	Mesh        *mesh.Mesh
	GeneratedAt time.Time
	Duration    time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore persists every published snapshot to s.
func WithStore(s Store) Option {
	return func(m *Manager) {
		m.store = s
	}
}

// WithDefaults sets the params Reseed uses before anything is published.
func WithDefaults(p Params) Option {
	return func(m *Manager) {
		m.defaults = p
	}
}

// Manager owns the noise field and the current snapshot. Generations are
// serialised; readers always see either the previous or the next snapshot
// in full.
type Manager struct {
	logger   LoggerInterface
	store    Store
	defaults Params

	// mu serialises generations and guards field.
	mu        sync.Mutex
	field     noise.Field
	fieldKind string

	current atomic.Pointer[Snapshot]
}

// NewManager creates a manager with dependency injection.
func NewManager(logger LoggerInterface, opts ...Option) *Manager {
	componentLogger := logger.With("component", "terrain-manager")
	componentLogger.Debug("Creating new terrain manager")

	m := &Manager{
		logger:   componentLogger,
		defaults: DefaultParams(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewManagerWithDefaultLogger creates a manager logging to the global logger.
func NewManagerWithDefaultLogger(opts ...Option) *Manager {
	return NewManager(NewDefaultLoggerWrapper(), opts...)
}

// Current returns the published snapshot, or nil before the first one.
func (m *Manager) Current() *Snapshot {
	return m.current.Load()
}

// Params returns the params of the current snapshot, or the defaults.
func (m *Manager) Params() Params {
	if snap := m.current.Load(); snap != nil {
		return snap.Params
	}
	return m.defaults
}

// HasStore reports whether snapshots are persisted.
func (m *Manager) HasStore() bool {
	return m.store != nil
}

// Regenerate builds a terrain from p and publishes it. On error, including
// cancellation, the previous snapshot stays current.
func (m *Manager) Regenerate(ctx context.Context, p Params) (*Snapshot, error) {
	if err := p.Validate(); err != nil {
		m.logger.Warn("Rejected terrain parameters", "error", err)
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	logger := m.logger.With("seed", p.Seed, "length", p.Length, "width", p.Width)
	logger.Info("Generating terrain", "noise", p.Noise, "octaves", p.Octaves, "falloff", p.UseFalloff)

	start := time.Now()
	field, err := m.fieldFor(p)
	if err != nil {
		return nil, err
	}
	p.Noise = m.fieldKind
	if opts, err := p.MeshOptions(); err == nil {
		p.Bands = opts.Bands.Name
	}

	hf, mm, err := Build(ctx, field, p)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			logger.Warn("Terrain generation cancelled", "error", err)
		} else {
			logger.Error("Terrain generation failed", "error", err)
		}
		return nil, err
	}

	snap := &Snapshot{
		ID:          uuid.New(),
		Params:      p,
		Heights:     hf,
		Mesh:        mm,
		GeneratedAt: start.UTC(),
		Duration:    time.Since(start),
	}
	m.current.Store(snap)
	logger.Info("Terrain published", "snapshot_id", snap.ID, "duration", snap.Duration, "degenerate", hf.Degenerate)

	m.persist(ctx, snap)
	return snap, nil
}

// Reseed regenerates with the current params and a new seed.
func (m *Manager) Reseed(ctx context.Context, seed int64) (*Snapshot, error) {
	p := m.Params()
	p.Seed = seed
	return m.Regenerate(ctx, p)
}

// Load rebuilds a stored snapshot without publishing it.
func (m *Manager) Load(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	if snap := m.current.Load(); snap != nil && snap.ID == id {
		return snap, nil
	}
	if m.store == nil {
		return nil, ErrNoStore
	}

	rec, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	hf, err := wire.DecodeHeights(rec.Heights)
	if err != nil {
		return nil, fmt.Errorf("failed to decode heights of snapshot %s: %w", id, err)
	}
	opts, err := rec.Params.MeshOptions()
	if err != nil {
		return nil, err
	}
	mm, err := mesh.Build(ctx, hf, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to rebuild mesh of snapshot %s: %w", id, err)
	}

	m.logger.Debug("Loaded stored snapshot", "snapshot_id", id)
	return &Snapshot{
		ID:          rec.ID,
		Params:      rec.Params,
		Heights:     hf,
		Mesh:        mm,
		GeneratedAt: rec.CreatedAt,
		Duration:    rec.Duration,
	}, nil
}

// List returns stored snapshot records, newest first.
func (m *Manager) List(ctx context.Context, limit int) ([]Record, error) {
	if m.store == nil {
		return nil, ErrNoStore
	}
	return m.store.List(ctx, limit)
}

// Build runs both stages for p on field without touching any manager.
func Build(ctx context.Context, field noise.Field, p Params) (*heightfield.Field, *mesh.Mesh, error) {
	hf, err := heightfield.Generate(ctx, field, p.HeightfieldParams())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate heights: %w", err)
	}
	opts, err := p.MeshOptions()
	if err != nil {
		return nil, nil, err
	}
	mm, err := mesh.Build(ctx, hf, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build mesh: %w", err)
	}
	return hf, mm, nil
}

// fieldFor reuses the owned field when the backend is unchanged and
// reseeds it; otherwise it replaces the field. Callers hold mu.
func (m *Manager) fieldFor(p Params) (noise.Field, error) {
	kind, err := noise.CanonicalKind(p.Noise)
	if err != nil {
		return nil, err
	}
	if m.field == nil || m.fieldKind != kind {
		field, err := noise.New(kind, p.Seed)
		if err != nil {
			return nil, err
		}
		m.field = field
		m.fieldKind = kind
		return field, nil
	}
	if m.field.Seed() != p.Seed {
		m.field.Reseed(p.Seed)
	}
	return m.field, nil
}

func (m *Manager) persist(ctx context.Context, snap *Snapshot) {
	if m.store == nil {
		return
	}
	rec := Record{
		ID:        snap.ID,
		Params:    snap.Params,
		Heights:   wire.EncodeHeights(snap.Heights),
		Duration:  snap.Duration,
		CreatedAt: snap.GeneratedAt,
	}
	if err := m.store.Save(context.WithoutCancel(ctx), rec); err != nil {
		m.logger.Error("Failed to persist snapshot", "snapshot_id", snap.ID, "error", err)
		return
	}
	m.logger.Debug("Snapshot persisted", "snapshot_id", snap.ID, "bytes", len(rec.Heights))
}
