// Package sqlite stores terrain snapshots in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlite3migrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/VoidMesh/terrain/internal/logging"
	"github.com/VoidMesh/terrain/internal/store"
	"github.com/VoidMesh/terrain/internal/terrain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Config holds connection settings.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store implements terrain.Store on database/sql.
type Store struct {
	db *sql.DB
}

// New wraps an already migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to the database at cfg.Path, applies migrations and
// returns a ready store. An in-memory path is pinned to one connection so
// every query sees the same database.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	logger := logging.GetLogger()
	logger.Debug("Opening database connection", "path", cfg.Path)

	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("Database initialized", "path", cfg.Path)
	return New(db), nil
}

// Migrate applies the embedded schema migrations.
func Migrate(db *sql.DB) error {
	logger := logging.GetLogger()

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	driver, err := sqlite3migrate.WithInstance(db, &sqlite3migrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Debug("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		logger.Debug("Successfully applied migrations")
	}
	return nil
}

// DB exposes the underlying handle.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts rec.
func (s *Store) Save(ctx context.Context, rec terrain.Record) error {
	params, err := json.Marshal(rec.Params)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, params, heights, duration_ns, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, rec.ID.String(), string(params), rec.Heights, int64(rec.Duration), rec.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (terrain.Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, params, heights, duration_ns, created_at
		FROM snapshots
		WHERE id = ?
	`, id.String())

	rec, err := scanRecord(row.Scan, true)
	if errors.Is(err, sql.ErrNoRows) {
		return terrain.Record{}, fmt.Errorf("snapshot %s: %w", id, terrain.ErrSnapshotNotFound)
	}
	if err != nil {
		return terrain.Record{}, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return rec, nil
}

// List returns up to limit records newest first, without heights.
func (s *Store) List(ctx context.Context, limit int) ([]terrain.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, params, duration_ns, created_at
		FROM snapshots
		ORDER BY created_at DESC, id
		LIMIT ?
	`, store.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	records := make([]terrain.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows.Scan, false)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return records, nil
}

func scanRecord(scan func(dest ...any) error, withHeights bool) (terrain.Record, error) {
	var (
		rec        terrain.Record
		id         string
		params     string
		durationNS int64
		createdAt  int64
	)

	dest := []any{&id, &params}
	if withHeights {
		dest = append(dest, &rec.Heights)
	}
	dest = append(dest, &durationNS, &createdAt)
	if err := scan(dest...); err != nil {
		return terrain.Record{}, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return terrain.Record{}, fmt.Errorf("invalid snapshot id %q: %w", id, err)
	}
	if err := json.Unmarshal([]byte(params), &rec.Params); err != nil {
		return terrain.Record{}, fmt.Errorf("invalid params for snapshot %s: %w", id, err)
	}

	rec.ID = parsed
	rec.Duration = time.Duration(durationNS)
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	return rec, nil
}
