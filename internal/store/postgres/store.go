// Package postgres stores terrain snapshots in PostgreSQL through a pgx
// connection pool.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/VoidMesh/terrain/internal/logging"
	"github.com/VoidMesh/terrain/internal/store"
	"github.com/VoidMesh/terrain/internal/terrain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DBTX is the subset of *pgxpool.Pool the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Config holds pool settings.
type Config struct {
	URL             string
	MaxConns        int32
	ConnMaxLifetime time.Duration
}

// Store implements terrain.Store on PostgreSQL.
type Store struct {
	db DBTX
}

// New wraps a pool or any compatible handle.
func New(db DBTX) *Store {
	return &Store{db: db}
}

// Open migrates the database at cfg.URL and connects a pool to it.
func Open(ctx context.Context, cfg Config) (*Store, *pgxpool.Pool, error) {
	logger := logging.GetLogger()

	if err := Migrate(cfg.URL); err != nil {
		return nil, nil, err
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.ConnMaxLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database initialized", "driver", "postgres", "max_conns", poolCfg.MaxConns)
	return New(pool), pool, nil
}

// Migrate applies the embedded schema migrations to the database at url.
func Migrate(url string) error {
	logger := logging.GetLogger()

	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, MigrationURL(url))
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer m.Close()

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

// MigrationURL rewrites a postgres:// URL to the scheme of the pgx v5
// migration driver.
func MigrationURL(url string) string {
	for _, prefix := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(url, prefix) {
			return "pgx5://" + strings.TrimPrefix(url, prefix)
		}
	}
	return url
}

// Save inserts rec.
func (s *Store) Save(ctx context.Context, rec terrain.Record) error {
	params, err := json.Marshal(rec.Params)
	if err != nil {
		return fmt.Errorf("failed to encode params: %w", err)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO snapshots (id, params, heights, duration_ns, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, rec.ID, params, rec.Heights, int64(rec.Duration), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

// Get returns the record with the given id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (terrain.Record, error) {
	var (
		rec        terrain.Record
		params     []byte
		durationNS int64
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, params, heights, duration_ns, created_at
		FROM snapshots
		WHERE id = $1
	`, id).Scan(&rec.ID, &params, &rec.Heights, &durationNS, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return terrain.Record{}, fmt.Errorf("snapshot %s: %w", id, terrain.ErrSnapshotNotFound)
	}
	if err != nil {
		return terrain.Record{}, fmt.Errorf("failed to get snapshot: %w", err)
	}
	if err := json.Unmarshal(params, &rec.Params); err != nil {
		return terrain.Record{}, fmt.Errorf("invalid params for snapshot %s: %w", id, err)
	}
	rec.Duration = time.Duration(durationNS)
	return rec, nil
}

// List returns up to limit records newest first, without heights.
func (s *Store) List(ctx context.Context, limit int) ([]terrain.Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, params, duration_ns, created_at
		FROM snapshots
		ORDER BY created_at DESC, id
		LIMIT $1
	`, store.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	records := make([]terrain.Record, 0)
	for rows.Next() {
		var (
			rec        terrain.Record
			params     []byte
			durationNS int64
		)
		if err := rows.Scan(&rec.ID, &params, &durationNS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		if err := json.Unmarshal(params, &rec.Params); err != nil {
			return nil, fmt.Errorf("invalid params for snapshot %s: %w", rec.ID, err)
		}
		rec.Duration = time.Duration(durationNS)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	return records, nil
}
