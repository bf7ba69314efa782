package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoidMesh/terrain/internal/terrain"
)

var allKeys = []string{
	"PORT", "GRPC_PORT", "READ_TIMEOUT", "WRITE_TIMEOUT", "IDLE_TIMEOUT",
	"REQUEST_TIMEOUT", "SHUTDOWN_TIMEOUT",
	"DB_DRIVER", "DB_PATH", "DATABASE_URL", "DB_MAX_OPEN_CONNS",
	"DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME",
	"LOG_LEVEL", "LOG_FORMAT", "LOG_STRUCTURED", "JWT_SECRET",
	"TERRAIN_SEED", "TERRAIN_NOISE", "TERRAIN_LENGTH", "TERRAIN_WIDTH",
	"TERRAIN_SCALE", "TERRAIN_OCTAVES", "TERRAIN_PERSISTENCE",
	"TERRAIN_LACUNARITY", "TERRAIN_FALLOFF", "TERRAIN_FALLOFF_A",
	"TERRAIN_FALLOFF_B", "TERRAIN_HEIGHT_MULTIPLIER", "TERRAIN_STEEPNESS",
	"TERRAIN_BANDS", "TERRAIN_CENTERED", "TERRAIN_PARALLEL",
}

// clearEnv blanks every key Load reads; empty values fall back to defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range allKeys {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "50051", cfg.Server.GRPCPort)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "./terrain.db", cfg.Database.Path)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Auth.Enabled())

	assert.Equal(t, terrain.DefaultParams(), cfg.Terrain)
	require.NoError(t, cfg.Terrain.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("GRPC_PORT", "9001")
	t.Setenv("SHUTDOWN_TIMEOUT", "5s")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/terrain")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TERRAIN_SEED", "-42")
	t.Setenv("TERRAIN_NOISE", "perlin")
	t.Setenv("TERRAIN_LENGTH", "64")
	t.Setenv("TERRAIN_WIDTH", "48")
	t.Setenv("TERRAIN_SCALE", "12.5")
	t.Setenv("TERRAIN_FALLOFF", "false")
	t.Setenv("TERRAIN_BANDS", "wide_sand")
	t.Setenv("TERRAIN_PARALLEL", "true")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "9001", cfg.Server.GRPCPort)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/terrain", cfg.Database.URL)
	assert.True(t, cfg.Auth.Enabled())

	p := cfg.Terrain
	assert.Equal(t, int64(-42), p.Seed)
	assert.Equal(t, "perlin", p.Noise)
	assert.Equal(t, 64, p.Length)
	assert.Equal(t, 48, p.Width)
	assert.Equal(t, 12.5, p.Scale)
	assert.False(t, p.UseFalloff)
	assert.Equal(t, "wide_sand", p.Bands)
	assert.True(t, p.Parallel)
	assert.Equal(t, terrain.DefaultParams().Octaves, p.Octaves)
	require.NoError(t, p.Validate())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("READ_TIMEOUT", "soon")
	t.Setenv("DB_MAX_OPEN_CONNS", "many")
	t.Setenv("TERRAIN_SEED", "0x10")
	t.Setenv("TERRAIN_SCALE", "big")
	t.Setenv("TERRAIN_CENTERED", "maybe")

	cfg := Load()

	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns)
	assert.Equal(t, terrain.DefaultSeed, cfg.Terrain.Seed)
	assert.Equal(t, 30.0, cfg.Terrain.Scale)
	assert.True(t, cfg.Terrain.Centered)
}

func TestGetEnvDriver(t *testing.T) {
	tests := []struct {
		value string
		want  string
	}{
		{"", DriverSQLite},
		{"sqlite", DriverSQLite},
		{"SQLite3", DriverSQLite},
		{"postgres", DriverPostgres},
		{" PostgreSQL ", DriverPostgres},
		{"pgx", DriverPostgres},
		{"none", DriverNone},
		{"mongodb", DriverSQLite},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("DB_DRIVER", tt.value)
			assert.Equal(t, tt.want, getEnvDriver("DB_DRIVER", DriverSQLite))
		})
	}
}
