package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/VoidMesh/terrain/internal/terrain"
)

// Database drivers accepted by DB_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Logging  LoggingConfig
	Auth     AuthConfig
	Terrain  terrain.Params
}

type ServerConfig struct {
	Port            string
	GRPCPort        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver          string
	Path            string
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LoggingConfig struct {
	Level      string
	Format     string
	Structured bool
}

// AuthConfig guards the mutating endpoints. An empty secret leaves them open.
type AuthConfig struct {
	JWTSecret string
}

func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != ""
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            getEnvStr("PORT", "8080"),
			GRPCPort:        getEnvStr("GRPC_PORT", "50051"),
			ReadTimeout:     getEnvDuration("READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("IDLE_TIMEOUT", 120*time.Second),
			RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          getEnvDriver("DB_DRIVER", DriverSQLite),
			Path:            getEnvStr("DB_PATH", "./terrain.db"),
			URL:             getEnvStr("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Logging: LoggingConfig{
			Level:      getEnvStr("LOG_LEVEL", "info"),
			Format:     getEnvStr("LOG_FORMAT", "text"),
			Structured: getEnvBool("LOG_STRUCTURED", true),
		},
		Auth: AuthConfig{
			JWTSecret: getEnvStr("JWT_SECRET", ""),
		},
		Terrain: loadTerrain(),
	}
}

// loadTerrain overlays TERRAIN_* variables on the default island.
func loadTerrain() terrain.Params {
	p := terrain.DefaultParams()
	p.Seed = getEnvInt64("TERRAIN_SEED", p.Seed)
	p.Noise = getEnvStr("TERRAIN_NOISE", p.Noise)
	p.Length = getEnvInt("TERRAIN_LENGTH", p.Length)
	p.Width = getEnvInt("TERRAIN_WIDTH", p.Width)
	p.Scale = getEnvFloat("TERRAIN_SCALE", p.Scale)
	p.Octaves = getEnvInt("TERRAIN_OCTAVES", p.Octaves)
	p.Persistence = getEnvFloat("TERRAIN_PERSISTENCE", p.Persistence)
	p.Lacunarity = getEnvFloat("TERRAIN_LACUNARITY", p.Lacunarity)
	p.UseFalloff = getEnvBool("TERRAIN_FALLOFF", p.UseFalloff)
	p.FalloffA = getEnvFloat("TERRAIN_FALLOFF_A", p.FalloffA)
	p.FalloffB = getEnvFloat("TERRAIN_FALLOFF_B", p.FalloffB)
	p.HeightMultiplier = getEnvFloat("TERRAIN_HEIGHT_MULTIPLIER", p.HeightMultiplier)
	p.Steepness = getEnvFloat("TERRAIN_STEEPNESS", p.Steepness)
	p.Bands = getEnvStr("TERRAIN_BANDS", p.Bands)
	p.Centered = getEnvBool("TERRAIN_CENTERED", p.Centered)
	p.Parallel = getEnvBool("TERRAIN_PARALLEL", p.Parallel)
	return p
}

func getEnvStr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDriver(key, defaultValue string) string {
	switch value := strings.ToLower(strings.TrimSpace(os.Getenv(key))); value {
	case DriverSQLite, DriverPostgres, DriverNone:
		return value
	case "sqlite3":
		return DriverSQLite
	case "pgx", "postgresql":
		return DriverPostgres
	default:
		return defaultValue
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
