package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/VoidMesh/terrain/internal/api"
	"github.com/VoidMesh/terrain/internal/auth"
	"github.com/VoidMesh/terrain/internal/config"
	"github.com/VoidMesh/terrain/internal/logging"
	"github.com/VoidMesh/terrain/internal/rpc"
	"github.com/VoidMesh/terrain/internal/store"
	"github.com/VoidMesh/terrain/internal/store/postgres"
	"github.com/VoidMesh/terrain/internal/store/sqlite"
	"github.com/VoidMesh/terrain/internal/terrain"
)

func main() {
	printToken := flag.Duration("print-token", 0, "print a bearer token valid for the given duration and exit")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	// Setup logging
	setupLogging(cfg.Logging)
	logger := logging.GetLogger()
	logger.Debug("Configuration loaded", "http_port", cfg.Server.Port, "grpc_port", cfg.Server.GRPCPort, "db_driver", cfg.Database.Driver, "log_level", cfg.Logging.Level)

	if *printToken > 0 {
		if !cfg.Auth.Enabled() {
			logger.Fatal("JWT_SECRET is not set; mutating endpoints are open")
		}
		token, err := auth.IssueToken([]byte(cfg.Auth.JWTSecret), "terrain-cli", *printToken)
		if err != nil {
			logger.Fatal("Failed to issue token", "error", err)
		}
		fmt.Println(token)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize snapshot store
	snapshots, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize snapshot store", "error", err)
	}
	defer closeStore()

	// Initialize terrain manager
	opts := []terrain.Option{terrain.WithDefaults(cfg.Terrain)}
	if snapshots != nil {
		opts = append(opts, terrain.WithStore(snapshots))
	}
	manager := terrain.NewManager(logging.NewDefaultWrapper(), opts...)

	// Generate the initial island before accepting traffic
	start := time.Now()
	snap, err := manager.Regenerate(ctx, cfg.Terrain)
	if err != nil {
		logger.Fatal("Failed to generate initial terrain", "error", err)
	}
	logging.WithSnapshotID(snap.ID.String()).Info("Initial terrain ready",
		"seed", snap.Params.Seed, "length", snap.Params.Length, "width", snap.Params.Width, "duration", time.Since(start))

	// Initialize API handlers
	handler := api.NewHandler(manager, logging.NewDefaultWrapper())
	router := api.SetupRoutes(handler, api.RouteConfig{
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		RequestTimeout: cfg.Server.RequestTimeout,
	})
	if !cfg.Auth.Enabled() {
		logger.Warn("JWT_SECRET not set, regeneration endpoints are unauthenticated")
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Create gRPC server
	grpcServer := rpc.NewServer(manager, []byte(cfg.Auth.JWTSecret), logging.NewDefaultWrapper())
	lis, err := net.Listen("tcp", ":"+cfg.Server.GRPCPort)
	if err != nil {
		logger.Fatal("Failed to listen for gRPC", "error", err, "port", cfg.Server.GRPCPort)
	}

	go func() {
		logger.Info("Starting terrain HTTP server", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", "error", err)
		}
		logger.Debug("HTTP server stopped listening")
	}()

	go func() {
		logger.Info("Starting terrain gRPC server", "addr", lis.Addr())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Fatal("Failed to serve gRPC", "error", err)
		}
		logger.Debug("gRPC server stopped")
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("Shutting down server...", "signal", sig.String())

	// Cancels in-flight generations; their previous snapshots stay current.
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	} else {
		logger.Debug("HTTP server shutdown completed gracefully")
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
		logger.Debug("gRPC server shutdown completed gracefully")
	case <-shutdownCtx.Done():
		grpcServer.Stop()
		logger.Error("gRPC server forced to shutdown")
	}

	logger.Info("Server exited")
}

func setupLogging(cfg config.LoggingConfig) {
	logger := logging.GetLogger()
	logging.SetLevel(logger, logging.ParseLevel(cfg.Level))

	// Configure output format
	switch cfg.Format {
	case "json":
		logger.SetFormatter(log.JSONFormatter)
	case "logfmt":
		logger.SetFormatter(log.LogfmtFormatter)
	default:
		logger.SetFormatter(log.TextFormatter)
	}

	if !cfg.Structured {
		logger.SetReportCaller(false)
	}
}

// openStore selects the snapshot store named by cfg.Driver. The "none"
// driver returns a nil store and keeps history disabled.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (terrain.Store, func(), error) {
	logger := logging.GetLogger()

	switch cfg.Driver {
	case config.DriverNone:
		logger.Info("Snapshot history disabled")
		return nil, func() {}, nil

	case config.DriverPostgres:
		if cfg.URL == "" {
			return nil, nil, errors.New("DATABASE_URL is required for the postgres driver")
		}
		s, pool, err := postgres.Open(ctx, postgres.Config{
			URL:             cfg.URL,
			MaxConns:        int32(cfg.MaxOpenConns),
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		return store.NewLoggingStore(s, config.DriverPostgres, logging.NewDefaultWrapper()), pool.Close, nil

	default:
		s, err := sqlite.Open(ctx, sqlite.Config{
			Path:            cfg.Path,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if err := s.Close(); err != nil {
				logger.Error("Failed to close database", "error", err)
			}
		}
		return store.NewLoggingStore(s, config.DriverSQLite, logging.NewDefaultWrapper()), closeDB, nil
	}
}
