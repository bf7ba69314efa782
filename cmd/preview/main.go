package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea/v2"

	"github.com/VoidMesh/terrain/cmd/preview/models"
	"github.com/VoidMesh/terrain/internal/config"
	"github.com/VoidMesh/terrain/internal/logging"
	"github.com/VoidMesh/terrain/internal/store"
	"github.com/VoidMesh/terrain/internal/store/sqlite"
	"github.com/VoidMesh/terrain/internal/terrain"
)

func main() {
	defaults := config.Load().Terrain

	seed := flag.Int64("seed", defaults.Seed, "Noise seed")
	size := flag.Int("size", defaults.Length, "Grid size (length and width)")
	noiseKind := flag.String("noise", defaults.Noise, "Noise backend (simplex, perlin, opensimplex)")
	bands := flag.String("bands", defaults.Bands, "Band table (classic, wide_sand)")
	dbPath := flag.String("db", "", "Optional SQLite database to record every island in")
	logLevel := flag.String("log", "warn", "Log level (debug, info, warn, error)")
	flag.Parse()

	// Setup logging
	logger := logging.GetLogger()
	logging.SetLevel(logger, logging.ParseLevel(*logLevel))

	p := defaults
	p.Seed = *seed
	p.Length, p.Width = *size, *size
	p.Noise = *noiseKind
	p.Bands = *bands
	if err := p.Validate(); err != nil {
		logger.Fatal("Invalid terrain parameters", "error", err)
	}

	opts := []terrain.Option{terrain.WithDefaults(p)}
	if *dbPath != "" {
		s, err := sqlite.Open(context.Background(), sqlite.Config{Path: *dbPath})
		if err != nil {
			logger.Fatal("Failed to open database", "error", err, "path", *dbPath)
		}
		defer s.Close()
		opts = append(opts, terrain.WithStore(store.NewLoggingStore(s, config.DriverSQLite, logging.NewDefaultWrapper())))
	}
	manager := terrain.NewManager(logging.NewDefaultWrapper(), opts...)

	// Setup file logging for debug; the terminal belongs to the TUI
	if len(os.Getenv("DEBUG")) > 0 {
		f, err := tea.LogToFile("preview.log", "preview")
		if err != nil {
			fmt.Println("fatal:", err)
			os.Exit(1)
		}
		defer f.Close()
		logger.SetOutput(f)
	} else {
		logger.SetOutput(io.Discard)
	}

	// Initialize the main app model
	app := models.NewApp(manager, p)

	// Create and run the Bubble Tea program
	program := tea.NewProgram(app, tea.WithAltScreen())

	logging.WithSeed(p.Seed).Info("Starting terrain preview", "size", *size, "noise", p.Noise)

	if _, err := program.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "error running preview:", err)
		os.Exit(1)
	}
}
