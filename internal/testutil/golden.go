package testutil

import (
	"bytes"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Flag to update golden files during test runs
var updateGolden = flag.Bool("update-golden", false, "Update golden files")

// GoldenConfig holds configuration for golden file operations
type GoldenConfig struct {
	// Dir is the directory where golden files are stored
	Dir string
	// FileExtension is the extension for golden files (default: .golden)
	FileExtension string
}

// DefaultGoldenConfig returns a default configuration for golden files
func DefaultGoldenConfig() *GoldenConfig {
	return &GoldenConfig{
		Dir:           filepath.Join(GetProjectRoot(), "testdata", "golden"),
		FileExtension: ".golden",
	}
}

// GoldenTester provides methods for golden file testing
type GoldenTester struct {
	config *GoldenConfig
}

// NewGoldenTester creates a new golden file tester with the provided configuration
func NewGoldenTester(config *GoldenConfig) *GoldenTester {
	if config == nil {
		config = DefaultGoldenConfig()
	}
	return &GoldenTester{config: config}
}

// AssertJSON compares the indented JSON encoding of data against a golden file
func (gt *GoldenTester) AssertJSON(t *testing.T, name string, data interface{}) {
	t.Helper()

	jsonBytes, err := json.MarshalIndent(data, "", "  ")
	require.NoError(t, err, "Failed to marshal data to JSON")

	gt.AssertBytes(t, name, jsonBytes)
}

// AssertBytes compares byte data against a golden file. Missing golden
// files are written and the test fails so the new file gets reviewed.
func (gt *GoldenTester) AssertBytes(t *testing.T, name string, actual []byte) {
	t.Helper()

	require.NoError(t, os.MkdirAll(gt.config.Dir, 0o755), "Failed to create golden directory")
	goldenPath := gt.path(name)

	if *updateGolden {
		require.NoError(t, os.WriteFile(goldenPath, actual, 0o644), "Failed to write golden file: %s", goldenPath)
		t.Logf("Updated golden file: %s", goldenPath)
		return
	}

	expected, err := os.ReadFile(goldenPath)
	if os.IsNotExist(err) {
		require.NoError(t, os.WriteFile(goldenPath, actual, 0o644), "Failed to create golden file: %s", goldenPath)
		require.Fail(t, "Golden file created",
			"Golden file %s did not exist and has been created. "+
				"Re-run the test to verify the output is correct.", goldenPath)
		return
	}
	require.NoError(t, err, "Failed to read golden file: %s", goldenPath)

	if !bytes.Equal(expected, actual) {
		t.Logf("To update the golden file, run: go test -update-golden -run %s", t.Name())
		assert.Equal(t, string(expected), string(actual),
			"Golden file mismatch for %s. Use -update-golden to update the golden file.", name)
	}
}

// LoadGoldenJSON loads and unmarshals JSON data from a golden file
func (gt *GoldenTester) LoadGoldenJSON(t *testing.T, name string, target interface{}) {
	t.Helper()

	goldenPath := gt.path(name)
	data, err := os.ReadFile(goldenPath)
	require.NoError(t, err, "Failed to read golden file: %s", goldenPath)
	require.NoError(t, json.Unmarshal(data, target), "Failed to unmarshal golden JSON file: %s", goldenPath)
}

func (gt *GoldenTester) path(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", " ", "_")
	return filepath.Join(gt.config.Dir, replacer.Replace(name)+gt.config.FileExtension)
}

// AssertGoldenJSON compares JSON data against a golden file using default configuration
func AssertGoldenJSON(t *testing.T, name string, data interface{}) {
	t.Helper()
	NewGoldenTester(nil).AssertJSON(t, name, data)
}

// LoadGoldenJSON loads and unmarshals JSON data from a golden file using default configuration
func LoadGoldenJSON(t *testing.T, name string, target interface{}) {
	t.Helper()
	NewGoldenTester(nil).LoadGoldenJSON(t, name, target)
}
