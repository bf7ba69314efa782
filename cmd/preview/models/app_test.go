package models

import (
	"bytes"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoidMesh/terrain/internal/logging"
	"github.com/VoidMesh/terrain/internal/mesh"
	"github.com/VoidMesh/terrain/internal/noise"
	"github.com/VoidMesh/terrain/internal/terrain"
	"github.com/VoidMesh/terrain/internal/testutil"
)

func testParams() terrain.Params {
	p := terrain.DefaultParams()
	p.Length, p.Width = 20, 20
	p.Scale = 8
	return p
}

// run executes cmd synchronously and feeds its message back into the app.
func run(t *testing.T, app *App, cmd tea.Cmd) GeneratedMsg {
	t.Helper()
	require.NotNil(t, cmd)
	msg, ok := cmd().(GeneratedMsg)
	require.True(t, ok)
	app.Update(msg)
	return msg
}

func newApp(t *testing.T) *App {
	t.Helper()
	p := testParams()
	app := NewApp(terrain.NewManagerWithDefaultLogger(terrain.WithDefaults(p)), p)
	app.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	msg := run(t, app, app.Init())
	require.NoError(t, msg.Err)
	return app
}

func TestApp_InitGenerates(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	app := newApp(t)
	snap := app.manager.Current()
	require.NotNil(t, snap)
	assert.Equal(t, testParams().Seed, snap.Params.Seed)
	assert.False(t, app.busy)
	assert.Contains(t, app.View(), "VoidMesh Terrain Preview")
}

func TestApp_LogsGenerationDuration(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	var buf bytes.Buffer
	logging.Logger = log.New(&buf)
	logging.Logger.SetLevel(log.DebugLevel)

	newApp(t)
	out := buf.String()
	assert.Contains(t, out, "Island ready")
	assert.Contains(t, out, "operation=regenerate")
	assert.Contains(t, out, "duration=")
}

func TestApp_KeyBindings(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	tests := []struct {
		key   string
		check func(t *testing.T, before, after terrain.Params)
	}{
		{"f", func(t *testing.T, before, after terrain.Params) {
			assert.Equal(t, !before.UseFalloff, after.UseFalloff)
		}},
		{"+", func(t *testing.T, before, after terrain.Params) {
			assert.Equal(t, before.Octaves+1, after.Octaves)
		}},
		{"-", func(t *testing.T, before, after terrain.Params) {
			assert.Equal(t, before.Octaves-1, after.Octaves)
		}},
		{"b", func(t *testing.T, before, after terrain.Params) {
			assert.Equal(t, mesh.WideSandBands.Name, after.Bands)
		}},
		{"n", func(t *testing.T, before, after terrain.Params) {
			assert.Equal(t, noise.KindPerlin, after.Noise)
		}},
		{"k", func(t *testing.T, before, after terrain.Params) {
			assert.NotEqual(t, before.Seed, after.Seed)
			assert.Equal(t, before.Octaves, after.Octaves)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			app := newApp(t)
			before := app.manager.Current()

			cmd := app.handleKey(tt.key)
			assert.True(t, app.busy)
			assert.Same(t, before, app.manager.Current(), "old island stays until the new one is built")

			msg := run(t, app, cmd)
			require.NoError(t, msg.Err)
			assert.False(t, app.busy)
			require.NotSame(t, before, app.manager.Current())
			tt.check(t, before.Params, app.manager.Current().Params)
		})
	}
}

func TestApp_IgnoresKeysWhileBusy(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	app := newApp(t)
	require.NotNil(t, app.handleKey("f"))
	assert.Nil(t, app.handleKey("+"), "second generation must wait")

	// View switching never waits for a generation.
	assert.Nil(t, app.handleKey("m"))
	assert.Equal(t, OutlineView, app.mode)
}

func TestApp_OctaveLimits(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	app := newApp(t)
	for app.manager.Params().Octaves > minOctaves {
		run(t, app, app.handleKey("-"))
	}
	assert.Nil(t, app.handleKey("-"))
	assert.False(t, app.busy)
}

func TestApp_FailedGenerationKeepsIsland(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	app := newApp(t)
	before := app.manager.Current()

	app.busy = true
	app.Update(GeneratedMsg{Err: errors.New("boom")})

	assert.False(t, app.busy)
	assert.Same(t, before, app.manager.Current())
	assert.Contains(t, app.View(), "boom")
}

func TestApp_Quit(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	app := newApp(t)
	cmd := app.handleKey("q")
	require.NotNil(t, cmd)
	assert.Error(t, app.ctx.Err(), "quitting cancels pending generations")
}

func TestNext(t *testing.T) {
	names := []string{"a", "b", "c"}
	assert.Equal(t, "b", next(names, "a"))
	assert.Equal(t, "a", next(names, "c"))
	assert.Equal(t, "a", next(names, "zzz"))
}
