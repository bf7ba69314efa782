package models

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"github.com/VoidMesh/terrain/cmd/preview/components"
	"github.com/VoidMesh/terrain/internal/logging"
	"github.com/VoidMesh/terrain/internal/mesh"
	"github.com/VoidMesh/terrain/internal/noise"
	"github.com/VoidMesh/terrain/internal/terrain"
)

// ViewMode selects how the island is drawn.
type ViewMode int

const (
	ColorView ViewMode = iota
	OutlineView
)

func (v ViewMode) String() string {
	if v == OutlineView {
		return "outline"
	}
	return "color"
}

const (
	minOctaves = 1
	maxOctaves = 12
	panelWidth = 32
)

// GeneratedMsg carries the result of a background regeneration.
type GeneratedMsg struct {
	Snapshot *terrain.Snapshot
	Err      error
}

// App is the main application model
type App struct {
	ctx     context.Context
	cancel  context.CancelFunc
	manager *terrain.Manager
	initial terrain.Params

	// Current state
	mode    ViewMode
	busy    bool
	lastErr error
	width   int
	height  int
}

// NewApp creates a new application instance. The first island is built
// from initial when the program starts.
func NewApp(manager *terrain.Manager, initial terrain.Params) *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		ctx:     ctx,
		cancel:  cancel,
		manager: manager,
		initial: initial,
	}
}

// Init starts the first generation.
func (m *App) Init() tea.Cmd {
	logging.GetLogger().Debug("Initializing terrain preview")
	m.busy = true
	return m.generate(m.initial)
}

// Update handles messages and updates the application state
func (m *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case GeneratedMsg:
		m.busy = false
		m.lastErr = msg.Err
		if msg.Err != nil {
			logging.GetLogger().Debug("Regeneration failed", "error", msg.Err)
		} else if msg.Snapshot != nil {
			logging.WithDuration("regenerate", msg.Snapshot.Duration).Debug("Island ready",
				"seed", msg.Snapshot.Params.Seed, "snapshot_id", msg.Snapshot.ID)
		}
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	}

	return m, nil
}

// handleKey applies one key binding and returns the command it starts.
func (m *App) handleKey(key string) tea.Cmd {
	switch key {
	case "ctrl+c", "q":
		m.cancel()
		return tea.Quit

	case "m":
		m.mode = (m.mode + 1) % 2
		return nil
	}

	if m.busy {
		return nil
	}

	p := m.manager.Params()
	switch key {
	case "k":
		p.Seed = terrain.TimeSeed()
	case "f":
		p.UseFalloff = !p.UseFalloff
	case "+", "=":
		if p.Octaves >= maxOctaves {
			return nil
		}
		p.Octaves++
	case "-", "_":
		if p.Octaves <= minOctaves {
			return nil
		}
		p.Octaves--
	case "b":
		p.Bands = next(mesh.BandNames(), p.Bands)
	case "n":
		p.Noise = next(noise.Kinds(), p.Noise)
	default:
		return nil
	}
	m.busy = true
	return m.generate(p)
}

// generate runs a regeneration off the update loop. The manager publishes
// the snapshot only once it is complete, so View keeps drawing the old one
// until then.
func (m *App) generate(p terrain.Params) tea.Cmd {
	ctx := m.ctx
	manager := m.manager
	return func() tea.Msg {
		snap, err := manager.Regenerate(ctx, p)
		return GeneratedMsg{Snapshot: snap, Err: err}
	}
}

// next returns the entry after current in names, wrapping around.
func next(names []string, current string) string {
	for i, name := range names {
		if name == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

// View renders the application
func (m *App) View() string {
	snap := m.manager.Current()
	if snap == nil {
		if m.lastErr != nil {
			return components.ErrorStyle.Render("Generation failed: "+m.lastErr.Error()) + "\n"
		}
		return components.BusyStyle.Render("Generating island...") + "\n"
	}

	bands, err := mesh.BandsByName(snap.Params.Bands)
	if err != nil {
		bands = mesh.ClassicBands
	}

	vp := components.Viewport{Cols: m.width - panelWidth - 4, Rows: m.height - 4}
	var island string
	if m.mode == OutlineView {
		island = components.RenderOutline(snap.Heights, bands, vp)
	} else {
		island = components.RenderIsland(snap.Heights, bands, vp)
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		components.BorderStyle.Render(island),
		m.renderPanel(snap),
	)

	var s strings.Builder
	s.WriteString(components.TitleStyle.Render("VoidMesh Terrain Preview") + "\n")
	s.WriteString(body + "\n")
	s.WriteString(m.renderStatus())
	return s.String()
}

func (m *App) renderPanel(snap *terrain.Snapshot) string {
	p := snap.Params
	lines := []string{
		components.InfoLine("seed", p.Seed),
		components.InfoLine("noise", p.Noise),
		components.InfoLine("grid", fmt.Sprintf("%dx%d", p.Length, p.Width)),
		components.InfoLine("octaves", p.Octaves),
		components.InfoLine("falloff", p.UseFalloff),
		components.InfoLine("bands", p.Bands),
		components.InfoLine("view", m.mode),
		"",
		components.InfoLine("vertices", snap.Mesh.VertexCount()),
		components.InfoLine("triangles", len(snap.Mesh.Triangles)),
		components.InfoLine("built in", snap.Duration.Round(time.Microsecond)),
	}
	if m.mode == OutlineView {
		lines = append(lines, components.InfoLine("edges", len(snap.Mesh.Edges())))
	}
	if snap.Heights.Degenerate {
		lines = append(lines, components.ErrorStyle.Render("flat field"))
	}
	return components.InfoPanelStyle.Render(strings.Join(lines, "\n"))
}

func (m *App) renderStatus() string {
	var status string
	switch {
	case m.busy:
		status = components.BusyStyle.Render("regenerating...")
	case m.lastErr != nil:
		status = components.ErrorStyle.Render(m.lastErr.Error())
	default:
		status = components.HelpStyle.Render("k reseed • m view • f falloff • +/- octaves • b bands • n noise • q quit")
	}
	return components.StatusBarStyle.Width(m.width).Render(status)
}
