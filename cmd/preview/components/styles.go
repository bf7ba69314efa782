package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/VoidMesh/terrain/internal/heightfield"
	"github.com/VoidMesh/terrain/internal/mesh"
)

// Color definitions
var (
	PrimaryColor   = lipgloss.Color("#7D56F4")
	SecondaryColor = lipgloss.Color("#04B575")
	AccentColor    = lipgloss.Color("#FFD700")
	DangerColor    = lipgloss.Color("#F25D94")

	// Grayscale
	LightGray = lipgloss.Color("#D9D9D9")
	Gray      = lipgloss.Color("#8B8B8B")
	DarkGray  = lipgloss.Color("#383838")
)

// Base styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true).
			Padding(0, 1)

	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Gray)

	InfoPanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SecondaryColor).
			Padding(0, 1).
			Width(30)

	LabelStyle = lipgloss.NewStyle().
			Foreground(Gray)

	ValueStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Bold(true)

	BusyStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(DangerColor)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(DarkGray).
			Padding(0, 1)

	HelpStyle = lipgloss.NewStyle().
			Foreground(Gray).
			Italic(true)
)

// Outline symbols
const (
	ContourSymbol = "+"
	FlatSymbol    = "·"
	HalfBlock     = "▀"
)

// BandColor converts a band colour to a terminal colour.
func BandColor(c mesh.Color) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", channel(c.R), channel(c.G), channel(c.B)))
}

func channel(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

// Viewport maps a terminal area of cols x rows characters onto a height
// field, two grid rows per terminal row.
type Viewport struct {
	Cols int
	Rows int
}

// Fit shrinks the viewport so no grid cell is drawn twice.
func (v Viewport) Fit(hf *heightfield.Field) Viewport {
	if v.Cols > hf.Width || v.Cols <= 0 {
		v.Cols = hf.Width
	}
	if limit := (hf.Length + 1) / 2; v.Rows > limit || v.Rows <= 0 {
		v.Rows = limit
	}
	return v
}

// cell maps a sample position to grid coordinates.
func (v Viewport) cell(hf *heightfield.Field, col, sub int) (x, z int) {
	x = col * hf.Width / v.Cols
	z = sub * hf.Length / (2 * v.Rows)
	if z >= hf.Length {
		z = hf.Length - 1
	}
	return x, z
}

// RenderIsland draws the field top-down with band colours. Each character
// shows two grid rows: the upper one as foreground of a half block and the
// lower one as background.
func RenderIsland(hf *heightfield.Field, bands mesh.BandTable, v Viewport) string {
	v = v.Fit(hf)
	var b strings.Builder
	for row := 0; row < v.Rows; row++ {
		for col := 0; col < v.Cols; col++ {
			x, zTop := v.cell(hf, col, 2*row)
			_, zBottom := v.cell(hf, col, 2*row+1)
			style := lipgloss.NewStyle().
				Foreground(BandColor(bands.ColorAt(hf.At(x, zTop)))).
				Background(BandColor(bands.ColorAt(hf.At(x, zBottom))))
			b.WriteString(style.Render(HalfBlock))
		}
		if row < v.Rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// RenderOutline draws band boundaries only: a cell whose band differs from
// its right or lower neighbour becomes a contour mark in its band colour.
func RenderOutline(hf *heightfield.Field, bands mesh.BandTable, v Viewport) string {
	v = v.Fit(hf)
	flat := lipgloss.NewStyle().Foreground(DarkGray)
	var b strings.Builder
	for row := 0; row < v.Rows; row++ {
		for col := 0; col < v.Cols; col++ {
			x, z := v.cell(hf, col, 2*row)
			band := bands.Classify(hf.At(x, z)).Name
			boundary := false
			if x+1 < hf.Width && bands.Classify(hf.At(x+1, z)).Name != band {
				boundary = true
			}
			if z+1 < hf.Length && bands.Classify(hf.At(x, z+1)).Name != band {
				boundary = true
			}
			if boundary {
				style := lipgloss.NewStyle().Foreground(BandColor(bands.ColorAt(hf.At(x, z))))
				b.WriteString(style.Render(ContourSymbol))
			} else {
				b.WriteString(flat.Render(FlatSymbol))
			}
		}
		if row < v.Rows-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// InfoLine renders a label/value pair for the info panel.
func InfoLine(label string, value any) string {
	return LabelStyle.Render(label+": ") + ValueStyle.Render(fmt.Sprint(value))
}
