// Package heightfield synthesizes normalized fractal height grids from a
// coherent-noise field.
package heightfield

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/dgravesa/go-parallel/parallel"

	"github.com/VoidMesh/terrain/internal/logging"
	"github.com/VoidMesh/terrain/internal/noise"
)

var (
	// ErrInvalidParameter reports generation parameters outside their domain.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrDegenerateRange reports a raw field whose min equals its max. It is
	// recovered by normalizing every cell to 0 and is only logged.
	ErrDegenerateRange = errors.New("degenerate height range")
)

// MaxCells bounds Length*Width for generated and decoded grids.
const MaxCells = 1 << 26

// Field is a row-major grid of heights, index z*Width+x.
type Field struct {
	Length int
	Width  int
	Values []float64

	// Min and Max are the raw accumulated extremes before normalization.
	Min float64
	Max float64
	// Degenerate is set when Min == Max and every cell was forced to 0.
	Degenerate bool
}

// At returns the height at cell (x, z).
func (f *Field) At(x, z int) float64 {
	return f.Values[z*f.Width+x]
}

// Len returns the number of cells.
func (f *Field) Len() int {
	return len(f.Values)
}

// FromValues wraps an existing grid, e.g. one decoded from storage. The
// slice is used as-is.
func FromValues(length, width int, values []float64) (*Field, error) {
	if length < 1 || width < 1 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidParameter, length, width)
	}
	if len(values) != length*width {
		return nil, fmt.Errorf("%w: %d values for %dx%d grid", ErrInvalidParameter, len(values), length, width)
	}
	return &Field{Length: length, Width: width, Values: values}, nil
}

// Params configures Generate.
type Params struct {
	Length      int
	Width       int
	Scale       float64
	Octaves     int
	Persistence float64
	Lacunarity  float64
	UseFalloff  bool
	Falloff     Shape
	// Parallel spreads rows across goroutines; output is identical.
	Parallel bool
}

// Validate checks p without allocating.
func (p Params) Validate() error {
	switch {
	case p.Length < 1 || p.Width < 1:
		return fmt.Errorf("%w: grid dimensions must be positive, got %dx%d", ErrInvalidParameter, p.Length, p.Width)
	case p.Length > MaxCells/p.Width:
		return fmt.Errorf("%w: grid %dx%d exceeds %d cells", ErrInvalidParameter, p.Length, p.Width, MaxCells)
	case !(p.Scale > 0) || math.IsInf(p.Scale, 0):
		return fmt.Errorf("%w: scale must be positive, got %v", ErrInvalidParameter, p.Scale)
	case p.Octaves < 1:
		return fmt.Errorf("%w: octaves must be at least 1, got %d", ErrInvalidParameter, p.Octaves)
	case math.IsNaN(p.Persistence) || math.IsInf(p.Persistence, 0):
		return fmt.Errorf("%w: persistence must be finite, got %v", ErrInvalidParameter, p.Persistence)
	case math.IsNaN(p.Lacunarity) || math.IsInf(p.Lacunarity, 0):
		return fmt.Errorf("%w: lacunarity must be finite, got %v", ErrInvalidParameter, p.Lacunarity)
	}
	if p.UseFalloff && (!(p.Falloff.A > 0) || !(p.Falloff.B > 0)) {
		return fmt.Errorf("%w: falloff shape must be positive, got a=%v b=%v", ErrInvalidParameter, p.Falloff.A, p.Falloff.B)
	}
	return nil
}

// Generate builds a normalized height field from octaves of field.
//
// Every cell of the result lies in [0,1]. The context is checked between
// rows; a cancelled generation returns ctx.Err() and no field.
func Generate(ctx context.Context, field noise.Field, p Params) (*Field, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	logger := logging.WithGrid(p.Length, p.Width).With("seed", field.Seed())
	logger.Debug("Generating height field", "scale", p.Scale, "octaves", p.Octaves,
		"persistence", p.Persistence, "lacunarity", p.Lacunarity, "falloff", p.UseFalloff)

	offsets := field.OctaveOffsets(p.Octaves)
	values := make([]float64, p.Length*p.Width)
	rowMin := make([]float64, p.Length)
	rowMax := make([]float64, p.Length)

	row := func(z int) {
		lo, hi := math.Inf(1), math.Inf(-1)
		base := z * p.Width
		for x := 0; x < p.Width; x++ {
			frequency := 1.0
			amplitude := 1.0
			height := 0.0
			for i := 0; i < p.Octaves; i++ {
				sampleX := float64(x)/p.Scale*frequency + offsets[i].X
				sampleZ := float64(z)/p.Scale*frequency + offsets[i].Z
				height += field.Sample(sampleX, sampleZ) * amplitude

				amplitude *= p.Persistence
				frequency *= p.Lacunarity
			}
			values[base+x] = height
			lo = math.Min(lo, height)
			hi = math.Max(hi, height)
		}
		rowMin[z] = lo
		rowMax[z] = hi
	}

	if p.Parallel {
		parallel.For(p.Length, func(z, _ int) {
			if ctx.Err() != nil {
				return
			}
			row(z)
		})
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	} else {
		for z := 0; z < p.Length; z++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			row(z)
		}
	}

	minHeight, maxHeight := math.Inf(1), math.Inf(-1)
	for z := 0; z < p.Length; z++ {
		minHeight = math.Min(minHeight, rowMin[z])
		maxHeight = math.Max(maxHeight, rowMax[z])
	}
	if !isFinite(minHeight) || !isFinite(maxHeight) || !isFinite(maxHeight-minHeight) {
		return nil, fmt.Errorf("%w: octave sums overflow (persistence %v, lacunarity %v, %d octaves)",
			ErrInvalidParameter, p.Persistence, p.Lacunarity, p.Octaves)
	}

	hf := &Field{
		Length: p.Length,
		Width:  p.Width,
		Values: values,
		Min:    minHeight,
		Max:    maxHeight,
	}

	var mask *FalloffMask
	if p.UseFalloff {
		mask = NewFalloffMask(p.Length, p.Width, p.Falloff)
	}

	span := maxHeight - minHeight
	if span == 0 {
		hf.Degenerate = true
		logger.Warn("Raw height range collapsed, flattening field", "error", ErrDegenerateRange, "height", minHeight)
	}

	for i, h := range values {
		if hf.Degenerate {
			h = 0
		} else {
			h = (h - minHeight) / span
		}
		if mask != nil {
			h -= mask.Values[i]
		}
		values[i] = clamp01(h)
	}

	logger.Debug("Height field generated", "min", minHeight, "max", maxHeight)
	return hf, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(v, 0))
}
