// Package mesh turns a height field into an indexed, coloured triangle mesh
// ready for any renderer.
package mesh

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/VoidMesh/terrain/internal/heightfield"
	"github.com/VoidMesh/terrain/internal/logging"
)

var (
	// ErrInvalidDimensions reports a grid too small to hold a single quad.
	ErrInvalidDimensions = errors.New("invalid mesh dimensions")
	// ErrInvalidOptions reports non-finite curve settings.
	ErrInvalidOptions = errors.New("invalid mesh options")
	// ErrInvalidBands reports a band table whose thresholds do not ascend.
	ErrInvalidBands = errors.New("invalid band table")
)

// DefaultSteepness is the k in exp(h*k - k).
const DefaultSteepness = 6.0

// smoothWeight scales each axis neighbour's raw normal in the second pass.
const smoothWeight = 0.5

var up = mgl64.Vec3{0, 1, 0}

// Mesh holds per-vertex attributes indexed like the source grid
// (z*Width+x) and two triangles per grid quad.
type Mesh struct {
	Length    int          `json:"length"`
	Width     int          `json:"width"`
	Points    []mgl64.Vec3 `json:"points"`
	Normals   []mgl64.Vec3 `json:"normals"`
	UVs       []mgl64.Vec2 `json:"uvs"`
	Colors    []Color      `json:"colors"`
	Triangles [][3]uint32  `json:"triangles"`
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Points)
}

// Options configures Build.
type Options struct {
	HeightMultiplier float64
	Steepness        float64
	Bands            BandTable
	// Centered moves the grid centre to the origin on x and z.
	Centered bool
}

// DefaultOptions returns the settings of the classic island look.
func DefaultOptions() Options {
	return Options{
		HeightMultiplier: 30,
		Steepness:        DefaultSteepness,
		Bands:            ClassicBands,
	}
}

// HeightCurve maps a normalized height onto the vertical axis. Low ground
// stays nearly flat while peaks rise steeply.
func (o Options) HeightCurve(h float64) float64 {
	return math.Exp(h*o.Steepness-o.Steepness) * o.HeightMultiplier
}

func (o Options) validate() error {
	if math.IsNaN(o.HeightMultiplier) || math.IsInf(o.HeightMultiplier, 0) {
		return fmt.Errorf("%w: height multiplier must be finite, got %v", ErrInvalidOptions, o.HeightMultiplier)
	}
	if math.IsNaN(o.Steepness) || math.IsInf(o.Steepness, 0) {
		return fmt.Errorf("%w: steepness must be finite, got %v", ErrInvalidOptions, o.Steepness)
	}
	return o.Bands.Validate()
}

// Build derives positions, smoothed normals, UVs, colours and triangles
// from hf. The context is checked between rows of every pass; on failure
// no mesh is returned.
func Build(ctx context.Context, hf *heightfield.Field, opts Options) (*Mesh, error) {
	if hf == nil {
		return nil, fmt.Errorf("%w: nil height field", ErrInvalidDimensions)
	}
	if hf.Length < 2 || hf.Width < 2 {
		return nil, fmt.Errorf("%w: need at least 2x2, got %dx%d", ErrInvalidDimensions, hf.Length, hf.Width)
	}
	if uint64(hf.Length)*uint64(hf.Width) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %dx%d overflows 32-bit indices", ErrInvalidDimensions, hf.Length, hf.Width)
	}
	if len(hf.Values) != hf.Length*hf.Width {
		return nil, fmt.Errorf("%w: %d values for %dx%d grid", ErrInvalidDimensions, len(hf.Values), hf.Length, hf.Width)
	}
	if len(opts.Bands.Bands) == 0 {
		opts.Bands = ClassicBands
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	logger := logging.WithGrid(hf.Length, hf.Width)
	logger.Debug("Building mesh", "multiplier", opts.HeightMultiplier, "steepness", opts.Steepness,
		"bands", opts.Bands.Name, "centered", opts.Centered)

	n := hf.Length * hf.Width
	m := &Mesh{
		Length:    hf.Length,
		Width:     hf.Width,
		Points:    make([]mgl64.Vec3, n),
		UVs:       make([]mgl64.Vec2, n),
		Colors:    make([]Color, n),
		Triangles: make([][3]uint32, 0, 2*(hf.Length-1)*(hf.Width-1)),
	}

	var xOff, zOff float64
	if opts.Centered {
		xOff = float64(hf.Width / 2)
		zOff = float64(hf.Length / 2)
	}

	for z := 0; z < hf.Length; z++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < hf.Width; x++ {
			i := z*hf.Width + x
			h := hf.Values[i]
			m.Points[i] = mgl64.Vec3{float64(x) - xOff, opts.HeightCurve(h), float64(z) - zOff}
			m.UVs[i] = mgl64.Vec2{float64(x) / float64(hf.Width), float64(z) / float64(hf.Length)}
			m.Colors[i] = opts.Bands.ColorAt(h)
		}
	}

	normals, err := smoothNormals(ctx, hf)
	if err != nil {
		return nil, err
	}
	m.Normals = normals

	for z := 0; z < hf.Length-1; z++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < hf.Width-1; x++ {
			i1 := uint32(z*hf.Width + x)
			i2 := i1 + 1
			i3 := i1 + uint32(hf.Width)
			i4 := i3 + 1
			m.Triangles = append(m.Triangles, [3]uint32{i1, i3, i2}, [3]uint32{i2, i3, i4})
		}
	}

	logger.Debug("Mesh built", "vertices", n, "triangles", len(m.Triangles))
	return m, nil
}

// rawNormals sums the unit normals of the up to four faces formed by a
// cell's axis neighbours. Missing neighbours at the border are skipped.
func rawNormals(ctx context.Context, hf *heightfield.Field) ([]mgl64.Vec3, error) {
	raw := make([]mgl64.Vec3, len(hf.Values))
	for z := 0; z < hf.Length; z++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < hf.Width; x++ {
			h := hf.At(x, z)
			hasOut, hasIn := z > 0, z < hf.Length-1
			hasLeft, hasRight := x > 0, x < hf.Width-1

			var out, in, left, right mgl64.Vec3
			if hasOut {
				out = mgl64.Vec3{0, hf.At(x, z-1) - h, -1}
			}
			if hasIn {
				in = mgl64.Vec3{0, hf.At(x, z+1) - h, 1}
			}
			if hasLeft {
				left = mgl64.Vec3{-1, hf.At(x-1, z) - h, 0}
			}
			if hasRight {
				right = mgl64.Vec3{1, hf.At(x+1, z) - h, 0}
			}

			var sum mgl64.Vec3
			if hasOut && hasLeft {
				sum = sum.Add(unit(out.Cross(left)))
			}
			if hasLeft && hasIn {
				sum = sum.Add(unit(left.Cross(in)))
			}
			if hasIn && hasRight {
				sum = sum.Add(unit(in.Cross(right)))
			}
			if hasRight && hasOut {
				sum = sum.Add(unit(right.Cross(out)))
			}
			raw[z*hf.Width+x] = sum
		}
	}
	return raw, nil
}

// smoothNormals blends each raw normal with half of every existing axis
// neighbour's raw normal and normalizes the result.
func smoothNormals(ctx context.Context, hf *heightfield.Field) ([]mgl64.Vec3, error) {
	raw, err := rawNormals(ctx, hf)
	if err != nil {
		return nil, err
	}

	w := hf.Width
	normals := make([]mgl64.Vec3, len(raw))
	for z := 0; z < hf.Length; z++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for x := 0; x < w; x++ {
			i := z*w + x
			sum := raw[i]
			if z > 0 {
				sum = sum.Add(raw[i-w].Mul(smoothWeight))
			}
			if z < hf.Length-1 {
				sum = sum.Add(raw[i+w].Mul(smoothWeight))
			}
			if x > 0 {
				sum = sum.Add(raw[i-1].Mul(smoothWeight))
			}
			if x < w-1 {
				sum = sum.Add(raw[i+1].Mul(smoothWeight))
			}
			if sum.Len() == 0 {
				normals[i] = up
				continue
			}
			normals[i] = sum.Normalize()
		}
	}
	return normals, nil
}

// unit normalizes v, leaving a zero vector as is.
func unit(v mgl64.Vec3) mgl64.Vec3 {
	if v.Len() == 0 {
		return v
	}
	return v.Normalize()
}

// Edges returns every distinct triangle side once, in triangle order, for
// outline rendering.
func (m *Mesh) Edges() [][2]uint32 {
	seen := make(map[[2]uint32]struct{}, len(m.Triangles)*2)
	edges := make([][2]uint32, 0, len(m.Triangles)*3/2+m.Width+m.Length)
	for _, tri := range m.Triangles {
		for k := 0; k < 3; k++ {
			a, b := tri[k], tri[(k+1)%3]
			if a > b {
				a, b = b, a
			}
			e := [2]uint32{a, b}
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			edges = append(edges, e)
		}
	}
	return edges
}
