package terrain

import (
	"fmt"
	"time"

	"github.com/VoidMesh/terrain/internal/heightfield"
	"github.com/VoidMesh/terrain/internal/mesh"
	"github.com/VoidMesh/terrain/internal/noise"
)

// Params is the complete recipe for one terrain. Two snapshots built from
// equal Params are identical.
type Params struct {
	Seed  int64  `json:"seed"`
	Noise string `json:"noise"`

	Length      int     `json:"length"`
	Width       int     `json:"width"`
	Scale       float64 `json:"scale"`
	Octaves     int     `json:"octaves"`
	Persistence float64 `json:"persistence"`
	Lacunarity  float64 `json:"lacunarity"`

	UseFalloff bool    `json:"use_falloff"`
	FalloffA   float64 `json:"falloff_a"`
	FalloffB   float64 `json:"falloff_b"`

	HeightMultiplier float64 `json:"height_multiplier"`
	Steepness        float64 `json:"steepness"`
	Bands            string  `json:"bands"`
	Centered         bool    `json:"centered"`

	// Parallel only affects speed, never output.
	Parallel bool `json:"parallel"`
}

// DefaultSeed is the seed the island was first tuned with.
const DefaultSeed int64 = 1497779637

// DefaultParams returns the classic 100x100 island.
func DefaultParams() Params {
	return Params{
		Seed:             DefaultSeed,
		Noise:            noise.KindSimplex,
		Length:           100,
		Width:            100,
		Scale:            30,
		Octaves:          3,
		Persistence:      0.5,
		Lacunarity:       2,
		UseFalloff:       true,
		FalloffA:         heightfield.DefaultShape.A,
		FalloffB:         heightfield.DefaultShape.B,
		HeightMultiplier: 30,
		Steepness:        mesh.DefaultSteepness,
		Bands:            mesh.ClassicBands.Name,
		Centered:         true,
	}
}

// TimeSeed derives a seed from the wall clock at second resolution.
func TimeSeed() int64 {
	return time.Now().Unix()
}

// Validate checks every stage's parameters without generating anything.
func (p Params) Validate() error {
	if err := p.HeightfieldParams().Validate(); err != nil {
		return err
	}
	if p.Length < 2 || p.Width < 2 {
		return fmt.Errorf("%w: need at least 2x2, got %dx%d", mesh.ErrInvalidDimensions, p.Length, p.Width)
	}
	if _, err := noise.New(p.Noise, p.Seed); err != nil {
		return err
	}
	if _, err := p.MeshOptions(); err != nil {
		return err
	}
	return nil
}

// HeightfieldParams projects p onto the synthesizer's parameters.
func (p Params) HeightfieldParams() heightfield.Params {
	return heightfield.Params{
		Length:      p.Length,
		Width:       p.Width,
		Scale:       p.Scale,
		Octaves:     p.Octaves,
		Persistence: p.Persistence,
		Lacunarity:  p.Lacunarity,
		UseFalloff:  p.UseFalloff,
		Falloff:     heightfield.Shape{A: p.FalloffA, B: p.FalloffB},
		Parallel:    p.Parallel,
	}
}

// MeshOptions projects p onto the mesh builder's options.
func (p Params) MeshOptions() (mesh.Options, error) {
	bands, err := mesh.BandsByName(p.Bands)
	if err != nil {
		return mesh.Options{}, fmt.Errorf("%w: %v", heightfield.ErrInvalidParameter, err)
	}
	return mesh.Options{
		HeightMultiplier: p.HeightMultiplier,
		Steepness:        p.Steepness,
		Bands:            bands,
		Centered:         p.Centered,
	}, nil
}
