package noise

import (
	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Perlin is classic gradient noise. Unlike Simplex its lattice is
// reshuffled from the seed, so Reseed rebuilds the generator.
type Perlin struct {
	noise *perlin.Perlin
	seed  int64
}

// NewPerlin creates a Perlin field with alpha=2, beta=2, n=3, which gives
// terrain-like output.
func NewPerlin(seed int64) *Perlin {
	return &Perlin{
		noise: perlin.NewPerlin(2, 2, 3, seed),
		seed:  seed,
	}
}

func (p *Perlin) Sample(x, z float64) float64 {
	return p.noise.Noise2D(x, z)
}

func (p *Perlin) Seed() int64 {
	return p.seed
}

func (p *Perlin) Reseed(seed int64) {
	p.noise = perlin.NewPerlin(2, 2, 3, seed)
	p.seed = seed
}

func (p *Perlin) OctaveOffsets(n int) []Offset {
	return offsetsForSeed(p.seed, n)
}

// OpenSimplex wraps the OpenSimplex algorithm, which also derives its
// gradients from the seed.
type OpenSimplex struct {
	noise opensimplex.Noise
	seed  int64
}

// NewOpenSimplex creates an OpenSimplex field.
func NewOpenSimplex(seed int64) *OpenSimplex {
	return &OpenSimplex{
		noise: opensimplex.New(seed),
		seed:  seed,
	}
}

func (o *OpenSimplex) Sample(x, z float64) float64 {
	return o.noise.Eval2(x, z)
}

func (o *OpenSimplex) Seed() int64 {
	return o.seed
}

func (o *OpenSimplex) Reseed(seed int64) {
	o.noise = opensimplex.New(seed)
	o.seed = seed
}

func (o *OpenSimplex) OctaveOffsets(n int) []Offset {
	return offsetsForSeed(o.seed, n)
}
