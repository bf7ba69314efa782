package noise

import "math"

const (
	f2 = 0.36602540378443864676 // (sqrt(3) - 1) / 2
	g2 = 0.21132486540518711775 // (3 - sqrt(3)) / 6
)

// grad3 are the gradient vectors of 3D simplex noise; 2D sampling uses
// their x and y components only.
var grad3 = [12][3]float64{
	{1, 1, 0},
	{-1, 1, 0},
	{1, -1, 0},
	{-1, -1, 0},
	{1, 0, 1},
	{-1, 0, 1},
	{1, 0, -1},
	{-1, 0, -1},
	{0, 1, 1},
	{0, -1, 1},
	{0, 1, -1},
	{0, -1, -1},
}

// p is Ken Perlin's reference permutation.
var p = [256]int{
	151, 160, 137, 91, 90, 15, 131, 13, 201, 95, 96, 53, 194, 233, 7, 225,
	140, 36, 103, 30, 69, 142, 8, 99, 37, 240, 21, 10, 23, 190, 6, 148,
	247, 120, 234, 75, 0, 26, 197, 62, 94, 252, 219, 203, 117, 35, 11, 32,
	57, 177, 33, 88, 237, 149, 56, 87, 174, 20, 125, 136, 171, 168, 68, 175,
	74, 165, 71, 134, 139, 48, 27, 166, 77, 146, 158, 231, 83, 111, 229, 122,
	60, 211, 133, 230, 220, 105, 92, 41, 55, 46, 245, 40, 244, 102, 143, 54,
	65, 25, 63, 161, 1, 216, 80, 73, 209, 76, 132, 187, 208, 89, 18, 169,
	200, 196, 135, 130, 116, 188, 159, 86, 164, 100, 109, 198, 173, 186, 3, 64,
	52, 217, 226, 250, 124, 123, 5, 202, 38, 147, 118, 126, 255, 82, 85, 212,
	207, 206, 59, 227, 47, 16, 58, 17, 182, 189, 28, 42, 223, 183, 170, 213,
	119, 248, 152, 2, 44, 154, 163, 70, 221, 153, 101, 155, 167, 43, 172, 9,
	129, 22, 39, 253, 19, 98, 108, 110, 79, 113, 224, 232, 178, 185, 112, 104,
	218, 246, 97, 228, 251, 34, 242, 193, 238, 210, 144, 12, 191, 179, 162, 241,
	81, 51, 145, 235, 249, 14, 239, 107, 49, 192, 214, 31, 181, 199, 106, 157,
	184, 84, 204, 176, 115, 121, 50, 45, 127, 4, 150, 254, 138, 236, 205, 93,
	222, 114, 67, 29, 24, 72, 243, 141, 128, 195, 78, 66, 215, 61, 156, 180,
}

// perm is p doubled so lattice lookups never wrap.
var perm [512]int

func init() {
	for i := range perm {
		perm[i] = p[i&255]
	}
}

// Simplex is 2D simplex noise over a fixed permutation table. The seed
// only drives octave offsets; it never reshuffles the table.
type Simplex struct {
	seed int64
}

// NewSimplex creates a simplex noise field with the given seed.
func NewSimplex(seed int64) *Simplex {
	return &Simplex{seed: seed}
}

// Seed returns the current seed.
func (s *Simplex) Seed() int64 {
	return s.seed
}

// Reseed replaces the seed used for octave offsets.
func (s *Simplex) Reseed(seed int64) {
	s.seed = seed
}

// OctaveOffsets returns n sample offsets derived from the seed.
func (s *Simplex) OctaveOffsets(n int) []Offset {
	return offsetsForSeed(s.seed, n)
}

// Sample returns the noise value at (x, z), roughly in [-1, 1].
func (s *Simplex) Sample(x, z float64) float64 {
	return simplex2(x, z)
}

func simplex2(x, z float64) float64 {
	// Skew input space to find the simplex cell.
	sk := (x + z) * f2
	i := int(math.Floor(x + sk))
	j := int(math.Floor(z + sk))

	t := float64(i+j) * g2
	x0 := x - (float64(i) - t)
	z0 := z - (float64(j) - t)

	var i1, j1 int
	if x0 > z0 {
		i1 = 1
	} else {
		j1 = 1
	}

	x1 := x0 - float64(i1) + g2
	z1 := z0 - float64(j1) + g2
	x2 := x0 - 1.0 + 2.0*g2
	z2 := z0 - 1.0 + 2.0*g2

	ii := i & 255
	jj := j & 255
	gi0 := perm[ii+perm[jj]] % 12
	gi1 := perm[ii+i1+perm[jj+j1]] % 12
	gi2 := perm[ii+1+perm[jj+1]] % 12

	var n0, n1, n2 float64

	t0 := 0.5 - x0*x0 - z0*z0
	if t0 >= 0 {
		t0 *= t0
		n0 = t0 * t0 * dot2(grad3[gi0], x0, z0)
	}

	t1 := 0.5 - x1*x1 - z1*z1
	if t1 >= 0 {
		t1 *= t1
		n1 = t1 * t1 * dot2(grad3[gi1], x1, z1)
	}

	t2 := 0.5 - x2*x2 - z2*z2
	if t2 >= 0 {
		t2 *= t2
		n2 = t2 * t2 * dot2(grad3[gi2], x2, z2)
	}

	return 70.0 * (n0 + n1 + n2)
}

func dot2(g [3]float64, x, y float64) float64 {
	return g[0]*x + g[1]*y
}
