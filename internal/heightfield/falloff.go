package heightfield

import "math"

// Shape controls the falloff curve f(v) = v^A / (v^A + (B - B*v)^A).
type Shape struct {
	A float64
	B float64
}

// DefaultShape is the curve the island look was tuned with.
var DefaultShape = Shape{A: 4, B: 2.2}

// Apply maps a Chebyshev distance in [0,1] to a falloff weight in [0,1].
func (s Shape) Apply(v float64) float64 {
	va := math.Pow(v, s.A)
	denom := va + math.Pow(s.B-s.B*v, s.A)
	if denom == 0 {
		return 0
	}
	return va / denom
}

// FalloffMask weights each cell by its distance from the grid centre so
// that borders are pushed down into water. It depends only on dimensions.
type FalloffMask struct {
	Length int
	Width  int
	Values []float64
}

// NewFalloffMask computes the mask for a length x width grid.
func NewFalloffMask(length, width int, shape Shape) *FalloffMask {
	m := &FalloffMask{
		Length: length,
		Width:  width,
		Values: make([]float64, length*width),
	}
	for z := 0; z < length; z++ {
		zFrac := centered(z, length)
		for x := 0; x < width; x++ {
			xFrac := centered(x, width)
			v := math.Max(math.Abs(xFrac), math.Abs(zFrac))
			m.Values[z*width+x] = shape.Apply(v)
		}
	}
	return m
}

// At returns the mask value for cell (x, z).
func (m *FalloffMask) At(x, z int) float64 {
	return m.Values[z*m.Width+x]
}

// centered maps c in [0, n) onto [-1, 1]; a single-cell axis sits at 0.
func centered(c, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(c)/float64(n-1)*2 - 1
}
