// Package noise provides seeded 2D coherent-noise fields used as the
// primitive for fractal terrain synthesis.
package noise

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned by New for an unrecognised backend name.
var ErrUnknownKind = errors.New("unknown noise kind")

// Backend names accepted by New.
const (
	KindSimplex     = "simplex"
	KindPerlin      = "perlin"
	KindOpenSimplex = "opensimplex"
)

// OffsetRange bounds each octave offset component to [-OffsetRange, OffsetRange].
const OffsetRange = 1_000_000.0

// Field is a deterministic 2D noise function plus the seed that
// decorrelates octaves sampled from it.
type Field interface {
	Sample(x, z float64) float64
	Seed() int64
	Reseed(seed int64)
	OctaveOffsets(n int) []Offset
}

// Offset shifts one octave's sample coordinates.
type Offset struct {
	X float64
	Z float64
}

// New builds a noise field by backend name. An empty name selects simplex.
func New(kind string, seed int64) (Field, error) {
	name, err := CanonicalKind(kind)
	if err != nil {
		return nil, err
	}
	switch name {
	case KindPerlin:
		return NewPerlin(seed), nil
	case KindOpenSimplex:
		return NewOpenSimplex(seed), nil
	default:
		return NewSimplex(seed), nil
	}
}

// CanonicalKind normalizes a backend name, mapping "" to KindSimplex.
func CanonicalKind(kind string) (string, error) {
	switch name := strings.ToLower(strings.TrimSpace(kind)); name {
	case "":
		return KindSimplex, nil
	case KindSimplex, KindPerlin, KindOpenSimplex:
		return name, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// Kinds lists the supported backend names.
func Kinds() []string {
	return []string{KindSimplex, KindPerlin, KindOpenSimplex}
}

// offsetsForSeed draws n offsets from a splitmix64 stream seeded by seed,
// x before z for each octave.
func offsetsForSeed(seed int64, n int) []Offset {
	if n <= 0 {
		return nil
	}
	r := splitMix{state: uint64(seed)}
	offsets := make([]Offset, n)
	for i := range offsets {
		offsets[i].X = r.between(-OffsetRange, OffsetRange)
		offsets[i].Z = r.between(-OffsetRange, OffsetRange)
	}
	return offsets
}

type splitMix struct {
	state uint64
}

func (s *splitMix) next() uint64 {
	s.state += 0x9E3779B97F4A7C15
	z := s.state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// between returns a uniform value in [lo, hi).
func (s *splitMix) between(lo, hi float64) float64 {
	u := float64(s.next()>>11) / (1 << 53)
	return lo + u*(hi-lo)
}
