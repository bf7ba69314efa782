package heightfield

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VoidMesh/terrain/internal/noise"
	"github.com/VoidMesh/terrain/internal/testutil"
)

// constantField returns the same sample everywhere.
type constantField struct {
	value float64
	seed  int64
}

func (c *constantField) Sample(x, z float64) float64 { return c.value }
func (c *constantField) Seed() int64 { return c.seed }
func (c *constantField) Reseed(seed int64) { c.seed = seed }
func (c *constantField) OctaveOffsets(n int) []noise.Offset { return make([]noise.Offset, n) }

func defaultParams() Params {
	return Params{
		Length:      32,
		Width:       24,
		Scale:       10,
		Octaves:     4,
		Persistence: 0.5,
		Lacunarity:  2,
		Falloff:     DefaultShape,
	}
}

func TestGenerate_GoldenSeed42(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	var golden struct {
		Seed        int64     `json:"seed"`
		Length      int       `json:"length"`
		Width       int       `json:"width"`
		Scale       float64   `json:"scale"`
		Octaves     int       `json:"octaves"`
		Persistence float64   `json:"persistence"`
		Lacunarity  float64   `json:"lacunarity"`
		RawMin      float64   `json:"raw_min"`
		RawMax      float64   `json:"raw_max"`
		Heights     []float64 `json:"heights"`
	}
	testutil.LoadGoldenJSON(t, "heightfield_seed42_4x4", &golden)

	hf, err := Generate(context.Background(), noise.NewSimplex(golden.Seed), Params{
		Length:      golden.Length,
		Width:       golden.Width,
		Scale:       golden.Scale,
		Octaves:     golden.Octaves,
		Persistence: golden.Persistence,
		Lacunarity:  golden.Lacunarity,
	})
	require.NoError(t, err)
	require.Len(t, hf.Values, len(golden.Heights))

	assert.InDelta(t, golden.RawMin, hf.Min, 1e-9)
	assert.InDelta(t, golden.RawMax, hf.Max, 1e-9)
	for i, want := range golden.Heights {
		assert.InDelta(t, want, hf.Values[i], 1e-9, "cell %d", i)
	}
	assert.False(t, hf.Degenerate)
}

func TestGenerate_Determinism(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	for _, useFalloff := range []bool{false, true} {
		p := defaultParams()
		p.UseFalloff = useFalloff

		a, err := Generate(context.Background(), noise.NewSimplex(1234), p)
		require.NoError(t, err)
		b, err := Generate(context.Background(), noise.NewSimplex(1234), p)
		require.NoError(t, err)

		assert.Equal(t, a.Values, b.Values, "falloff=%v", useFalloff)
	}
}

func TestGenerate_ParallelMatchesSequential(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	p := defaultParams()
	p.UseFalloff = true

	sequential, err := Generate(context.Background(), noise.NewSimplex(77), p)
	require.NoError(t, err)

	p.Parallel = true
	concurrent, err := Generate(context.Background(), noise.NewSimplex(77), p)
	require.NoError(t, err)

	assert.Equal(t, sequential.Values, concurrent.Values)
	assert.Equal(t, sequential.Min, concurrent.Min)
	assert.Equal(t, sequential.Max, concurrent.Max)
}

func TestGenerate_ReseedRoundTrip(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	p := defaultParams()
	field := noise.NewSimplex(10)

	first, err := Generate(context.Background(), field, p)
	require.NoError(t, err)

	field.Reseed(11)
	other, err := Generate(context.Background(), field, p)
	require.NoError(t, err)
	assert.NotEqual(t, first.Values, other.Values)

	field.Reseed(10)
	again, err := Generate(context.Background(), field, p)
	require.NoError(t, err)
	assert.Equal(t, first.Values, again.Values)
}

func TestGenerate_RangeInvariant(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	for _, kind := range noise.Kinds() {
		for _, useFalloff := range []bool{false, true} {
			field, err := noise.New(kind, 5)
			require.NoError(t, err)

			p := defaultParams()
			p.UseFalloff = useFalloff
			hf, err := Generate(context.Background(), field, p)
			require.NoError(t, err)

			lo, hi := math.Inf(1), math.Inf(-1)
			for _, v := range hf.Values {
				require.GreaterOrEqual(t, v, 0.0, "%s falloff=%v", kind, useFalloff)
				require.LessOrEqual(t, v, 1.0, "%s falloff=%v", kind, useFalloff)
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
			assert.Equal(t, 0.0, lo, "%s: the raw minimum normalizes to 0", kind)
			if !useFalloff {
				assert.Equal(t, 1.0, hi, "%s: the raw maximum normalizes to 1", kind)
			}
		}
	}
}

func TestGenerate_FalloffLowersBorders(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	p := defaultParams()
	p.UseFalloff = true
	hf, err := Generate(context.Background(), noise.NewSimplex(3), p)
	require.NoError(t, err)

	for x := 0; x < p.Width; x++ {
		assert.Equal(t, 0.0, hf.At(x, 0))
		assert.Equal(t, 0.0, hf.At(x, p.Length-1))
	}
	for z := 0; z < p.Length; z++ {
		assert.Equal(t, 0.0, hf.At(0, z))
		assert.Equal(t, 0.0, hf.At(p.Width-1, z))
	}
}

func TestGenerate_DegenerateRange(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	p := defaultParams()
	hf, err := Generate(context.Background(), &constantField{value: 0.3}, p)
	require.NoError(t, err)

	assert.True(t, hf.Degenerate)
	assert.Equal(t, hf.Min, hf.Max)
	for _, v := range hf.Values {
		assert.False(t, math.IsNaN(v))
		assert.Equal(t, 0.0, v)
	}
}

func TestGenerate_InvalidParameters(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	tests := []struct {
		name   string
		modify func(p *Params)
	}{
		{name: "zero octaves", modify: func(p *Params) { p.Octaves = 0 }},
		{name: "negative octaves", modify: func(p *Params) { p.Octaves = -2 }},
		{name: "zero scale", modify: func(p *Params) { p.Scale = 0 }},
		{name: "negative scale", modify: func(p *Params) { p.Scale = -1 }},
		{name: "NaN scale", modify: func(p *Params) { p.Scale = math.NaN() }},
		{name: "zero length", modify: func(p *Params) { p.Length = 0 }},
		{name: "negative width", modify: func(p *Params) { p.Width = -4 }},
		{name: "NaN persistence", modify: func(p *Params) { p.Persistence = math.NaN() }},
		{name: "infinite lacunarity", modify: func(p *Params) { p.Lacunarity = math.Inf(1) }},
		{name: "falloff without shape", modify: func(p *Params) { p.UseFalloff = true; p.Falloff = Shape{} }},
		{name: "cell count overflows int", modify: func(p *Params) { p.Length = 2; p.Width = 1 << 62 }},
		{name: "too many cells", modify: func(p *Params) { p.Length = MaxCells; p.Width = 2 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := defaultParams()
			tt.modify(&p)

			hf, err := Generate(context.Background(), noise.NewSimplex(1), p)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameter))
			assert.Nil(t, hf)
		})
	}
}

func TestParams_Validate_CellLimit(t *testing.T) {
	p := defaultParams()
	p.Length, p.Width = 1<<13, 1<<13
	require.NoError(t, p.Validate(), "exactly MaxCells is allowed")

	p.Width++
	assert.ErrorIs(t, p.Validate(), ErrInvalidParameter)
}

func TestGenerate_OverflowingOctaves(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	tests := []struct {
		name   string
		modify func(p *Params)
	}{
		{name: "huge persistence", modify: func(p *Params) { p.Persistence = 1e200; p.Octaves = 3 }},
		{name: "huge negative persistence", modify: func(p *Params) { p.Persistence = -1e200; p.Octaves = 3 }},
	}

	for _, tt := range tests {
		for _, parallelRows := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/parallel=%v", tt.name, parallelRows), func(t *testing.T) {
				p := defaultParams()
				p.Length, p.Width = 8, 8
				p.Parallel = parallelRows
				tt.modify(&p)

				hf, err := Generate(context.Background(), noise.NewSimplex(42), p)
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidParameter)
				assert.Nil(t, hf)
			})
		}
	}
}

func TestGenerate_Cancelled(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, parallelRows := range []bool{false, true} {
		p := defaultParams()
		p.Parallel = parallelRows

		hf, err := Generate(ctx, noise.NewSimplex(1), p)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Nil(t, hf)
	}
}

func TestGenerate_SingleCellAxis(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	p := defaultParams()
	p.Length = 1
	p.Width = 1
	hf, err := Generate(context.Background(), noise.NewSimplex(1), p)
	require.NoError(t, err)

	assert.True(t, hf.Degenerate, "a single sample has no range")
	assert.Equal(t, []float64{0}, hf.Values)
}

func TestFromValues(t *testing.T) {
	hf, err := FromValues(2, 3, []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5})
	require.NoError(t, err)
	assert.Equal(t, 0.5, hf.At(2, 1))
	assert.Equal(t, 6, hf.Len())

	_, err = FromValues(2, 3, []float64{0, 1})
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = FromValues(0, 3, nil)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func BenchmarkGenerate(b *testing.B) {
	p := Params{Length: 100, Width: 100, Scale: 30, Octaves: 3, Persistence: 0.5, Lacunarity: 2, UseFalloff: true, Falloff: DefaultShape}
	field := noise.NewSimplex(1497779637)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Generate(context.Background(), field, p); err != nil {
			b.Fatal(err)
		}
	}
}
