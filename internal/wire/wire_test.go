package wire

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/VoidMesh/terrain/internal/heightfield"
	"github.com/VoidMesh/terrain/internal/mesh"
	"github.com/VoidMesh/terrain/internal/noise"
	"github.com/VoidMesh/terrain/internal/testutil"
)

func sampleField(t *testing.T) *heightfield.Field {
	t.Helper()
	hf, err := heightfield.Generate(context.Background(), noise.NewSimplex(42), heightfield.Params{
		Length:      6,
		Width:       9,
		Scale:       4,
		Octaves:     3,
		Persistence: 0.5,
		Lacunarity:  2,
		UseFalloff:  true,
		Falloff:     heightfield.DefaultShape,
	})
	require.NoError(t, err)
	return hf
}

func TestHeights_RoundTripBitExact(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	hf := sampleField(t)
	got, err := DecodeHeights(EncodeHeights(hf))
	require.NoError(t, err)

	assert.Equal(t, hf.Length, got.Length)
	assert.Equal(t, hf.Width, got.Width)
	assert.Equal(t, math.Float64bits(hf.Min), math.Float64bits(got.Min))
	assert.Equal(t, math.Float64bits(hf.Max), math.Float64bits(got.Max))
	require.Len(t, got.Values, len(hf.Values))
	for i := range hf.Values {
		assert.Equal(t, math.Float64bits(hf.Values[i]), math.Float64bits(got.Values[i]), "cell %d", i)
	}
	assert.False(t, got.Degenerate)
}

func TestHeights_DegenerateFlag(t *testing.T) {
	hf, err := heightfield.FromValues(2, 2, []float64{0, 0, 0, 0})
	require.NoError(t, err)
	hf.Degenerate = true

	got, err := DecodeHeights(EncodeHeights(hf))
	require.NoError(t, err)
	assert.True(t, got.Degenerate)
}

func TestHeights_SkipsUnknownFields(t *testing.T) {
	hf, err := heightfield.FromValues(1, 2, []float64{0.25, 0.75})
	require.NoError(t, err)

	b := protowire.AppendTag(nil, 99, protowire.BytesType)
	b = protowire.AppendBytes(b, []byte("future"))
	b = append(b, EncodeHeights(hf)...)

	got, err := DecodeHeights(b)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.25, 0.75}, got.Values)
}

func TestHeights_Malformed(t *testing.T) {
	hf, err := heightfield.FromValues(2, 2, []float64{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)
	valid := EncodeHeights(hf)

	wrongCount := protowire.AppendTag(nil, heightsLength, protowire.VarintType)
	wrongCount = protowire.AppendVarint(wrongCount, 3)
	wrongCount = protowire.AppendTag(wrongCount, heightsWidth, protowire.VarintType)
	wrongCount = protowire.AppendVarint(wrongCount, 3)
	wrongCount = protowire.AppendTag(wrongCount, heightsValues, protowire.BytesType)
	wrongCount = protowire.AppendBytes(wrongCount, make([]byte, 16))

	oddPacked := protowire.AppendTag(nil, heightsValues, protowire.BytesType)
	oddPacked = protowire.AppendBytes(oddPacked, make([]byte, 5))

	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "empty", payload: nil},
		{name: "truncated", payload: valid[:len(valid)-3]},
		{name: "bad tag", payload: []byte{0xff}},
		{name: "value count mismatch", payload: wrongCount},
		{name: "odd packed length", payload: oddPacked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeHeights(tt.payload)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Nil(t, got)
		})
	}
}

func TestMesh_RoundTrip(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	m, err := mesh.Build(context.Background(), sampleField(t), mesh.DefaultOptions())
	require.NoError(t, err)

	got, err := DecodeMesh(EncodeMesh(m))
	require.NoError(t, err)

	assert.Equal(t, m.Length, got.Length)
	assert.Equal(t, m.Width, got.Width)
	assert.Equal(t, m.Triangles, got.Triangles)
	require.Len(t, got.Points, len(m.Points))
	for i := range m.Points {
		for c := 0; c < 3; c++ {
			assert.InDelta(t, m.Points[i][c], got.Points[i][c], 1e-4)
			assert.InDelta(t, m.Normals[i][c], got.Normals[i][c], 1e-6)
		}
		assert.InDelta(t, m.UVs[i][0], got.UVs[i][0], 1e-6)
		assert.InDelta(t, m.UVs[i][1], got.UVs[i][1], 1e-6)
		assert.InDelta(t, m.Colors[i].G, got.Colors[i].G, 1e-6)
	}
}

func TestMesh_Malformed(t *testing.T) {
	cleanup := testutil.SetupTest(t, testutil.DefaultTestConfig())
	defer cleanup()

	hf, err := heightfield.FromValues(2, 2, []float64{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)
	m, err := mesh.Build(context.Background(), hf, mesh.DefaultOptions())
	require.NoError(t, err)

	outOfRange := *m
	outOfRange.Triangles = [][3]uint32{{0, 1, 9}}

	missingNormals := *m
	missingNormals.Normals = m.Normals[:2]

	valid := EncodeMesh(m)

	tests := []struct {
		name    string
		payload []byte
	}{
		{name: "empty", payload: nil},
		{name: "truncated", payload: valid[:len(valid)-1]},
		{name: "index out of range", payload: EncodeMesh(&outOfRange)},
		{name: "attribute count mismatch", payload: EncodeMesh(&missingNormals)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeMesh(tt.payload)
			assert.ErrorIs(t, err, ErrMalformed)
			assert.Nil(t, got)
		})
	}
}
