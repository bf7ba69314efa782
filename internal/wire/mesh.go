package wire

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/VoidMesh/terrain/internal/mesh"
)

// Mesh message, all float attributes as packed fixed32 (float32 bits):
//
//	1 length    varint
//	2 width     varint
//	3 positions packed fixed32, xyz per vertex
//	4 normals   packed fixed32, xyz per vertex
//	5 uvs       packed fixed32, uv per vertex
//	6 colors    packed fixed32, rgb per vertex
//	7 indices   packed varint, three per triangle
const (
	meshLength    protowire.Number = 1
	meshWidth     protowire.Number = 2
	meshPositions protowire.Number = 3
	meshNormals   protowire.Number = 4
	meshUVs       protowire.Number = 5
	meshColors    protowire.Number = 6
	meshIndices   protowire.Number = 7
)

// MeshContentType is the media type served for EncodeMesh payloads.
const MeshContentType = "application/x-protobuf"

// EncodeMesh serializes m. Float attributes are narrowed to float32.
func EncodeMesh(m *mesh.Mesh) []byte {
	n := len(m.Points)
	b := make([]byte, 0, 16+n*(3+3+2+3)*4+len(m.Triangles)*3*3)
	b = protowire.AppendTag(b, meshLength, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Length))
	b = protowire.AppendTag(b, meshWidth, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Width))

	b = appendPackedVec3s(b, meshPositions, m.Points)
	b = appendPackedVec3s(b, meshNormals, m.Normals)

	b = protowire.AppendTag(b, meshUVs, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(len(m.UVs)*2*4))
	for _, uv := range m.UVs {
		b = appendFloat32(b, uv[0])
		b = appendFloat32(b, uv[1])
	}

	b = protowire.AppendTag(b, meshColors, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(len(m.Colors)*3*4))
	for _, c := range m.Colors {
		b = appendFloat32(b, c.R)
		b = appendFloat32(b, c.G)
		b = appendFloat32(b, c.B)
	}

	size := 0
	for _, tri := range m.Triangles {
		for _, idx := range tri {
			size += protowire.SizeVarint(uint64(idx))
		}
	}
	b = protowire.AppendTag(b, meshIndices, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(size))
	for _, tri := range m.Triangles {
		for _, idx := range tri {
			b = protowire.AppendVarint(b, uint64(idx))
		}
	}
	return b
}

func appendPackedVec3s(b []byte, num protowire.Number, vs []mgl64.Vec3) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(len(vs)*3*4))
	for _, v := range vs {
		b = appendFloat32(b, v[0])
		b = appendFloat32(b, v[1])
		b = appendFloat32(b, v[2])
	}
	return b
}

func appendFloat32(b []byte, v float64) []byte {
	return protowire.AppendFixed32(b, math.Float32bits(float32(v)))
}

// DecodeMesh parses a payload written by EncodeMesh. Attributes come back
// at float32 precision.
func DecodeMesh(b []byte) (*mesh.Mesh, error) {
	var (
		length, width                   uint64
		positions, normals, uvs, colors []float32
		indices                         []uint64
	)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed("tag", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == meshLength && typ == protowire.VarintType:
			length, n = protowire.ConsumeVarint(b)
		case num == meshWidth && typ == protowire.VarintType:
			width, n = protowire.ConsumeVarint(b)
		case num >= meshPositions && num <= meshColors && typ == protowire.BytesType:
			var packed []byte
			packed, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				floats, err := unpackFloat32s(packed)
				if err != nil {
					return nil, err
				}
				switch num {
				case meshPositions:
					positions = floats
				case meshNormals:
					normals = floats
				case meshUVs:
					uvs = floats
				case meshColors:
					colors = floats
				}
			}
		case num == meshIndices && typ == protowire.BytesType:
			var packed []byte
			packed, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				var err error
				if indices, err = unpackVarints(packed); err != nil {
					return nil, err
				}
			}
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, malformed(fmt.Sprintf("field %d", num), protowire.ParseError(n))
		}
		b = b[n:]
	}

	if length < 2 || width < 2 || length > maxCells || width > maxCells || length*width > maxCells {
		return nil, fmt.Errorf("%w: mesh grid %dx%d", ErrMalformed, length, width)
	}
	vertices := int(length * width)
	switch {
	case len(positions) != vertices*3:
		return nil, fmt.Errorf("%w: %d position floats for %d vertices", ErrMalformed, len(positions), vertices)
	case len(normals) != vertices*3:
		return nil, fmt.Errorf("%w: %d normal floats for %d vertices", ErrMalformed, len(normals), vertices)
	case len(uvs) != vertices*2:
		return nil, fmt.Errorf("%w: %d uv floats for %d vertices", ErrMalformed, len(uvs), vertices)
	case len(colors) != vertices*3:
		return nil, fmt.Errorf("%w: %d colour floats for %d vertices", ErrMalformed, len(colors), vertices)
	case len(indices)%3 != 0:
		return nil, fmt.Errorf("%w: %d indices is not a triangle list", ErrMalformed, len(indices))
	}

	m := &mesh.Mesh{
		Length:    int(length),
		Width:     int(width),
		Points:    make([]mgl64.Vec3, vertices),
		Normals:   make([]mgl64.Vec3, vertices),
		UVs:       make([]mgl64.Vec2, vertices),
		Colors:    make([]mesh.Color, vertices),
		Triangles: make([][3]uint32, len(indices)/3),
	}
	for i := 0; i < vertices; i++ {
		m.Points[i] = mgl64.Vec3{float64(positions[i*3]), float64(positions[i*3+1]), float64(positions[i*3+2])}
		m.Normals[i] = mgl64.Vec3{float64(normals[i*3]), float64(normals[i*3+1]), float64(normals[i*3+2])}
		m.UVs[i] = mgl64.Vec2{float64(uvs[i*2]), float64(uvs[i*2+1])}
		m.Colors[i] = mesh.Color{R: float64(colors[i*3]), G: float64(colors[i*3+1]), B: float64(colors[i*3+2])}
	}
	for i := range m.Triangles {
		for k := 0; k < 3; k++ {
			idx := indices[i*3+k]
			if idx >= uint64(vertices) {
				return nil, fmt.Errorf("%w: index %d out of range for %d vertices", ErrMalformed, idx, vertices)
			}
			m.Triangles[i][k] = uint32(idx)
		}
	}
	return m, nil
}

func unpackFloat32s(packed []byte) ([]float32, error) {
	if len(packed)%4 != 0 {
		return nil, fmt.Errorf("%w: packed floats of %d bytes", ErrMalformed, len(packed))
	}
	out := make([]float32, 0, len(packed)/4)
	for len(packed) > 0 {
		bits, n := protowire.ConsumeFixed32(packed)
		if n < 0 {
			return nil, malformed("packed floats", protowire.ParseError(n))
		}
		out = append(out, math.Float32frombits(bits))
		packed = packed[n:]
	}
	return out, nil
}

func unpackVarints(packed []byte) ([]uint64, error) {
	out := make([]uint64, 0, len(packed))
	for len(packed) > 0 {
		v, n := protowire.ConsumeVarint(packed)
		if n < 0 {
			return nil, malformed("packed varints", protowire.ParseError(n))
		}
		out = append(out, v)
		packed = packed[n:]
	}
	return out, nil
}
