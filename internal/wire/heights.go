// Package wire encodes height fields and meshes in protobuf wire format so
// they can be stored as blobs and served to non-Go clients without
// generated code.
//
// HeightField message:
//
//	1 length     varint
//	2 width      varint
//	3 values     packed fixed64 (IEEE-754 bits)
//	4 min        fixed64
//	5 max        fixed64
//	6 degenerate varint (bool)
//
// Unknown fields are skipped.
package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/VoidMesh/terrain/internal/heightfield"
)

// ErrMalformed reports a payload that is truncated or inconsistent.
var ErrMalformed = errors.New("malformed payload")

const (
	heightsLength     protowire.Number = 1
	heightsWidth      protowire.Number = 2
	heightsValues     protowire.Number = 3
	heightsMin        protowire.Number = 4
	heightsMax        protowire.Number = 5
	heightsDegenerate protowire.Number = 6
)

// maxCells bounds decoded grids so a corrupt length field cannot trigger a
// huge allocation. It matches the generation limit, so every stored field
// decodes.
const maxCells = heightfield.MaxCells

// EncodeHeights serializes hf. Values round-trip bit-exactly.
func EncodeHeights(hf *heightfield.Field) []byte {
	b := make([]byte, 0, 32+len(hf.Values)*8)
	b = protowire.AppendTag(b, heightsLength, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(hf.Length))
	b = protowire.AppendTag(b, heightsWidth, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(hf.Width))

	b = protowire.AppendTag(b, heightsValues, protowire.BytesType)
	b = protowire.AppendVarint(b, uint64(len(hf.Values)*8))
	for _, v := range hf.Values {
		b = protowire.AppendFixed64(b, math.Float64bits(v))
	}

	b = protowire.AppendTag(b, heightsMin, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(hf.Min))
	b = protowire.AppendTag(b, heightsMax, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(hf.Max))
	if hf.Degenerate {
		b = protowire.AppendTag(b, heightsDegenerate, protowire.VarintType)
		b = protowire.AppendVarint(b, protowire.EncodeBool(true))
	}
	return b
}

// DecodeHeights parses a payload written by EncodeHeights.
func DecodeHeights(b []byte) (*heightfield.Field, error) {
	var (
		hf     heightfield.Field
		length uint64
		width  uint64
		values []float64
	)

	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed("tag", protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == heightsLength && typ == protowire.VarintType:
			length, n = protowire.ConsumeVarint(b)
		case num == heightsWidth && typ == protowire.VarintType:
			width, n = protowire.ConsumeVarint(b)
		case num == heightsValues && typ == protowire.BytesType:
			var packed []byte
			packed, n = protowire.ConsumeBytes(b)
			if n >= 0 {
				var err error
				if values, err = unpackFloat64s(packed); err != nil {
					return nil, err
				}
			}
		case num == heightsMin && typ == protowire.Fixed64Type:
			var bits uint64
			bits, n = protowire.ConsumeFixed64(b)
			hf.Min = math.Float64frombits(bits)
		case num == heightsMax && typ == protowire.Fixed64Type:
			var bits uint64
			bits, n = protowire.ConsumeFixed64(b)
			hf.Max = math.Float64frombits(bits)
		case num == heightsDegenerate && typ == protowire.VarintType:
			var v uint64
			v, n = protowire.ConsumeVarint(b)
			hf.Degenerate = protowire.DecodeBool(v)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return nil, malformed(fmt.Sprintf("field %d", num), protowire.ParseError(n))
		}
		b = b[n:]
	}

	if length == 0 || width == 0 || length > maxCells || width > maxCells || length*width > maxCells {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrMalformed, length, width)
	}
	if uint64(len(values)) != length*width {
		return nil, fmt.Errorf("%w: %d values for %dx%d grid", ErrMalformed, len(values), length, width)
	}

	hf.Length = int(length)
	hf.Width = int(width)
	hf.Values = values
	return &hf, nil
}

func unpackFloat64s(packed []byte) ([]float64, error) {
	if len(packed)%8 != 0 {
		return nil, fmt.Errorf("%w: packed doubles of %d bytes", ErrMalformed, len(packed))
	}
	out := make([]float64, 0, len(packed)/8)
	for len(packed) > 0 {
		bits, n := protowire.ConsumeFixed64(packed)
		if n < 0 {
			return nil, malformed("packed doubles", protowire.ParseError(n))
		}
		out = append(out, math.Float64frombits(bits))
		packed = packed[n:]
	}
	return out, nil
}

func malformed(what string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformed, what, err)
}
