package rpc

import (
	"fmt"
	"math"
	"time"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/VoidMesh/terrain/internal/terrain"
	"github.com/VoidMesh/terrain/internal/wire"
)

// Message layouts, as they would appear in voidmesh/terrain/v1/terrain.proto:
//
//	message TerrainParams {
//	  optional int64  seed              = 1;
//	  optional string noise             = 2;
//	  optional int64  length            = 3;
//	  optional int64  width             = 4;
//	  optional double scale             = 5;
//	  optional int64  octaves           = 6;
//	  optional double persistence       = 7;
//	  optional double lacunarity        = 8;
//	  optional bool   use_falloff       = 9;
//	  optional double falloff_a         = 10;
//	  optional double falloff_b         = 11;
//	  optional double height_multiplier = 12;
//	  optional double steepness         = 13;
//	  optional string bands             = 14;
//	  optional bool   centered          = 15;
//	  optional bool   parallel          = 16;
//	}
//	message GetTerrainRequest {}
//	message TerrainResponse {
//	  string snapshot_id = 1; TerrainParams params = 2;
//	  google.protobuf.Timestamp generated_at = 3; double duration_ms = 4;
//	  bool degenerate = 5; int64 vertex_count = 6; int64 triangle_count = 7;
//	}
//	message RegenerateRequest { TerrainParams params = 1; }
//	message ReseedRequest { optional int64 seed = 1; }
//	message GetMeshRequest { string snapshot_id = 1; }
//	message GetMeshResponse { string snapshot_id = 1; bytes mesh = 2; }

// wireMessage is implemented by every terrain service message.
type wireMessage interface {
	appendWire(b []byte) []byte
	unmarshalWire(b []byte) error
}

// ParamsPatch is a TerrainParams message. Nil fields are absent on the
// wire and leave the target untouched in Apply.
type ParamsPatch struct {
	Seed             *int64
	Noise            *string
	Length           *int
	Width            *int
	Scale            *float64
	Octaves          *int
	Persistence      *float64
	Lacunarity       *float64
	UseFalloff       *bool
	FalloffA         *float64
	FalloffB         *float64
	HeightMultiplier *float64
	Steepness        *float64
	Bands            *string
	Centered         *bool
	Parallel         *bool
}

// FullPatch returns a patch that sets every field to p's value.
func FullPatch(p terrain.Params) *ParamsPatch {
	return &ParamsPatch{
		Seed:             &p.Seed,
		Noise:            &p.Noise,
		Length:           &p.Length,
		Width:            &p.Width,
		Scale:            &p.Scale,
		Octaves:          &p.Octaves,
		Persistence:      &p.Persistence,
		Lacunarity:       &p.Lacunarity,
		UseFalloff:       &p.UseFalloff,
		FalloffA:         &p.FalloffA,
		FalloffB:         &p.FalloffB,
		HeightMultiplier: &p.HeightMultiplier,
		Steepness:        &p.Steepness,
		Bands:            &p.Bands,
		Centered:         &p.Centered,
		Parallel:         &p.Parallel,
	}
}

// Apply copies the present fields onto p.
func (pp *ParamsPatch) Apply(p *terrain.Params) {
	if pp == nil {
		return
	}
	set(&p.Seed, pp.Seed)
	set(&p.Noise, pp.Noise)
	set(&p.Length, pp.Length)
	set(&p.Width, pp.Width)
	set(&p.Scale, pp.Scale)
	set(&p.Octaves, pp.Octaves)
	set(&p.Persistence, pp.Persistence)
	set(&p.Lacunarity, pp.Lacunarity)
	set(&p.UseFalloff, pp.UseFalloff)
	set(&p.FalloffA, pp.FalloffA)
	set(&p.FalloffB, pp.FalloffB)
	set(&p.HeightMultiplier, pp.HeightMultiplier)
	set(&p.Steepness, pp.Steepness)
	set(&p.Bands, pp.Bands)
	set(&p.Centered, pp.Centered)
	set(&p.Parallel, pp.Parallel)
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (pp *ParamsPatch) appendWire(b []byte) []byte {
	b = appendOptInt(b, 1, pp.Seed)
	b = appendOptString(b, 2, pp.Noise)
	b = appendOptInt(b, 3, pp.Length)
	b = appendOptInt(b, 4, pp.Width)
	b = appendOptDouble(b, 5, pp.Scale)
	b = appendOptInt(b, 6, pp.Octaves)
	b = appendOptDouble(b, 7, pp.Persistence)
	b = appendOptDouble(b, 8, pp.Lacunarity)
	b = appendOptBool(b, 9, pp.UseFalloff)
	b = appendOptDouble(b, 10, pp.FalloffA)
	b = appendOptDouble(b, 11, pp.FalloffB)
	b = appendOptDouble(b, 12, pp.HeightMultiplier)
	b = appendOptDouble(b, 13, pp.Steepness)
	b = appendOptString(b, 14, pp.Bands)
	b = appendOptBool(b, 15, pp.Centered)
	b = appendOptBool(b, 16, pp.Parallel)
	return b
}

func (pp *ParamsPatch) unmarshalWire(b []byte) error {
	*pp = ParamsPatch{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeInt(typ, b, &pp.Seed)
		case 2:
			return consumeString(typ, b, &pp.Noise)
		case 3:
			return consumeInt(typ, b, &pp.Length)
		case 4:
			return consumeInt(typ, b, &pp.Width)
		case 5:
			return consumeDouble(typ, b, &pp.Scale)
		case 6:
			return consumeInt(typ, b, &pp.Octaves)
		case 7:
			return consumeDouble(typ, b, &pp.Persistence)
		case 8:
			return consumeDouble(typ, b, &pp.Lacunarity)
		case 9:
			return consumeBool(typ, b, &pp.UseFalloff)
		case 10:
			return consumeDouble(typ, b, &pp.FalloffA)
		case 11:
			return consumeDouble(typ, b, &pp.FalloffB)
		case 12:
			return consumeDouble(typ, b, &pp.HeightMultiplier)
		case 13:
			return consumeDouble(typ, b, &pp.Steepness)
		case 14:
			return consumeString(typ, b, &pp.Bands)
		case 15:
			return consumeBool(typ, b, &pp.Centered)
		case 16:
			return consumeBool(typ, b, &pp.Parallel)
		}
		return skip
	})
}

func (*GetTerrainRequest) appendWire(b []byte) []byte { return b }

func (r *GetTerrainRequest) unmarshalWire(b []byte) error {
	return consumeFields(b, func(protowire.Number, protowire.Type, []byte) int { return skip })
}

func (r *TerrainResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, r.SnapshotID)
	b = appendMessage(b, 2, FullPatch(r.Params))
	if !r.GeneratedAt.IsZero() {
		var ts []byte
		ts = protowire.AppendTag(ts, 1, protowire.VarintType)
		ts = protowire.AppendVarint(ts, uint64(r.GeneratedAt.Unix()))
		ts = protowire.AppendTag(ts, 2, protowire.VarintType)
		ts = protowire.AppendVarint(ts, uint64(r.GeneratedAt.Nanosecond()))
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, ts)
	}
	if r.DurationMS != 0 {
		b = appendOptDouble(b, 4, &r.DurationMS)
	}
	if r.Degenerate {
		b = appendOptBool(b, 5, &r.Degenerate)
	}
	if r.VertexCount != 0 {
		b = appendOptInt(b, 6, &r.VertexCount)
	}
	if r.TriangleCount != 0 {
		b = appendOptInt(b, 7, &r.TriangleCount)
	}
	return b
}

func (r *TerrainResponse) unmarshalWire(b []byte) error {
	*r = TerrainResponse{}
	var (
		params             ParamsPatch
		seconds, nanos     *int64
		duration           *float64
		degenerate         *bool
		vertices, triangle *int
		id                 *string
		nestedErr          error
	)
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeString(typ, b, &id)
		case 2:
			return consumeMessage(typ, b, &params, &nestedErr)
		case 3:
			if typ != protowire.BytesType {
				return badType
			}
			ts, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return n
			}
			nestedErr = consumeFields(ts, func(num protowire.Number, typ protowire.Type, b []byte) int {
				switch num {
				case 1:
					return consumeInt(typ, b, &seconds)
				case 2:
					return consumeInt(typ, b, &nanos)
				}
				return skip
			})
			if nestedErr != nil {
				return badType
			}
			return n
		case 4:
			return consumeDouble(typ, b, &duration)
		case 5:
			return consumeBool(typ, b, &degenerate)
		case 6:
			return consumeInt(typ, b, &vertices)
		case 7:
			return consumeInt(typ, b, &triangle)
		}
		return skip
	})
	if nestedErr != nil {
		return nestedErr
	}
	if err != nil {
		return err
	}

	set(&r.SnapshotID, id)
	params.Apply(&r.Params)
	if seconds != nil || nanos != nil {
		var s, ns int64
		set(&s, seconds)
		set(&ns, nanos)
		r.GeneratedAt = time.Unix(s, ns).UTC()
	}
	set(&r.DurationMS, duration)
	set(&r.Degenerate, degenerate)
	set(&r.VertexCount, vertices)
	set(&r.TriangleCount, triangle)
	return nil
}

func (r *RegenerateRequest) appendWire(b []byte) []byte {
	if r.Params == nil {
		return b
	}
	return appendMessage(b, 1, r.Params)
}

func (r *RegenerateRequest) unmarshalWire(b []byte) error {
	*r = RegenerateRequest{}
	var nestedErr error
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num != 1 {
			return skip
		}
		r.Params = new(ParamsPatch)
		return consumeMessage(typ, b, r.Params, &nestedErr)
	})
	if nestedErr != nil {
		return nestedErr
	}
	return err
}

func (r *ReseedRequest) appendWire(b []byte) []byte {
	return appendOptInt(b, 1, r.Seed)
}

func (r *ReseedRequest) unmarshalWire(b []byte) error {
	*r = ReseedRequest{}
	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num != 1 {
			return skip
		}
		return consumeInt(typ, b, &r.Seed)
	})
}

func (r *GetMeshRequest) appendWire(b []byte) []byte {
	return appendString(b, 1, r.SnapshotID)
}

func (r *GetMeshRequest) unmarshalWire(b []byte) error {
	*r = GetMeshRequest{}
	var id *string
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		if num != 1 {
			return skip
		}
		return consumeString(typ, b, &id)
	})
	set(&r.SnapshotID, id)
	return err
}

func (r *GetMeshResponse) appendWire(b []byte) []byte {
	b = appendString(b, 1, r.SnapshotID)
	if len(r.Mesh) > 0 {
		b = protowire.AppendTag(b, 2, protowire.BytesType)
		b = protowire.AppendBytes(b, r.Mesh)
	}
	return b
}

func (r *GetMeshResponse) unmarshalWire(b []byte) error {
	*r = GetMeshResponse{}
	var id *string
	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) int {
		switch num {
		case 1:
			return consumeString(typ, b, &id)
		case 2:
			if typ != protowire.BytesType {
				return badType
			}
			v, n := protowire.ConsumeBytes(b)
			if n >= 0 {
				r.Mesh = append([]byte(nil), v...)
			}
			return n
		}
		return skip
	})
	set(&r.SnapshotID, id)
	return err
}

const (
	// skip asks consumeFields to step over an unknown field.
	skip = math.MinInt
	// badType reports a known field with an unexpected wire type.
	badType = math.MinInt + 1
)

// consumeFields walks b tag by tag. field returns the bytes it consumed, a
// negative protowire error, skip or badType.
func consumeFields(b []byte, field func(protowire.Number, protowire.Type, []byte) int) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: tag: %v", wire.ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		switch n = field(num, typ, b); n {
		case skip:
			n = protowire.ConsumeFieldValue(num, typ, b)
		case badType:
			return fmt.Errorf("%w: field %d has wire type %d", wire.ErrMalformed, num, typ)
		}
		if n < 0 {
			return fmt.Errorf("%w: field %d: %v", wire.ErrMalformed, num, protowire.ParseError(n))
		}
		b = b[n:]
	}
	return nil
}

type integer interface{ ~int | ~int64 }

func appendOptInt[T integer](b []byte, num protowire.Number, v *T) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(int64(*v)))
}

func appendOptDouble(b []byte, num protowire.Number, v *float64) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(*v))
}

func appendOptBool(b []byte, num protowire.Number, v *bool) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(*v))
}

func appendOptString(b []byte, num protowire.Number, v *string) []byte {
	if v == nil {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, *v)
}

// appendString follows proto3 implicit presence and omits "".
func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	return appendOptString(b, num, &v)
}

func appendMessage(b []byte, num protowire.Number, m wireMessage) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m.appendWire(nil))
}

func consumeInt[T integer](typ protowire.Type, b []byte, dst **T) int {
	if typ != protowire.VarintType {
		return badType
	}
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		x := T(int64(v))
		*dst = &x
	}
	return n
}

func consumeDouble(typ protowire.Type, b []byte, dst **float64) int {
	if typ != protowire.Fixed64Type {
		return badType
	}
	v, n := protowire.ConsumeFixed64(b)
	if n >= 0 {
		x := math.Float64frombits(v)
		*dst = &x
	}
	return n
}

func consumeBool(typ protowire.Type, b []byte, dst **bool) int {
	if typ != protowire.VarintType {
		return badType
	}
	v, n := protowire.ConsumeVarint(b)
	if n >= 0 {
		x := protowire.DecodeBool(v)
		*dst = &x
	}
	return n
}

func consumeString(typ protowire.Type, b []byte, dst **string) int {
	if typ != protowire.BytesType {
		return badType
	}
	v, n := protowire.ConsumeString(b)
	if n >= 0 {
		*dst = &v
	}
	return n
}

// consumeMessage decodes an embedded message into m. Decoding errors of the
// embedded message land in errp.
func consumeMessage(typ protowire.Type, b []byte, m wireMessage, errp *error) int {
	if typ != protowire.BytesType {
		return badType
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return n
	}
	if err := m.unmarshalWire(v); err != nil {
		*errp = err
		return badType
	}
	return n
}
