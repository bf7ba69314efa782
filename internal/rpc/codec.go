package rpc

import (
	"fmt"

	"google.golang.org/grpc/encoding"
	grpcproto "google.golang.org/grpc/encoding/proto"
	"google.golang.org/grpc/mem"
)

func init() {
	encoding.RegisterCodecV2(wireCodec{fallback: encoding.GetCodecV2(grpcproto.Name)})
}

// wireCodec serves the "proto" content-subtype. Terrain messages encode
// themselves with protowire; anything else (health, reflection) goes to the
// stock protobuf codec.
type wireCodec struct {
	fallback encoding.CodecV2
}

func (c wireCodec) Marshal(v any) (mem.BufferSlice, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return c.fallback.Marshal(v)
	}
	return mem.BufferSlice{mem.SliceBuffer(m.appendWire(nil))}, nil
}

func (c wireCodec) Unmarshal(data mem.BufferSlice, v any) error {
	m, ok := v.(wireMessage)
	if !ok {
		return c.fallback.Unmarshal(data, v)
	}
	if err := m.unmarshalWire(data.Materialize()); err != nil {
		return fmt.Errorf("%s codec: %w", grpcproto.Name, err)
	}
	return nil
}

func (wireCodec) Name() string {
	return grpcproto.Name
}
