// Package rpc exposes the terrain manager over gRPC.
//
// The service is declared by hand and its messages encode themselves in the
// protobuf wire format, so standard gRPC clients can call it without this
// package generating any code. Meshes travel in the format of package wire
// inside GetMeshResponse.
package rpc

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"

	"github.com/VoidMesh/terrain/internal/terrain"
)

const (
	ServiceName = "voidmesh.terrain.v1.TerrainService"

	MethodGetTerrain = "/" + ServiceName + "/GetTerrain"
	MethodRegenerate = "/" + ServiceName + "/Regenerate"
	MethodReseed     = "/" + ServiceName + "/Reseed"
	MethodGetMesh    = "/" + ServiceName + "/GetMesh"
)

type GetTerrainRequest struct{}

// TerrainResponse describes one snapshot without its bulk data.
type TerrainResponse struct {
	SnapshotID    string
	Params        terrain.Params
	GeneratedAt   time.Time
	DurationMS    float64
	Degenerate    bool
	VertexCount   int
	TriangleCount int
}

// RegenerateRequest carries a partial parameter set; absent fields keep
// their current values.
type RegenerateRequest struct {
	Params *ParamsPatch
}

// ReseedRequest picks a time-based seed when Seed is nil.
type ReseedRequest struct {
	Seed *int64
}

// GetMeshRequest returns the current mesh, or a stored one by ID.
type GetMeshRequest struct {
	SnapshotID string
}

type GetMeshResponse struct {
	SnapshotID string
	// Mesh is encoded with wire.EncodeMesh.
	Mesh []byte
}

// TerrainServiceServer is the server API for the terrain service.
type TerrainServiceServer interface {
	GetTerrain(context.Context, *GetTerrainRequest) (*TerrainResponse, error)
	Regenerate(context.Context, *RegenerateRequest) (*TerrainResponse, error)
	Reseed(context.Context, *ReseedRequest) (*TerrainResponse, error)
	GetMesh(context.Context, *GetMeshRequest) (*GetMeshResponse, error)
}

// TerrainServiceDesc describes the service to grpc.Server.
var TerrainServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TerrainServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetTerrain", Handler: getTerrainHandler},
		{MethodName: "Regenerate", Handler: regenerateHandler},
		{MethodName: "Reseed", Handler: reseedHandler},
		{MethodName: "GetMesh", Handler: getMeshHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "voidmesh/terrain/v1/terrain.proto",
}

func RegisterTerrainServiceServer(s grpc.ServiceRegistrar, srv TerrainServiceServer) {
	s.RegisterService(&TerrainServiceDesc, srv)
}

// unary wires one method through an optional interceptor the way generated
// handlers do.
func unary[Req any, Resp any](
	method string,
	call func(TerrainServiceServer, context.Context, *Req) (*Resp, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(TerrainServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: method,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(TerrainServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var (
	getTerrainHandler = unary(MethodGetTerrain, TerrainServiceServer.GetTerrain)
	regenerateHandler = unary(MethodRegenerate, TerrainServiceServer.Regenerate)
	reseedHandler     = unary(MethodReseed, TerrainServiceServer.Reseed)
	getMeshHandler    = unary(MethodGetMesh, TerrainServiceServer.GetMesh)
)

// Client calls the terrain service over a connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in, out wireMessage, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *Client) GetTerrain(ctx context.Context, in *GetTerrainRequest, opts ...grpc.CallOption) (*TerrainResponse, error) {
	out := new(TerrainResponse)
	if err := c.invoke(ctx, MethodGetTerrain, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Regenerate(ctx context.Context, in *RegenerateRequest, opts ...grpc.CallOption) (*TerrainResponse, error) {
	out := new(TerrainResponse)
	if err := c.invoke(ctx, MethodRegenerate, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Reseed(ctx context.Context, in *ReseedRequest, opts ...grpc.CallOption) (*TerrainResponse, error) {
	out := new(TerrainResponse)
	if err := c.invoke(ctx, MethodReseed, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetMesh(ctx context.Context, in *GetMeshRequest, opts ...grpc.CallOption) (*GetMeshResponse, error) {
	out := new(GetMeshResponse)
	if err := c.invoke(ctx, MethodGetMesh, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// parseSnapshotID accepts an empty string as "current".
func parseSnapshotID(s string) (uuid.UUID, bool, error) {
	if s == "" {
		return uuid.Nil, false, nil
	}
	id, err := uuid.Parse(s)
	return id, true, err
}
