package rpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"github.com/VoidMesh/terrain/internal/heightfield"
	"github.com/VoidMesh/terrain/internal/logging"
	"github.com/VoidMesh/terrain/internal/mesh"
	"github.com/VoidMesh/terrain/internal/noise"
	"github.com/VoidMesh/terrain/internal/terrain"
	"github.com/VoidMesh/terrain/internal/wire"
)

// TerrainHandler implements TerrainServiceServer on a terrain.Manager.
type TerrainHandler struct {
	manager *terrain.Manager
	logger  logging.Interface
}

// NewTerrainHandler creates a new terrain handler
func NewTerrainHandler(manager *terrain.Manager, logger logging.Interface) *TerrainHandler {
	return &TerrainHandler{
		manager: manager,
		logger:  logger.With("component", "terrain-rpc"),
	}
}

// NewServer builds a gRPC server with the terrain, health and reflection
// services registered. An empty secret disables authentication.
func NewServer(manager *terrain.Manager, jwtSecret []byte, logger logging.Interface) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{RecoveryInterceptor(logger)}
	if len(jwtSecret) > 0 {
		interceptors = append(interceptors, JWTAuthInterceptor(jwtSecret))
	}
	g := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))

	// Register reflection service
	reflection.Register(g)

	// Register health check service
	hs := health.NewServer()
	hs.SetServingStatus(ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(g, hs)

	RegisterTerrainServiceServer(g, NewTerrainHandler(manager, logger))
	return g
}

func (h *TerrainHandler) GetTerrain(ctx context.Context, req *GetTerrainRequest) (*TerrainResponse, error) {
	snap := h.manager.Current()
	if snap == nil {
		return nil, toStatus(terrain.ErrNoTerrain)
	}
	return describe(snap), nil
}

func (h *TerrainHandler) Regenerate(ctx context.Context, req *RegenerateRequest) (*TerrainResponse, error) {
	p := h.manager.Params()
	req.Params.Apply(&p)

	h.logger.Debug("Regenerating terrain", "seed", p.Seed)
	snap, err := h.manager.Regenerate(ctx, p)
	if err != nil {
		return nil, toStatus(err)
	}
	return describe(snap), nil
}

func (h *TerrainHandler) Reseed(ctx context.Context, req *ReseedRequest) (*TerrainResponse, error) {
	seed := terrain.TimeSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	h.logger.Debug("Reseeding terrain", "seed", seed)
	snap, err := h.manager.Reseed(ctx, seed)
	if err != nil {
		return nil, toStatus(err)
	}
	return describe(snap), nil
}

func (h *TerrainHandler) GetMesh(ctx context.Context, req *GetMeshRequest) (*GetMeshResponse, error) {
	id, stored, err := parseSnapshotID(req.SnapshotID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid snapshot id: %v", err)
	}

	var snap *terrain.Snapshot
	if stored {
		snap, err = h.manager.Load(ctx, id)
		if err != nil {
			return nil, toStatus(err)
		}
	} else if snap = h.manager.Current(); snap == nil {
		return nil, toStatus(terrain.ErrNoTerrain)
	}

	return &GetMeshResponse{
		SnapshotID: snap.ID.String(),
		Mesh:       wire.EncodeMesh(snap.Mesh),
	}, nil
}

func describe(snap *terrain.Snapshot) *TerrainResponse {
	return &TerrainResponse{
		SnapshotID:    snap.ID.String(),
		Params:        snap.Params,
		GeneratedAt:   snap.GeneratedAt,
		DurationMS:    float64(snap.Duration.Microseconds()) / 1000,
		Degenerate:    snap.Heights.Degenerate,
		VertexCount:   snap.Mesh.VertexCount(),
		TriangleCount: len(snap.Mesh.Triangles),
	}
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, heightfield.ErrInvalidParameter),
		errors.Is(err, mesh.ErrInvalidDimensions),
		errors.Is(err, mesh.ErrInvalidOptions),
		errors.Is(err, mesh.ErrInvalidBands),
		errors.Is(err, noise.ErrUnknownKind):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, terrain.ErrSnapshotNotFound),
		errors.Is(err, terrain.ErrNoTerrain):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, terrain.ErrNoStore):
		return status.Error(codes.Unimplemented, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
