package rpc

import (
	"context"
	"errors"
	"slices"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/VoidMesh/terrain/internal/auth"
	"github.com/VoidMesh/terrain/internal/logging"
)

// JWTAuthInterceptor creates a gRPC interceptor for JWT authentication
func JWTAuthInterceptor(jwtSecret []byte) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		// Reads and health checks skip authentication
		if isPublicMethod(info.FullMethod) {
			return handler(ctx, req)
		}

		// Extract token from metadata
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Errorf(codes.Unauthenticated, "missing metadata")
		}

		var header string
		if authorization := md.Get("authorization"); len(authorization) > 0 {
			header = authorization[0]
		} else {
			return nil, status.Errorf(codes.Unauthenticated, "missing authorization header")
		}

		ctx, err := auth.Authenticate(ctx, header, jwtSecret)
		switch {
		case errors.Is(err, auth.ErrInvalidHeader), errors.Is(err, auth.ErrMissingToken):
			return nil, status.Errorf(codes.Unauthenticated, "invalid authorization header format")
		case err != nil:
			return nil, status.Errorf(codes.Unauthenticated, "%v", err)
		}

		return handler(ctx, req)
	}
}

// isPublicMethod checks if a method should skip authentication
func isPublicMethod(method string) bool {
	publicMethods := []string{
		MethodGetTerrain,
		MethodGetMesh,
		"/grpc.health.v1.Health/Check",
		"/grpc.health.v1.Health/Watch",
	}

	return slices.Contains(publicMethods, method)
}

// RecoveryInterceptor turns a handler panic into codes.Internal so one bad
// request cannot take the server down.
func RecoveryInterceptor(logger logging.Interface) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Recovered from panic in gRPC handler", "method", info.FullMethod, "panic", r)
				resp, err = nil, status.Errorf(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}
