package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/VoidMesh/terrain/internal/auth"
	"github.com/VoidMesh/terrain/internal/logging"
)

func SetupMiddleware(requestTimeout time.Duration) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		// Request ID for tracing
		middleware.RequestID,

		middleware.RealIP,

		// Logging middleware
		middleware.Logger,

		// Recovery middleware
		middleware.Recoverer,

		// CORS middleware for public API
		cors.Handler(cors.Options{
			AllowedOrigins:   []string{"*"},
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: false,
			MaxAge:           300,
		}),

		middleware.Timeout(requestTimeout),
	}
}

// ThrottleGenerations bounds concurrent regeneration requests. Generations
// run one at a time in the manager, so extra requests wait in the backlog.
func ThrottleGenerations(limit int) func(http.Handler) http.Handler {
	return middleware.ThrottleBacklog(limit, limit*4, time.Minute)
}

// RequireToken rejects requests without a valid bearer token signed with
// secret. A nil or empty secret disables the check.
func RequireToken(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if len(secret) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := auth.Authenticate(r.Context(), r.Header.Get("Authorization"), secret)
			if err != nil {
				logging.GetLogger().Debug("Authentication failed", "error", err, "ip", r.RemoteAddr)
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, ErrorResponse{
					Error:   "unauthorized",
					Code:    http.StatusUnauthorized,
					Message: err.Error(),
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
