package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/VoidMesh/terrain/internal/heightfield"
	"github.com/VoidMesh/terrain/internal/logging"
	"github.com/VoidMesh/terrain/internal/mesh"
	"github.com/VoidMesh/terrain/internal/noise"
	"github.com/VoidMesh/terrain/internal/terrain"
	"github.com/VoidMesh/terrain/internal/wire"
)

// Terrain is the part of terrain.Manager the handlers use.
type Terrain interface {
	Current() *terrain.Snapshot
	Params() terrain.Params
	Regenerate(ctx context.Context, p terrain.Params) (*terrain.Snapshot, error)
	Reseed(ctx context.Context, seed int64) (*terrain.Snapshot, error)
	Load(ctx context.Context, id uuid.UUID) (*terrain.Snapshot, error)
	List(ctx context.Context, limit int) ([]terrain.Record, error)
}

type Handler struct {
	terrain Terrain
	logger  logging.Interface
}

func NewHandler(t Terrain, logger logging.Interface) *Handler {
	return &Handler{
		terrain: t,
		logger:  logger.With("component", "http-api"),
	}
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// TerrainSummary describes a snapshot without its bulk data.
type TerrainSummary struct {
	ID            uuid.UUID      `json:"id"`
	Params        terrain.Params `json:"params"`
	GeneratedAt   time.Time      `json:"generated_at"`
	DurationMS    float64        `json:"duration_ms"`
	Length        int            `json:"length"`
	Width         int            `json:"width"`
	RawMin        float64        `json:"raw_min"`
	RawMax        float64        `json:"raw_max"`
	Degenerate    bool           `json:"degenerate"`
	VertexCount   int            `json:"vertex_count"`
	TriangleCount int            `json:"triangle_count"`
}

// HeightsResponse is the normalized height grid, row-major.
type HeightsResponse struct {
	ID         uuid.UUID `json:"id"`
	Length     int       `json:"length"`
	Width      int       `json:"width"`
	Degenerate bool      `json:"degenerate"`
	Values     []float64 `json:"values"`
}

// SnapshotRecord is one entry of the stored history.
type SnapshotRecord struct {
	ID         uuid.UUID      `json:"id"`
	Params     terrain.Params `json:"params"`
	DurationMS float64        `json:"duration_ms"`
	CreatedAt  time.Time      `json:"created_at"`
}

type reseedRequest struct {
	Seed *int64 `json:"seed"`
}

func summarize(snap *terrain.Snapshot) TerrainSummary {
	return TerrainSummary{
		ID:            snap.ID,
		Params:        snap.Params,
		GeneratedAt:   snap.GeneratedAt,
		DurationMS:    milliseconds(snap.Duration),
		Length:        snap.Heights.Length,
		Width:         snap.Heights.Width,
		RawMin:        snap.Heights.Min,
		RawMax:        snap.Heights.Max,
		Degenerate:    snap.Heights.Degenerate,
		VertexCount:   snap.Mesh.VertexCount(),
		TriangleCount: len(snap.Mesh.Triangles),
	}
}

func milliseconds(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
		"service":   "voidmesh-terrain",
		"version":   "1.0.0",
	}
	if snap := h.terrain.Current(); snap != nil {
		response["snapshot_id"] = snap.ID
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response)
}

func (h *Handler) GetTerrain(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.current(w, r)
	if !ok {
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, summarize(snap))
}

func (h *Handler) GetHeights(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.current(w, r)
	if !ok {
		return
	}
	render.Status(r, http.StatusOK)
	render.JSON(w, r, HeightsResponse{
		ID:         snap.ID,
		Length:     snap.Heights.Length,
		Width:      snap.Heights.Width,
		Degenerate: snap.Heights.Degenerate,
		Values:     snap.Heights.Values,
	})
}

// GetMesh returns the mesh as JSON, or in the protobuf wire format when the
// client accepts it.
func (h *Handler) GetMesh(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.current(w, r)
	if !ok {
		return
	}

	if strings.Contains(r.Header.Get("Accept"), wire.MeshContentType) {
		body := wire.EncodeMesh(snap.Mesh)
		w.Header().Set("Content-Type", wire.MeshContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(body)))
		w.Header().Set("X-Snapshot-ID", snap.ID.String())
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(body); err != nil {
			h.logger.Debug("Failed to write mesh", "error", err)
		}
		return
	}

	w.Header().Set("X-Snapshot-ID", snap.ID.String())
	render.Status(r, http.StatusOK)
	render.JSON(w, r, snap.Mesh)
}

// Regenerate decodes a partial Params body over the current params, so
// omitted fields keep their values.
func (h *Handler) Regenerate(w http.ResponseWriter, r *http.Request) {
	p := h.terrain.Params()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		h.renderError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	snap, err := h.terrain.Regenerate(r.Context(), p)
	if err != nil {
		h.renderError(w, r, statusFor(err), "failed to regenerate terrain", err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, summarize(snap))
}

// Reseed regenerates with a new seed, derived from the clock when the body
// omits one.
func (h *Handler) Reseed(w http.ResponseWriter, r *http.Request) {
	var req reseedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.renderError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	seed := terrain.TimeSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	snap, err := h.terrain.Reseed(r.Context(), seed)
	if err != nil {
		h.renderError(w, r, statusFor(err), "failed to reseed terrain", err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, summarize(snap))
}

func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			h.renderError(w, r, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = n
	}

	records, err := h.terrain.List(r.Context(), limit)
	if err != nil {
		h.renderError(w, r, statusFor(err), "failed to list snapshots", err)
		return
	}

	out := make([]SnapshotRecord, len(records))
	for i, rec := range records {
		out[i] = SnapshotRecord{
			ID:         rec.ID,
			Params:     rec.Params,
			DurationMS: milliseconds(rec.Duration),
			CreatedAt:  rec.CreatedAt,
		}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, map[string]interface{}{
		"snapshots": out,
		"count":     len(out),
	})
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, r, http.StatusBadRequest, "invalid snapshot id", err)
		return
	}

	snap, err := h.terrain.Load(r.Context(), id)
	if err != nil {
		h.renderError(w, r, statusFor(err), "failed to load snapshot", err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, summarize(snap))
}

func (h *Handler) current(w http.ResponseWriter, r *http.Request) (*terrain.Snapshot, bool) {
	snap := h.terrain.Current()
	if snap == nil {
		h.renderError(w, r, http.StatusNotFound, "no terrain generated yet", terrain.ErrNoTerrain)
		return nil, false
	}
	return snap, true
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, heightfield.ErrInvalidParameter),
		errors.Is(err, mesh.ErrInvalidDimensions),
		errors.Is(err, mesh.ErrInvalidOptions),
		errors.Is(err, mesh.ErrInvalidBands),
		errors.Is(err, noise.ErrUnknownKind):
		return http.StatusBadRequest
	case errors.Is(err, terrain.ErrSnapshotNotFound),
		errors.Is(err, terrain.ErrNoTerrain):
		return http.StatusNotFound
	case errors.Is(err, terrain.ErrNoStore):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	errorResponse := ErrorResponse{
		Error:   message,
		Code:    status,
		Message: message,
	}

	if err != nil {
		if status >= 500 {
			h.logger.Error("API error", "error", err, "message", message, "status", status)
			// Don't expose internal errors to the client
			if status == http.StatusInternalServerError {
				errorResponse.Error = "Internal server error"
			}
		} else {
			h.logger.Debug("API error", "error", err, "message", message, "status", status)
			errorResponse.Message = fmt.Sprintf("%s: %v", message, err)
		}
	}

	render.Status(r, status)
	render.JSON(w, r, errorResponse)
}
