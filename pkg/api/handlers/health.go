package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/marmos91/gatehouse/internal/logger"
)

// HealthCheckTimeout bounds the readiness probe so a slow object store cannot
// hang it.
const HealthCheckTimeout = 5 * time.Second

// BucketProber checks that the configured bucket is reachable.
type BucketProber interface {
	HeadBucket(ctx context.Context, bucket string) error
}

// HealthHandler handles health check endpoints. They are unauthenticated.
type HealthHandler struct {
	store     BucketProber
	bucket    string
	startTime time.Time
}

// NewHealthHandler creates a new health handler. A nil store makes readiness
// always fail.
func NewHealthHandler(store BucketProber, bucket string) *HealthHandler {
	return &HealthHandler{
		store:     store,
		bucket:    bucket,
		startTime: time.Now(),
	}
}

// Liveness handles GET /health. It succeeds as long as the process serves HTTP.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(h.startTime)
	WriteJSONOK(w, healthyResponse(map[string]any{
		"service":    "gatehouse",
		"started_at": h.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// Readiness handles GET /health/ready: 200 when the bucket answers HeadBucket.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("object store not initialized"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), HealthCheckTimeout)
	defer cancel()

	start := time.Now()
	if err := h.store.HeadBucket(ctx, h.bucket); err != nil {
		logger.WarnCtx(ctx, "Readiness probe failed", logger.Bucket(h.bucket), logger.Err(err))
		WriteJSON(w, http.StatusServiceUnavailable, unhealthyResponse("bucket unreachable"))
		return
	}

	WriteJSONOK(w, healthyResponse(map[string]any{
		"bucket":  h.bucket,
		"latency": time.Since(start).String(),
	}))
}
