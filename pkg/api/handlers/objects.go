package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/marmos91/gatehouse/internal/logger"
	"github.com/marmos91/gatehouse/pkg/objects"
)

// ObjectReader is the read-only object proxy.
type ObjectReader interface {
	List(ctx context.Context, prefix string) ([]objects.Entry, error)
	Get(ctx context.Context, path string) (*objects.Object, error)
}

// ObjectsHandler serves the bucket listing and object download endpoints.
type ObjectsHandler struct {
	proxy ObjectReader
}

// NewObjectsHandler creates a new objects handler.
func NewObjectsHandler(proxy ObjectReader) *ObjectsHandler {
	return &ObjectsHandler{proxy: proxy}
}

// publicReasoner is implemented by proxy errors that carry a message safe to
// return to clients.
type publicReasoner interface {
	PublicReason() string
}

// List handles GET /s3/list_objects?path=<prefix>.
func (h *ObjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("path")

	entries, err := h.proxy.List(r.Context(), prefix)
	if err != nil {
		logger.ErrorCtx(r.Context(), "Listing objects failed", logger.Prefix(prefix), logger.Err(err))
		InternalServerError(w, publicDetail(err))
		return
	}
	WriteJSONOK(w, entries)
}

// Get handles GET /s3/get_object?path=<key>.
func (h *ObjectsHandler) Get(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")

	object, err := h.proxy.Get(r.Context(), path)
	if err != nil {
		if errors.Is(err, objects.ErrMissingPath) {
			BadRequest(w, "missing path")
			return
		}
		logger.ErrorCtx(r.Context(), "Fetching object failed", logger.Key(path), logger.Err(err))
		InternalServerError(w, publicDetail(err))
		return
	}
	WriteJSONOK(w, object)
}

func publicDetail(err error) string {
	var pr publicReasoner
	if errors.As(err, &pr) {
		return pr.PublicReason()
	}
	return objects.ReasonUpstream
}
