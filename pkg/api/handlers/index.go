package handlers

import (
	"fmt"
	"net/http"
)

// BuildInfo describes the running binary. Values are injected at build time.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

// IndexHandler serves the banner and version endpoints.
type IndexHandler struct {
	build BuildInfo
}

// NewIndexHandler creates a new index handler.
func NewIndexHandler(build BuildInfo) *IndexHandler {
	return &IndexHandler{build: build}
}

// Banner handles GET /.
func (h *IndexHandler) Banner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "gatehouse %s\n", h.build.Version)
}

// Version handles GET /version.
func (h *IndexHandler) Version(w http.ResponseWriter, r *http.Request) {
	WriteJSONOK(w, h.build)
}
