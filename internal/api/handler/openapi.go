package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"sync"

	"sigs.k8s.io/yaml"

	"github.com/cohortlabs/oracle/internal/api/middleware"
	"github.com/cohortlabs/oracle/internal/api/response"
)

// OpenAPIHandler serves the embedded API description as JSON.
type OpenAPIHandler struct {
	rawYAML []byte

	once sync.Once
	body []byte
	etag string
	err  error
}

// NewOpenAPIHandler creates a handler for a YAML document. Conversion to
// JSON happens once, on the first request.
func NewOpenAPIHandler(yamlSpec []byte) *OpenAPIHandler {
	return &OpenAPIHandler{rawYAML: yamlSpec}
}

func (h *OpenAPIHandler) load() {
	h.body, h.err = yaml.YAMLToJSON(h.rawYAML)
	if h.err == nil {
		sum := sha256.Sum256(h.body)
		h.etag = `"` + hex.EncodeToString(sum[:8]) + `"`
	}
}

// ServeHTTP writes the document. Clients revalidating with If-None-Match get
// a 304 while the document is unchanged.
func (h *OpenAPIHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.once.Do(h.load)

	if h.err != nil {
		slog.Error("failed to convert API description to JSON", "error", h.err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load API description", middleware.GetRequestID(r.Context()))
		return
	}

	w.Header().Set("ETag", h.etag)
	w.Header().Set("Cache-Control", "public, max-age=300")
	if r.Header.Get("If-None-Match") == h.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.body); err != nil {
		slog.Error("failed to write API description", "error", err)
	}
}
