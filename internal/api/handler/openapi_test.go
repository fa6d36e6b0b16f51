package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	specpkg "github.com/cohortlabs/oracle/api"
	"github.com/cohortlabs/oracle/internal/api/handler"
)

func TestOpenAPIHandler_ReturnsJSON(t *testing.T) {
	t.Parallel()

	yamlSpec := []byte(`openapi: "3.1.0"
info:
  title: Test API
  version: "1.0.0"
paths: {}
`)
	h := handler.NewOpenAPIHandler(yamlSpec)
	req, w := makeRequest(http.MethodGet, "/openapi.json", nil)

	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get("ETag"))

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result), "response should be valid JSON")
	assert.Equal(t, "3.1.0", result["openapi"])
	info := result["info"].(map[string]interface{})
	assert.Equal(t, "Test API", info["title"])
}

func TestOpenAPIHandler_NotModified(t *testing.T) {
	t.Parallel()

	h := handler.NewOpenAPIHandler([]byte("openapi: \"3.1.0\"\npaths: {}\n"))

	first, w1 := makeRequest(http.MethodGet, "/openapi.json", nil)
	h.ServeHTTP(w1, first)
	etag := w1.Header().Get("ETag")
	require.NotEmpty(t, etag)

	second, w2 := makeRequest(http.MethodGet, "/openapi.json", nil)
	second.Header.Set("If-None-Match", etag)
	h.ServeHTTP(w2, second)

	assert.Equal(t, http.StatusNotModified, w2.Code)
	assert.Empty(t, w2.Body.Bytes())
}

func TestOpenAPIHandler_InvalidYAML_Returns500(t *testing.T) {
	t.Parallel()

	h := handler.NewOpenAPIHandler([]byte(`{{{not yaml at all}}}`))
	req, w := makeRequest(http.MethodGet, "/openapi.json", nil)

	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env := parseEnvelope(t, w)
	assert.Equal(t, "INTERNAL_ERROR", env["error"].(map[string]interface{})["code"])
}

func TestOpenAPIHandler_EmbeddedDocumentCoversRoutes(t *testing.T) {
	t.Parallel()

	h := handler.NewOpenAPIHandler(specpkg.OpenAPISpec)
	req, w := makeRequest(http.MethodGet, "/openapi.json", nil)

	h.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var doc struct {
		Paths map[string]map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))

	for path, method := range map[string]string{
		"/health":              "get",
		"/openapi.json":        "get",
		"/oracle":              "post",
		"/bridge/interactions": "post",
	} {
		require.Contains(t, doc.Paths, path)
		assert.Contains(t, doc.Paths[path], method, "path %s", path)
	}
}
