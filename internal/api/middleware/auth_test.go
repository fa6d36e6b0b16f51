package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cohortlabs/oracle/internal/api/middleware"
	"github.com/cohortlabs/oracle/internal/auth"
)

// --- Mock Authenticator ---

type mockAuthenticator struct {
	authenticateFn func(ctx context.Context, rawKey string) (*auth.Identity, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, rawKey string) (*auth.Identity, error) {
	return m.authenticateFn(ctx, rawKey)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env["error"].(map[string]interface{})["code"].(string)
}

func TestAuth_MissingKey(t *testing.T) {
	called := false
	authn := &mockAuthenticator{authenticateFn: func(context.Context, string) (*auth.Identity, error) {
		called = true
		return nil, nil
	}}
	handler := middleware.Auth(authn)(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/oracle", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
	assert.False(t, called)
}

func TestAuth_InvalidKey(t *testing.T) {
	authn := &mockAuthenticator{authenticateFn: func(context.Context, string) (*auth.Identity, error) {
		return nil, auth.ErrInvalidKey
	}}
	handler := middleware.Auth(authn)(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/oracle", nil)
	req.Header.Set("X-API-Key", "orcl_wrong")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))
}

func TestAuth_StoreError(t *testing.T) {
	authn := &mockAuthenticator{authenticateFn: func(context.Context, string) (*auth.Identity, error) {
		return nil, errors.New("connection reset")
	}}
	handler := middleware.Auth(authn)(okHandler())
	req := httptest.NewRequest(http.MethodPost, "/oracle", nil)
	req.Header.Set("X-API-Key", "orcl_something")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, w))
}

func TestAuth_ValidKeyStoresIdentity(t *testing.T) {
	clientID := uuid.New()
	authn := &mockAuthenticator{authenticateFn: func(_ context.Context, rawKey string) (*auth.Identity, error) {
		assert.Equal(t, "orcl_good", rawKey)
		return &auth.Identity{ClientID: clientID, ClientName: "chat-ui"}, nil
	}}

	var got *auth.Identity
	handler := middleware.Auth(authn)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = middleware.GetIdentity(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/oracle", nil)
	req.Header.Set("X-API-Key", "orcl_good")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, clientID, got.ClientID)
	assert.Equal(t, "chat-ui", got.ClientName)
}

func TestGetIdentity_EmptyContext(t *testing.T) {
	assert.Nil(t, middleware.GetIdentity(context.Background()))
}
