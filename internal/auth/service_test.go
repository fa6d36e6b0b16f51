package auth_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/cohortlabs/oracle/internal/auth"
)

const testBcryptCost = 4 // low cost for fast tests

// --- In-memory ClientRepository ---

type memClients struct {
	mu      sync.Mutex
	clients []auth.Client
	err     error
}

func (m *memClients) Create(_ context.Context, c *auth.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	m.clients = append(m.clients, *c)
	return nil
}

func (m *memClients) FindByPrefix(_ context.Context, prefix string) ([]auth.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := []auth.Client{}
	for _, c := range m.clients {
		if c.KeyPrefix == prefix && c.RevokedAt == nil {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memClients) Revoke(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.clients {
		if m.clients[i].ID == id {
			if m.clients[i].RevokedAt != nil {
				return auth.ErrClientRevoked
			}
			now := time.Now()
			m.clients[i].RevokedAt = &now
			return nil
		}
	}
	return auth.ErrClientNotFound
}

func (m *memClients) CountAll(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return len(m.clients), nil
}

// --- GenerateKey ---

func TestGenerateKey_Format(t *testing.T) {
	svc := auth.NewService(&memClients{}, testBcryptCost)

	rawKey, prefix, hash, err := svc.GenerateKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rawKey, "orcl_"), "raw key should start with orcl_")
	assert.Len(t, prefix, 8, "prefix should be 8 characters")
	assert.Equal(t, rawKey[:8], prefix)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawKey)), "hash should verify against raw key")
}

func TestGenerateKey_Uniqueness(t *testing.T) {
	svc := auth.NewService(&memClients{}, testBcryptCost)

	key1, _, _, err := svc.GenerateKey()
	require.NoError(t, err)
	key2, _, _, err := svc.GenerateKey()
	require.NoError(t, err)

	assert.NotEqual(t, key1, key2, "generated keys should be unique")
}

// --- Authenticate ---

func TestAuthenticate(t *testing.T) {
	repo := &memClients{}
	svc := auth.NewService(repo, testBcryptCost)
	ctx := context.Background()

	rawKey, err := svc.BootstrapClient(ctx, "chat-ui")
	require.NoError(t, err)
	require.NotEmpty(t, rawKey)

	identity, err := svc.Authenticate(ctx, rawKey)
	require.NoError(t, err)
	assert.Equal(t, "chat-ui", identity.ClientName)
	assert.Equal(t, repo.clients[0].ID, identity.ClientID)

	// Same prefix, different secret.
	_, err = svc.Authenticate(ctx, rawKey[:8]+"tampered")
	assert.ErrorIs(t, err, auth.ErrInvalidKey)

	_, err = svc.Authenticate(ctx, "short")
	assert.ErrorIs(t, err, auth.ErrInvalidKey)

	require.NoError(t, repo.Revoke(ctx, identity.ClientID))
	_, err = svc.Authenticate(ctx, rawKey)
	assert.ErrorIs(t, err, auth.ErrInvalidKey, "revoked clients cannot authenticate")
}

func TestAuthenticate_StoreError(t *testing.T) {
	svc := auth.NewService(&memClients{err: errors.New("connection refused")}, testBcryptCost)

	_, err := svc.Authenticate(context.Background(), "orcl_abcdefghijkl")

	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrInvalidKey)
}

// --- BootstrapClient ---

func TestBootstrapClient_OnlyOnce(t *testing.T) {
	repo := &memClients{}
	svc := auth.NewService(repo, testBcryptCost)
	ctx := context.Background()

	first, err := svc.BootstrapClient(ctx, "bootstrap")
	require.NoError(t, err)
	assert.NotEmpty(t, first)

	second, err := svc.BootstrapClient(ctx, "bootstrap")
	require.NoError(t, err)
	assert.Empty(t, second, "no key is generated once a client exists")
	assert.Len(t, repo.clients, 1)
}
