package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidKey is returned when the provided API key does not match any active client.
var ErrInvalidKey = errors.New("invalid or revoked API key")

// keyPrefixLen is how many leading characters of a key are stored in clear
// for lookup.
const keyPrefixLen = 8

// Service provides authentication operations.
type Service struct {
	repo       ClientRepository
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(repo ClientRepository, bcryptCost int) *Service {
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
	}
}

// GenerateKey creates a new API key. Returns the raw key, its lookup prefix
// and the bcrypt hash. The raw key is 32 random bytes, base64url encoded,
// with "orcl_" prepended.
func (s *Service) GenerateKey() (rawKey, prefix, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	rawKey = "orcl_" + base64.RawURLEncoding.EncodeToString(b)
	prefix = rawKey[:keyPrefixLen]

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(rawKey), s.bcryptCost)
	if err != nil {
		return "", "", "", fmt.Errorf("hashing key: %w", err)
	}

	return rawKey, prefix, string(hashBytes), nil
}

// Authenticate resolves a raw API key to an Identity. It extracts the prefix,
// looks up candidates and bcrypt-compares each one.
func (s *Service) Authenticate(ctx context.Context, rawKey string) (*Identity, error) {
	if len(rawKey) < keyPrefixLen {
		return nil, ErrInvalidKey
	}

	candidates, err := s.repo.FindByPrefix(ctx, rawKey[:keyPrefixLen])
	if err != nil {
		return nil, fmt.Errorf("finding api clients by prefix: %w", err)
	}

	for _, c := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(c.KeyHash), []byte(rawKey)) == nil {
			return &Identity{ClientID: c.ID, ClientName: c.Name}, nil
		}
	}

	return nil, ErrInvalidKey
}

// BootstrapClient creates the first API client if none exist. Returns the
// raw key (only displayed once), or "" when clients already exist.
func (s *Service) BootstrapClient(ctx context.Context, name string) (string, error) {
	count, err := s.repo.CountAll(ctx)
	if err != nil {
		return "", fmt.Errorf("counting api clients: %w", err)
	}
	if count > 0 {
		return "", nil
	}

	rawKey, prefix, hash, err := s.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("generating bootstrap key: %w", err)
	}

	if err := s.repo.Create(ctx, &Client{Name: name, KeyPrefix: prefix, KeyHash: hash}); err != nil {
		return "", fmt.Errorf("creating bootstrap client: %w", err)
	}

	slog.Info("bootstrap API client created", "name", name, "key", rawKey)
	return rawKey, nil
}
