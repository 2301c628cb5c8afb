package redis

// Package redis provides Redis-based adapters for the dutyboard system.

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore is a Redis-backed logout denylist for session tokens.
// Tokens are stateless JWTs, so logout records the token (hashed) until its
// natural expiry; verification checks the denylist before accepting a token.
type RevocationStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRevocationStore creates a new Redis-based revocation store.
func NewRevocationStore(client redis.UniversalClient) *RevocationStore {
	return &RevocationStore{
		client: client,
		prefix: "revoked:",
	}
}

// NewRevocationStoreWithPrefix creates a revocation store with a custom key prefix.
func NewRevocationStoreWithPrefix(client redis.UniversalClient, prefix string) *RevocationStore {
	return &RevocationStore{
		client: client,
		prefix: prefix,
	}
}

// Revoke marks the raw token as revoked for the given remaining lifetime.
// A non-positive TTL means the token is already expired and needs no entry.
func (s *RevocationStore) Revoke(ctx context.Context, rawToken string, ttl time.Duration) error {
	if rawToken == "" {
		return errors.New("token cannot be empty")
	}
	if ttl <= 0 {
		return nil
	}

	return s.client.Set(ctx, s.key(rawToken), "1", ttl).Err()
}

// IsRevoked reports whether the raw token has been revoked.
func (s *RevocationStore) IsRevoked(ctx context.Context, rawToken string) (bool, error) {
	if rawToken == "" {
		return false, nil
	}

	_, err := s.client.Get(ctx, s.key(rawToken)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get: %w", err)
	}
	return true, nil
}

// key hashes the raw token so the denylist never stores usable credentials.
func (s *RevocationStore) key(rawToken string) string {
	sum := sha256.Sum256([]byte(rawToken))
	return s.prefix + hex.EncodeToString(sum[:])
}
