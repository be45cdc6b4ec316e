package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionRevoker provides a session denylist backed by Redis.
// Key format: session_revoked:<uid>
type SessionRevoker struct {
	client *redis.Client
}

// NewSessionRevoker creates a SessionRevoker wrapping the given Redis client.
func NewSessionRevoker(client *redis.Client) *SessionRevoker {
	return &SessionRevoker{client: client}
}

// Revoke denylists every token issued to uid until the TTL expires.
func (s *SessionRevoker) Revoke(ctx context.Context, uid string, ttl time.Duration) error {
	return s.client.Set(ctx, s.key(uid), "1", ttl).Err()
}

// Restore lifts the denylist entry for uid, if any.
func (s *SessionRevoker) Restore(ctx context.Context, uid string) error {
	return s.client.Del(ctx, s.key(uid)).Err()
}

// IsRevoked reports whether tokens for uid are currently denylisted.
func (s *SessionRevoker) IsRevoked(ctx context.Context, uid string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(uid)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func (s *SessionRevoker) key(uid string) string {
	return fmt.Sprintf("session_revoked:%s", uid)
}
