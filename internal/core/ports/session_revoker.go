package ports

import (
	"context"
	"time"
)

// SessionRevoker is the denylist consulted on every authenticated request.
// Revoking a uid invalidates all tokens issued to it until they would have
// expired anyway, which is how a mid-session ban takes effect immediately.
type SessionRevoker interface {
	Revoke(ctx context.Context, uid string, ttl time.Duration) error
	// Restore lifts a revocation, e.g. after an unban.
	Restore(ctx context.Context, uid string) error
	IsRevoked(ctx context.Context, uid string) (bool, error)
}
