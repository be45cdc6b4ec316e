package ports

import (
	"context"

	"github.com/visualcraft/marketplace/internal/core/domain"
)

// AdminUserInput carries the moderation fields an administrator may change on
// another account. Nil fields are left unchanged.
type AdminUserInput struct {
	Role   *string
	Banned *bool
	Muted  *bool
}

// AdminService defines user moderation. Owner accounts are never a valid
// target: there is no downgrade path for them, enforced here at the dispatch
// boundary rather than in the permission model.
type AdminService interface {
	ListUsers(ctx context.Context, caller Caller) (map[string]*domain.User, error)
	UpdateUser(ctx context.Context, caller Caller, uid string, in AdminUserInput) error
	DeleteUser(ctx context.Context, caller Caller, uid string) error
}
