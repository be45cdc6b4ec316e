package ports

import (
	"context"

	"github.com/visualcraft/marketplace/internal/core/domain"
)

// UserPatch is the shallow merge-patch for a user record. Nil fields are left
// untouched. Role/Banned/Muted are reachable only through the admin path;
// the profile path populates display fields only.
type UserPatch struct {
	Role              *string
	Banned            *bool
	Muted             *bool
	ProfilePic        *string
	ProfileBorder     *string
	CustomColor       *string
	CustomBorderWidth *int
	Bio               *string
	Socials           *domain.Socials
}

// UserRepository defines persistence for actor records.
type UserRepository interface {
	// Get returns the record or domain.ErrUserNotFound when absent.
	Get(ctx context.Context, id string) (*domain.User, error)
	// Create stores a new record under the given user's ID and fails with
	// domain.ErrUserExists when the id (or username) is already taken.
	Create(ctx context.Context, u *domain.User) error
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	Patch(ctx context.Context, id string, patch UserPatch) error
	// Delete removes the record entirely; no tombstone is kept.
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) (map[string]*domain.User, error)

	// Watch delivers the full current record on every change; nil means the
	// record is absent or was deleted.
	Watch(ctx context.Context, id string, onChange func(*domain.User)) (Subscription, error)
	// WatchAll delivers the complete user set on every change, for the admin
	// dashboard list.
	WatchAll(ctx context.Context, onChange func(map[string]*domain.User)) (Subscription, error)
}
