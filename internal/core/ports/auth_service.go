package ports

import (
	"context"

	"github.com/visualcraft/marketplace/internal/core/domain"
)

// Caller is the authenticated identity resolved once per request by the
// session layer: the uid from the token plus the live profile snapshot the
// policy checks run against. User may be nil when the profile has not
// resolved; policy functions treat that as unauthenticated.
type Caller struct {
	UID  string
	User *domain.User
}

// ProfileInput carries the self-editable display fields. Nil fields are left
// unchanged. Role and lifecycle flags are not reachable through this path.
type ProfileInput struct {
	ProfilePic        *string
	ProfileBorder     *string
	CustomColor       *string
	CustomBorderWidth *int
	Bio               *string
	Socials           *domain.Socials
}

// AuthService implements registration, login, sign-out and self-profile
// updates.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (string, *domain.User, error)
	SignOut(uid string)
	UpdateProfile(ctx context.Context, caller Caller, in ProfileInput) (*domain.User, error)
}
