package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/visualcraft/marketplace/internal/core/domain"
	"github.com/visualcraft/marketplace/internal/core/ports"
	"github.com/visualcraft/marketplace/internal/core/session"
)

// loginDomain turns a username into the synthetic address stored as the login
// identity. No real email capability exists or is assumed.
const loginDomain = "@vcm.com"

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// AuthService implements registration, login and self-profile updates.
type AuthService struct {
	users     ports.UserRepository
	sessions  *session.Manager
	cache     *session.ActorCache
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	sessions *session.Manager,
	cache *session.ActorCache,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		cache:     cache,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

// Register validates the credentials and creates the account with its profile
// record. Validation failures never reach the store.
func (s *AuthService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || strings.Contains(username, "@") || !usernamePattern.MatchString(username) {
		return nil, domain.ErrInvalidCredentials
	}
	if len(password) < 6 {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Username:      username,
		Email:         username + loginDomain,
		PasswordHash:  string(hash),
		Role:          domain.RoleUser,
		Banned:        false,
		Muted:         false,
		ProfilePic:    domain.DefaultProfilePic,
		ProfileBorder: "default",
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info().Str("uid", u.ID).Str("username", username).Msg("account registered")
	return u, nil
}

// Login verifies the credentials, refuses banned accounts, starts the profile
// session and issues a signed token.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, *domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if err == domain.ErrUserNotFound {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	// Bootstrap the session: profile watch, ban gating, cache publication.
	if _, err := s.sessions.Begin(ctx, u.ID, u.Username); err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// SignOut ends the actor's session and releases its profile watch.
func (s *AuthService) SignOut(uid string) {
	s.sessions.End(uid)
}

// UpdateProfile applies the self-editable display fields. The cache is
// patched optimistically; the profile watch delivers the authoritative value
// afterwards and always wins.
func (s *AuthService) UpdateProfile(ctx context.Context, caller ports.Caller, in ports.ProfileInput) (*domain.User, error) {
	if caller.User == nil || caller.UID == "" {
		return nil, domain.ErrForbidden
	}

	patch := ports.UserPatch{
		ProfilePic:        in.ProfilePic,
		ProfileBorder:     in.ProfileBorder,
		CustomColor:       in.CustomColor,
		CustomBorderWidth: in.CustomBorderWidth,
		Bio:               in.Bio,
		Socials:           in.Socials,
	}
	if err := s.users.Patch(ctx, caller.UID, patch); err != nil {
		s.log.Warn().Err(err).Str("uid", caller.UID).Msg("profile update failed")
		return nil, err
	}

	updated := caller.User.Clone()
	applyProfile(updated, in)
	s.cache.Put(updated)
	return updated, nil
}

func applyProfile(u *domain.User, in ports.ProfileInput) {
	if in.ProfilePic != nil {
		u.ProfilePic = *in.ProfilePic
	}
	if in.ProfileBorder != nil {
		u.ProfileBorder = *in.ProfileBorder
	}
	if in.CustomColor != nil {
		u.CustomColor = *in.CustomColor
	}
	if in.CustomBorderWidth != nil {
		u.CustomBorderWidth = *in.CustomBorderWidth
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	if in.Socials != nil {
		u.Socials = *in.Socials
	}
}

func (s *AuthService) generateToken(u *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":      u.ID,
		"username": u.Username,
		"exp":      time.Now().Add(s.tokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
