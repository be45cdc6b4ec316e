package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/visualcraft/marketplace/internal/api/metrics"
	"github.com/visualcraft/marketplace/internal/core/domain"
	"github.com/visualcraft/marketplace/internal/core/ports"
	"github.com/visualcraft/marketplace/internal/core/session"
)

// AdminService dispatches user moderation. Owner accounts are never a valid
// target regardless of the caller's capabilities. After Start the dashboard
// user list is served from a directory kept current by the store
// subscription.
type AdminService struct {
	users     ports.UserRepository
	revoker   ports.SessionRevoker
	cache     *session.ActorCache
	revokeTTL time.Duration
	log       zerolog.Logger

	mu        sync.RWMutex
	directory map[string]*domain.User
	primed    bool
	sub       ports.Subscription
}

func NewAdminService(
	users ports.UserRepository,
	revoker ports.SessionRevoker,
	cache *session.ActorCache,
	revokeTTL time.Duration,
	log zerolog.Logger,
) *AdminService {
	if revokeTTL <= 0 {
		revokeTTL = 24 * time.Hour
	}
	return &AdminService{users: users, revoker: revoker, cache: cache, revokeTTL: revokeTTL, log: log}
}

// Start subscribes to the full user set and primes the directory. The watch
// is registered before the priming read so a write landing in between is not
// lost; a delivery that races the prime wins.
func (s *AdminService) Start(ctx context.Context) error {
	sub, err := s.users.WatchAll(ctx, s.onDirectory)
	if err != nil {
		return err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		sub.Close()
		return err
	}

	s.mu.Lock()
	s.sub = sub
	if !s.primed {
		s.directory = cloneUserSet(users)
		s.primed = true
	}
	s.mu.Unlock()
	return nil
}

// Close releases the directory subscription.
func (s *AdminService) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

// onDirectory replaces the directory with one full-replace delivery from the
// store.
func (s *AdminService) onDirectory(users map[string]*domain.User) {
	metrics.WatchDeliveriesTotal.WithLabelValues("users").Inc()
	dir := cloneUserSet(users)
	s.mu.Lock()
	s.directory = dir
	s.primed = true
	s.mu.Unlock()
}

func cloneUserSet(users map[string]*domain.User) map[string]*domain.User {
	out := make(map[string]*domain.User, len(users))
	for id, u := range users {
		out[id] = u.Clone()
	}
	return out
}

// ListUsers returns the full user set for the dashboard: the live directory
// once Start has primed it, otherwise a store read.
func (s *AdminService) ListUsers(ctx context.Context, caller ports.Caller) (map[string]*domain.User, error) {
	if !domain.HasPermission(caller.User, domain.ViewAdminDashboard) {
		metrics.PolicyDenialsTotal.WithLabelValues("list_users").Inc()
		return nil, domain.ErrForbidden
	}

	s.mu.RLock()
	if s.primed {
		out := cloneUserSet(s.directory)
		s.mu.RUnlock()
		return out, nil
	}
	s.mu.RUnlock()
	return s.users.List(ctx)
}

// UpdateUser applies role/ban/mute changes to another account. The owner role
// cannot be targeted, and no account can be promoted to owner.
func (s *AdminService) UpdateUser(ctx context.Context, caller ports.Caller, uid string, in ports.AdminUserInput) error {
	if !domain.HasPermission(caller.User, domain.ManageUsers) {
		metrics.PolicyDenialsTotal.WithLabelValues("admin_update_user").Inc()
		return domain.ErrForbidden
	}
	if in.Role != nil && (!domain.ValidRole(*in.Role) || *in.Role == domain.RoleOwner) {
		return domain.ErrOwnerProtected
	}

	target, err := s.users.Get(ctx, uid)
	if err != nil {
		return err
	}
	if target.Role == domain.RoleOwner {
		metrics.PolicyDenialsTotal.WithLabelValues("admin_update_user").Inc()
		return domain.ErrOwnerProtected
	}

	patch := ports.UserPatch{Role: in.Role, Banned: in.Banned, Muted: in.Muted}
	if err := s.users.Patch(ctx, uid, patch); err != nil {
		s.log.Warn().Err(err).Str("target", uid).Msg("admin user update failed")
		return err
	}

	// A ban invalidates the target's tokens immediately; an unban lifts the
	// revocation so the account can sign in again.
	if in.Banned != nil {
		if *in.Banned {
			if err := s.revoker.Revoke(ctx, uid, s.revokeTTL); err != nil {
				s.log.Warn().Err(err).Str("target", uid).Msg("revocation write failed")
			}
			metrics.SessionsRevokedTotal.Inc()
		} else if err := s.revoker.Restore(ctx, uid); err != nil {
			s.log.Warn().Err(err).Str("target", uid).Msg("revocation restore failed")
		}
	}

	updated := target.Clone()
	if in.Role != nil {
		updated.Role = *in.Role
	}
	if in.Banned != nil {
		updated.Banned = *in.Banned
	}
	if in.Muted != nil {
		updated.Muted = *in.Muted
	}
	s.cache.Put(updated)

	s.log.Info().Str("target", uid).Str("by", caller.UID).Msg("user moderated")
	return nil
}

// DeleteUser removes the account record entirely (no tombstone) and revokes
// any outstanding tokens.
func (s *AdminService) DeleteUser(ctx context.Context, caller ports.Caller, uid string) error {
	if !domain.HasPermission(caller.User, domain.ManageUsers) {
		metrics.PolicyDenialsTotal.WithLabelValues("admin_delete_user").Inc()
		return domain.ErrForbidden
	}

	target, err := s.users.Get(ctx, uid)
	if err != nil {
		return err
	}
	if target.Role == domain.RoleOwner {
		metrics.PolicyDenialsTotal.WithLabelValues("admin_delete_user").Inc()
		return domain.ErrOwnerProtected
	}

	if err := s.users.Delete(ctx, uid); err != nil {
		s.log.Warn().Err(err).Str("target", uid).Msg("user delete failed")
		return err
	}
	if err := s.revoker.Revoke(ctx, uid, s.revokeTTL); err != nil {
		s.log.Warn().Err(err).Str("target", uid).Msg("revocation write failed")
	}
	metrics.SessionsRevokedTotal.Inc()
	s.cache.Remove(uid)

	s.log.Info().Str("target", uid).Str("by", caller.UID).Msg("user deleted")
	return nil
}
