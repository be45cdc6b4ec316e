// Package session owns the per-sign-in lifecycle: ensuring a profile record
// exists, watching it for authoritative updates, gating banned accounts, and
// keeping the shared actor lookup cache populated.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/visualcraft/marketplace/internal/api/metrics"
	"github.com/visualcraft/marketplace/internal/core/domain"
	"github.com/visualcraft/marketplace/internal/core/ports"
)

// Manager tracks one live Session per signed-in actor. Sessions are
// constructed on sign-in and torn down on sign-out or when a terminal
// moderation event (ban, deletion) arrives on the profile watch.
type Manager struct {
	users     ports.UserRepository
	revoker   ports.SessionRevoker
	cache     *ActorCache
	revokeTTL time.Duration
	log       zerolog.Logger
	baseCtx   context.Context

	mu     sync.Mutex
	active map[string]*Session
}

// NewManager wires a session manager. baseCtx bounds the lifetime of all
// profile watches; cancel it on shutdown.
func NewManager(
	baseCtx context.Context,
	users ports.UserRepository,
	revoker ports.SessionRevoker,
	cache *ActorCache,
	revokeTTL time.Duration,
	log zerolog.Logger,
) *Manager {
	if revokeTTL <= 0 {
		revokeTTL = 24 * time.Hour
	}
	return &Manager{
		users:     users,
		revoker:   revoker,
		cache:     cache,
		revokeTTL: revokeTTL,
		log:       log,
		baseCtx:   baseCtx,
		active:    make(map[string]*Session),
	}
}

// Session is the cooperative listener bound to one signed-in actor.
type Session struct {
	UID string

	mgr    *Manager
	mu     sync.Mutex
	sub    ports.Subscription
	closed bool
	usr    *domain.User
}

// Begin runs the profile bootstrap for a fresh sign-in:
//
//  1. Read the profile; when absent, synthesize a default record and persist
//     it, tolerating a write race with a concurrent creator.
//  2. Refuse banned accounts: the session is revoked and never established.
//  3. Watch the record for updates and publish every delivery into the
//     session state and the shared actor cache.
//
// Signing in twice returns the existing session.
func (m *Manager) Begin(ctx context.Context, uid, loginName string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.active[uid]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	u, err := m.users.Get(ctx, uid)
	if errors.Is(err, domain.ErrUserNotFound) {
		u, err = m.synthesize(ctx, uid, loginName)
	}
	if err != nil {
		return nil, err
	}

	if u.Banned {
		m.revokeLocked(uid)
		return nil, domain.ErrAccountBanned
	}

	s := &Session{UID: uid, mgr: m, usr: u.Clone()}

	// The session must be registered before its watch exists: a terminal
	// delivery that lands during registration calls End, which can only tear
	// the session down if it is already in the active set.
	m.mu.Lock()
	if existing, ok := m.active[uid]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.active[uid] = s
	m.mu.Unlock()

	m.cache.Put(u)

	sub, err := m.users.Watch(m.baseCtx, uid, s.onDelivery)
	if err != nil {
		m.End(uid)
		return nil, err
	}
	if !s.attach(sub) {
		// A ban or deletion arrived before the watch handle was stored; the
		// session is already torn down and revoked.
		return nil, domain.ErrAccountBanned
	}

	m.log.Info().Str("uid", uid).Str("username", u.Username).Msg("session started")
	return s, nil
}

// End tears down the actor's session, releasing its profile watch. Safe to
// call for a uid with no session.
func (m *Manager) End(uid string) {
	m.mu.Lock()
	s, ok := m.active[uid]
	delete(m.active, uid)
	m.mu.Unlock()
	if ok {
		s.close()
	}
}

// Resolve returns the current actor snapshot for policy checks: the cache
// when warm, otherwise the store (which then warms the cache).
func (m *Manager) Resolve(ctx context.Context, uid string) (*domain.User, error) {
	if u, ok := m.cache.Get(uid); ok {
		return u, nil
	}
	u, err := m.users.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	m.cache.Put(u)
	return u, nil
}

// Close ends every active session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.active))
	for _, s := range m.active {
		sessions = append(sessions, s)
	}
	m.active = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
}

// synthesize persists the default profile for a first sign-in. A lost race
// against a concurrent creator is tolerated: the record that won is read back
// and used.
func (m *Manager) synthesize(ctx context.Context, uid, loginName string) (*domain.User, error) {
	if loginName == "" {
		loginName = "User"
	}
	u := &domain.User{
		ID:            uid,
		Username:      loginName,
		Role:          domain.RoleUser,
		Banned:        false,
		Muted:         false,
		ProfilePic:    domain.DefaultProfilePic,
		ProfileBorder: "default",
		CreatedAt:     time.Now().UTC(),
	}
	err := m.users.Create(ctx, u)
	if err == nil {
		return u, nil
	}
	if errors.Is(err, domain.ErrUserExists) {
		return m.users.Get(ctx, uid)
	}
	return nil, err
}

func (m *Manager) revokeLocked(uid string) {
	if err := m.revoker.Revoke(context.Background(), uid, m.revokeTTL); err != nil {
		m.log.Warn().Err(err).Str("uid", uid).Msg("session revocation write failed")
	}
	metrics.SessionsRevokedTotal.Inc()
}

// User returns the latest profile snapshot delivered to this session.
func (s *Session) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usr.Clone()
}

// onDelivery handles one full-replace profile update from the store. Each
// payload is the complete current value; nil means the record was deleted.
func (s *Session) onDelivery(u *domain.User) {
	metrics.WatchDeliveriesTotal.WithLabelValues("profile").Inc()

	if u == nil {
		s.mgr.log.Info().Str("uid", s.UID).Msg("profile deleted, ending session")
		s.mgr.revokeLocked(s.UID)
		s.mgr.cache.Remove(s.UID)
		s.mgr.End(s.UID)
		return
	}

	if u.Banned {
		s.mgr.log.Info().Str("uid", s.UID).Msg("ban detected, forcing sign-out")
		s.mgr.revokeLocked(s.UID)
		s.mgr.cache.Remove(s.UID)
		s.mgr.End(s.UID)
		return
	}

	s.mu.Lock()
	s.usr = u.Clone()
	s.mu.Unlock()
	s.mgr.cache.Put(u)
}

// attach stores the watch handle. When the session was already ended the
// subscription is released immediately and attach reports false.
func (s *Session) attach(sub ports.Subscription) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.Close()
		return false
	}
	s.sub = sub
	s.mu.Unlock()
	return true
}

func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}
