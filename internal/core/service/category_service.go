package service

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/visualcraft/marketplace/internal/api/metrics"
	"github.com/visualcraft/marketplace/internal/core/domain"
	"github.com/visualcraft/marketplace/internal/core/ports"
)

// DefaultCategories seeds the shared list before any admin has written one.
var DefaultCategories = []string{"Add-On", "Map", "Texture Pack", "Skins", "Shaders"}

// CategoryService manages the globally shared ordered category list. After
// Start it serves reads from a live copy kept current by the store
// subscription; writes patch the copy optimistically and the authoritative
// delivery confirms them.
type CategoryService struct {
	repo ports.CategoryRepository
	log  zerolog.Logger

	mu     sync.RWMutex
	cached []string
	primed bool
	sub    ports.Subscription
}

func NewCategoryService(repo ports.CategoryRepository, log zerolog.Logger) *CategoryService {
	return &CategoryService{repo: repo, log: log}
}

// Start subscribes to list changes and primes the live copy. The watch is
// registered before the priming read so a write landing in between is not
// lost; a delivery that races the prime wins.
func (s *CategoryService) Start(ctx context.Context) error {
	sub, err := s.repo.Watch(ctx, s.onDelivery)
	if err != nil {
		return err
	}
	cats, err := s.repo.Get(ctx)
	if err != nil {
		sub.Close()
		return err
	}

	s.mu.Lock()
	s.sub = sub
	if !s.primed {
		s.cached = append([]string(nil), cats...)
		s.primed = true
	}
	s.mu.Unlock()
	return nil
}

// Close releases the store subscription.
func (s *CategoryService) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

// onDelivery replaces the live copy with one full-replace update from the
// store.
func (s *CategoryService) onDelivery(cats []string) {
	metrics.WatchDeliveriesTotal.WithLabelValues("categories").Inc()
	s.setCached(cats)
}

func (s *CategoryService) setCached(cats []string) {
	s.mu.Lock()
	s.cached = append([]string(nil), cats...)
	s.primed = true
	s.mu.Unlock()
}

// Categories returns the current list, falling back to the defaults when the
// store holds none. Before Start has primed the live copy it reads through to
// the store.
func (s *CategoryService) Categories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	if s.primed {
		cats := append([]string(nil), s.cached...)
		s.mu.RUnlock()
		return withDefaults(cats), nil
	}
	s.mu.RUnlock()

	cats, err := s.repo.Get(ctx)
	if err != nil {
		return nil, err
	}
	return withDefaults(cats), nil
}

func withDefaults(cats []string) []string {
	if len(cats) == 0 {
		return append([]string(nil), DefaultCategories...)
	}
	return cats
}

// Add appends a category. Adding an existing value is a no-op: the list keeps
// set semantics while preserving order.
func (s *CategoryService) Add(ctx context.Context, caller ports.Caller, name string) ([]string, error) {
	if !domain.HasPermission(caller.User, domain.ManageCategories) {
		metrics.PolicyDenialsTotal.WithLabelValues("add_category").Inc()
		return nil, domain.ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrInvalidCategory
	}

	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range cats {
		if c == name {
			return cats, nil
		}
	}
	cats = append(cats, name)
	if err := s.repo.Put(ctx, cats); err != nil {
		s.log.Warn().Err(err).Str("category", name).Msg("category add failed")
		return nil, err
	}
	s.setCached(cats)
	s.log.Info().Str("category", name).Str("by", caller.UID).Msg("category added")
	return cats, nil
}

// Remove drops a category. Items referencing it are left untouched.
func (s *CategoryService) Remove(ctx context.Context, caller ports.Caller, name string) ([]string, error) {
	if !domain.HasPermission(caller.User, domain.ManageCategories) {
		metrics.PolicyDenialsTotal.WithLabelValues("remove_category").Inc()
		return nil, domain.ErrForbidden
	}

	cats, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	kept := cats[:0:0]
	for _, c := range cats {
		if c != name {
			kept = append(kept, c)
		}
	}
	if err := s.repo.Put(ctx, kept); err != nil {
		s.log.Warn().Err(err).Str("category", name).Msg("category remove failed")
		return nil, err
	}
	s.setCached(kept)
	s.log.Info().Str("category", name).Str("by", caller.UID).Msg("category removed")
	return kept, nil
}
