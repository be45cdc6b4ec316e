package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/visualcraft/marketplace/internal/core/domain"
	"github.com/visualcraft/marketplace/internal/core/listing"
	"github.com/visualcraft/marketplace/internal/core/ports"
)

// memItemRepo is an in-memory ports.ItemRepository with monotonically
// increasing keys, mirroring the store's push-key ordering.
type memItemRepo struct {
	mu    sync.Mutex
	items map[string]*domain.Item
	order []string
	next  int
}

func newMemItemRepo() *memItemRepo {
	return &memItemRepo{items: make(map[string]*domain.Item)}
}

func (r *memItemRepo) Push(ctx context.Context, item *domain.Item) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	id := fmt.Sprintf("k%04d", r.next)
	stored := item.Clone()
	stored.ID = id
	r.items[id] = stored
	r.order = append(r.order, id)
	return id, nil
}

func (r *memItemRepo) Get(ctx context.Context, id string) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrItemNotFound
	}
	return it.Clone(), nil
}

func (r *memItemRepo) Update(ctx context.Context, id string, patch ports.ItemUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	if patch.Title != nil {
		it.Title = *patch.Title
	}
	if patch.Desc != nil {
		it.Desc = *patch.Desc
	}
	if patch.Category != nil {
		it.Category = *patch.Category
	}
	if patch.Link != nil {
		it.Link = *patch.Link
	}
	if patch.Youtube != nil {
		it.Youtube = *patch.Youtube
	}
	if patch.OriginalCreator != nil {
		it.OriginalCreator = *patch.OriginalCreator
	}
	if patch.Img != nil {
		it.Img = *patch.Img
	}
	if patch.Gallery != nil {
		it.Gallery = append([]string(nil), patch.Gallery...)
	}
	if patch.Changelog != nil {
		it.Changelog = append([]domain.ChangelogEntry(nil), patch.Changelog...)
	}
	return nil
}

func (r *memItemRepo) SetRating(ctx context.Context, id string, rating domain.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	if it.Ratings == nil {
		it.Ratings = make(map[string]domain.Rating)
	}
	it.Ratings[rating.UserID] = rating
	return nil
}

func (r *memItemRepo) SetFeatured(ctx context.Context, id string, featured bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return domain.ErrItemNotFound
	}
	it.Featured = featured
	return nil
}

func (r *memItemRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	for i, k := range r.order {
		if k == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memItemRepo) LatestPage(ctx context.Context, n int) ([]*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := r.order
	if len(keys) > n {
		keys = keys[len(keys)-n:]
	}
	out := make([]*domain.Item, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.items[k].Clone())
	}
	return out, nil
}

func (r *memItemRepo) PageEndingAt(ctx context.Context, key string, n int) ([]*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, len(r.order))
	for _, k := range r.order {
		if k <= key {
			keys = append(keys, k)
		}
	}
	if len(keys) > n {
		keys = keys[len(keys)-n:]
	}
	out := make([]*domain.Item, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.items[k].Clone())
	}
	return out, nil
}

func itemTestFixture() (*ItemService, *memItemRepo, *listing.Feed) {
	repo := newMemItemRepo()
	feed := listing.NewFeed(repo, zerolog.Nop())
	return NewItemService(repo, feed, zerolog.Nop()), repo, feed
}

func regularCaller(uid, name string) ports.Caller {
	return ports.Caller{UID: uid, User: &domain.User{ID: uid, Username: name, Role: domain.RoleUser}}
}

func staffCaller(uid string) ports.Caller {
	return ports.Caller{UID: uid, User: &domain.User{ID: uid, Username: uid, Role: domain.RoleStaff}}
}

// ---------------------------------------------------------------------------
// CreateItem
// ---------------------------------------------------------------------------

func TestCreateItem_SeedsChangelogAndAuthorship(t *testing.T) {
	svc, repo, feed := itemTestFixture()

	item, err := svc.CreateItem(context.Background(), regularCaller("u1", "alice"), ports.CreateItemInput{
		Title: "Ancient City", Category: "Map",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if item.ID == "" {
		t.Fatalf("created item has no key")
	}
	if item.AuthorID != "u1" || item.Author != "alice" {
		t.Fatalf("authorship must come from the caller: %+v", item)
	}
	if len(item.Changelog) != 1 || item.Changelog[0].Version != "v1.0" || item.Changelog[0].Text != "Initial Release" {
		t.Fatalf("changelog not seeded: %+v", item.Changelog)
	}
	if item.Changelog[0].Timestamp == 0 {
		t.Fatalf("changelog entry must carry a timestamp")
	}
	if item.Featured {
		t.Fatalf("new items are never featured")
	}

	stored, err := repo.Get(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("item not persisted: %v", err)
	}
	if stored.Title != "Ancient City" {
		t.Fatalf("unexpected stored item: %+v", stored)
	}

	// The write is patched straight into the listing window.
	window := feed.Snapshot()
	if len(window) != 1 || window[0].ID != item.ID {
		t.Fatalf("create must prepend to the feed, window=%v", window)
	}
}

func TestCreateItem_CapsGallery(t *testing.T) {
	svc, _, _ := itemTestFixture()

	gallery := []string{"1", "2", "3", "4", "5", "6", "7"}
	item, err := svc.CreateItem(context.Background(), regularCaller("u1", "alice"), ports.CreateItemInput{
		Title: "Shader Pack", Gallery: gallery,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if len(item.Gallery) != domain.GalleryLimit {
		t.Fatalf("gallery must be capped at %d, got %d", domain.GalleryLimit, len(item.Gallery))
	}
}

func TestCreateItem_RefusesAnonymousAndMuted(t *testing.T) {
	svc, repo, _ := itemTestFixture()

	if _, err := svc.CreateItem(context.Background(), ports.Caller{}, ports.CreateItemInput{Title: "x"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for anonymous caller, got %v", err)
	}

	muted := ports.Caller{UID: "u1", User: &domain.User{ID: "u1", Username: "alice", Role: domain.RoleUser, Muted: true}}
	if _, err := svc.CreateItem(context.Background(), muted, ports.CreateItemInput{Title: "x"}); !errors.Is(err, domain.ErrAccountMuted) {
		t.Fatalf("expected ErrAccountMuted, got %v", err)
	}

	if len(repo.items) != 0 {
		t.Fatalf("denied creates must write nothing")
	}
}

// ---------------------------------------------------------------------------
// UpdateItem
// ---------------------------------------------------------------------------

func TestUpdateItem_AppendsChangelog(t *testing.T) {
	svc, _, _ := itemTestFixture()
	caller := regularCaller("u1", "alice")

	created, err := svc.CreateItem(context.Background(), caller, ports.CreateItemInput{Title: "Old Title"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	updated, err := svc.UpdateItem(context.Background(), caller, created.ID, ports.UpdateItemInput{Title: "New Title"})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Title != "New Title" {
		t.Fatalf("title not updated: %s", updated.Title)
	}
	if len(updated.Changelog) != 2 {
		t.Fatalf("expected appended changelog entry, got %d entries", len(updated.Changelog))
	}
	if updated.Changelog[0].Version != "v1.0" {
		t.Fatalf("prior changelog entries must be preserved")
	}
	if updated.Changelog[1].Version != "Update" || updated.Changelog[1].Text != "Updated details" {
		t.Fatalf("unexpected appended entry: %+v", updated.Changelog[1])
	}
}

func TestUpdateItem_PreservesRatingsAndFeatured(t *testing.T) {
	svc, repo, _ := itemTestFixture()
	caller := regularCaller("u1", "alice")

	created, err := svc.CreateItem(context.Background(), caller, ports.CreateItemInput{Title: "Map"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.SetRating(context.Background(), created.ID, domain.Rating{UserID: "u2", Rating: 5}); err != nil {
		t.Fatalf("seeding rating failed: %v", err)
	}
	if err := repo.SetFeatured(context.Background(), created.ID, true); err != nil {
		t.Fatalf("seeding featured failed: %v", err)
	}

	if _, err := svc.UpdateItem(context.Background(), caller, created.ID, ports.UpdateItemInput{Title: "Map 2"}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	stored, _ := repo.Get(context.Background(), created.ID)
	if len(stored.Ratings) != 1 || !stored.Featured {
		t.Fatalf("update must not touch ratings or the featured flag: %+v", stored)
	}
}

func TestUpdateItem_DeniedForNonAuthor(t *testing.T) {
	svc, repo, _ := itemTestFixture()

	created, err := svc.CreateItem(context.Background(), regularCaller("u1", "alice"), ports.CreateItemInput{Title: "Mine"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.UpdateItem(context.Background(), regularCaller("u2", "bob"), created.ID, ports.UpdateItemInput{Title: "Stolen"}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	stored, _ := repo.Get(context.Background(), created.ID)
	if stored.Title != "Mine" || len(stored.Changelog) != 1 {
		t.Fatalf("denied update must write nothing: %+v", stored)
	}
}

func TestUpdateItem_AllowedForContentModerator(t *testing.T) {
	svc, _, _ := itemTestFixture()

	created, err := svc.CreateItem(context.Background(), regularCaller("u1", "alice"), ports.CreateItemInput{Title: "Mine"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := svc.UpdateItem(context.Background(), staffCaller("s1"), created.ID, ports.UpdateItemInput{Title: "Moderated"}); err != nil {
		t.Fatalf("staff update failed: %v", err)
	}
}

func TestUpdateItem_MissingItem(t *testing.T) {
	svc, _, _ := itemTestFixture()
	if _, err := svc.UpdateItem(context.Background(), regularCaller("u1", "alice"), "nope", ports.UpdateItemInput{}); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// DeleteItem
// ---------------------------------------------------------------------------

func TestDeleteItem_AuthorAndModerator(t *testing.T) {
	svc, repo, feed := itemTestFixture()
	author := regularCaller("u1", "alice")

	first, _ := svc.CreateItem(context.Background(), author, ports.CreateItemInput{Title: "First"})
	second, _ := svc.CreateItem(context.Background(), author, ports.CreateItemInput{Title: "Second"})

	if err := svc.DeleteItem(context.Background(), regularCaller("u2", "bob"), first.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for unrelated caller, got %v", err)
	}

	if err := svc.DeleteItem(context.Background(), author, first.ID); err != nil {
		t.Fatalf("author delete failed: %v", err)
	}
	if err := svc.DeleteItem(context.Background(), staffCaller("s1"), second.ID); err != nil {
		t.Fatalf("moderator delete failed: %v", err)
	}

	if len(repo.items) != 0 {
		t.Fatalf("items not deleted from the store")
	}
	if feed.Len() != 0 {
		t.Fatalf("deletes must be patched out of the feed, %d left", feed.Len())
	}
}

// ---------------------------------------------------------------------------
// ToggleFeature
// ---------------------------------------------------------------------------

func TestToggleFeature_FlipsAndRequiresCapability(t *testing.T) {
	svc, repo, _ := itemTestFixture()

	created, _ := svc.CreateItem(context.Background(), regularCaller("u1", "alice"), ports.CreateItemInput{Title: "Map"})

	// The author alone does not hold FEATURE_POSTS.
	if _, err := svc.ToggleFeature(context.Background(), regularCaller("u1", "alice"), created.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	// Staff does not hold it either.
	if _, err := svc.ToggleFeature(context.Background(), staffCaller("s1"), created.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for staff, got %v", err)
	}

	admin := ports.Caller{UID: "a1", User: &domain.User{ID: "a1", Username: "root", Role: domain.RoleAdmin}}
	item, err := svc.ToggleFeature(context.Background(), admin, created.ID)
	if err != nil {
		t.Fatalf("toggle failed: %v", err)
	}
	if !item.Featured {
		t.Fatalf("first toggle must set featured")
	}

	item, err = svc.ToggleFeature(context.Background(), admin, created.ID)
	if err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if item.Featured {
		t.Fatalf("second toggle must clear featured")
	}

	stored, _ := repo.Get(context.Background(), created.ID)
	if stored.Featured {
		t.Fatalf("store out of sync with toggle")
	}
}

// ---------------------------------------------------------------------------
// RateItem
// ---------------------------------------------------------------------------

func TestRateItem_UpsertsByActor(t *testing.T) {
	svc, repo, _ := itemTestFixture()

	created, _ := svc.CreateItem(context.Background(), regularCaller("u1", "alice"), ports.CreateItemInput{Title: "Map"})
	rater := regularCaller("u2", "bob")

	if _, err := svc.RateItem(context.Background(), rater, created.ID, ports.RateItemInput{Rating: 2, Review: "meh"}); err != nil {
		t.Fatalf("rate failed: %v", err)
	}
	item, err := svc.RateItem(context.Background(), rater, created.ID, ports.RateItemInput{Rating: 5, Review: "grew on me"})
	if err != nil {
		t.Fatalf("re-rate failed: %v", err)
	}

	if len(item.Ratings) != 1 {
		t.Fatalf("repeat rating by the same actor must replace, got %d ratings", len(item.Ratings))
	}
	if got := item.Ratings["u2"]; got.Rating != 5 || got.Review != "grew on me" {
		t.Fatalf("unexpected rating: %+v", got)
	}

	stored, _ := repo.Get(context.Background(), created.ID)
	if stored.AverageRating() != 5.0 {
		t.Fatalf("expected average 5.0, got %v", stored.AverageRating())
	}
}

func TestRateItem_RejectsOutOfRange(t *testing.T) {
	svc, _, _ := itemTestFixture()

	created, _ := svc.CreateItem(context.Background(), regularCaller("u1", "alice"), ports.CreateItemInput{Title: "Map"})

	for _, bad := range []int{0, -1, 6} {
		if _, err := svc.RateItem(context.Background(), regularCaller("u2", "bob"), created.ID, ports.RateItemInput{Rating: bad}); !errors.Is(err, domain.ErrInvalidRating) {
			t.Fatalf("rating %d: expected ErrInvalidRating, got %v", bad, err)
		}
	}
}

func TestRateItem_MutedActorDenied(t *testing.T) {
	svc, _, _ := itemTestFixture()

	created, _ := svc.CreateItem(context.Background(), regularCaller("u1", "alice"), ports.CreateItemInput{Title: "Map"})

	muted := ports.Caller{UID: "u2", User: &domain.User{ID: "u2", Username: "bob", Role: domain.RoleUser, Muted: true}}
	if _, err := svc.RateItem(context.Background(), muted, created.ID, ports.RateItemInput{Rating: 4}); !errors.Is(err, domain.ErrAccountMuted) {
		t.Fatalf("expected ErrAccountMuted, got %v", err)
	}
}
