package service

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/visualcraft/marketplace/internal/core/domain"
	"github.com/visualcraft/marketplace/internal/core/ports"
)

type stubCategoryRepo struct {
	mu      sync.Mutex
	values  []string
	puts    int
	gets    int
	watcher func([]string)
}

func (r *stubCategoryRepo) Get(ctx context.Context) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	return append([]string(nil), r.values...), nil
}

func (r *stubCategoryRepo) Put(ctx context.Context, categories []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append([]string(nil), categories...)
	r.puts++
	return nil
}

func (r *stubCategoryRepo) Watch(ctx context.Context, onChange func([]string)) (ports.Subscription, error) {
	r.mu.Lock()
	r.watcher = onChange
	r.mu.Unlock()
	return ports.SubscriptionFunc(func() {
		r.mu.Lock()
		r.watcher = nil
		r.mu.Unlock()
	}), nil
}

// deliver pushes a full-replace list update into the watcher, as the store
// would.
func (r *stubCategoryRepo) deliver(cats []string) {
	r.mu.Lock()
	fn := r.watcher
	r.mu.Unlock()
	if fn != nil {
		fn(cats)
	}
}

func categoryAdmin() ports.Caller {
	return ports.Caller{UID: "a1", User: &domain.User{ID: "a1", Username: "root", Role: domain.RoleAdmin}}
}

func TestCategories_FallsBackToDefaults(t *testing.T) {
	svc := NewCategoryService(&stubCategoryRepo{}, zerolog.Nop())

	cats, err := svc.Categories(context.Background())
	if err != nil {
		t.Fatalf("categories failed: %v", err)
	}
	if !reflect.DeepEqual(cats, DefaultCategories) {
		t.Fatalf("expected defaults for empty store, got %v", cats)
	}
}

func TestCategories_ServedFromSubscription(t *testing.T) {
	repo := &stubCategoryRepo{values: []string{"Map"}}
	svc := NewCategoryService(repo, zerolog.Nop())
	ctx := context.Background()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer svc.Close()

	cats, err := svc.Categories(ctx)
	if err != nil {
		t.Fatalf("categories failed: %v", err)
	}
	if !reflect.DeepEqual(cats, []string{"Map"}) {
		t.Fatalf("unexpected primed list: %v", cats)
	}
	if repo.gets != 1 {
		t.Fatalf("reads must be served from the live copy, %d store reads", repo.gets)
	}

	// A full-replace delivery updates what readers see, again with no store
	// read.
	repo.deliver([]string{"Map", "Shaders"})
	cats, err = svc.Categories(ctx)
	if err != nil {
		t.Fatalf("categories after delivery failed: %v", err)
	}
	if !reflect.DeepEqual(cats, []string{"Map", "Shaders"}) {
		t.Fatalf("delivery must replace the list: %v", cats)
	}
	if repo.gets != 1 {
		t.Fatalf("delivery handling must not read the store, %d reads", repo.gets)
	}
}

func TestAdd_PatchesLiveCopy(t *testing.T) {
	repo := &stubCategoryRepo{values: []string{"Map"}}
	svc := NewCategoryService(repo, zerolog.Nop())
	ctx := context.Background()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer svc.Close()

	if _, err := svc.Add(ctx, categoryAdmin(), "Skins"); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	// The write is visible immediately, before any store delivery confirms
	// it.
	cats, err := svc.Categories(ctx)
	if err != nil {
		t.Fatalf("categories failed: %v", err)
	}
	if !reflect.DeepEqual(cats, []string{"Map", "Skins"}) {
		t.Fatalf("write must patch the live copy: %v", cats)
	}
	if repo.gets != 1 {
		t.Fatalf("only the priming read may touch the store, %d reads", repo.gets)
	}
}

func TestClose_ReleasesCategorySubscription(t *testing.T) {
	repo := &stubCategoryRepo{}
	svc := NewCategoryService(repo, zerolog.Nop())

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if repo.watcher == nil {
		t.Fatalf("start must register the list watch")
	}

	svc.Close()
	if repo.watcher != nil {
		t.Fatalf("close must release the list watch")
	}
}

func TestAdd_AppendsOnce(t *testing.T) {
	repo := &stubCategoryRepo{values: []string{"Map", "Skins"}}
	svc := NewCategoryService(repo, zerolog.Nop())
	ctx := context.Background()

	cats, err := svc.Add(ctx, categoryAdmin(), "  Shaders  ")
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !reflect.DeepEqual(cats, []string{"Map", "Skins", "Shaders"}) {
		t.Fatalf("unexpected list after add: %v", cats)
	}

	// Adding an existing value neither duplicates nor writes.
	cats, err = svc.Add(ctx, categoryAdmin(), "Shaders")
	if err != nil {
		t.Fatalf("repeat add failed: %v", err)
	}
	if !reflect.DeepEqual(cats, []string{"Map", "Skins", "Shaders"}) {
		t.Fatalf("repeat add must be a no-op: %v", cats)
	}
	if repo.puts != 1 {
		t.Fatalf("no-op add must not write, %d writes", repo.puts)
	}
}

func TestAdd_RejectsEmptyName(t *testing.T) {
	svc := NewCategoryService(&stubCategoryRepo{}, zerolog.Nop())

	if _, err := svc.Add(context.Background(), categoryAdmin(), "   "); !errors.Is(err, domain.ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestAddRemove_RequireManageCategories(t *testing.T) {
	repo := &stubCategoryRepo{values: []string{"Map"}}
	svc := NewCategoryService(repo, zerolog.Nop())
	ctx := context.Background()

	staff := ports.Caller{UID: "s1", User: &domain.User{ID: "s1", Role: domain.RoleStaff}}
	if _, err := svc.Add(ctx, staff, "Shaders"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("staff must not add categories, got %v", err)
	}
	if _, err := svc.Remove(ctx, staff, "Map"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("staff must not remove categories, got %v", err)
	}
	if repo.puts != 0 {
		t.Fatalf("denied mutations must not write")
	}
}

func TestRemove_DropsValueAndKeepsOrder(t *testing.T) {
	repo := &stubCategoryRepo{values: []string{"Map", "Skins", "Shaders"}}
	svc := NewCategoryService(repo, zerolog.Nop())

	cats, err := svc.Remove(context.Background(), categoryAdmin(), "Skins")
	if err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if !reflect.DeepEqual(cats, []string{"Map", "Shaders"}) {
		t.Fatalf("unexpected list after remove: %v", cats)
	}

	// Removing a missing value is harmless.
	cats, err = svc.Remove(context.Background(), categoryAdmin(), "Nope")
	if err != nil {
		t.Fatalf("remove of missing value failed: %v", err)
	}
	if !reflect.DeepEqual(cats, []string{"Map", "Shaders"}) {
		t.Fatalf("missing-value remove must keep the list: %v", cats)
	}
}
