package ports

import (
	"context"

	"github.com/visualcraft/marketplace/internal/core/domain"
)

// ItemUpdate is the shallow merge-patch applied by UpdateItem. Nil fields are
// left untouched in the stored record. Changelog replaces the whole list and
// must carry the prior entries plus the appended one; the repository does not
// re-read to merge.
type ItemUpdate struct {
	Title           *string
	Desc            *string
	Category        *string
	Link            *string
	Youtube         *string
	OriginalCreator *string
	Img             *string
	Gallery         []string
	Changelog       []domain.ChangelogEntry
}

// ItemRepository defines persistence over the externally-owned keyed item
// collection. Keys are assigned by the store on Push and sort consistently
// with creation order, which the pagination queries rely on.
type ItemRepository interface {
	// Push stores a new item under a server-assigned key and returns the key.
	Push(ctx context.Context, item *domain.Item) (string, error)
	Get(ctx context.Context, id string) (*domain.Item, error)
	// Update applies a shallow merge-patch to the stored record.
	Update(ctx context.Context, id string, patch ItemUpdate) error
	// SetRating upserts one actor's rating, keyed by r.UserID.
	SetRating(ctx context.Context, id string, r domain.Rating) error
	SetFeatured(ctx context.Context, id string, featured bool) error
	Delete(ctx context.Context, id string) error

	// LatestPage returns the n newest items in ascending key order.
	LatestPage(ctx context.Context, n int) ([]*domain.Item, error)
	// PageEndingAt returns up to n items with keys at or before key
	// (inclusive boundary), in ascending key order.
	PageEndingAt(ctx context.Context, key string, n int) ([]*domain.Item, error)
}
