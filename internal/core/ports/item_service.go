package ports

import (
	"context"

	"github.com/visualcraft/marketplace/internal/core/domain"
)

// CreateItemInput carries all data for a new item. The author fields are
// taken from the caller, never from the request.
type CreateItemInput struct {
	Title           string
	Desc            string
	Category        string
	Link            string
	Youtube         string
	OriginalCreator string
	Img             string
	Gallery         []string
}

// UpdateItemInput mirrors CreateItemInput for edits. Ratings, featured flag,
// authorship and prior changelog entries are not editable through this path.
type UpdateItemInput struct {
	Title           string
	Desc            string
	Category        string
	Link            string
	Youtube         string
	OriginalCreator string
	Img             string
	Gallery         []string
}

// RateItemInput is one actor's review submission.
type RateItemInput struct {
	Rating int
	Review string
}

// ItemService defines the policy-gated item mutations. Every operation checks
// the caller against the permission model before any write, and on success
// patches the listing feed optimistically.
type ItemService interface {
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	CreateItem(ctx context.Context, caller Caller, in CreateItemInput) (*domain.Item, error)
	UpdateItem(ctx context.Context, caller Caller, id string, in UpdateItemInput) (*domain.Item, error)
	DeleteItem(ctx context.Context, caller Caller, id string) error
	ToggleFeature(ctx context.Context, caller Caller, id string) (*domain.Item, error)
	RateItem(ctx context.Context, caller Caller, id string, in RateItemInput) (*domain.Item, error)
}
