package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/visualcraft/marketplace/internal/api/metrics"
	"github.com/visualcraft/marketplace/internal/core/domain"
	"github.com/visualcraft/marketplace/internal/core/listing"
	"github.com/visualcraft/marketplace/internal/core/ports"
)

// ItemService dispatches the policy-gated item mutations. Every operation
// checks the caller first (a denial writes nothing), performs the write, and
// then applies the same transform to the listing feed so readers need not
// wait for the store's own notification.
type ItemService struct {
	repo ports.ItemRepository
	feed *listing.Feed
	log  zerolog.Logger
}

func NewItemService(repo ports.ItemRepository, feed *listing.Feed, log zerolog.Logger) *ItemService {
	return &ItemService{repo: repo, feed: feed, log: log}
}

// GetItem loads a single item. Reads are public.
func (s *ItemService) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	return s.repo.Get(ctx, id)
}

// CreateItem stores a new creation authored by the caller. Muted actors are
// refused. The changelog is seeded with the initial release entry.
func (s *ItemService) CreateItem(ctx context.Context, caller ports.Caller, in ports.CreateItemInput) (*domain.Item, error) {
	if caller.User == nil || caller.UID == "" {
		metrics.PolicyDenialsTotal.WithLabelValues("create_item").Inc()
		return nil, domain.ErrForbidden
	}
	if caller.User.Muted {
		metrics.PolicyDenialsTotal.WithLabelValues("create_item").Inc()
		return nil, domain.ErrAccountMuted
	}

	gallery := in.Gallery
	if len(gallery) > domain.GalleryLimit {
		gallery = gallery[:domain.GalleryLimit]
	}

	item := &domain.Item{
		Title:           in.Title,
		Desc:            in.Desc,
		Category:        in.Category,
		Link:            in.Link,
		Youtube:         in.Youtube,
		OriginalCreator: in.OriginalCreator,
		Img:             in.Img,
		Gallery:         gallery,
		AuthorID:        caller.UID,
		Author:          caller.User.Username,
		Changelog: []domain.ChangelogEntry{
			{Version: "v1.0", Text: "Initial Release", Timestamp: nowMillis()},
		},
		Featured: false,
	}

	id, err := s.repo.Push(ctx, item)
	if err != nil {
		s.log.Error().Err(err).Str("uid", caller.UID).Msg("item create failed")
		return nil, err
	}
	item.ID = id

	s.feed.ApplyCreate(item)
	metrics.ItemsCreatedTotal.Inc()
	s.log.Info().Str("item_id", id).Str("uid", caller.UID).Str("title", in.Title).Msg("item created")
	return item, nil
}

// UpdateItem edits an item's content fields. Allowed for the author or any
// MANAGE_CONTENT holder. A changelog entry is appended; prior entries are
// never rewritten, and ratings, the featured flag and authorship are
// untouched.
func (s *ItemService) UpdateItem(ctx context.Context, caller ports.Caller, id string, in ports.UpdateItemInput) (*domain.Item, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanEditItem(caller.User, caller.UID, existing.AuthorID) {
		metrics.PolicyDenialsTotal.WithLabelValues("update_item").Inc()
		return nil, domain.ErrForbidden
	}

	gallery := in.Gallery
	if len(gallery) > domain.GalleryLimit {
		gallery = gallery[:domain.GalleryLimit]
	}

	changelog := append(append([]domain.ChangelogEntry(nil), existing.Changelog...),
		domain.ChangelogEntry{Version: "Update", Text: "Updated details", Timestamp: nowMillis()})

	patch := ports.ItemUpdate{
		Title:           &in.Title,
		Desc:            &in.Desc,
		Category:        &in.Category,
		Link:            &in.Link,
		Youtube:         &in.Youtube,
		OriginalCreator: &in.OriginalCreator,
		Img:             &in.Img,
		Gallery:         gallery,
		Changelog:       changelog,
	}
	if err := s.repo.Update(ctx, id, patch); err != nil {
		s.log.Warn().Err(err).Str("item_id", id).Msg("item update failed")
		return nil, err
	}

	updated := existing.Clone()
	updated.Title = in.Title
	updated.Desc = in.Desc
	updated.Category = in.Category
	updated.Link = in.Link
	updated.Youtube = in.Youtube
	updated.OriginalCreator = in.OriginalCreator
	updated.Img = in.Img
	updated.Gallery = gallery
	updated.Changelog = changelog

	s.feed.ApplyUpdate(updated)
	s.log.Info().Str("item_id", id).Str("uid", caller.UID).Msg("item updated")
	return updated, nil
}

// DeleteItem removes the record entirely. Allowed for the author or any
// MANAGE_CONTENT holder.
func (s *ItemService) DeleteItem(ctx context.Context, caller ports.Caller, id string) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	isAuthor := caller.UID != "" && caller.UID == existing.AuthorID
	if !isAuthor && !domain.HasPermission(caller.User, domain.ManageContent) {
		metrics.PolicyDenialsTotal.WithLabelValues("delete_item").Inc()
		return domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("item_id", id).Msg("item delete failed")
		return err
	}
	s.feed.ApplyDelete(id)
	s.log.Info().Str("item_id", id).Str("uid", caller.UID).Msg("item deleted")
	return nil
}

// ToggleFeature flips the featured flag. FEATURE_POSTS holders only.
func (s *ItemService) ToggleFeature(ctx context.Context, caller ports.Caller, id string) (*domain.Item, error) {
	if !domain.HasPermission(caller.User, domain.FeaturePosts) {
		metrics.PolicyDenialsTotal.WithLabelValues("toggle_feature").Inc()
		return nil, domain.ErrForbidden
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next := !existing.Featured
	if err := s.repo.SetFeatured(ctx, id, next); err != nil {
		s.log.Warn().Err(err).Str("item_id", id).Msg("feature toggle failed")
		return nil, err
	}

	updated := existing.Clone()
	updated.Featured = next
	s.feed.ApplyUpdate(updated)
	s.log.Info().Str("item_id", id).Bool("featured", next).Msg("feature toggled")
	return updated, nil
}

// RateItem upserts the caller's rating, replacing any previous one by the
// same actor.
func (s *ItemService) RateItem(ctx context.Context, caller ports.Caller, id string, in ports.RateItemInput) (*domain.Item, error) {
	if caller.User == nil || caller.UID == "" {
		metrics.PolicyDenialsTotal.WithLabelValues("rate_item").Inc()
		return nil, domain.ErrForbidden
	}
	if caller.User.Muted {
		metrics.PolicyDenialsTotal.WithLabelValues("rate_item").Inc()
		return nil, domain.ErrAccountMuted
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, domain.ErrInvalidRating
	}

	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	r := domain.Rating{
		UserID:    caller.UID,
		Username:  caller.User.Username,
		Rating:    in.Rating,
		Review:    in.Review,
		Timestamp: nowMillis(),
	}
	if err := s.repo.SetRating(ctx, id, r); err != nil {
		s.log.Warn().Err(err).Str("item_id", id).Msg("rating write failed")
		return nil, err
	}

	updated := existing.Clone()
	if updated.Ratings == nil {
		updated.Ratings = make(map[string]domain.Rating, 1)
	}
	updated.Ratings[caller.UID] = r
	s.feed.ApplyUpdate(updated)
	return updated, nil
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
