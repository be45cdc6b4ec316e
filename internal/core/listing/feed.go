// Package listing maintains the locally cached, key-ordered window over the
// remote item collection and grows it backward in time as callers request
// more. The window is display-ordered newest first; the cursor is the key of
// the oldest item fetched so far.
package listing

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/visualcraft/marketplace/internal/api/metrics"
	"github.com/visualcraft/marketplace/internal/core/domain"
	"github.com/visualcraft/marketplace/internal/core/ports"
)

// PageSize is the number of items requested per fetch.
const PageSize = 12

// ErrFetchInFlight is returned when a fetch is requested while another one is
// still outstanding. Non-fatal: the caller retries after the current fetch
// resolves.
var ErrFetchInFlight = errors.New("listing: fetch already in flight")

// Feed implements the pagination engine. At most one fetch runs at a time;
// window, cursor and the more-available flag only change when a fetch
// resolves successfully, so a failed fetch is always safely retryable.
type Feed struct {
	repo ports.ItemRepository
	log  zerolog.Logger

	mu       sync.Mutex
	fetching bool
	items    []*domain.Item
	ids      map[string]struct{}
	cursor   string // oldest fetched key; empty until the first page lands
	more     bool
}

func NewFeed(repo ports.ItemRepository, log zerolog.Logger) *Feed {
	return &Feed{
		repo: repo,
		log:  log,
		ids:  make(map[string]struct{}),
		more: true,
	}
}

// Reset discards the cursor and window and loads the most recent page.
// More-available becomes true again unless the fresh page is short: a reset
// starts a new listing lifecycle.
func (f *Feed) Reset(ctx context.Context) error {
	if err := f.acquire(); err != nil {
		metrics.FeedFetchesTotal.WithLabelValues("reset", "busy").Inc()
		return err
	}
	defer f.release()

	fetched, err := f.repo.LatestPage(ctx, PageSize)
	if err != nil {
		metrics.FeedFetchesTotal.WithLabelValues("reset", "error").Inc()
		f.log.Warn().Err(err).Msg("listing: reset fetch failed")
		return err
	}

	page := reversed(fetched) // ascending by key → newest first

	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = page
	f.ids = make(map[string]struct{}, len(page))
	for _, it := range page {
		f.ids[it.ID] = struct{}{}
	}
	f.more = len(page) >= PageSize
	if len(page) > 0 {
		f.cursor = page[len(page)-1].ID
	} else {
		f.cursor = ""
	}
	metrics.FeedFetchesTotal.WithLabelValues("reset", "ok").Inc()
	return nil
}

// LoadMore fetches the page at or before the current cursor and appends the
// genuinely new items. Once a fetch yields fewer than PageSize items after
// the inclusive-boundary duplicate is dropped, more-available latches false
// and stays false until the next Reset.
func (f *Feed) LoadMore(ctx context.Context) error {
	if err := f.acquire(); err != nil {
		metrics.FeedFetchesTotal.WithLabelValues("more", "busy").Inc()
		return err
	}
	defer f.release()

	f.mu.Lock()
	cursor := f.cursor
	more := f.more
	f.mu.Unlock()

	if !more {
		return nil
	}

	var fetched []*domain.Item
	var err error
	if cursor == "" {
		// Never fetched: behave like an initial page load.
		fetched, err = f.repo.LatestPage(ctx, PageSize)
	} else {
		// One extra item covers the inclusive boundary.
		fetched, err = f.repo.PageEndingAt(ctx, cursor, PageSize+1)
	}
	if err != nil {
		metrics.FeedFetchesTotal.WithLabelValues("more", "error").Inc()
		f.log.Warn().Err(err).Str("cursor", cursor).Msg("listing: continuation fetch failed")
		return err
	}

	// The boundary item was already shown; drop it before anything else so
	// the short-page termination check counts only fresh items.
	if cursor != "" && len(fetched) > 0 && fetched[len(fetched)-1].ID == cursor {
		fetched = fetched[:len(fetched)-1]
	}
	page := reversed(fetched)

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(page) < PageSize {
		f.more = false
	}
	if len(page) == 0 {
		metrics.FeedFetchesTotal.WithLabelValues("more", "ok").Inc()
		return nil
	}
	f.cursor = page[len(page)-1].ID
	for _, it := range page {
		if _, seen := f.ids[it.ID]; seen {
			continue
		}
		f.ids[it.ID] = struct{}{}
		f.items = append(f.items, it)
	}
	metrics.FeedFetchesTotal.WithLabelValues("more", "ok").Inc()
	return nil
}

// Snapshot returns a deep copy of the current window, newest first.
func (f *Feed) Snapshot() []*domain.Item {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Item, len(f.items))
	for i, it := range f.items {
		out[i] = it.Clone()
	}
	return out
}

// HasMore reports whether further continuation fetches may yield items.
func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.more
}

// Len returns the current window size.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// ApplyCreate prepends a freshly written item so the UI reflects the write
// before the store round-trips. The cursor is untouched: the new item is
// newer than everything fetched.
func (f *Feed) ApplyCreate(item *domain.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, seen := f.ids[item.ID]; seen {
		return
	}
	f.ids[item.ID] = struct{}{}
	f.items = append([]*domain.Item{item.Clone()}, f.items...)
}

// ApplyUpdate replaces the cached copy of an item in place. No-op when the
// item is outside the window. A later authoritative fetch always wins over
// this patch: Reset rebuilds the window wholesale.
func (f *Feed) ApplyUpdate(item *domain.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, it := range f.items {
		if it.ID == item.ID {
			f.items[i] = item.Clone()
			return
		}
	}
}

// ApplyDelete removes an item from the window. The id is also released so a
// subsequent fetch can legitimately restore the item if the delete was
// overridden remotely.
func (f *Feed) ApplyDelete(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ids, id)
	for i, it := range f.items {
		if it.ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return
		}
	}
}

func (f *Feed) acquire() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetching {
		return ErrFetchInFlight
	}
	f.fetching = true
	return nil
}

func (f *Feed) release() {
	f.mu.Lock()
	f.fetching = false
	f.mu.Unlock()
}

func reversed(in []*domain.Item) []*domain.Item {
	out := make([]*domain.Item, len(in))
	for i, it := range in {
		out[len(in)-1-i] = it
	}
	return out
}
