// Package view computes filtered and sorted projections over the listing
// cache. Every function is a total, pure recomputation: the same snapshot and
// query always produce the same order, and the input slice and its items are
// never mutated.
package view

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/visualcraft/marketplace/internal/core/domain"
)

// SortKey selects the ordering of a derived view.
type SortKey string

const (
	SortNewest        SortKey = "newest"
	SortOldest        SortKey = "oldest"
	SortHighestRating SortKey = "highest_rating"
	SortTitleAsc      SortKey = "title_asc"
)

// ValidSortKey reports whether s names a known sort key.
func ValidSortKey(s string) bool {
	switch SortKey(s) {
	case SortNewest, SortOldest, SortHighestRating, SortTitleAsc:
		return true
	}
	return false
}

// Query carries the view parameters. An empty Search matches everything, an
// empty Category means "any", and an empty Sort falls back to SortNewest.
type Query struct {
	Search   string
	Category string
	Sort     SortKey
}

// Compute returns a new ordered slice of the items matching the query.
// All sorts are stable, so items with equal sort keys retain their relative
// order from the source cache; timestamps do collide.
func Compute(items []*domain.Item, q Query) []*domain.Item {
	search := strings.ToLower(q.Search)

	out := make([]*domain.Item, 0, len(items))
	for _, it := range items {
		if search != "" && !strings.Contains(strings.ToLower(it.Title), search) {
			continue
		}
		if q.Category != "" && it.Category != q.Category {
			continue
		}
		out = append(out, it)
	}

	switch q.Sort {
	case SortOldest:
		sort.SliceStable(out, func(a, b int) bool {
			return firstChangeAt(out[a]) < firstChangeAt(out[b])
		})
	case SortHighestRating:
		sort.SliceStable(out, func(a, b int) bool {
			return out[a].AverageRating() > out[b].AverageRating()
		})
	case SortTitleAsc:
		c := collate.New(language.Und, collate.Loose)
		sort.SliceStable(out, func(a, b int) bool {
			return c.CompareString(out[a].Title, out[b].Title) < 0
		})
	default: // SortNewest
		sort.SliceStable(out, func(a, b int) bool {
			return lastChangeAt(out[a]) > lastChangeAt(out[b])
		})
	}
	return out
}

// Featured returns the featured subset in source order.
func Featured(items []*domain.Item) []*domain.Item {
	out := make([]*domain.Item, 0)
	for _, it := range items {
		if it.Featured {
			out = append(out, it)
		}
	}
	return out
}

// lastChangeAt is the timestamp of the most recent changelog entry; an item
// with an empty changelog sorts as epoch 0.
func lastChangeAt(it *domain.Item) int64 {
	if len(it.Changelog) == 0 {
		return 0
	}
	return it.Changelog[len(it.Changelog)-1].Timestamp
}

func firstChangeAt(it *domain.Item) int64 {
	if len(it.Changelog) == 0 {
		return 0
	}
	return it.Changelog[0].Timestamp
}
