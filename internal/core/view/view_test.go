package view

import (
	"testing"

	"github.com/visualcraft/marketplace/internal/core/domain"
)

func entry(ts int64) []domain.ChangelogEntry {
	return []domain.ChangelogEntry{{Version: "v1.0", Text: "Initial Release", Timestamp: ts}}
}

func sample() []*domain.Item {
	return []*domain.Item{
		{ID: "k4", Title: "Desert Temple", Category: "Map", Changelog: entry(400)},
		{ID: "k3", Title: "Realistic Shaders", Category: "Shaders", Changelog: entry(300),
			Ratings: map[string]domain.Rating{"a": {Rating: 5}}},
		{ID: "k2", Title: "desert skin pack", Category: "Skins", Changelog: entry(200),
			Ratings: map[string]domain.Rating{"a": {Rating: 3}}},
		{ID: "k1", Title: "Ancient City", Category: "Map", Changelog: entry(100)},
	}
}

func idsOf(items []*domain.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func assertOrder(t *testing.T, got []*domain.Item, want ...string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %v", len(want), idsOf(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("position %d: expected %s, got %v", i, id, idsOf(got))
		}
	}
}

func TestCompute_DefaultIsNewestFirst(t *testing.T) {
	got := Compute(sample(), Query{})
	assertOrder(t, got, "k4", "k3", "k2", "k1")
}

func TestCompute_SearchIsCaseInsensitiveSubstring(t *testing.T) {
	got := Compute(sample(), Query{Search: "DESERT"})
	assertOrder(t, got, "k4", "k2")

	if got := Compute(sample(), Query{Search: "zzz"}); len(got) != 0 {
		t.Fatalf("expected no matches, got %v", idsOf(got))
	}
}

func TestCompute_CategoryIsExactMatch(t *testing.T) {
	got := Compute(sample(), Query{Category: "Map"})
	assertOrder(t, got, "k4", "k1")

	// No partial category matching.
	if got := Compute(sample(), Query{Category: "Ma"}); len(got) != 0 {
		t.Fatalf("expected no matches for partial category, got %v", idsOf(got))
	}
}

func TestCompute_SearchAndCategoryCompose(t *testing.T) {
	got := Compute(sample(), Query{Search: "desert", Category: "Map"})
	assertOrder(t, got, "k4")
}

func TestCompute_SortOldest(t *testing.T) {
	got := Compute(sample(), Query{Sort: SortOldest})
	assertOrder(t, got, "k1", "k2", "k3", "k4")
}

func TestCompute_SortHighestRating(t *testing.T) {
	got := Compute(sample(), Query{Sort: SortHighestRating})
	// k3 avg 5, k2 avg 3, unrated items keep their relative source order.
	assertOrder(t, got, "k3", "k2", "k4", "k1")
}

func TestCompute_SortTitleAsc(t *testing.T) {
	got := Compute(sample(), Query{Sort: SortTitleAsc})
	// Case-insensitive collation: "desert skin pack" sorts with "Desert".
	assertOrder(t, got, "k1", "k2", "k4", "k3")
}

func TestCompute_StableOnEqualKeys(t *testing.T) {
	items := []*domain.Item{
		{ID: "a", Title: "A", Changelog: entry(100)},
		{ID: "b", Title: "B", Changelog: entry(100)},
		{ID: "c", Title: "C", Changelog: entry(100)},
	}
	got := Compute(items, Query{Sort: SortNewest})
	assertOrder(t, got, "a", "b", "c")
}

func TestCompute_DoesNotMutateInput(t *testing.T) {
	items := sample()
	_ = Compute(items, Query{Sort: SortTitleAsc})
	assertOrder(t, items, "k4", "k3", "k2", "k1")
}

func TestCompute_EmptyChangelogSortsAsEpochZero(t *testing.T) {
	items := []*domain.Item{
		{ID: "old", Title: "No History"},
		{ID: "new", Title: "Has History", Changelog: entry(100)},
	}
	got := Compute(items, Query{Sort: SortNewest})
	assertOrder(t, got, "new", "old")
}

func TestFeatured_SubsetInSourceOrder(t *testing.T) {
	items := sample()
	items[0].Featured = true
	items[3].Featured = true

	got := Featured(items)
	assertOrder(t, got, "k4", "k1")
}

func TestFeatured_EmptyWhenNoneFlagged(t *testing.T) {
	if got := Featured(sample()); len(got) != 0 {
		t.Fatalf("expected empty featured view, got %v", idsOf(got))
	}
}
