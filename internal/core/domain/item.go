package domain

// GalleryLimit caps the number of gallery images per item.
const GalleryLimit = 5

// ChangelogEntry records one release note on an item. Timestamps are epoch
// milliseconds, matching the stored wire format.
type ChangelogEntry struct {
	Version   string `json:"version"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Rating is one actor's review of an item. The ratings map on Item is keyed
// by actor id, so a repeat rating by the same actor replaces the previous one.
type Rating struct {
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	Rating    int    `json:"rating"` // 1..5
	Review    string `json:"review,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Item is a user-submitted creation. ID is the store-assigned key and sorts
// consistently with creation order. Changelog is non-empty after creation and
// append-only.
type Item struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Desc            string            `json:"desc"`
	Category        string            `json:"cat"`
	Link            string            `json:"link"`
	Youtube         string            `json:"youtube,omitempty"`
	OriginalCreator string            `json:"originalCreator,omitempty"`
	Img             string            `json:"img"`
	Gallery         []string          `json:"gallery,omitempty"`
	AuthorID        string            `json:"authorId"`
	Author          string            `json:"author"` // denormalized display name
	Changelog       []ChangelogEntry  `json:"changelog"`
	Ratings         map[string]Rating `json:"ratings,omitempty"`
	Featured        bool              `json:"featured"`
}

// AverageRating returns the arithmetic mean of all rating values, or 0 when
// the item has no ratings. The zero is a numeric aggregate, not a sentinel;
// "unrated" display treatment belongs to the rendering boundary.
func (i *Item) AverageRating() float64 {
	if len(i.Ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range i.Ratings {
		sum += r.Rating
	}
	return float64(sum) / float64(len(i.Ratings))
}

// Clone returns a deep copy so cached items can be handed out without
// aliasing the feed's window.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	clone := *i
	if i.Gallery != nil {
		clone.Gallery = append([]string(nil), i.Gallery...)
	}
	if i.Changelog != nil {
		clone.Changelog = append([]ChangelogEntry(nil), i.Changelog...)
	}
	if i.Ratings != nil {
		clone.Ratings = make(map[string]Rating, len(i.Ratings))
		for k, v := range i.Ratings {
			clone.Ratings[k] = v
		}
	}
	return &clone
}
