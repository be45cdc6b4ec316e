package ports

import "context"

// CategoryRepository persists the single globally-shared ordered category
// list. Writes are full replacements; there is no per-item referential
// integrity, so removing a category leaves referencing items untouched.
type CategoryRepository interface {
	Get(ctx context.Context) ([]string, error)
	Put(ctx context.Context, categories []string) error
	Watch(ctx context.Context, onChange func([]string)) (Subscription, error)
}
