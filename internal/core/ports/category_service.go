package ports

import "context"

// CategoryService defines the shared category list mutations.
type CategoryService interface {
	Categories(ctx context.Context) ([]string, error)
	// Add appends the category unless it already exists (set semantics over
	// an ordered list).
	Add(ctx context.Context, caller Caller, name string) ([]string, error)
	// Remove drops the category; items referencing it keep the dangling name.
	Remove(ctx context.Context, caller Caller, name string) ([]string, error)
}
