package conversations

import "context"

// Repo defines persistence operations for conversation turns.
type Repo interface {
	Append(ctx context.Context, turn Turn) error
	ListByDocument(ctx context.Context, documentID string) ([]Turn, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}
