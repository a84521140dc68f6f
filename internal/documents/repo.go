package documents

import "context"

// Repo defines persistence operations for documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetCurrentBySession(ctx context.Context, sessionID string) (Document, error)
	ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]Document, error)
}
