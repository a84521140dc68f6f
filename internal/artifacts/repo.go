package artifacts

import "context"

// Repo defines persistence operations for cached artifacts.
type Repo interface {
	Get(ctx context.Context, documentID, task string) (Artifact, error)
	Put(ctx context.Context, artifact Artifact) error
	DeleteByDocument(ctx context.Context, documentID string) error
}
