package artifacts

import (
	"context"
	"sync"
)

type cacheKey struct {
	documentID string
	task       string
}

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[cacheKey]Artifact
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[cacheKey]Artifact),
	}
}

// Get returns the cached artifact for a (document, task) pair.
func (r *MemoryRepo) Get(ctx context.Context, documentID, task string) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	artifact, ok := r.data[cacheKey{documentID, task}]
	if !ok {
		return Artifact{}, ErrNotFound
	}
	return artifact, nil
}

// Put stores or overwrites the artifact for its (document, task) pair.
func (r *MemoryRepo) Put(ctx context.Context, artifact Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[cacheKey{artifact.DocumentID, artifact.Task}] = artifact
	return nil
}

// DeleteByDocument removes all cached artifacts for a document.
func (r *MemoryRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for key := range r.data {
		if key.documentID == documentID {
			delete(r.data, key)
		}
	}
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
