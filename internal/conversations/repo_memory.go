package conversations

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Turn // documentID -> turns, in append order
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string][]Turn),
	}
}

// Append adds a turn to the document's conversation.
func (r *MemoryRepo) Append(ctx context.Context, turn Turn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[turn.DocumentID] = append(r.data[turn.DocumentID], turn)
	return nil
}

// ListByDocument returns the document's turns in append order.
func (r *MemoryRepo) ListByDocument(ctx context.Context, documentID string) ([]Turn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	turns := r.data[documentID]
	out := make([]Turn, len(turns))
	copy(out, turns)
	return out, nil
}

// DeleteByDocument drops the document's conversation.
func (r *MemoryRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, documentID)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
