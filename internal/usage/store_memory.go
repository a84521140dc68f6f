package usage

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu    sync.RWMutex
	data  map[string]Usage
	limit int
}

func newMemoryStore(limit int) *memoryStore {
	return &memoryStore{
		data:  make(map[string]Usage),
		limit: limit,
	}
}

func (s *memoryStore) Get(ctx context.Context, sessionID string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.RLock()
	u, ok := s.data[sessionID]
	s.mu.RUnlock()
	if ok {
		return u, nil
	}
	return s.ensure(ctx, sessionID)
}

func (s *memoryStore) EnsurePeriod(ctx context.Context, sessionID string) (Usage, error) {
	return s.ensure(ctx, sessionID)
}

func (s *memoryStore) ensure(ctx context.Context, sessionID string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data[sessionID]
	if !ok {
		u = defaultUsage(s.limit)
	}
	if now.After(u.ResetsAt) || now.Equal(u.ResetsAt) {
		u.Used = 0
		u.ResetsAt = now.Add(window)
	}
	s.data[sessionID] = u
	return u, nil
}

func (s *memoryStore) Consume(ctx context.Context, sessionID string, n int) (Usage, error) {
	if n <= 0 {
		return s.ensure(ctx, sessionID)
	}
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	u, ok := s.data[sessionID]
	if !ok {
		u = defaultUsage(s.limit)
	}
	if now.After(u.ResetsAt) || now.Equal(u.ResetsAt) {
		u.Used = 0
		u.ResetsAt = now.Add(window)
	}
	if u.Used+n > u.Limit {
		return Usage{}, ErrLimitReached
	}
	u.Used += n
	s.data[sessionID] = u
	return u, nil
}

func (s *memoryStore) Reset(ctx context.Context, sessionID string) (Usage, error) {
	if err := ctx.Err(); err != nil {
		return Usage{}, err
	}
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data[sessionID]
	if !ok {
		u = defaultUsage(s.limit)
	}
	u.Used = 0
	u.ResetsAt = now.Add(window)
	s.data[sessionID] = u
	return u, nil
}
