package usage

import "context"

type store interface {
	Get(ctx context.Context, sessionID string) (Usage, error)
	EnsurePeriod(ctx context.Context, sessionID string) (Usage, error)
	Consume(ctx context.Context, sessionID string, n int) (Usage, error)
	Reset(ctx context.Context, sessionID string) (Usage, error)
}

// Service manages per-session quota data via an underlying store.
type Service struct {
	store store
}

// NewService constructs a Service with an in-memory store.
func NewService(limit int) *Service {
	return &Service{store: newMemoryStore(limit)}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store) *Service {
	return &Service{store: pgStore}
}

// Get returns the current usage for a session, initializing defaults if absent.
func (s *Service) Get(ctx context.Context, sessionID string) (Usage, error) {
	return s.store.Get(ctx, sessionID)
}

// EnsurePeriod resets usage if the quota window has elapsed.
func (s *Service) EnsurePeriod(ctx context.Context, sessionID string) (Usage, error) {
	return s.store.EnsurePeriod(ctx, sessionID)
}

// CanConsume reports whether the session can consume n units.
func (s *Service) CanConsume(ctx context.Context, sessionID string, n int) (bool, Usage, error) {
	u, err := s.store.EnsurePeriod(ctx, sessionID)
	if err != nil {
		return false, Usage{}, err
	}
	if n <= 0 {
		return true, u, nil
	}
	if u.Used+n > u.Limit {
		return false, u, nil
	}
	return true, u, nil
}

// Consume increments usage by n if within limit.
func (s *Service) Consume(ctx context.Context, sessionID string, n int) (Usage, error) {
	return s.store.Consume(ctx, sessionID, n)
}

// Reset sets usage to zero and restarts the window.
func (s *Service) Reset(ctx context.Context, sessionID string) (Usage, error) {
	return s.store.Reset(ctx, sessionID)
}
