package usage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type pgStore struct {
	DB    *sql.DB
	limit int
}

// NewPGStore constructs a Postgres-backed usage store.
func NewPGStore(db *sql.DB, limit int) *pgStore {
	return &pgStore{DB: db, limit: limit}
}

func (s *pgStore) Get(ctx context.Context, sessionID string) (Usage, error) {
	return s.ensure(ctx, sessionID)
}

func (s *pgStore) EnsurePeriod(ctx context.Context, sessionID string) (Usage, error) {
	return s.ensure(ctx, sessionID)
}

func (s *pgStore) Consume(ctx context.Context, sessionID string, n int) (Usage, error) {
	if n <= 0 {
		return s.ensure(ctx, sessionID)
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	u, err := s.lockAndEnsure(ctx, tx, sessionID)
	if err != nil {
		return Usage{}, err
	}

	if u.Used+n > u.Limit {
		err = ErrLimitReached
		return Usage{}, err
	}
	u.Used += n
	if _, err = tx.ExecContext(ctx, `
UPDATE usage_counters SET used = $1 WHERE session_id = $2`, u.Used, sessionID); err != nil {
		return Usage{}, err
	}
	if err = tx.Commit(); err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *pgStore) Reset(ctx context.Context, sessionID string) (Usage, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	now := time.Now().UTC()
	resetsAt := now.Add(window)
	if _, err = tx.ExecContext(ctx, `
INSERT INTO usage_counters (session_id, plan, limit_amount, used, resets_at)
VALUES ($1, 'Free', $2, 0, $3)
ON CONFLICT (session_id) DO UPDATE SET used = 0, resets_at = EXCLUDED.resets_at`, sessionID, s.limit, resetsAt); err != nil {
		return Usage{}, err
	}
	if err = tx.Commit(); err != nil {
		return Usage{}, err
	}
	return Usage{Plan: "Free", Limit: s.limit, Used: 0, ResetsAt: resetsAt}, nil
}

func (s *pgStore) ensure(ctx context.Context, sessionID string) (Usage, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	u, err := s.lockAndEnsure(ctx, tx, sessionID)
	if err != nil {
		return Usage{}, err
	}
	if err = tx.Commit(); err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *pgStore) lockAndEnsure(ctx context.Context, tx *sql.Tx, sessionID string) (Usage, error) {
	var u Usage
	row := tx.QueryRowContext(ctx, `
SELECT plan, limit_amount, used, resets_at FROM usage_counters WHERE session_id = $1 FOR UPDATE`, sessionID)
	err := row.Scan(&u.Plan, &u.Limit, &u.Used, &u.ResetsAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			u = defaultUsage(s.limit)
			if _, err = tx.ExecContext(ctx, `
INSERT INTO usage_counters (session_id, plan, limit_amount, used, resets_at) VALUES ($1, $2, $3, $4, $5)`,
				sessionID, u.Plan, u.Limit, u.Used, u.ResetsAt); err != nil {
				return Usage{}, err
			}
			return u, nil
		}
		return Usage{}, err
	}

	now := time.Now().UTC()
	if now.After(u.ResetsAt) || now.Equal(u.ResetsAt) {
		u.Used = 0
		u.ResetsAt = now.Add(window)
		if _, err = tx.ExecContext(ctx, `UPDATE usage_counters SET used = $1, resets_at = $2 WHERE session_id = $3`, u.Used, u.ResetsAt, sessionID); err != nil {
			return Usage{}, err
		}
	}
	return u, nil
}
