package conversations

import (
	"context"
	"database/sql"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Append inserts a turn.
func (r *PGRepo) Append(ctx context.Context, turn Turn) error {
	const query = `
INSERT INTO conversation_turns (id, document_id, question, answer, created_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.DB.ExecContext(ctx, query, turn.ID, turn.DocumentID, turn.Question, turn.Answer, turn.CreatedAt)
	return err
}

// ListByDocument returns the document's turns, oldest first.
func (r *PGRepo) ListByDocument(ctx context.Context, documentID string) ([]Turn, error) {
	const query = `
SELECT id, document_id, question, answer, created_at
FROM conversation_turns
WHERE document_id = $1
ORDER BY created_at ASC`
	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Turn
	for rows.Next() {
		var turn Turn
		if err := rows.Scan(&turn.ID, &turn.DocumentID, &turn.Question, &turn.Answer, &turn.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, turn)
	}
	return out, rows.Err()
}

// DeleteByDocument drops the document's conversation.
func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	const query = `DELETE FROM conversation_turns WHERE document_id = $1`
	_, err := r.DB.ExecContext(ctx, query, documentID)
	return err
}

var _ Repo = (*PGRepo)(nil)
