package artifacts

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Get returns the cached artifact for a (document, task) pair.
func (r *PGRepo) Get(ctx context.Context, documentID, task string) (Artifact, error) {
	const query = `
SELECT document_id, task, content, created_at
FROM artifacts
WHERE document_id = $1 AND task = $2`
	var artifact Artifact
	err := r.DB.QueryRowContext(ctx, query, documentID, task).Scan(
		&artifact.DocumentID,
		&artifact.Task,
		&artifact.Content,
		&artifact.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Artifact{}, ErrNotFound
		}
		return Artifact{}, err
	}
	return artifact, nil
}

// Put upserts the artifact for its (document, task) pair.
func (r *PGRepo) Put(ctx context.Context, artifact Artifact) error {
	const query = `
INSERT INTO artifacts (document_id, task, content, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (document_id, task)
DO UPDATE SET content = EXCLUDED.content, created_at = EXCLUDED.created_at`
	_, err := r.DB.ExecContext(ctx, query, artifact.DocumentID, artifact.Task, artifact.Content, artifact.CreatedAt)
	return err
}

// DeleteByDocument removes all cached artifacts for a document.
func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	const query = `DELETE FROM artifacts WHERE document_id = $1`
	_, err := r.DB.ExecContext(ctx, query, documentID)
	return err
}

var _ Repo = (*PGRepo)(nil)
