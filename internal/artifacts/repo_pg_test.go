package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoGetReturnsArtifact(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	created := time.Now().UTC()

	rows := sqlmock.NewRows([]string{"document_id", "task", "content", "created_at"}).
		AddRow("doc-1", "summary", []byte(`{"summary":"hi"}`), created)
	mock.ExpectQuery("SELECT document_id, task, content, created_at").
		WithArgs("doc-1", "summary").
		WillReturnRows(rows)

	got, err := repo.Get(context.Background(), "doc-1", "summary")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got.Content) != `{"summary":"hi"}` {
		t.Fatalf("unexpected content %s", got.Content)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetMissingMapsToErrNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectQuery("SELECT document_id, task, content, created_at").
		WithArgs("doc-1", "mindmap").
		WillReturnRows(sqlmock.NewRows([]string{"document_id", "task", "content", "created_at"}))

	if _, err := repo.Get(context.Background(), "doc-1", "mindmap"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoPutUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	art := Artifact{
		DocumentID: "doc-1",
		Task:       "summary",
		Content:    json.RawMessage(`{"summary":"hi"}`),
		CreatedAt:  time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO artifacts").
		WithArgs(art.DocumentID, art.Task, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Put(context.Background(), art); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteByDocument(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	mock.ExpectExec("DELETE FROM artifacts").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := repo.DeleteByDocument(context.Background(), "doc-1"); err != nil {
		t.Fatalf("DeleteByDocument: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
