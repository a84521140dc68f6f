package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"documind-backend/internal/extract"
	"documind-backend/internal/shared/storage/object"
	"documind-backend/internal/shared/telemetry"
)

var extractText = extract.Text

// Invalidator drops state scoped to a document. Implemented by the
// artifact cache and the conversation store.
type Invalidator interface {
	DeleteByDocument(ctx context.Context, documentID string) error
}

// Service contains business logic for documents.
type Service struct {
	Store         object.ObjectStore
	Repo          Repo
	Artifacts     Invalidator
	Conversations Invalidator
}

// Upload saves the file, extracts its text, and makes it the session's
// active document. Replacing the previous document drops its cached
// artifacts and conversation turns: they are scoped to the document
// that produced them.
func (s *Service) Upload(ctx context.Context, sessionID, fileName string, r io.Reader) (Document, error) {
	if fileName == "" {
		return Document{}, fmt.Errorf("%w: file name required", ErrInvalidInput)
	}
	if sessionID == "" {
		return Document{}, fmt.Errorf("%w: session id required", ErrInvalidInput)
	}

	previous, err := s.Repo.GetCurrentBySession(ctx, sessionID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return Document{}, err
	}
	hadPrevious := err == nil

	storageKey, size, mimeType, err := s.Store.Save(ctx, sessionID, fileName, r)
	if err != nil {
		return Document{}, err
	}

	res, err := extractText(ctx, s.Store, storageKey, mimeType, fileName)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Document{}, err
		}
		return Document{}, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	now := time.Now().UTC()
	doc := Document{
		ID:               uuid.NewString(),
		SessionID:        sessionID,
		FileName:         fileName,
		MimeType:         mimeType,
		SizeBytes:        size,
		PageCount:        res.PageCount,
		StorageKey:       storageKey,
		ExtractedTextKey: storageKey + ".extracted.txt",
		ExtractedAt:      &now,
		CreatedAt:        now,
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	if hadPrevious {
		s.invalidate(ctx, previous.ID)
	}

	return doc, nil
}

// Current returns the active document for a session.
func (s *Service) Current(ctx context.Context, sessionID string) (Document, error) {
	if sessionID == "" {
		return Document{}, fmt.Errorf("%w: session id required", ErrInvalidInput)
	}
	return s.Repo.GetCurrentBySession(ctx, sessionID)
}

// CurrentText returns the active document and its extracted text.
func (s *Service) CurrentText(ctx context.Context, sessionID string) (Document, string, error) {
	doc, err := s.Current(ctx, sessionID)
	if err != nil {
		return Document{}, "", err
	}

	body, err := s.Store.Open(ctx, doc.ExtractedTextKey)
	if err != nil {
		return Document{}, "", fmt.Errorf("open extracted text key=%s: %w", doc.ExtractedTextKey, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return Document{}, "", fmt.Errorf("read extracted text key=%s: %w", doc.ExtractedTextKey, err)
	}

	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return Document{}, "", fmt.Errorf("%w: stored text empty for document %s", ErrExtraction, doc.ID)
	}
	return doc, text, nil
}

// List returns recent documents for a session.
func (s *Service) List(ctx context.Context, sessionID string, limit, offset int) ([]Document, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id required", ErrInvalidInput)
	}
	return s.Repo.ListBySession(ctx, sessionID, limit, offset)
}

func (s *Service) invalidate(ctx context.Context, documentID string) {
	for _, inv := range []Invalidator{s.Artifacts, s.Conversations} {
		if inv == nil {
			continue
		}
		if err := inv.DeleteByDocument(ctx, documentID); err != nil {
			telemetry.Error("document.invalidate", map[string]any{
				"document_id": documentID,
				"error":       err.Error(),
			})
		}
	}
}
