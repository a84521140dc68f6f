package insights

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"documind-backend/internal/artifacts"
	"documind-backend/internal/conversations"
	"documind-backend/internal/documents"
	"documind-backend/internal/llm"
	"documind-backend/internal/mindmap"
	"documind-backend/internal/shared/storage/object/local"
	"documind-backend/internal/usage"
)

type scriptedClient struct {
	responses map[llm.Task]string
	err       error
	calls     int
	prompts   []string
}

func (c *scriptedClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.calls++
	c.prompts = append(c.prompts, req.Prompt)
	if c.err != nil {
		return "", c.err
	}
	return c.responses[req.Task], nil
}

const sessionID = "sess-1"

func setupService(t *testing.T, client llm.Client) *Service {
	t.Helper()
	store := local.New(t.TempDir())
	docRepo := documents.NewMemoryRepo()
	artRepo := artifacts.NewMemoryRepo()
	turnRepo := conversations.NewMemoryRepo()

	extractedKey, _, _, err := store.Save(context.Background(), sessionID, "doc.txt",
		strings.NewReader("photosynthesis converts light into chemical energy"))
	if err != nil {
		t.Fatalf("save extracted text: %v", err)
	}

	doc := documents.Document{
		ID:               "doc-1",
		SessionID:        sessionID,
		FileName:         "paper.pdf",
		MimeType:         "application/pdf",
		SizeBytes:        10,
		PageCount:        3,
		StorageKey:       "original",
		ExtractedTextKey: extractedKey,
		CreatedAt:        time.Now().UTC(),
	}
	if err := docRepo.Create(context.Background(), doc); err != nil {
		t.Fatalf("create doc: %v", err)
	}

	docSvc := &documents.Service{
		Store:         store,
		Repo:          docRepo,
		Artifacts:     artRepo,
		Conversations: turnRepo,
	}

	return &Service{
		Docs:    docSvc,
		Cache:   artRepo,
		Turns:   turnRepo,
		Client:  client,
		Prompts: llm.PromptBuilder{},
		Quota:   usage.NewService(50),
	}
}

func TestSummaryCachesPerDocument(t *testing.T) {
	client := &scriptedClient{responses: map[llm.Task]string{
		llm.TaskSummary: "a summary of photosynthesis",
	}}
	svc := setupService(t, client)
	ctx := context.Background()

	first, err := svc.Summary(ctx, sessionID)
	if err != nil {
		t.Fatalf("first Summary: %v", err)
	}
	if first.Cached {
		t.Fatalf("first call should not be cached")
	}
	if first.Summary != "a summary of photosynthesis" {
		t.Fatalf("unexpected summary %q", first.Summary)
	}

	second, err := svc.Summary(ctx, sessionID)
	if err != nil {
		t.Fatalf("second Summary: %v", err)
	}
	if !second.Cached {
		t.Fatalf("second call should hit the cache")
	}
	if second.Summary != first.Summary {
		t.Fatalf("cached summary differs: %q vs %q", second.Summary, first.Summary)
	}
	if client.calls != 1 {
		t.Fatalf("expected a single model call, got %d", client.calls)
	}
}

func TestSummaryWithoutDocument(t *testing.T) {
	client := &scriptedClient{}
	svc := setupService(t, client)

	_, err := svc.Summary(context.Background(), "other-session")
	if !errors.Is(err, documents.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if client.calls != 0 {
		t.Fatalf("no model call expected, got %d", client.calls)
	}
}

func TestAskFeedsHistoryToFollowUps(t *testing.T) {
	client := &scriptedClient{responses: map[llm.Task]string{
		llm.TaskQuestion: "chlorophyll",
	}}
	svc := setupService(t, client)
	ctx := context.Background()

	first, err := svc.Ask(ctx, sessionID, "what pigment is involved?")
	if err != nil {
		t.Fatalf("first Ask: %v", err)
	}
	if first.Answer != "chlorophyll" {
		t.Fatalf("unexpected answer %q", first.Answer)
	}

	if _, err := svc.Ask(ctx, sessionID, "where is it found?"); err != nil {
		t.Fatalf("second Ask: %v", err)
	}

	if client.calls != 2 {
		t.Fatalf("expected 2 model calls, got %d", client.calls)
	}
	secondPrompt := client.prompts[1]
	if !strings.Contains(secondPrompt, "what pigment is involved?") {
		t.Fatalf("expected prior question in follow-up prompt")
	}
	if !strings.Contains(secondPrompt, "chlorophyll") {
		t.Fatalf("expected prior answer in follow-up prompt")
	}

	_, turns, err := svc.Conversation(ctx, sessionID)
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 recorded turns, got %d", len(turns))
	}
}

func TestAskRejectsEmptyQuestion(t *testing.T) {
	client := &scriptedClient{}
	svc := setupService(t, client)

	_, err := svc.Ask(context.Background(), sessionID, "")
	if !errors.Is(err, documents.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestClearConversationDropsTurns(t *testing.T) {
	client := &scriptedClient{responses: map[llm.Task]string{
		llm.TaskQuestion: "an answer",
	}}
	svc := setupService(t, client)
	ctx := context.Background()

	if _, err := svc.Ask(ctx, sessionID, "anything?"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if _, err := svc.ClearConversation(ctx, sessionID); err != nil {
		t.Fatalf("ClearConversation: %v", err)
	}

	_, turns, err := svc.Conversation(ctx, sessionID)
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected conversation cleared, got %d turns", len(turns))
	}
}

func TestMindMapValidatesAndCaches(t *testing.T) {
	client := &scriptedClient{responses: map[llm.Task]string{
		llm.TaskMindMap: `{"nodes":[{"id":"n1","label":"Photosynthesis"},{"id":"n2","label":"Chlorophyll"}],"edges":[{"source":"n1","target":"n2"}]}`,
	}}
	svc := setupService(t, client)
	ctx := context.Background()

	first, err := svc.MindMap(ctx, sessionID)
	if err != nil {
		t.Fatalf("first MindMap: %v", err)
	}
	if first.Cached || len(first.Graph.Nodes) != 2 {
		t.Fatalf("unexpected result: %+v", first)
	}
	if first.Graph.Root() != "n1" {
		t.Fatalf("expected root n1, got %s", first.Graph.Root())
	}

	second, err := svc.MindMap(ctx, sessionID)
	if err != nil {
		t.Fatalf("second MindMap: %v", err)
	}
	if !second.Cached {
		t.Fatalf("second call should hit the cache")
	}
	if client.calls != 1 {
		t.Fatalf("expected a single model call, got %d", client.calls)
	}
}

func TestMindMapRejectsMalformedOutput(t *testing.T) {
	client := &scriptedClient{responses: map[llm.Task]string{
		llm.TaskMindMap: "sorry, I cannot produce a mind map",
	}}
	svc := setupService(t, client)

	_, err := svc.MindMap(context.Background(), sessionID)
	if !errors.Is(err, mindmap.ErrMalformedGraph) {
		t.Fatalf("expected ErrMalformedGraph, got %v", err)
	}

	// A failed generation must not poison the cache.
	if _, err := svc.Cache.Get(context.Background(), "doc-1", string(llm.TaskMindMap)); !errors.Is(err, artifacts.ErrNotFound) {
		t.Fatalf("expected empty cache after malformed output, got %v", err)
	}
}

func TestQuotaBlocksModelCalls(t *testing.T) {
	client := &scriptedClient{responses: map[llm.Task]string{
		llm.TaskQuestion: "an answer",
	}}
	svc := setupService(t, client)
	svc.Quota = usage.NewService(1)
	ctx := context.Background()

	if _, err := svc.Ask(ctx, sessionID, "first?"); err != nil {
		t.Fatalf("first Ask: %v", err)
	}

	_, err := svc.Ask(ctx, sessionID, "second?")
	if !errors.Is(err, usage.ErrLimitReached) {
		t.Fatalf("expected ErrLimitReached, got %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("expected quota to stop the second model call, calls=%d", client.calls)
	}
}

func TestCachedSummaryDoesNotConsumeQuota(t *testing.T) {
	client := &scriptedClient{responses: map[llm.Task]string{
		llm.TaskSummary: "summary",
	}}
	svc := setupService(t, client)
	svc.Quota = usage.NewService(1)
	ctx := context.Background()

	if _, err := svc.Summary(ctx, sessionID); err != nil {
		t.Fatalf("first Summary: %v", err)
	}
	res, err := svc.Summary(ctx, sessionID)
	if err != nil {
		t.Fatalf("cached Summary should bypass quota: %v", err)
	}
	if !res.Cached {
		t.Fatalf("expected cache hit")
	}
}

func TestModelErrorsPassThrough(t *testing.T) {
	client := &scriptedClient{err: &llm.RateLimitedError{RetryAfter: 3 * time.Second}}
	svc := setupService(t, client)

	_, err := svc.Summary(context.Background(), sessionID)
	if !errors.Is(err, llm.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited passed through, got %v", err)
	}

	var rateErr *llm.RateLimitedError
	if !errors.As(err, &rateErr) || rateErr.RetryAfter != 3*time.Second {
		t.Fatalf("expected retry hint preserved, got %v", err)
	}
}
