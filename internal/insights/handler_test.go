package insights_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"documind-backend/internal/bootstrap"
	"documind-backend/internal/documents"
	"documind-backend/internal/llm"
	"documind-backend/internal/shared/config"
)

type scriptedClient struct {
	responses map[llm.Task]string
	err       error
	calls     int
}

func (c *scriptedClient) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.calls++
	if c.err != nil {
		return "", c.err
	}
	return c.responses[req.Task], nil
}

func buildApp(t *testing.T, client llm.Client) *bootstrap.App {
	t.Helper()
	cfg := config.Config{
		Env:             "dev",
		ObjectStoreType: "local",
		LocalStoreDir:   t.TempDir(),
		LLMProvider:     "gemini",
		DailyTaskLimit:  50,
	}
	app, err := bootstrap.Build(cfg, bootstrap.Options{LLMClient: client})
	if err != nil {
		t.Fatalf("bootstrap.Build: %v", err)
	}
	return app
}

func seedDocument(t *testing.T, app *bootstrap.App, sessionID string) documents.Document {
	t.Helper()
	ctx := context.Background()

	key, _, _, err := app.Store.Save(ctx, sessionID, "doc.txt",
		strings.NewReader("gravity bends spacetime around massive objects"))
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	doc := documents.Document{
		ID:               "doc-" + sessionID,
		SessionID:        sessionID,
		FileName:         "paper.pdf",
		MimeType:         "application/pdf",
		PageCount:        2,
		ExtractedTextKey: key,
		CreatedAt:        time.Now().UTC(),
	}
	if err := app.DocumentsRepo.Create(ctx, doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}
	return doc
}

func doRequest(app *bootstrap.App, method, path, sessionID string, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-Session-Id", sessionID)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body %q: %v", w.Body.String(), err)
	}
	return resp.Error.Code
}

func TestSummaryWithoutDocumentReturns404(t *testing.T) {
	app := buildApp(t, &scriptedClient{})

	w := doRequest(app, http.MethodPost, "/api/v1/insights/summary", "sess-empty", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if code := errorCode(t, w); code != "no_document" {
		t.Fatalf("expected no_document, got %q", code)
	}
}

func TestSummaryEndToEndWithCache(t *testing.T) {
	client := &scriptedClient{responses: map[llm.Task]string{
		llm.TaskSummary: "spacetime curvature summary",
	}}
	app := buildApp(t, client)
	seedDocument(t, app, "sess-1")

	first := doRequest(app, http.MethodPost, "/api/v1/insights/summary", "sess-1", "")
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", first.Code, first.Body.String())
	}

	var payload struct {
		DocumentID string `json:"documentId"`
		Summary    string `json:"summary"`
		Cached     bool   `json:"cached"`
	}
	if err := json.Unmarshal(first.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Summary != "spacetime curvature summary" || payload.Cached {
		t.Fatalf("unexpected payload %+v", payload)
	}

	second := doRequest(app, http.MethodPost, "/api/v1/insights/summary", "sess-1", "")
	if second.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat, got %d", second.Code)
	}
	if err := json.Unmarshal(second.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode repeat: %v", err)
	}
	if !payload.Cached {
		t.Fatalf("expected cached repeat response")
	}
	if client.calls != 1 {
		t.Fatalf("expected a single model call, got %d", client.calls)
	}
}

func TestQuestionValidation(t *testing.T) {
	app := buildApp(t, &scriptedClient{})
	seedDocument(t, app, "sess-1")

	w := doRequest(app, http.MethodPost, "/api/v1/insights/questions", "sess-1", `{}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	if code := errorCode(t, w); code != "validation_error" {
		t.Fatalf("expected validation_error, got %q", code)
	}
}

func TestQuestionAndConversationFlow(t *testing.T) {
	client := &scriptedClient{responses: map[llm.Task]string{
		llm.TaskQuestion: "it bends spacetime",
	}}
	app := buildApp(t, client)
	seedDocument(t, app, "sess-1")

	w := doRequest(app, http.MethodPost, "/api/v1/insights/questions", "sess-1",
		`{"question":"what does gravity do?"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	conv := doRequest(app, http.MethodGet, "/api/v1/insights/conversation", "sess-1", "")
	if conv.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", conv.Code)
	}
	var convPayload struct {
		DocumentID string `json:"documentId"`
		Turns      []struct {
			Question string `json:"question"`
			Answer   string `json:"answer"`
		} `json:"turns"`
	}
	if err := json.Unmarshal(conv.Body.Bytes(), &convPayload); err != nil {
		t.Fatalf("decode conversation: %v", err)
	}
	if len(convPayload.Turns) != 1 || convPayload.Turns[0].Answer != "it bends spacetime" {
		t.Fatalf("unexpected conversation %+v", convPayload)
	}

	cleared := doRequest(app, http.MethodDelete, "/api/v1/insights/conversation", "sess-1", "")
	if cleared.Code != http.StatusOK {
		t.Fatalf("expected 200 on clear, got %d", cleared.Code)
	}
}

func TestMindMapEndToEnd(t *testing.T) {
	client := &scriptedClient{responses: map[llm.Task]string{
		llm.TaskMindMap: "```json\n{\"nodes\":[{\"id\":\"n1\",\"label\":\"Gravity\"},{\"id\":\"n2\",\"label\":\"Spacetime\"}],\"edges\":[{\"source\":\"n1\",\"target\":\"n2\"}]}\n```",
	}}
	app := buildApp(t, client)
	seedDocument(t, app, "sess-1")

	w := doRequest(app, http.MethodPost, "/api/v1/insights/mindmap", "sess-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var payload struct {
		Graph struct {
			Nodes []struct {
				ID string `json:"id"`
			} `json:"nodes"`
		} `json:"graph"`
		Cached bool `json:"cached"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Graph.Nodes) != 2 {
		t.Fatalf("unexpected graph payload %s", w.Body.String())
	}
}

func TestMalformedMindMapReturns502(t *testing.T) {
	client := &scriptedClient{responses: map[llm.Task]string{
		llm.TaskMindMap: "no graph here",
	}}
	app := buildApp(t, client)
	seedDocument(t, app, "sess-1")

	w := doRequest(app, http.MethodPost, "/api/v1/insights/mindmap", "sess-1", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d: %s", w.Code, w.Body.String())
	}
	if code := errorCode(t, w); code != "malformed_graph" {
		t.Fatalf("expected malformed_graph, got %q", code)
	}
}

func TestProviderRateLimitReturns429WithRetryAfter(t *testing.T) {
	client := &scriptedClient{err: &llm.RateLimitedError{RetryAfter: 30 * time.Second}}
	app := buildApp(t, client)
	seedDocument(t, app, "sess-1")

	w := doRequest(app, http.MethodPost, "/api/v1/insights/summary", "sess-1", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d: %s", w.Code, w.Body.String())
	}
	if code := errorCode(t, w); code != "rate_limited" {
		t.Fatalf("expected rate_limited, got %q", code)
	}
	if w.Header().Get("Retry-After") != "30" {
		t.Fatalf("expected Retry-After 30, got %q", w.Header().Get("Retry-After"))
	}
}

func TestProviderTimeoutReturns504(t *testing.T) {
	client := &scriptedClient{err: llm.ErrTimeout}
	app := buildApp(t, client)
	seedDocument(t, app, "sess-1")

	w := doRequest(app, http.MethodPost, "/api/v1/insights/summary", "sess-1", "")
	if w.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d: %s", w.Code, w.Body.String())
	}
	if code := errorCode(t, w); code != "llm_timeout" {
		t.Fatalf("expected llm_timeout, got %q", code)
	}
}

func TestSessionHeaderIsEchoed(t *testing.T) {
	app := buildApp(t, &scriptedClient{})

	w := doRequest(app, http.MethodPost, "/api/v1/insights/summary", "sess-echo", "")
	if got := w.Header().Get("X-Session-Id"); got != "sess-echo" {
		t.Fatalf("expected session header echoed, got %q", got)
	}
}
