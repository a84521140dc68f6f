package insights

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"documind-backend/internal/artifacts"
	"documind-backend/internal/conversations"
	"documind-backend/internal/documents"
	"documind-backend/internal/llm"
	"documind-backend/internal/mindmap"
	"documind-backend/internal/shared/metrics"
	"documind-backend/internal/shared/telemetry"
	"documind-backend/internal/usage"
)

// Service orchestrates document tasks: it resolves the session's active
// document, serves cached artifacts, and otherwise builds the prompt,
// calls the model, and persists the result.
type Service struct {
	Docs    *documents.Service
	Cache   artifacts.Repo
	Turns   conversations.Repo
	Client  llm.Client
	Prompts llm.PromptBuilder
	Quota   *usage.Service
}

// SummaryResult is the outcome of a summary task.
type SummaryResult struct {
	DocumentID string `json:"documentId"`
	Summary    string `json:"summary"`
	Cached     bool   `json:"cached"`
}

// AnswerResult is the outcome of a question task.
type AnswerResult struct {
	DocumentID string    `json:"documentId"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MindMapResult is the outcome of a mind-map task.
type MindMapResult struct {
	DocumentID string        `json:"documentId"`
	Graph      mindmap.Graph `json:"graph"`
	Cached     bool          `json:"cached"`
}

type summaryPayload struct {
	Summary string `json:"summary"`
}

// Summary returns the document summary, generating and caching it on
// first request. Repeat requests for the same document never call the
// model again.
func (s *Service) Summary(ctx context.Context, sessionID string) (SummaryResult, error) {
	doc, text, err := s.Docs.CurrentText(ctx, sessionID)
	if err != nil {
		return SummaryResult{}, err
	}

	if cached, err := s.Cache.Get(ctx, doc.ID, string(llm.TaskSummary)); err == nil {
		var payload summaryPayload
		if err := json.Unmarshal(cached.Content, &payload); err == nil {
			metrics.IncTaskCacheHit()
			return SummaryResult{DocumentID: doc.ID, Summary: payload.Summary, Cached: true}, nil
		}
	} else if !errors.Is(err, artifacts.ErrNotFound) {
		return SummaryResult{}, err
	}

	summary, err := s.complete(ctx, sessionID, llm.Request{
		Prompt: s.Prompts.Summary(text),
		Task:   llm.TaskSummary,
	})
	if err != nil {
		return SummaryResult{}, err
	}

	content, err := json.Marshal(summaryPayload{Summary: summary})
	if err != nil {
		return SummaryResult{}, err
	}
	if err := s.Cache.Put(ctx, artifacts.Artifact{
		DocumentID: doc.ID,
		Task:       string(llm.TaskSummary),
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		telemetry.Error("artifact.cache", map[string]any{
			"document_id": doc.ID,
			"task":        string(llm.TaskSummary),
			"error":       err.Error(),
		})
	}

	return SummaryResult{DocumentID: doc.ID, Summary: summary, Cached: false}, nil
}

// Ask answers a question about the document, feeding prior exchanges to
// the model as conversation context. Answers are conversation-dependent
// and never cached.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (AnswerResult, error) {
	if question == "" {
		return AnswerResult{}, fmt.Errorf("%w: question required", documents.ErrInvalidInput)
	}

	doc, text, err := s.Docs.CurrentText(ctx, sessionID)
	if err != nil {
		return AnswerResult{}, err
	}

	turns, err := s.Turns.ListByDocument(ctx, doc.ID)
	if err != nil {
		return AnswerResult{}, err
	}
	history := make([]llm.Exchange, 0, len(turns))
	for _, t := range turns {
		history = append(history, llm.Exchange{Question: t.Question, Answer: t.Answer})
	}

	answer, err := s.complete(ctx, sessionID, llm.Request{
		Prompt: s.Prompts.Question(text, question, history),
		Task:   llm.TaskQuestion,
	})
	if err != nil {
		return AnswerResult{}, err
	}

	turn := conversations.Turn{
		ID:         uuid.NewString(),
		DocumentID: doc.ID,
		Question:   question,
		Answer:     answer,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Turns.Append(ctx, turn); err != nil {
		return AnswerResult{}, err
	}

	return AnswerResult{
		DocumentID: doc.ID,
		Question:   turn.Question,
		Answer:     turn.Answer,
		CreatedAt:  turn.CreatedAt,
	}, nil
}

// MindMap returns the document's concept graph, generating, validating,
// and caching it on first request.
func (s *Service) MindMap(ctx context.Context, sessionID string) (MindMapResult, error) {
	doc, text, err := s.Docs.CurrentText(ctx, sessionID)
	if err != nil {
		return MindMapResult{}, err
	}

	if cached, err := s.Cache.Get(ctx, doc.ID, string(llm.TaskMindMap)); err == nil {
		var graph mindmap.Graph
		if err := json.Unmarshal(cached.Content, &graph); err == nil {
			metrics.IncTaskCacheHit()
			return MindMapResult{DocumentID: doc.ID, Graph: graph, Cached: true}, nil
		}
	} else if !errors.Is(err, artifacts.ErrNotFound) {
		return MindMapResult{}, err
	}

	raw, err := s.complete(ctx, sessionID, llm.Request{
		Prompt: s.Prompts.MindMap(text),
		Task:   llm.TaskMindMap,
	})
	if err != nil {
		return MindMapResult{}, err
	}

	graph, err := mindmap.Parse(raw)
	if err != nil {
		return MindMapResult{}, err
	}
	if err := mindmap.Validate(graph); err != nil {
		return MindMapResult{}, err
	}

	content, err := json.Marshal(graph)
	if err != nil {
		return MindMapResult{}, err
	}
	if err := s.Cache.Put(ctx, artifacts.Artifact{
		DocumentID: doc.ID,
		Task:       string(llm.TaskMindMap),
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		telemetry.Error("artifact.cache", map[string]any{
			"document_id": doc.ID,
			"task":        string(llm.TaskMindMap),
			"error":       err.Error(),
		})
	}

	return MindMapResult{DocumentID: doc.ID, Graph: graph, Cached: false}, nil
}

// Conversation returns the active document and its turns, oldest first.
func (s *Service) Conversation(ctx context.Context, sessionID string) (documents.Document, []conversations.Turn, error) {
	doc, err := s.Docs.Current(ctx, sessionID)
	if err != nil {
		return documents.Document{}, nil, err
	}
	turns, err := s.Turns.ListByDocument(ctx, doc.ID)
	if err != nil {
		return documents.Document{}, nil, err
	}
	return doc, turns, nil
}

// ClearConversation drops the active document's turns. The document and
// its cached artifacts stay.
func (s *Service) ClearConversation(ctx context.Context, sessionID string) (documents.Document, error) {
	doc, err := s.Docs.Current(ctx, sessionID)
	if err != nil {
		return documents.Document{}, err
	}
	if err := s.Turns.DeleteByDocument(ctx, doc.ID); err != nil {
		return documents.Document{}, err
	}
	return doc, nil
}

// complete runs one model call with quota and metrics accounting. The
// quota unit is a model call, so cache hits are free.
func (s *Service) complete(ctx context.Context, sessionID string, req llm.Request) (string, error) {
	if s.Quota != nil {
		ok, _, err := s.Quota.CanConsume(ctx, sessionID, 1)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", usage.ErrLimitReached
		}
	}

	metrics.IncTaskStarted()
	start := time.Now()
	out, err := s.Client.Complete(ctx, req)
	metrics.ObserveLLMRequestDurationMs(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.IncTaskFailed()
		return "", err
	}
	metrics.IncTaskCompleted()

	if s.Quota != nil {
		if _, err := s.Quota.Consume(ctx, sessionID, 1); err != nil {
			if errors.Is(err, usage.ErrLimitReached) {
				return "", err
			}
			telemetry.Error("usage.consume", map[string]any{
				"session_id": sessionID,
				"task":       string(req.Task),
				"error":      err.Error(),
			})
		}
	}

	return out, nil
}
