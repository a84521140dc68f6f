package llm

import "context"

// Task identifies what kind of artifact a completion is for.
type Task string

const (
	TaskSummary  Task = "summary"
	TaskQuestion Task = "question"
	TaskMindMap  Task = "mindmap"
)

// Request is a single completion call against the hosted model.
type Request struct {
	Prompt string
	Task   Task
}

// Client abstracts hosted completion providers. Implementations surface
// provider failures as-is with no internal retry loop; callers decide
// whether to retry.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Exchange is one prior question/answer pair given to the model as
// follow-up context.
type Exchange struct {
	Question string
	Answer   string
}
