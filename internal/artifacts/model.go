package artifacts

import (
	"encoding/json"
	"time"
)

// Artifact is a generated task output cached per (document, task).
// Documents are immutable, so entries never go stale; they are only
// dropped when the owning document is replaced.
type Artifact struct {
	DocumentID string
	Task       string
	Content    json.RawMessage
	CreatedAt  time.Time
}
