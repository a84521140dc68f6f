package conversations

import "time"

// Turn is one question/answer exchange, scoped to a document. Turns are
// append-only within the document's lifetime and dropped with it.
type Turn struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"-"`
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	CreatedAt  time.Time `json:"createdAt"`
}
