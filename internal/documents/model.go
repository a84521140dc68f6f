package documents

import "time"

// Document represents the extracted content of one uploaded PDF, owned
// by a session. Documents are immutable once extracted; uploading a new
// file replaces the active document wholesale.
type Document struct {
	ID               string
	SessionID        string
	FileName         string
	MimeType         string
	SizeBytes        int64
	PageCount        int
	StorageKey       string
	ExtractedTextKey string
	ExtractedAt      *time.Time
	CreatedAt        time.Time
}
