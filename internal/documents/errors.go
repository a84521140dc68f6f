package documents

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	// ErrExtraction marks an upload that is not a parseable PDF or has
	// no extractable text layer. The user must re-upload.
	ErrExtraction = errors.New("extraction failed")
)
