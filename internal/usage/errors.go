package usage

import "errors"

// ErrLimitReached indicates the session exceeded its daily task limit.
var ErrLimitReached = errors.New("limit reached")
