package artifacts

import "errors"

var ErrNotFound = errors.New("not found")
