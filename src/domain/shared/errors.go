package shared

import "errors"

var ErrStoreUnavailable = errors.New("score store unavailable")
