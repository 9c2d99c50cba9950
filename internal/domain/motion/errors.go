package motion

import "errors"

// ErrInvalidParams is returned for unusable motion tuning.
var ErrInvalidParams = errors.New("invalid motion parameters")
