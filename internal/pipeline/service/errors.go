package service

import "errors"

// ErrInvalidConfig marks a configuration error: the operation is rejected
// before any work starts and must not be retried without a config change.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrUnknownPeriod is returned for a metric period with no configured window.
var ErrUnknownPeriod = errors.New("unknown metric period")
