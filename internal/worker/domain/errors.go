package domain

import "errors"

// ErrJobNotFound is returned when a dequeued id has no ticket row.
var ErrJobNotFound = errors.New("analysis job not found")
