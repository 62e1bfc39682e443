package repositories

import "errors"

// ErrNotFound is wrapped by repository lookups when no row matches, so
// services can distinguish absence from infrastructure failure.
var ErrNotFound = errors.New("record not found")
