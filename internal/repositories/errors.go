package repositories

import "errors"

// ErrNotFound is returned when a lookup matches no row, including rows that
// exist but fall outside the caller's scope.
var ErrNotFound = errors.New("record not found")
