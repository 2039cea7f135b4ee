// Package errorspkg provides common app errors.
package errorspkg

import "errors"

// ErrInternal indicates internal server error.
var ErrInternal = errors.New("internal")

// ErrStorage indicates a transient storage failure inside an already opened
// database transaction (lock wait, connection loss). The transaction was
// rolled back and the caller may retry.
var ErrStorage = errors.New("storage unavailable, retry")
