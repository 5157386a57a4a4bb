// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to access a reservation owned by someone else.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert cannot be performed
// because of conflicting state, such as creating a seat label that
// already exists for the flight. Handlers should translate this
// into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
