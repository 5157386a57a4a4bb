// Package ledger enforces the seat-reservation invariants for flights: a seat
// is never booked twice and a flight never holds more reservations than it
// has seats. These error values and types let handlers distinguish the
// failure scenarios and translate them into HTTP responses.
package ledger

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFlightNotFound is returned when the target flight does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrFlightNotFound = errors.New("flight not found")

// ErrInvalidRequest is returned for malformed input: a non-positive seat
// count, an empty seat list, or a blank seat label. Handlers should
// translate this into an HTTP 400 response.
var ErrInvalidRequest = errors.New("invalid reservation request")

// SeatConflictError reports that one or more of the requested seats are
// already reserved. Labels contains the offending seat labels so the caller
// can act on them.
type SeatConflictError struct {
	Labels []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("seats already reserved: %s", strings.Join(e.Labels, ", "))
}

// CapacityError reports that the flight cannot accommodate the requested
// number of seats. Remaining is the free capacity at the time of the check.
type CapacityError struct {
	Requested int
	Remaining int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("not enough seats available: requested %d, remaining %d", e.Requested, e.Remaining)
}
