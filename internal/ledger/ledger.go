package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// FlightState is the reserved-seat snapshot of a flight, read while holding
// the flight's exclusive lock.
type FlightState struct {
	FlightID   uint64
	TotalSeats int
	Reserved   []string
}

// Reservation is the durable outcome of a successful reserve call. UserID is
// nil for anonymous count-based reservations.
type Reservation struct {
	ID        uint64   `json:"id"`
	FlightID  uint64   `json:"flight_id"`
	UserID    *uint64  `json:"user_id,omitempty"`
	Reference string   `json:"reference"`
	Seats     []string `json:"seats"`
	CreatedAt string   `json:"created_at"`
}

// Store is the persistence boundary of the ledger. The SQL implementation
// lives in the repository package; tests use an in-memory store.
type Store interface {
	// Begin opens a transaction scope. Everything done through the returned
	// Tx becomes visible to other callers only after Commit.
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a single transaction against the store. LockFlight must take an
// exclusive lock on the flight (row lock or equivalent) that is held until
// Commit or Rollback, so that the state it returns cannot go stale under
// the caller.
type Tx interface {
	LockFlight(ctx context.Context, flightID uint64) (FlightState, error)
	InsertReservation(ctx context.Context, flightID uint64, userID *uint64, reference string, labels []string) (Reservation, error)
	Commit() error
	Rollback() error
}

// Request describes one reserve call. When Labels is non-empty the caller
// asks for those exact seats; otherwise Count seats are synthesized from the
// flight's current reserved count. UserID is nil for anonymous callers.
type Request struct {
	Labels []string
	Count  int
	UserID *uint64
}

// Ledger owns the mapping from a flight to its reserved seats. All mutation
// goes through Reserve, which serializes attempts per flight and commits the
// seat-state update together with the reservation record as one unit.
type Ledger struct {
	store Store
	locks *flightLocks
}

// New constructs a Ledger over the given store.
func New(store Store) *Ledger {
	if store == nil {
		panic("nil store passed to ledger.New")
	}
	return &Ledger{store: store, locks: newFlightLocks()}
}

// Reserve validates the request against the flight's current reserved state
// and, on success, atomically persists the updated seat set and a new
// reservation record. Failures never mutate state and are never retried
// here; retry is the caller's decision.
func (l *Ledger) Reserve(ctx context.Context, flightID uint64, req Request) (*Reservation, error) {
	labels, count, err := normalizeRequest(req)
	if err != nil {
		return nil, err
	}

	// Serialize all attempts against this flight. Attempts against other
	// flights do not contend on anything here.
	l.locks.acquire(flightID)
	defer l.locks.release(flightID)

	tx, err := l.store.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin reservation transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	state, err := tx.LockFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}

	reserved := make(map[string]struct{}, len(state.Reserved))
	for _, lab := range state.Reserved {
		reserved[lab] = struct{}{}
	}

	if len(labels) > 0 {
		// Explicit mode: every named seat must still be free.
		conflicts := make([]string, 0)
		for _, lab := range labels {
			if _, taken := reserved[lab]; taken {
				conflicts = append(conflicts, lab)
			}
		}
		if len(conflicts) > 0 {
			return nil, &SeatConflictError{Labels: conflicts}
		}
		count = len(labels)
	}

	remaining := state.TotalSeats - len(state.Reserved)
	if count > remaining {
		return nil, &CapacityError{Requested: count, Remaining: remaining}
	}

	if len(labels) == 0 {
		labels = synthesizeLabels(reserved, len(state.Reserved), count)
	}

	res, err := tx.InsertReservation(ctx, flightID, req.UserID, uuid.NewString(), labels)
	if err != nil {
		return nil, fmt.Errorf("persist reservation: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit reservation: %w", err)
	}
	committed = true
	return &res, nil
}

// normalizeRequest validates the request and returns cleaned-up labels for
// explicit mode or the seat count for synthesized mode.
func normalizeRequest(req Request) ([]string, int, error) {
	if len(req.Labels) == 0 {
		if req.Count <= 0 {
			return nil, 0, ErrInvalidRequest
		}
		return nil, req.Count, nil
	}
	labels := make([]string, 0, len(req.Labels))
	seen := make(map[string]struct{}, len(req.Labels))
	for _, lab := range req.Labels {
		lab = strings.TrimSpace(lab)
		if lab == "" {
			return nil, 0, ErrInvalidRequest
		}
		if _, dup := seen[lab]; dup {
			continue
		}
		seen[lab] = struct{}{}
		labels = append(labels, lab)
	}
	return labels, len(labels), nil
}

// synthesizeLabels generates the next n unused "SeatN" labels, counting up
// from the number of seats already reserved and skipping any label that is
// somehow taken (an explicit reservation may have claimed a "SeatN" name).
func synthesizeLabels(reserved map[string]struct{}, reservedCount, n int) []string {
	out := make([]string, 0, n)
	next := reservedCount + 1
	for len(out) < n {
		label := fmt.Sprintf("Seat%d", next)
		next++
		if _, taken := reserved[label]; taken {
			continue
		}
		out = append(out, label)
	}
	return out
}
