package repository // repository defines data access for seats

import (
	"context"      // context allows query cancellation and timeouts
	"database/sql" // sql provides DB primitives
	"errors"       // errors for sentinel definitions
	"strings"
)

// Seat represents one addressable unit of a flight's capacity. Label is the
// seat's identifier within the flight ("A1", "Seat7"); Reserved tracks
// whether a committed reservation holds it. (flight_id, label) is unique.
type Seat struct {
	ID       uint64 `json:"id"`
	FlightID uint64 `json:"flight_id"`
	Label    string `json:"label"`
	Reserved bool   `json:"reserved"`
}

// ErrSeatNotFound is returned when a seat lookup yields no rows.
var ErrSeatNotFound = errors.New("seat not found")

// SeatRepo provides methods to work with seats in the database.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// CreateBulkTx inserts unreserved seat rows for a flight in a single
// statement, within the caller's transaction. It is used when a flight is
// created to materialize its seat grid. Passing no labels has no effect.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, flightID uint64, labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	query := `INSERT INTO seats (flight_id, label, reserved) VALUES `
	args := make([]interface{}, 0, len(labels)*2)
	for i, label := range labels {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, 0)"
		args = append(args, flightID, label)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrConflict
		}
		return err
	}
	return nil
}

// ReservedLabels returns the labels of all reserved seats of a flight,
// ordered by label for deterministic output.
func (r *SeatRepo) ReservedLabels(ctx context.Context, flightID uint64) ([]string, error) {
	const q = `SELECT label FROM seats WHERE flight_id = ? AND reserved = 1 ORDER BY label`
	rows, err := r.db.QueryContext(ctx, q, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	labels := make([]string, 0)
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

// ListByFlight retrieves all seats of a flight ordered by label.
func (r *SeatRepo) ListByFlight(ctx context.Context, flightID uint64) ([]Seat, error) {
	const q = `SELECT id, flight_id, label, reserved FROM seats WHERE flight_id = ? ORDER BY label`
	rows, err := r.db.QueryContext(ctx, q, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]Seat, 0)
	for rows.Next() {
		var s Seat
		if err := rows.Scan(&s.ID, &s.FlightID, &s.Label, &s.Reserved); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return seats, nil
}
