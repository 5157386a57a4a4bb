package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/skybook/flight-reservation/internal/ledger"
)

// FlightStore implements ledger.Store over MySQL. Each ledger transaction
// maps to one sql.Tx; LockFlight takes a row lock on the flight via
// SELECT ... FOR UPDATE, which MySQL holds until commit or rollback, so the
// reserved-seat state it returns cannot change under the ledger.
type FlightStore struct {
	db *sql.DB
}

// NewFlightStore constructs a FlightStore with the given DB handle.
func NewFlightStore(db *sql.DB) *FlightStore {
	return &FlightStore{db: db}
}

// Begin opens a new transaction scope for one reserve call.
func (s *FlightStore) Begin(ctx context.Context) (ledger.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &flightTx{tx: tx}, nil
}

type flightTx struct {
	tx *sql.Tx
}

// LockFlight locks the flight row exclusively and reads its capacity and the
// labels of all currently reserved seats. It returns ledger.ErrFlightNotFound
// when the flight does not exist.
func (t *flightTx) LockFlight(ctx context.Context, flightID uint64) (ledger.FlightState, error) {
	const q = `SELECT id, total_seats FROM flights WHERE id = ? FOR UPDATE`
	var st ledger.FlightState
	if err := t.tx.QueryRowContext(ctx, q, flightID).Scan(&st.FlightID, &st.TotalSeats); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.FlightState{}, ledger.ErrFlightNotFound
		}
		return ledger.FlightState{}, err
	}

	const seatQ = `SELECT label FROM seats WHERE flight_id = ? AND reserved = 1 ORDER BY label`
	rows, err := t.tx.QueryContext(ctx, seatQ, flightID)
	if err != nil {
		return ledger.FlightState{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return ledger.FlightState{}, err
		}
		st.Reserved = append(st.Reserved, label)
	}
	if err := rows.Err(); err != nil {
		return ledger.FlightState{}, err
	}
	return st, nil
}

// InsertReservation flips the requested seats to reserved and writes the
// reservation row plus its seat links, all inside the transaction that holds
// the flight lock. Seat rows that do not exist yet (synthesized "SeatN"
// labels) are created on the fly; existing rows are known to be free because
// the ledger checked conflicts under the same lock.
func (t *flightTx) InsertReservation(ctx context.Context, flightID uint64, userID *uint64, reference string, labels []string) (ledger.Reservation, error) {
	upsert := `INSERT INTO seats (flight_id, label, reserved) VALUES `
	args := make([]interface{}, 0, len(labels)*2)
	for i, label := range labels {
		if i > 0 {
			upsert += ","
		}
		upsert += "(?, ?, 1)"
		args = append(args, flightID, label)
	}
	upsert += ` ON DUPLICATE KEY UPDATE reserved = 1`
	if _, err := t.tx.ExecContext(ctx, upsert, args...); err != nil {
		return ledger.Reservation{}, err
	}

	// Resolve seat ids for the reservation_seats links.
	placeholders := make([]string, len(labels))
	seatArgs := make([]interface{}, 0, len(labels)+1)
	seatArgs = append(seatArgs, flightID)
	for i, label := range labels {
		placeholders[i] = "?"
		seatArgs = append(seatArgs, label)
	}
	seatSel := `SELECT id FROM seats WHERE flight_id = ? AND label IN (` + strings.Join(placeholders, ",") + `)`
	rows, err := t.tx.QueryContext(ctx, seatSel, seatArgs...)
	if err != nil {
		return ledger.Reservation{}, err
	}
	defer rows.Close()
	seatIDs := make([]uint64, 0, len(labels))
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return ledger.Reservation{}, err
		}
		seatIDs = append(seatIDs, id)
	}
	if err := rows.Err(); err != nil {
		return ledger.Reservation{}, err
	}

	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO reservations (user_id, flight_id, reference) VALUES (?, ?, ?)`,
		userID, flightID, reference)
	if err != nil {
		return ledger.Reservation{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return ledger.Reservation{}, err
	}

	// Query back the row to populate the DB-default creation timestamp.
	var createdAt time.Time
	if err := t.tx.QueryRowContext(ctx,
		`SELECT created_at FROM reservations WHERE id = ?`, id).Scan(&createdAt); err != nil {
		return ledger.Reservation{}, err
	}

	link := `INSERT INTO reservation_seats (reservation_id, seat_id) VALUES `
	linkArgs := make([]interface{}, 0, len(seatIDs)*2)
	for i, sid := range seatIDs {
		if i > 0 {
			link += ","
		}
		link += "(?, ?)"
		linkArgs = append(linkArgs, id, sid)
	}
	if _, err := t.tx.ExecContext(ctx, link, linkArgs...); err != nil {
		return ledger.Reservation{}, err
	}

	return ledger.Reservation{
		ID:        uint64(id),
		FlightID:  flightID,
		UserID:    userID,
		Reference: reference,
		Seats:     labels,
		CreatedAt: createdAt.UTC().Format(time.RFC3339),
	}, nil
}

func (t *flightTx) Commit() error   { return t.tx.Commit() }
func (t *flightTx) Rollback() error { return t.tx.Rollback() }
