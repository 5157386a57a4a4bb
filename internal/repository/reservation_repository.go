package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// ReservationRepo provides read access to reservations and their seats.
// Reservations group together one or more seats on a flight for a user (or
// an anonymous caller). Creation happens through the FlightStore so that the
// reservation row and the seat-state update commit as one unit; this repo
// only serves listing and lookup. All timestamps are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// ReservationDetail encapsulates a reservation along with its flight and
// airline information and the seat labels reserved. It is returned by
// ListByUser and GetByIDForUser for display to customers.
type ReservationDetail struct {
	ID            uint64    `json:"id"`
	FlightID      uint64    `json:"flight_id"`
	Reference     string    `json:"reference"`
	AirlineName   string    `json:"airline_name"`
	DepartureCity string    `json:"departure_city"`
	ArrivalCity   string    `json:"arrival_city"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	Seats         []string  `json:"seats"`
	CreatedAt     time.Time `json:"created_at"`
}

// ListByUser returns all reservations for the given user along with flight,
// airline and seat details. Reservations are ordered by creation time
// descending (newest first). When no reservations exist, an empty slice is
// returned.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationDetail, error) {
	const q = `SELECT r.id, r.flight_id, r.reference, a.name,
	                  f.departure_city, f.arrival_city, f.departure_time, f.arrival_time,
	                  r.created_at
	           FROM reservations r
	           JOIN flights f ON f.id = r.flight_id
	           JOIN airlines a ON a.id = f.airline_id
	           WHERE r.user_id = ?
	           ORDER BY r.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]ReservationDetail, 0)
	index := make(map[uint64]int)
	for rows.Next() {
		var d ReservationDetail
		if err := rows.Scan(
			&d.ID, &d.FlightID, &d.Reference, &d.AirlineName,
			&d.DepartureCity, &d.ArrivalCity, &d.DepartureTime, &d.ArrivalTime,
			&d.CreatedAt,
		); err != nil {
			return nil, err
		}
		d.Seats = []string{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}

	// Fetch seats for all reservations in one query.
	ids := make([]interface{}, 0, len(details))
	placeholders := make([]string, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
		placeholders = append(placeholders, "?")
	}
	seatQuery := `SELECT rs.reservation_id, s.label
	              FROM reservation_seats rs
	              JOIN seats s ON s.id = rs.seat_id
	              WHERE rs.reservation_id IN (` + strings.Join(placeholders, ",") + `)
	              ORDER BY rs.reservation_id, s.label`
	srows, err := r.db.QueryContext(ctx, seatQuery, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var resID uint64
		var label string
		if err := srows.Scan(&resID, &label); err != nil {
			return nil, err
		}
		idx, ok := index[resID]
		if !ok {
			continue
		}
		details[idx].Seats = append(details[idx].Seats, label)
	}
	if err := srows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

// GetByIDForUser returns a single reservation for the given user. When no
// reservation with the specified ID exists for the user, sql.ErrNoRows is
// returned; ownership is enforced in the query itself.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, reservationID, userID uint64) (*ReservationDetail, error) {
	const q = `SELECT r.id, r.flight_id, r.reference, a.name,
	                  f.departure_city, f.arrival_city, f.departure_time, f.arrival_time,
	                  r.created_at
	           FROM reservations r
	           JOIN flights f ON f.id = r.flight_id
	           JOIN airlines a ON a.id = f.airline_id
	           WHERE r.id = ? AND r.user_id = ?`
	var d ReservationDetail
	err := r.db.QueryRowContext(ctx, q, reservationID, userID).Scan(
		&d.ID, &d.FlightID, &d.Reference, &d.AirlineName,
		&d.DepartureCity, &d.ArrivalCity, &d.DepartureTime, &d.ArrivalTime,
		&d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	d.Seats = []string{}

	const seatQ = `SELECT s.label
	               FROM reservation_seats rs
	               JOIN seats s ON s.id = rs.seat_id
	               WHERE rs.reservation_id = ?
	               ORDER BY s.label`
	rows, err := r.db.QueryContext(ctx, seatQ, d.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		d.Seats = append(d.Seats, label)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &d, nil
}
