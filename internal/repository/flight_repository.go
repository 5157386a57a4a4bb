// Package repository contains data access logic for flight operations. This
// file defines the Flight model and repository methods for flights. A Flight
// represents a scheduled travel segment operated by an airline with a fixed
// seat capacity. Timestamps are stored in UTC.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Flight mirrors the 'flights' table. AirlineName is populated from a join
// with the airlines table where available and is not a column of its own.
type Flight struct {
	ID            uint64    `json:"id"`
	AirlineID     uint64    `json:"airline_id"`
	AirlineName   string    `json:"airline_name,omitempty"`
	DepartureCity string    `json:"departure_city"`
	ArrivalCity   string    `json:"arrival_city"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	PriceCents    uint64    `json:"price_cents"`
	TotalSeats    int       `json:"total_seats"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ErrFlightNotFound indicates that a flight was not located in the DB.
var ErrFlightNotFound = errors.New("flight not found")

// FlightRepo manages persistence for flights.
type FlightRepo struct {
	db *sql.DB
}

// NewFlightRepo constructs a FlightRepo with the given DB handle.
func NewFlightRepo(db *sql.DB) *FlightRepo {
	return &FlightRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.  Use this method to
// obtain a *sql.DB when you need fine-grained transaction control.
func (r *FlightRepo) DB() *sql.DB {
	return r.db
}

// CreateTx inserts a new flight using the provided transaction.  The caller
// must commit or roll back the transaction; seat rows for the flight are
// typically inserted in the same scope.  On success the generated ID and
// DB-default timestamps are populated on the given Flight.
func (r *FlightRepo) CreateTx(ctx context.Context, tx *sql.Tx, f *Flight) error {
	const q = `INSERT INTO flights (airline_id, departure_city, arrival_city, departure_time, arrival_time, price_cents, total_seats)
	           VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, f.AirlineID, f.DepartureCity, f.ArrivalCity, f.DepartureTime.UTC(), f.ArrivalTime.UTC(), f.PriceCents, f.TotalSeats)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	f.ID = uint64(id)
	// Query the inserted row to obtain default fields such as timestamps.
	const sel = `SELECT created_at, updated_at FROM flights WHERE id = ?`
	return tx.QueryRowContext(ctx, sel, f.ID).Scan(&f.CreatedAt, &f.UpdatedAt)
}

// GetByID fetches a flight by its ID, including the operating airline's
// name.  It returns ErrFlightNotFound when no row exists.
func (r *FlightRepo) GetByID(ctx context.Context, id uint64) (*Flight, error) {
	const q = `SELECT f.id, f.airline_id, a.name, f.departure_city, f.arrival_city,
	                  f.departure_time, f.arrival_time, f.price_cents, f.total_seats,
	                  f.created_at, f.updated_at
	           FROM flights f
	           JOIN airlines a ON a.id = f.airline_id
	           WHERE f.id = ?`
	var f Flight
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&f.ID, &f.AirlineID, &f.AirlineName, &f.DepartureCity, &f.ArrivalCity,
		&f.DepartureTime, &f.ArrivalTime, &f.PriceCents, &f.TotalSeats,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFlightNotFound
		}
		return nil, err
	}
	return &f, nil
}

// FlightSearchQuery defines filters & pagination for searching flights.
type FlightSearchQuery struct {
	AirlineID     uint64
	DepartureCity string
	ArrivalCity   string
	PriceOrder    string // "asc" | "desc" | "" (no price ordering)
	Page          int
	PageSize      int
}

// Search returns flights matching the query together with the total match
// count. City filters are case-insensitive substring matches; results are
// ordered by price when requested, otherwise by departure time.
func (r *FlightRepo) Search(ctx context.Context, q FlightSearchQuery) ([]Flight, int64, error) {
	where := []string{}
	args := []any{}

	if q.AirlineID != 0 {
		where = append(where, "f.airline_id = ?")
		args = append(args, q.AirlineID)
	}
	if q.DepartureCity != "" {
		where = append(where, "LOWER(f.departure_city) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.DepartureCity)+"%")
	}
	if q.ArrivalCity != "" {
		where = append(where, "LOWER(f.arrival_city) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.ArrivalCity)+"%")
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	var total int64
	countSQL := `SELECT COUNT(*)
		FROM flights f
		JOIN airlines a ON a.id = f.airline_id
		WHERE ` + cond
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "f.departure_time ASC"
	switch strings.ToLower(q.PriceOrder) {
	case "asc":
		order = "f.price_cents ASC"
	case "desc":
		order = "f.price_cents DESC"
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 20
	}
	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT
			f.id,
			f.airline_id,
			a.name AS airline_name,
			f.departure_city,
			f.arrival_city,
			f.departure_time,
			f.arrival_time,
			f.price_cents,
			f.total_seats,
			f.created_at,
			f.updated_at
		FROM flights f
		JOIN airlines a ON a.id = f.airline_id
		WHERE ` + cond + `
		ORDER BY ` + order + `
		LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, dataSQL, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]Flight, 0, limit)
	for rows.Next() {
		var f Flight
		if err := rows.Scan(
			&f.ID, &f.AirlineID, &f.AirlineName, &f.DepartureCity, &f.ArrivalCity,
			&f.DepartureTime, &f.ArrivalTime, &f.PriceCents, &f.TotalSeats,
			&f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
