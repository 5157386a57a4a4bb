// Package repository contains data access logic separated from HTTP handlers.
// This file defines the Airline model and repository methods for CRUD and
// lookup operations. An Airline represents a carrier that operates flights.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"       // errors is used to define custom error values
)

// Airline represents an airline entity persisted in the database. Each
// airline may operate multiple flights. The ID field is the primary key and
// is auto-incremented by the DB. Description and Country are optional.
type Airline struct {
	ID          uint64  `json:"id"`
	Name        string  `json:"name"`
	LogoURL     string  `json:"logo_url"`
	Description *string `json:"description,omitempty"`
	Country     *string `json:"country,omitempty"`
}

// ErrAirlineNotFound is returned when an airline cannot be found in the DB.
var ErrAirlineNotFound = errors.New("airline not found")

// AirlineRepo encapsulates all database queries related to airlines.  It
// depends on a sql.DB connection which should be configured elsewhere.
type AirlineRepo struct {
	db *sql.DB
}

// NewAirlineRepo constructs an AirlineRepo with the provided DB handle.  This
// function allows dependency injection of the database in tests and at
// startup.
func NewAirlineRepo(db *sql.DB) *AirlineRepo {
	return &AirlineRepo{db: db}
}

// Create inserts a new airline into the database.  On success the airline's
// ID field will be populated with the auto-generated value.
func (r *AirlineRepo) Create(ctx context.Context, a *Airline) error {
	const q = "INSERT INTO airlines (name, logo_url, description, country) VALUES (?, ?, ?, ?)"
	res, err := r.db.ExecContext(ctx, q, a.Name, a.LogoURL, a.Description, a.Country)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = uint64(id)
	return nil
}

// GetByID fetches an airline by its ID.  It returns ErrAirlineNotFound if no
// row is found.
func (r *AirlineRepo) GetByID(ctx context.Context, id uint64) (*Airline, error) {
	const q = "SELECT id, name, logo_url, description, country FROM airlines WHERE id = ?"
	var a Airline
	var desc, country sql.NullString
	if err := r.db.QueryRowContext(ctx, q, id).Scan(&a.ID, &a.Name, &a.LogoURL, &desc, &country); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAirlineNotFound
		}
		return nil, err
	}
	if desc.Valid {
		a.Description = &desc.String
	}
	if country.Valid {
		a.Country = &country.String
	}
	return &a, nil
}

// ListAll returns every airline ordered by name.  An empty slice is returned
// when the table has no rows.
func (r *AirlineRepo) ListAll(ctx context.Context) ([]Airline, error) {
	const q = "SELECT id, name, logo_url, description, country FROM airlines ORDER BY name"
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Airline, 0)
	for rows.Next() {
		var a Airline
		var desc, country sql.NullString
		if err := rows.Scan(&a.ID, &a.Name, &a.LogoURL, &desc, &country); err != nil {
			return nil, err
		}
		if desc.Valid {
			a.Description = &desc.String
		}
		if country.Valid {
			a.Country = &country.String
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
