package repository

import (
	"context"
	"database/sql"
	"time"
)

// ContactMessage mirrors the 'contact_messages' table. Messages arrive
// through the public contact form and are read by support staff.
type ContactMessage struct {
	ID        uint64    `json:"id"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// PasswordResetRequest mirrors the 'password_reset_requests' table. Requests
// are recorded for an administrator to act on; no token flow is involved.
type PasswordResetRequest struct {
	ID        uint64    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactRepo persists contact messages and password-reset requests.
type ContactRepo struct {
	db *sql.DB
}

// NewContactRepo constructs a ContactRepo with the given DB handle.
func NewContactRepo(db *sql.DB) *ContactRepo {
	return &ContactRepo{db: db}
}

// CreateMessage inserts a contact message. On success the ID and CreatedAt
// fields are populated on the given record.
func (r *ContactRepo) CreateMessage(ctx context.Context, m *ContactMessage) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO contact_messages (email, subject, message) VALUES (?,?,?)",
		m.Email, m.Subject, m.Message)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	m.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at FROM contact_messages WHERE id = ?", m.ID).Scan(&m.CreatedAt)
}

// CreateResetRequest inserts a password-reset request. On success the ID and
// CreatedAt fields are populated on the given record.
func (r *ContactRepo) CreateResetRequest(ctx context.Context, p *PasswordResetRequest) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO password_reset_requests (username, email, message) VALUES (?,?,?)",
		p.Username, p.Email, p.Message)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		"SELECT created_at FROM password_reset_requests WHERE id = ?", p.ID).Scan(&p.CreatedAt)
}
