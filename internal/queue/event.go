// Package queue defines message payloads exchanged over the message broker
// and the background consumer that turns them into email notifications.
package queue

import "encoding/json"

// Event type markers carried in the envelope. Consumers dispatch on these.
const (
	TypeReservationConfirmed = "reservation.confirmed"
	TypeContactReceived      = "contact.received"
	TypePasswordResetRequest = "password_reset.requested"
)

// Envelope wraps every message on the notifications queue so a single
// consumer can dispatch heterogeneous events.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ReservationConfirmedEvent is published when a reservation commits. It
// contains enough information for downstream consumers to notify the
// customer without querying the primary database. UserEmail is empty for
// anonymous count-based reservations.
type ReservationConfirmedEvent struct {
	ReservationID uint64   `json:"reservation_id"`
	Reference     string   `json:"reference"`
	FlightID      uint64   `json:"flight_id"`
	AirlineName   string   `json:"airline_name"`
	DepartureCity string   `json:"departure_city"`
	ArrivalCity   string   `json:"arrival_city"`
	DepartureAt   string   `json:"departure_at"`
	SeatLabels    []string `json:"seats"`
	UserEmail     string   `json:"user_email,omitempty"`
	ConfirmedAt   string   `json:"confirmed_at"`
}

// ContactReceivedEvent is published when a visitor submits the contact
// form. Support staff are notified by email.
type ContactReceivedEvent struct {
	MessageID  uint64 `json:"message_id"`
	Email      string `json:"email"`
	Subject    string `json:"subject"`
	Message    string `json:"message"`
	ReceivedAt string `json:"received_at"`
}

// PasswordResetRequestedEvent is published when a user files a
// password-reset request. An administrator follows up manually.
type PasswordResetRequestedEvent struct {
	RequestID   uint64 `json:"request_id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Message     string `json:"message"`
	RequestedAt string `json:"requested_at"`
}
