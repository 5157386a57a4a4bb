package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skybook/flight-reservation/internal/ledger"
	"github.com/skybook/flight-reservation/internal/queue"
	"github.com/skybook/flight-reservation/internal/repository"
	queue_publisher "github.com/skybook/flight-reservation/internal/service"
)

// ReservationHandler serves seat booking and reservation lookup. All writes
// go through the ledger, which owns conflict detection and atomicity.
type ReservationHandler struct {
	Ledger       *ledger.Ledger
	FlightRepo   *repository.FlightRepo
	SeatRepo     *repository.SeatRepo
	Reservations *repository.ReservationRepo
	Users        *repository.UserRepo
}

func NewReservationHandler(lg *ledger.Ledger, f *repository.FlightRepo, s *repository.SeatRepo, r *repository.ReservationRepo, u *repository.UserRepo) *ReservationHandler {
	return &ReservationHandler{Ledger: lg, FlightRepo: f, SeatRepo: s, Reservations: r, Users: u}
}

// ----- DTOs -----

type reserveSeatsReq struct {
	ReservedSeats []string `json:"reserved_seats"`
}

// reserveCountReq is used by the count-based endpoint. The field is a
// pointer so an absent value defaults to one seat instead of zero.
type reserveCountReq struct {
	Seats *int `json:"seats"`
}

type createReservationReq struct {
	Flight uint64   `json:"flight"`
	Seats  []string `json:"seats"`
}

// ledgerError maps ledger failures onto HTTP responses. Conflict and
// capacity errors include enough detail for the client to retry sensibly.
func ledgerError(c echo.Context, err error) error {
	var conflict *ledger.SeatConflictError
	var capacity *ledger.CapacityError
	switch {
	case errors.Is(err, ledger.ErrFlightNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
	case errors.Is(err, ledger.ErrInvalidRequest):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation request"})
	case errors.As(err, &conflict):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":             "seats already reserved",
			"conflicting_seats": conflict.Labels,
		})
	case errors.As(err, &capacity):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error":     "not enough seats available",
			"requested": capacity.Requested,
			"remaining": capacity.Remaining,
		})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reservation failed"})
	}
}

// ReserveSeats handles PATCH /flights/:id/seats. The caller names the exact
// seat labels to reserve; authentication is optional. On success the
// response carries the full reserved list for the flight so clients can
// refresh their seat map in one round trip.
func (h *ReservationHandler) ReserveSeats(c echo.Context) error {
	flightID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req reserveSeatsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if len(req.ReservedSeats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reserved_seats required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Ledger.Reserve(ctx, flightID, ledger.Request{
		Labels: req.ReservedSeats,
		UserID: optionalUserID(c),
	})
	if err != nil {
		return ledgerError(c, err)
	}
	h.notifyConfirmed(res)

	reserved, err := h.SeatRepo.ReservedLabels(ctx, flightID)
	if err != nil {
		reserved = res.Seats
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":        "Seats reserved successfully",
		"reference":      res.Reference,
		"reserved_seats": reserved,
	})
}

// ReserveCount handles POST /flights/:id/reserve. The body names how many
// seats to book and the ledger picks the labels. Omitting the count books a
// single seat.
func (h *ReservationHandler) ReserveCount(c echo.Context) error {
	flightID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req reserveCountReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	count := 1
	if req.Seats != nil {
		count = *req.Seats
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Ledger.Reserve(ctx, flightID, ledger.Request{
		Count:  count,
		UserID: optionalUserID(c),
	})
	if err != nil {
		return ledgerError(c, err)
	}
	h.notifyConfirmed(res)

	return c.JSON(http.StatusOK, echo.Map{
		"message":        "Reservation successful",
		"reference":      res.Reference,
		"reserved_seats": res.Seats,
	})
}

// CreateReservation handles POST /reservations (protected). The body names
// a flight and explicit seat labels; the reservation is tied to the
// authenticated user.
func (h *ReservationHandler) CreateReservation(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Flight == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "flight required"})
	}
	if len(req.Seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	res, err := h.Ledger.Reserve(ctx, req.Flight, ledger.Request{
		Labels: req.Seats,
		UserID: &uid,
	})
	if err != nil {
		return ledgerError(c, err)
	}
	h.notifyConfirmed(res)

	return c.JSON(http.StatusCreated, res)
}

// MyReservations handles GET /my-reservations (protected).
func (h *ReservationHandler) MyReservations(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Reservations.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// GetReservation handles GET /reservations/:id (protected). Ownership is
// enforced in the query, so a foreign id reads the same as a missing one.
func (h *ReservationHandler) GetReservation(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	detail, err := h.Reservations.GetByIDForUser(ctx, id, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, detail)
}

// notifyConfirmed publishes a confirmation event for a committed
// reservation. The publish happens off the request path and failures are
// only logged; the booking already succeeded.
func (h *ReservationHandler) notifyConfirmed(res *ledger.Reservation) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		ev := queue.ReservationConfirmedEvent{
			ReservationID: res.ID,
			Reference:     res.Reference,
			FlightID:      res.FlightID,
			SeatLabels:    res.Seats,
			ConfirmedAt:   res.CreatedAt,
		}
		if f, err := h.FlightRepo.GetByID(ctx, res.FlightID); err == nil {
			ev.AirlineName = f.AirlineName
			ev.DepartureCity = f.DepartureCity
			ev.ArrivalCity = f.ArrivalCity
			ev.DepartureAt = f.DepartureTime.UTC().Format(time.RFC3339)
		}
		if res.UserID != nil {
			if u, err := h.Users.GetByID(ctx, *res.UserID); err == nil {
				ev.UserEmail = u.Email
			}
		}
		_ = queue_publisher.PublishReservationConfirmed(ctx, ev)
	}()
}
