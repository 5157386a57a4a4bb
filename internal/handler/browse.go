// Package handler exposes HTTP handlers for both authenticated and public
// endpoints. This file defines handlers for public browsing: airlines and
// flight search. These routes require no authentication and sit behind the
// response cache.
package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skybook/flight-reservation/internal/repository"
)

// BrowseHandler aggregates repositories for unauthenticated browsing.
type BrowseHandler struct {
	AirlineRepo *repository.AirlineRepo
	FlightRepo  *repository.FlightRepo
	SeatRepo    *repository.SeatRepo
}

func NewBrowseHandler(a *repository.AirlineRepo, f *repository.FlightRepo, s *repository.SeatRepo) *BrowseHandler {
	return &BrowseHandler{AirlineRepo: a, FlightRepo: f, SeatRepo: s}
}

// publicFlight is a flight in list and detail responses. Price is exposed
// in major units to match what clients display.
type publicFlight struct {
	ID            uint64    `json:"id"`
	AirlineID     uint64    `json:"airline_id"`
	AirlineName   string    `json:"airline_name"`
	DepartureCity string    `json:"departure_city"`
	ArrivalCity   string    `json:"arrival_city"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	Price         float64   `json:"price"`
	TotalSeats    int       `json:"total_seats"`
}

func toPublicFlight(f repository.Flight) publicFlight {
	return publicFlight{
		ID:            f.ID,
		AirlineID:     f.AirlineID,
		AirlineName:   f.AirlineName,
		DepartureCity: f.DepartureCity,
		ArrivalCity:   f.ArrivalCity,
		DepartureTime: f.DepartureTime,
		ArrivalTime:   f.ArrivalTime,
		Price:         float64(f.PriceCents) / 100,
		TotalSeats:    f.TotalSeats,
	}
}

// GetAirlines returns all airlines ordered by name.
func (h *BrowseHandler) GetAirlines(c echo.Context) error {
	ctx := c.Request().Context()
	airlines, err := h.AirlineRepo.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": airlines})
}

// GetAirline returns a single airline by id.
func (h *BrowseHandler) GetAirline(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	a, err := h.AirlineRepo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrAirlineNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "airline not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, a)
}

// SearchFlights lists flights matching the optional filters. Query params:
// airline (id), departure_city, arrival_city, price_order (asc|desc),
// page and page_size. City filters match substrings case-insensitively.
func (h *BrowseHandler) SearchFlights(c echo.Context) error {
	ctx := c.Request().Context()

	var q repository.FlightSearchQuery
	if raw := strings.TrimSpace(c.QueryParam("airline")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid airline id"})
		}
		q.AirlineID = id
	}
	q.DepartureCity = strings.TrimSpace(c.QueryParam("departure_city"))
	q.ArrivalCity = strings.TrimSpace(c.QueryParam("arrival_city"))

	switch order := strings.ToLower(strings.TrimSpace(c.QueryParam("price_order"))); order {
	case "", "asc", "desc":
		q.PriceOrder = order
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_order must be asc or desc"})
	}

	q.Page, _ = strconv.Atoi(c.QueryParam("page"))
	q.PageSize, _ = strconv.Atoi(c.QueryParam("page_size"))

	flights, total, err := h.FlightRepo.Search(ctx, q)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]publicFlight, 0, len(flights))
	for _, f := range flights {
		out = append(out, toPublicFlight(f))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "total": total})
}

// GetFlight returns a flight with its current availability count.
func (h *BrowseHandler) GetFlight(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	f, err := h.FlightRepo.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrFlightNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	reserved, err := h.SeatRepo.ReservedLabels(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	resp := struct {
		publicFlight
		AvailableSeats int `json:"available_seats"`
	}{toPublicFlight(*f), f.TotalSeats - len(reserved)}
	return c.JSON(http.StatusOK, resp)
}

// GetFlightSeats returns the seat map of a flight split into available and
// reserved labels. Labels never issued yet (count-based bookings fill them
// lazily) do not appear in either list.
func (h *BrowseHandler) GetFlightSeats(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if _, err := h.FlightRepo.GetByID(ctx, id); err != nil {
		if err == repository.ErrFlightNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "flight not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.SeatRepo.ListByFlight(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	available := make([]string, 0, len(seats))
	reserved := make([]string, 0)
	for _, s := range seats {
		if s.Reserved {
			reserved = append(reserved, s.Label)
		} else {
			available = append(available, s.Label)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"available_seats": available,
		"reserved_seats":  reserved,
	})
}
