// This file defines handlers for catalog management: creating airlines and
// scheduling flights. Flight creation also materializes the seat grid so
// seat-map browsing works from the first request.
package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/skybook/flight-reservation/internal/repository"
	"github.com/skybook/flight-reservation/internal/utils"
)

// CatalogHandler bundles repositories for catalog write endpoints.
type CatalogHandler struct {
	AirlineRepo *repository.AirlineRepo
	FlightRepo  *repository.FlightRepo
	SeatRepo    *repository.SeatRepo
}

func NewCatalogHandler(a *repository.AirlineRepo, f *repository.FlightRepo, s *repository.SeatRepo) *CatalogHandler {
	return &CatalogHandler{AirlineRepo: a, FlightRepo: f, SeatRepo: s}
}

type createAirlineReq struct {
	Name        string `json:"name"`
	LogoURL     string `json:"logo_url"`
	Description string `json:"description"`
	Country     string `json:"country"`
}

type createFlightReq struct {
	AirlineID     uint64    `json:"airline_id"`
	DepartureCity string    `json:"departure_city"`
	ArrivalCity   string    `json:"arrival_city"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	Price         float64   `json:"price"`
	TotalSeats    int       `json:"total_seats"`
}

// CreateAirline handles POST /airlines (protected).
func (h *CatalogHandler) CreateAirline(c echo.Context) error {
	var req createAirlineReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	a := repository.Airline{
		Name:    req.Name,
		LogoURL: strings.TrimSpace(req.LogoURL),
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		a.Description = &d
	}
	if co := strings.TrimSpace(req.Country); co != "" {
		a.Country = &co
	}
	if err := h.AirlineRepo.Create(ctx, &a); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create airline failed"})
	}
	return c.JSON(http.StatusCreated, a)
}

// CreateFlight handles POST /flights (protected). The flight row and its
// seat grid are written in one transaction so a half-created flight can
// never be booked against.
func (h *CatalogHandler) CreateFlight(c echo.Context) error {
	var req createFlightReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.AirlineID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "airline_id required"})
	}
	req.DepartureCity = strings.TrimSpace(req.DepartureCity)
	req.ArrivalCity = strings.TrimSpace(req.ArrivalCity)
	if req.DepartureCity == "" || req.ArrivalCity == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "departure_city/arrival_city required"})
	}
	if req.DepartureTime.IsZero() || req.ArrivalTime.IsZero() || !req.ArrivalTime.After(req.DepartureTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "arrival_time must be after departure_time"})
	}
	if req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must not be negative"})
	}
	if req.TotalSeats < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "total_seats must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if _, err := h.AirlineRepo.GetByID(ctx, req.AirlineID); err != nil {
		if err == repository.ErrAirlineNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "airline not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	tx, err := h.FlightRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "begin tx failed"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	f := repository.Flight{
		AirlineID:     req.AirlineID,
		DepartureCity: req.DepartureCity,
		ArrivalCity:   req.ArrivalCity,
		DepartureTime: req.DepartureTime.UTC(),
		ArrivalTime:   req.ArrivalTime.UTC(),
		PriceCents:    uint64(req.Price * 100),
		TotalSeats:    req.TotalSeats,
	}
	if err := h.FlightRepo.CreateTx(ctx, tx, &f); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create flight failed"})
	}
	if labels := utils.SeatGrid(req.TotalSeats); len(labels) > 0 {
		if err := h.SeatRepo.CreateBulkTx(ctx, tx, f.ID, labels); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create seats failed"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "commit failed"})
	}
	committed = true

	return c.JSON(http.StatusCreated, f)
}
