package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skybook/flight-reservation/internal/ledger"
	"github.com/skybook/flight-reservation/internal/repository"
)

// stubStore is an in-memory ledger.Store for handler tests.
type stubStore struct {
	mu       sync.Mutex
	total    int
	reserved []string
	nextID   uint64
}

func (s *stubStore) Begin(ctx context.Context) (ledger.Tx, error) {
	return &stubTx{s: s}, nil
}

type stubTx struct {
	s      *stubStore
	staged []string
}

func (t *stubTx) LockFlight(ctx context.Context, flightID uint64) (ledger.FlightState, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if flightID != 1 {
		return ledger.FlightState{}, ledger.ErrFlightNotFound
	}
	reserved := make([]string, len(t.s.reserved))
	copy(reserved, t.s.reserved)
	return ledger.FlightState{FlightID: flightID, TotalSeats: t.s.total, Reserved: reserved}, nil
}

func (t *stubTx) InsertReservation(ctx context.Context, flightID uint64, userID *uint64, reference string, labels []string) (ledger.Reservation, error) {
	t.s.mu.Lock()
	t.s.nextID++
	id := t.s.nextID
	t.s.mu.Unlock()
	t.staged = labels
	return ledger.Reservation{
		ID:        id,
		FlightID:  flightID,
		UserID:    userID,
		Reference: reference,
		Seats:     labels,
		CreatedAt: "2026-01-02T15:04:05Z",
	}, nil
}

func (t *stubTx) Commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.reserved = append(t.s.reserved, t.staged...)
	return nil
}

func (t *stubTx) Rollback() error { return nil }

func newReservationHandler(t *testing.T, store *stubStore) (*ReservationHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	h := NewReservationHandler(
		ledger.New(store),
		repository.NewFlightRepo(db),
		repository.NewSeatRepo(db),
		repository.NewReservationRepo(db),
		repository.NewUserRepo(db),
	)
	return h, mock
}

func patchSeats(h *ReservationHandler, flightID, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPatch, "/v1/flights/"+flightID+"/seats", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/flights/:id/seats")
	c.SetParamNames("id")
	c.SetParamValues(flightID)
	_ = h.ReserveSeats(c)
	return rec
}

func postReserve(h *ReservationHandler, flightID, body string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/flights/"+flightID+"/reserve", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/v1/flights/:id/reserve")
	c.SetParamNames("id")
	c.SetParamValues(flightID)
	_ = h.ReserveCount(c)
	return rec
}

func TestReserveSeatsSuccess(t *testing.T) {
	store := &stubStore{total: 10}
	h, mock := newReservationHandler(t, store)

	mock.ExpectQuery(`SELECT label FROM seats`).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"label"}).AddRow("A1").AddRow("B2"))

	rec := patchSeats(h, "1", `{"reserved_seats":["A1","B2"]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message       string   `json:"message"`
		Reference     string   `json:"reference"`
		ReservedSeats []string `json:"reserved_seats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Seats reserved successfully", resp.Message)
	assert.NotEmpty(t, resp.Reference)
	assert.Equal(t, []string{"A1", "B2"}, resp.ReservedSeats)
}

func TestReserveSeatsConflict(t *testing.T) {
	store := &stubStore{total: 10, reserved: []string{"A1"}}
	h, _ := newReservationHandler(t, store)

	rec := patchSeats(h, "1", `{"reserved_seats":["A1","B2"]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error            string   `json:"error"`
		ConflictingSeats []string `json:"conflicting_seats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "seats already reserved", resp.Error)
	assert.Equal(t, []string{"A1"}, resp.ConflictingSeats)

	// The free seat in the losing request must stay free.
	assert.Equal(t, []string{"A1"}, store.reserved)
}

func TestReserveSeatsValidation(t *testing.T) {
	h, _ := newReservationHandler(t, &stubStore{total: 10})

	rec := patchSeats(h, "abc", `{"reserved_seats":["A1"]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = patchSeats(h, "1", `{"reserved_seats":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReserveSeatsFlightNotFound(t *testing.T) {
	h, _ := newReservationHandler(t, &stubStore{total: 10})

	rec := patchSeats(h, "9", `{"reserved_seats":["A1"]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReserveCountDefaultsToOneSeat(t *testing.T) {
	store := &stubStore{total: 10}
	h, _ := newReservationHandler(t, store)

	rec := postReserve(h, "1", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message       string   `json:"message"`
		ReservedSeats []string `json:"reserved_seats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Reservation successful", resp.Message)
	assert.Equal(t, []string{"Seat1"}, resp.ReservedSeats)
}

func TestReserveCountMultipleSeats(t *testing.T) {
	store := &stubStore{total: 10, reserved: []string{"Seat1", "Seat2"}}
	h, _ := newReservationHandler(t, store)

	rec := postReserve(h, "1", `{"seats":3}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		ReservedSeats []string `json:"reserved_seats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Seat3", "Seat4", "Seat5"}, resp.ReservedSeats)
}

func TestReserveCountCapacityExceeded(t *testing.T) {
	store := &stubStore{total: 2, reserved: []string{"Seat1"}}
	h, _ := newReservationHandler(t, store)

	rec := postReserve(h, "1", `{"seats":5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error     string `json:"error"`
		Requested int    `json:"requested"`
		Remaining int    `json:"remaining"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not enough seats available", resp.Error)
	assert.Equal(t, 5, resp.Requested)
	assert.Equal(t, 1, resp.Remaining)
}

func TestReserveCountRejectsNonPositive(t *testing.T) {
	h, _ := newReservationHandler(t, &stubStore{total: 10})

	for _, body := range []string{`{"seats":0}`, `{"seats":-2}`} {
		rec := postReserve(h, "1", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, fmt.Sprintf("body %s", body))
	}
}

func TestCreateReservationRequiresFlightAndSeats(t *testing.T) {
	h, _ := newReservationHandler(t, &stubStore{total: 10})
	e := echo.New()

	for _, body := range []string{`{"seats":["A1"]}`, `{"flight":1}`} {
		req := httptest.NewRequest(http.MethodPost, "/v1/reservations", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set("user_id", uint64(7))
		require.NoError(t, h.CreateReservation(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}

func TestCreateReservationSuccess(t *testing.T) {
	store := &stubStore{total: 10}
	h, _ := newReservationHandler(t, store)
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", strings.NewReader(`{"flight":1,"seats":["C3"]}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("user_id", uint64(7))
	require.NoError(t, h.CreateReservation(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var res ledger.Reservation
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, []string{"C3"}, res.Seats)
	require.NotNil(t, res.UserID)
	assert.Equal(t, uint64(7), *res.UserID)
}
