package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Store used to exercise the ledger without a
// database. Commit applies staged reservations under a single mutex, which
// matches the visibility contract the SQL store provides via row locks.
type memStore struct {
	mu        sync.Mutex
	flights   map[uint64]*memFlight
	nextResID uint64
	insertErr error
}

type memFlight struct {
	total    int
	reserved []string
}

type stagedReservation struct {
	flightID uint64
	res      Reservation
}

func newMemStore() *memStore {
	return &memStore{flights: map[uint64]*memFlight{}}
}

func (s *memStore) addFlight(id uint64, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flights[id] = &memFlight{total: total}
}

func (s *memStore) reservedSeats(id uint64) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.flights[id]
	out := make([]string, len(f.reserved))
	copy(out, f.reserved)
	return out
}

func (s *memStore) Begin(ctx context.Context) (Tx, error) {
	return &memTx{s: s}, nil
}

type memTx struct {
	s      *memStore
	staged []stagedReservation
}

func (t *memTx) LockFlight(ctx context.Context, flightID uint64) (FlightState, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	f, ok := t.s.flights[flightID]
	if !ok {
		return FlightState{}, ErrFlightNotFound
	}
	reserved := make([]string, len(f.reserved))
	copy(reserved, f.reserved)
	return FlightState{FlightID: flightID, TotalSeats: f.total, Reserved: reserved}, nil
}

func (t *memTx) InsertReservation(ctx context.Context, flightID uint64, userID *uint64, reference string, labels []string) (Reservation, error) {
	if t.s.insertErr != nil {
		return Reservation{}, t.s.insertErr
	}
	t.s.mu.Lock()
	t.s.nextResID++
	id := t.s.nextResID
	t.s.mu.Unlock()

	res := Reservation{
		ID:        id,
		FlightID:  flightID,
		UserID:    userID,
		Reference: reference,
		Seats:     labels,
		CreatedAt: "2026-01-02T15:04:05Z",
	}
	t.staged = append(t.staged, stagedReservation{flightID: flightID, res: res})
	return res, nil
}

func (t *memTx) Commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for _, st := range t.staged {
		f := t.s.flights[st.flightID]
		f.reserved = append(f.reserved, st.res.Seats...)
	}
	t.staged = nil
	return nil
}

func (t *memTx) Rollback() error {
	t.staged = nil
	return nil
}

func TestReserveExplicitSeats(t *testing.T) {
	store := newMemStore()
	store.addFlight(1, 10)
	lg := New(store)

	uid := uint64(7)
	res, err := lg.Reserve(context.Background(), 1, Request{Labels: []string{"A1", "B2"}, UserID: &uid})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2"}, res.Seats)
	assert.NotEmpty(t, res.Reference)
	assert.NotEmpty(t, res.CreatedAt)
	require.NotNil(t, res.UserID)
	assert.Equal(t, uid, *res.UserID)
	assert.ElementsMatch(t, []string{"A1", "B2"}, store.reservedSeats(1))
}

func TestReserveDeduplicatesRequestedLabels(t *testing.T) {
	store := newMemStore()
	store.addFlight(1, 10)
	lg := New(store)

	res, err := lg.Reserve(context.Background(), 1, Request{Labels: []string{"A1", "A1", " A1 ", "B2"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B2"}, res.Seats)
}

func TestReserveSeatConflict(t *testing.T) {
	store := newMemStore()
	store.addFlight(1, 10)
	lg := New(store)

	_, err := lg.Reserve(context.Background(), 1, Request{Labels: []string{"A1"}})
	require.NoError(t, err)

	_, err = lg.Reserve(context.Background(), 1, Request{Labels: []string{"A1", "B2"}})
	var conflict *SeatConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []string{"A1"}, conflict.Labels)

	// The failed attempt must not have reserved the free seat.
	assert.Equal(t, []string{"A1"}, store.reservedSeats(1))
}

func TestReserveCountSynthesizesLabels(t *testing.T) {
	store := newMemStore()
	store.addFlight(1, 10)
	lg := New(store)

	res, err := lg.Reserve(context.Background(), 1, Request{Count: 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"Seat1", "Seat2", "Seat3"}, res.Seats)
	assert.Nil(t, res.UserID)

	res, err = lg.Reserve(context.Background(), 1, Request{Count: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Seat4", "Seat5"}, res.Seats)
}

func TestReserveCountSkipsExplicitlyTakenLabels(t *testing.T) {
	store := newMemStore()
	store.addFlight(1, 10)
	lg := New(store)

	_, err := lg.Reserve(context.Background(), 1, Request{Labels: []string{"Seat2"}})
	require.NoError(t, err)

	res, err := lg.Reserve(context.Background(), 1, Request{Count: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"Seat3", "Seat4"}, res.Seats)
}

func TestReserveCapacityExceeded(t *testing.T) {
	store := newMemStore()
	store.addFlight(1, 2)
	lg := New(store)

	_, err := lg.Reserve(context.Background(), 1, Request{Count: 3})
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 3, capErr.Requested)
	assert.Equal(t, 2, capErr.Remaining)
	assert.Empty(t, store.reservedSeats(1))

	_, err = lg.Reserve(context.Background(), 1, Request{Count: 2})
	require.NoError(t, err)

	_, err = lg.Reserve(context.Background(), 1, Request{Count: 1})
	require.ErrorAs(t, err, &capErr)
	assert.Equal(t, 0, capErr.Remaining)
}

func TestReserveExplicitCapacityExceeded(t *testing.T) {
	store := newMemStore()
	store.addFlight(1, 2)
	lg := New(store)

	_, err := lg.Reserve(context.Background(), 1, Request{Labels: []string{"A1", "A2", "A3"}})
	var capErr *CapacityError
	require.ErrorAs(t, err, &capErr)
	assert.Empty(t, store.reservedSeats(1))
}

func TestReserveInvalidRequests(t *testing.T) {
	store := newMemStore()
	store.addFlight(1, 10)
	lg := New(store)

	cases := []Request{
		{},
		{Count: 0},
		{Count: -3},
		{Labels: []string{"A1", "  "}},
	}
	for _, req := range cases {
		_, err := lg.Reserve(context.Background(), 1, req)
		assert.ErrorIs(t, err, ErrInvalidRequest, "request %+v", req)
	}
	assert.Empty(t, store.reservedSeats(1))
}

func TestReserveFlightNotFound(t *testing.T) {
	lg := New(newMemStore())

	_, err := lg.Reserve(context.Background(), 99, Request{Count: 1})
	assert.ErrorIs(t, err, ErrFlightNotFound)
}

func TestReserveFailureIsDeterministic(t *testing.T) {
	store := newMemStore()
	store.addFlight(1, 3)
	lg := New(store)

	_, err := lg.Reserve(context.Background(), 1, Request{Labels: []string{"A1"}})
	require.NoError(t, err)

	// Retrying the identical losing request yields the identical error.
	for i := 0; i < 3; i++ {
		_, err := lg.Reserve(context.Background(), 1, Request{Labels: []string{"A1"}})
		var conflict *SeatConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, []string{"A1"}, conflict.Labels)
	}
}

func TestReserveRollsBackOnInsertFailure(t *testing.T) {
	store := newMemStore()
	store.addFlight(1, 10)
	store.insertErr = errors.New("boom")
	lg := New(store)

	_, err := lg.Reserve(context.Background(), 1, Request{Count: 2})
	require.Error(t, err)
	assert.Empty(t, store.reservedSeats(1))
}

func TestConcurrentExplicitReservesOneWinner(t *testing.T) {
	store := newMemStore()
	store.addFlight(1, 10)
	lg := New(store)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = lg.Reserve(context.Background(), 1, Request{Labels: []string{"C3"}})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			var conflict *SeatConflictError
			assert.ErrorAs(t, err, &conflict)
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, []string{"C3"}, store.reservedSeats(1))
}

func TestConcurrentCountReservesFillCapacityExactly(t *testing.T) {
	const capacity = 20
	store := newMemStore()
	store.addFlight(1, capacity)
	lg := New(store)

	var wg sync.WaitGroup
	errs := make([]error, capacity+1)
	for i := 0; i <= capacity; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = lg.Reserve(context.Background(), 1, Request{Count: 1})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			var capErr *CapacityError
			assert.ErrorAs(t, err, &capErr)
		}
	}
	assert.Equal(t, capacity, wins)

	// Every reserved label is distinct and the flight is exactly full.
	reserved := store.reservedSeats(1)
	require.Len(t, reserved, capacity)
	seen := make(map[string]struct{}, len(reserved))
	for _, lab := range reserved {
		_, dup := seen[lab]
		assert.False(t, dup, "duplicate label %s", lab)
		seen[lab] = struct{}{}
	}
}

func TestConcurrentReservesAcrossFlightsDoNotInterfere(t *testing.T) {
	store := newMemStore()
	const flights = 5
	for i := uint64(1); i <= flights; i++ {
		store.addFlight(i, 4)
	}
	lg := New(store)

	var wg sync.WaitGroup
	for i := uint64(1); i <= flights; i++ {
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func(flightID uint64) {
				defer wg.Done()
				_, err := lg.Reserve(context.Background(), flightID, Request{Count: 1})
				assert.NoError(t, err)
			}(i)
		}
	}
	wg.Wait()

	for i := uint64(1); i <= flights; i++ {
		assert.Len(t, store.reservedSeats(i), 4, fmt.Sprintf("flight %d", i))
	}
}
