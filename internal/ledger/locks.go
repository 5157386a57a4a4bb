package ledger

import "sync"

// flightLocks hands out one mutex per flight id so that reservation attempts
// against the same flight are serialized in-process while attempts against
// different flights proceed in parallel. Entries are reference counted and
// removed once the last holder releases, keeping the map from growing with
// every flight ever touched.
type flightLocks struct {
	mu    sync.Mutex
	locks map[uint64]*flightLock
}

type flightLock struct {
	sync.Mutex
	refs int
}

func newFlightLocks() *flightLocks {
	return &flightLocks{locks: make(map[uint64]*flightLock)}
}

// acquire blocks until the caller holds the exclusive lock for flightID.
func (fl *flightLocks) acquire(flightID uint64) {
	fl.mu.Lock()
	l, ok := fl.locks[flightID]
	if !ok {
		l = &flightLock{}
		fl.locks[flightID] = l
	}
	l.refs++
	fl.mu.Unlock()

	l.Lock()
}

// release unlocks the flight's mutex and drops the map entry when no other
// goroutine is waiting on it.
func (fl *flightLocks) release(flightID uint64) {
	fl.mu.Lock()
	l := fl.locks[flightID]
	l.refs--
	if l.refs == 0 {
		delete(fl.locks, flightID)
	}
	fl.mu.Unlock()

	l.Unlock()
}
