package appointment

import "sync"

// doctorLocks serialises check-then-book per doctor. Entries are dropped
// once no goroutine holds or waits on them.
type doctorLocks struct {
	mu    sync.Mutex
	locks map[int64]*doctorLock
}

type doctorLock struct {
	mu   sync.Mutex
	refs int
}

func newDoctorLocks() *doctorLocks {
	return &doctorLocks{locks: make(map[int64]*doctorLock)}
}

func (l *doctorLocks) Lock(doctorID int64) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.locks[doctorID]
	if !ok {
		entry = &doctorLock{}
		l.locks[doctorID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, doctorID)
		}
		l.mu.Unlock()
	}
}
