package impl

import (
	"strings"
	"sync"
)

// EmailLocker serializes association work per email address. Alias addresses
// are not unique across persons, so two concurrent observations of the same
// address could each miss the other's alias and bootstrap two persons. The
// lock is keyed on the folded address and reference counted so idle keys do
// not accumulate.
type EmailLocker struct {
	mu    sync.Mutex
	locks map[string]*emailLock
}

type emailLock struct {
	mu   sync.Mutex
	refs int
}

// NewEmailLocker creates an empty locker.
func NewEmailLocker() *EmailLocker {
	return &EmailLocker{locks: make(map[string]*emailLock)}
}

// Lock blocks until the caller holds the lock for the given address and
// returns the matching unlock function.
func (l *EmailLocker) Lock(address string) func() {
	key := strings.ToLower(address)

	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &emailLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
