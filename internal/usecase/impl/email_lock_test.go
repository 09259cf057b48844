package impl

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmailLocker_SerializesSameAddress(t *testing.T) {
	locker := NewEmailLocker()

	// The counter is guarded only by the per-address lock; a race here fails
	// the test under the race detector.
	counter := 0

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock("ada@example.com")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestEmailLocker_CaseInsensitiveKey(t *testing.T) {
	locker := NewEmailLocker()

	counter := 0

	var wg sync.WaitGroup
	for _, address := range []string{"Ada@Example.com", "ada@example.com", "ADA@EXAMPLE.COM"} {
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				unlock := locker.Lock(address)
				defer unlock()
				counter++
			}()
		}
	}
	wg.Wait()

	assert.Equal(t, 60, counter)
}

func TestEmailLocker_ReleasesEntry(t *testing.T) {
	locker := NewEmailLocker()

	unlock := locker.Lock("ada@example.com")
	unlock()

	// A released address must be lockable again without blocking.
	unlock = locker.Lock("ada@example.com")
	unlock()
}
