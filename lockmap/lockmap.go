// Package lockmap provides mutual exclusion keyed by arbitrary values.
package lockmap

import "sync"

// Map is a set of mutexes, one per key.
// Entries exist only while some goroutine holds or waits on the key's lock.
// The zero value is ready to use.
type Map[K comparable] struct {
	mu sync.Mutex
	m  map[K]*entry
}

type entry struct {
	mu sync.Mutex
	// refs is the number of goroutines holding or waiting on mu.
	// It is guarded by the map's mutex rather than the entry's.
	refs int
}

// Lock acquires the lock for key and returns the function to release it.
// The release function must be called exactly once.
func (m *Map[K]) Lock(key K) (unlock func()) {
	m.mu.Lock()
	if m.m == nil {
		m.m = make(map[K]*entry)
	}
	e := m.m[key]
	if e == nil {
		e = new(entry)
		m.m[key] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		m.mu.Lock()
		defer m.mu.Unlock()
		e.refs--
		if e.refs == 0 {
			delete(m.m, key)
		}
	}
}
