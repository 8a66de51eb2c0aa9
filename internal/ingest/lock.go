package ingest

import "sync"

// userLocks serializes ingestion per user key while letting different
// users proceed in parallel. Entries are never removed; the user set is
// small and bounded.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: map[string]*sync.Mutex{}}
}

func (l *userLocks) acquire(key string) func() {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
