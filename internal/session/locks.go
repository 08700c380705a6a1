package session

import "sync"

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Locks is a keyed mutex. Holders of different keys never contend;
// holders of the same key are serialized.
type Locks struct {
	mu      sync.Mutex
	entries map[int64]*lockEntry
}

func NewLocks() *Locks {
	return &Locks{entries: make(map[int64]*lockEntry)}
}

// Lock blocks until the key is free and returns the matching unlock func.
func (l *Locks) Lock(key int64) (unlock func()) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &lockEntry{}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Unlock()
			l.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(l.entries, key)
			}
			l.mu.Unlock()
		})
	}
}

func (l *Locks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
