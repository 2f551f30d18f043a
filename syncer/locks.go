package syncer

import "sync"

// userLocks serializes the fetch→merge→upsert sequence per userId.
// Concurrent syncs for the same user race on the indexed document (the
// upsert is not transactional against the store); different users proceed
// in parallel.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

// Lock acquires the lock for userID and returns its unlock function.
func (ul *userLocks) Lock(userID string) func() {
	ul.mu.Lock()
	entry, ok := ul.locks[userID]
	if !ok {
		entry = &userLock{}
		ul.locks[userID] = entry
	}
	entry.refs++
	ul.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		ul.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(ul.locks, userID)
		}
		ul.mu.Unlock()
	}
}
