package shared

import (
	"fmt"
	"sync"
)

// ReportLockKey builds the serialization key for one report record.
func ReportLockKey(companyID int64, year, month int) string {
	return fmt.Sprintf("report:%d:%04d-%02d:lock", companyID, year, month)
}

// KeyedMutex serializes work per key: at most one in-flight lifecycle
// transition per report. Cross-key callers never contend.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex constructs a KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock acquires the mutex for key and returns the unlock func. Lock
// entries are reference counted so the map does not grow unbounded.
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry, ok := k.locks[key]
	if !ok {
		entry = &keyedLock{}
		k.locks[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
