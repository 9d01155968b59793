package services

import (
	"sort"
	"sync"
)

// KeyedLocks serializes read-modify-write cycles per entity id. Confirmations
// lock the single entity they mutate; a merge locks every participant for
// its whole duration so a concurrent confirmation cannot append an alias to
// an entity that is being absorbed.
type KeyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedLocks creates an empty lock registry.
func NewKeyedLocks() *KeyedLocks {
	return &KeyedLocks{locks: make(map[string]*sync.Mutex)}
}

// get returns the mutex for a key, creating it on first use. Mutexes are
// never removed; the registry is bounded by the number of distinct entities
// touched during the process lifetime.
func (k *KeyedLocks) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Lock acquires the lock for one key and returns its unlock function.
func (k *KeyedLocks) Lock(key string) func() {
	m := k.get(key)
	m.Lock()
	return m.Unlock
}

// LockAll acquires the locks for all keys in sorted order (deduplicating
// first) so that overlapping multi-key holders cannot deadlock. The returned
// function releases them in reverse order.
func (k *KeyedLocks) LockAll(keys []string) func() {
	unique := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, key := range keys {
		if !seen[key] {
			seen[key] = true
			unique = append(unique, key)
		}
	}
	sort.Strings(unique)

	held := make([]*sync.Mutex, 0, len(unique))
	for _, key := range unique {
		m := k.get(key)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
