package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLocksSerializePerKey(t *testing.T) {
	locks := NewKeyedLocks()
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("entity-1")
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestKeyedLocksIndependentKeys(t *testing.T) {
	locks := NewKeyedLocks()

	unlockA := locks.Lock("a")
	// A different key must not block.
	unlockB := locks.Lock("b")
	unlockB()
	unlockA()
}

func TestLockAllOverlappingSetsDoNotDeadlock(t *testing.T) {
	locks := NewKeyedLocks()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		keysets := [][]string{
			{"a", "b", "c"},
			{"c", "a"},
			{"b", "c", "a"},
		}
		for _, keys := range keysets {
			wg.Add(1)
			go func(keys []string) {
				defer wg.Done()
				unlock := locks.LockAll(keys)
				unlock()
			}(keys)
		}
	}
	wg.Wait()
}

func TestLockAllDeduplicatesKeys(t *testing.T) {
	locks := NewKeyedLocks()

	// A duplicated key would self-deadlock if not deduplicated.
	unlock := locks.LockAll([]string{"a", "a", "b"})
	unlock()
}
