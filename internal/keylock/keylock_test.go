package keylock

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyLock_SerializesSameKey(t *testing.T) {
	locks := New()

	var mu sync.Mutex
	active := 0
	maxActive := 0

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock("k")
			mu.Lock()
			active++
			if active > maxActive {
				maxActive = active
			}
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
			locks.Unlock("k")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
}

func TestKeyLock_IndependentKeysDoNotBlock(t *testing.T) {
	locks := New()

	locks.Lock("a")
	done := make(chan struct{})
	go func() {
		locks.Lock("b")
		locks.Unlock("b")
		close(done)
	}()
	<-done
	locks.Unlock("a")
}

func TestKeyLock_EntryDroppedWhenIdle(t *testing.T) {
	locks := New()
	locks.Lock("x")
	locks.Unlock("x")

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks)
}
