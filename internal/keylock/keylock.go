package keylock

import "sync"

// KeyLock serializes operations per string key. Used to serialize concurrent
// mutations on the same cart line or favorite product id so two in-flight
// writes cannot race each other into a lost update.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*entry)}
}

// Lock acquires the lock for key, blocking while another holder has it.
func (k *KeyLock) Lock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the lock for key. The entry is dropped once nobody waits
// on it, so the map does not grow with the product catalog.
func (k *KeyLock) Unlock(key string) {
	k.mu.Lock()
	e := k.locks[key]
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
