// ABOUTME: Per-identity locks ordering remote writes against the same contact
// ABOUTME: Waiting honours the caller's context; multi-key acquisition is ordered to avoid deadlock
package unify

import (
	"context"
	"sort"
	"sync"

	"github.com/harperreed/leadbook/models"
)

type keyLocks struct {
	mu    sync.Mutex
	locks map[models.ContactKey]*refLock
}

// refLock is a one-slot semaphore so waiters can give up on ctx.
type refLock struct {
	slot chan struct{}
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{locks: make(map[models.ContactKey]*refLock)}
}

// lock acquires every key in a canonical order and returns the release func.
// If ctx ends first, keys already held are released and ctx.Err() is returned.
func (l *keyLocks) lock(ctx context.Context, keys []models.ContactKey) (func(), error) {
	ordered := make([]models.ContactKey, len(keys))
	copy(ordered, keys)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].String() < ordered[j].String() })

	held := make([]models.ContactKey, 0, len(ordered))
	unlock := func() {
		for i := len(held) - 1; i >= 0; i-- {
			l.release(held[i], true)
		}
	}

	for _, k := range ordered {
		rl := l.ref(k)
		select {
		case rl.slot <- struct{}{}:
			held = append(held, k)
		case <-ctx.Done():
			l.release(k, false)
			unlock()
			return nil, ctx.Err()
		}
	}
	return unlock, nil
}

func (l *keyLocks) ref(k models.ContactKey) *refLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl, ok := l.locks[k]
	if !ok {
		rl = &refLock{slot: make(chan struct{}, 1)}
		l.locks[k] = rl
	}
	rl.refs++
	return rl
}

func (l *keyLocks) release(k models.ContactKey, held bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rl := l.locks[k]
	if held {
		<-rl.slot
	}
	rl.refs--
	if rl.refs == 0 {
		delete(l.locks, k)
	}
}
