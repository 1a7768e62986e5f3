// Package keylock provides a process-wide mutex per string key.
//
// Locks are created on first use and retained until Forget is called, so two
// goroutines asking for the same key always contend on the same mutex. For
// multi-key operations, LockAll acquires the locks in lexical key order and
// the returned release func unlocks in reverse, which keeps overlapping
// multi-key callers deadlock-free.
package keylock

import (
	"sort"
	"sync"
)

type Registry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{locks: make(map[string]*sync.Mutex)}
}

// Get returns the mutex for key, creating it if absent.
func (r *Registry) Get(key string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[key]
	if !ok {
		l = &sync.Mutex{}
		r.locks[key] = l
	}

	return l
}

// Forget drops the mutex for key. Intended for session-end cleanup to bound
// map growth; safe to call for unknown keys.
func (r *Registry) Forget(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.locks, key)
}

// LockAll locks every key in ascending lexical order, ignoring the caller's
// order and duplicates, and returns a func that unlocks in reverse order.
func (r *Registry) LockAll(keys ...string) (release func()) {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))

	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}

		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}

	sort.Strings(uniq)

	held := make([]*sync.Mutex, 0, len(uniq))
	for _, k := range uniq {
		l := r.Get(k)
		l.Lock()
		held = append(held, l)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}

// Len reports how many locks are currently retained.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.locks)
}
