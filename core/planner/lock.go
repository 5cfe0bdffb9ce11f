package planner

import (
	"fmt"
	"sort"
	"sync"
)

// keyedMutex serializes schedule writes per (user, day of week).
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func dayKey(userID string, day int) string {
	return fmt.Sprintf("%s:%d", userID, day)
}

func weekKeys(userID string) []string {
	keys := make([]string, 7)
	for day := range keys {
		keys[day] = dayKey(userID, day)
	}
	return keys
}

// Lock acquires every key, in sorted order to avoid lock-order inversions, and
// returns the function releasing them.
func (km *keyedMutex) Lock(keys ...string) (unlock func()) {
	uniq := make([]string, 0, len(keys))
	seen := make(map[string]bool, len(keys))
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			uniq = append(uniq, k)
		}
	}
	sort.Strings(uniq)

	held := make([]*refMutex, 0, len(uniq))
	for _, k := range uniq {
		km.mu.Lock()
		m, ok := km.locks[k]
		if !ok {
			m = new(refMutex)
			km.locks[k] = m
		}
		m.refs++
		km.mu.Unlock()

		m.Lock()
		held = append(held, m)
	}

	return func() {
		km.mu.Lock()
		defer km.mu.Unlock()
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
			if held[i].refs--; held[i].refs == 0 {
				delete(km.locks, uniq[i])
			}
		}
	}
}
