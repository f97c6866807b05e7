package lock

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Keyed provides per-key mutual exclusion within the process. A slot lives
// only while some goroutine holds or waits on its key, so the table does not
// grow with the keyspace.
type Keyed struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	sem  chan struct{}
	refs int
}

// NewKeyed builds an empty lock table.
func NewKeyed() *Keyed {
	return &Keyed{slots: make(map[string]*slot)}
}

// Acquire blocks until the key's lock is held or ctx is done. The returned
// release function must be called exactly once.
func (k *Keyed) Acquire(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return nil, errors.New("lock: key is required")
	}
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	select {
	case s.sem <- struct{}{}:
		return func() {
			<-s.sem
			k.drop(key, s)
		}, nil
	case <-ctx.Done():
		k.drop(key, s)
		return nil, ctx.Err()
	}
}

func (k *Keyed) drop(key string, s *slot) {
	k.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
	k.mu.Unlock()
}

// WithLocks executes fn while holding every key. Keys are acquired in sorted
// order with duplicates collapsed, so two callers locking overlapping sets
// cannot deadlock, and released in reverse order even if fn returns an error.
func (k *Keyed) WithLocks(ctx context.Context, keys []string, fn func(context.Context) error) error {
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	unique := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, key)
	}
	sort.Strings(unique)

	held := make([]func(), 0, len(unique))
	releaseAll := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i]()
		}
	}
	for _, key := range unique {
		release, err := k.Acquire(ctx, key)
		if err != nil {
			releaseAll()
			return err
		}
		held = append(held, release)
	}
	defer releaseAll()
	return fn(ctx)
}
