package lock_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-kasir/internal/lock"
)

func TestKeyedMutualExclusion(t *testing.T) {
	k := lock.NewKeyed()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var order []string
	var mu sync.Mutex
	firstHeld := make(chan struct{})
	releaseFirst := make(chan struct{})

	go func() {
		err := k.WithLocks(ctx, []string{"product:1"}, func(context.Context) error {
			mu.Lock()
			order = append(order, "first")
			mu.Unlock()
			close(firstHeld)
			<-releaseFirst
			return nil
		})
		require.NoError(t, err)
	}()

	<-firstHeld

	go func() {
		err := k.WithLocks(ctx, []string{"product:1"}, func(context.Context) error {
			mu.Lock()
			order = append(order, "second")
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
	}()

	close(releaseFirst)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(order) == 2
	}, time.Second, 10*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"first", "second"}, order)
}

func TestKeyedAcquireHonorsCancellation(t *testing.T) {
	k := lock.NewKeyed()
	release, err := k.Acquire(context.Background(), "product:1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = k.Acquire(ctx, "product:1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKeyedIndependentKeys(t *testing.T) {
	k := lock.NewKeyed()
	release, err := k.Acquire(context.Background(), "product:1")
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	other, err := k.Acquire(ctx, "product:2")
	require.NoError(t, err)
	other()
}

func TestWithLocksReleasesOnError(t *testing.T) {
	k := lock.NewKeyed()
	boom := errors.New("boom")
	err := k.WithLocks(context.Background(), []string{"product:1"}, func(context.Context) error {
		return boom
	})
	require.ErrorIs(t, err, boom)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	release, err := k.Acquire(ctx, "product:1")
	require.NoError(t, err)
	release()
}

func TestWithLocksCollapsesDuplicates(t *testing.T) {
	k := lock.NewKeyed()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := k.WithLocks(ctx, []string{"product:1", "product:1"}, func(context.Context) error {
		return nil
	})
	require.NoError(t, err)
}

func TestWithLocksOverlappingSetsNoDeadlock(t *testing.T) {
	k := lock.NewKeyed()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		keys := []string{"product:1", "product:2"}
		if i == 1 {
			keys = []string{"product:2", "product:1"}
		}
		wg.Add(1)
		go func(keys []string) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				err := k.WithLocks(ctx, keys, func(context.Context) error { return nil })
				require.NoError(t, err)
			}
		}(keys)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("overlapping lock sets deadlocked")
	}
}
