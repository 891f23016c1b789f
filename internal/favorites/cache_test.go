package favorites

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu      sync.Mutex
	ids     []int64
	gate    chan struct{}
	fetches atomic.Int32
	failAdd error
	failDel error
}

func (b *fakeBackend) ListFavorites(ctx context.Context) ([]int64, error) {
	b.fetches.Add(1)
	if b.gate != nil {
		select {
		case <-b.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int64(nil), b.ids...), nil
}

func (b *fakeBackend) AddFavorite(ctx context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAdd != nil {
		return b.failAdd
	}
	b.ids = append(b.ids, id)
	return nil
}

func (b *fakeBackend) RemoveFavorite(ctx context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failDel
}

func TestConcurrentLoadsShareOneFetch(t *testing.T) {
	backend := &fakeBackend{ids: []int64{3, 1, 2}, gate: make(chan struct{})}
	cache := New(backend, nil)

	const callers = 8
	var wg sync.WaitGroup
	results := make([][]int64, callers)
	errs := make([]error, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = cache.Load(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return backend.fetches.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(backend.gate)
	wg.Wait()

	assert.Equal(t, int32(1), backend.fetches.Load())
	for i := range callers {
		require.NoError(t, errs[i])
		assert.Equal(t, []int64{1, 2, 3}, results[i])
	}

	_, err := cache.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), backend.fetches.Load(), "warm cache does not refetch")
	assert.True(t, cache.Has(2))
}

func TestLoadCallerCancelDoesNotAbortFetch(t *testing.T) {
	backend := &fakeBackend{ids: []int64{7}, gate: make(chan struct{})}
	cache := New(backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := cache.Load(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return backend.fetches.Load() == 1 }, time.Second, 5*time.Millisecond)

	second := make(chan []int64, 1)
	go func() {
		ids, _ := cache.Load(context.Background())
		second <- ids
	}()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(backend.gate)
	assert.Equal(t, []int64{7}, <-second)
	assert.Equal(t, int32(1), backend.fetches.Load())
}

func TestInvalidateForcesRefetch(t *testing.T) {
	backend := &fakeBackend{ids: []int64{1}}
	cache := New(backend, nil)

	_, err := cache.Load(context.Background())
	require.NoError(t, err)

	backend.mu.Lock()
	backend.ids = []int64{1, 5}
	backend.mu.Unlock()

	cache.Invalidate()
	assert.False(t, cache.Loaded())
	assert.False(t, cache.Has(1))

	ids, err := cache.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 5}, ids)
	assert.Equal(t, int32(2), backend.fetches.Load())
}

func TestInvalidateDuringFetchSkipsCaching(t *testing.T) {
	backend := &fakeBackend{ids: []int64{1}, gate: make(chan struct{})}
	cache := New(backend, nil)

	done := make(chan []int64, 1)
	go func() {
		ids, _ := cache.Load(context.Background())
		done <- ids
	}()
	require.Eventually(t, func() bool { return backend.fetches.Load() == 1 }, time.Second, 5*time.Millisecond)

	cache.Invalidate()
	close(backend.gate)
	assert.Equal(t, []int64{1}, <-done)
	assert.False(t, cache.Loaded())
}

func TestAddAndRemovePatchCache(t *testing.T) {
	backend := &fakeBackend{ids: []int64{1}}
	cache := New(backend, nil)
	_, err := cache.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, cache.Add(context.Background(), 9))
	assert.True(t, cache.Has(9))

	on, err := cache.Toggle(context.Background(), 9)
	require.NoError(t, err)
	assert.False(t, on)
	assert.False(t, cache.Has(9))
}

func TestFailedChangeRollsBack(t *testing.T) {
	backend := &fakeBackend{ids: []int64{1}, failAdd: errors.New("listing gone"), failDel: errors.New("offline")}
	cache := New(backend, nil)
	_, err := cache.Load(context.Background())
	require.NoError(t, err)

	err = cache.Add(context.Background(), 4)
	require.Error(t, err)
	assert.False(t, cache.Has(4))

	err = cache.Remove(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, cache.Has(1))
}
