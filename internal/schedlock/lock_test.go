package schedlock

import (
	"context"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutexLockerSerializesPerProvider(t *testing.T) {
	locker := NewMutexLocker()
	provider := uuid.New()

	unlock, err := locker.Lock(context.Background(), provider)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		u, err := locker.Lock(context.Background(), provider)
		assert.NoError(t, err)
		close(acquired)
		u()
	}()

	select {
	case <-acquired:
		t.Fatal("second lock acquired while first still held")
	case <-time.After(50 * time.Millisecond):
	}

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second lock never acquired after release")
	}
}

func TestMutexLockerIndependentProviders(t *testing.T) {
	locker := NewMutexLocker()

	unlockA, err := locker.Lock(context.Background(), uuid.New())
	require.NoError(t, err)
	defer unlockA()

	// A different provider must not block.
	done := make(chan struct{})
	go func() {
		u, err := locker.Lock(context.Background(), uuid.New())
		assert.NoError(t, err)
		u()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("independent provider lock blocked")
	}
}

func TestRedisLockerMutualExclusion(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	locker := NewRedisLocker(client, 5*time.Second)
	provider := uuid.New()

	unlock, err := locker.Lock(context.Background(), provider)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = locker.Lock(ctx, provider)
	assert.Error(t, err, "contended lock should time out while held")

	unlock()
	unlock2, err := locker.Lock(context.Background(), provider)
	require.NoError(t, err)
	unlock2()
}

func TestRedisLockerCounters(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	locker := NewRedisLocker(client, 5*time.Second)

	var mu sync.Mutex
	counter := 0
	provider := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), provider)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			counter++
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, 8, counter)
}
