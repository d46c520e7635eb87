package application

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexshelf/internal/domain"
)

func TestKeyedLocker_MutualExclusion(t *testing.T) {
	l := NewKeyedLocker()
	key := domain.BucketKey{DateRange: "a", Category: "b", Subcategory: "c"}

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), key)
			if !assert.NoError(t, err) {
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, l.locks, "idle keys are released")
}

func TestKeyedLocker_DifferentKeysDoNotBlock(t *testing.T) {
	l := NewKeyedLocker()
	a := domain.BucketKey{DateRange: "a"}
	b := domain.BucketKey{DateRange: "b"}

	unlockA, err := l.Lock(context.Background(), a)
	require.NoError(t, err)
	defer unlockA()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockB, err := l.Lock(ctx, b)
	require.NoError(t, err)
	unlockB()
}

func TestKeyedLocker_HonorsContext(t *testing.T) {
	l := NewKeyedLocker()
	key := domain.BucketKey{DateRange: "a"}

	unlock, err := l.Lock(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock() // releasing twice is harmless
	assert.False(t, l.Shared())
}
