package application

import (
	"context"
	"sync"

	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// KeyedLocker is an in-process lock per bucket key.
// Acquisition honors context cancellation; idle keys are released.
type KeyedLocker struct {
	mu    sync.Mutex
	locks map[domain.BucketKey]*keyedLock
}

type keyedLock struct {
	sem  chan struct{}
	refs int
}

// Ensure KeyedLocker implements BucketLocker
var _ ports.BucketLocker = (*KeyedLocker)(nil)

// NewKeyedLocker creates an empty locker
func NewKeyedLocker() *KeyedLocker {
	return &KeyedLocker{locks: make(map[domain.BucketKey]*keyedLock)}
}

// Lock blocks until key is held or ctx is done
func (l *KeyedLocker) Lock(ctx context.Context, key domain.BucketKey) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &keyedLock{sem: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
	case <-ctx.Done():
		l.release(key, entry)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-entry.sem
			l.release(key, entry)
		})
	}, nil
}

// Shared is false: the lock only covers this process
func (l *KeyedLocker) Shared() bool {
	return false
}

func (l *KeyedLocker) release(key domain.BucketKey, entry *keyedLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}
