package flock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// DefaultRetryDelay is how often a held lock file is polled
const DefaultRetryDelay = 10 * time.Millisecond

// Locker serializes a bucket across processes with one lock file per bucket
// under dir. An in-process locker is taken first so that goroutines of the
// same process queue without touching the filesystem.
type Locker struct {
	dir        string
	local      ports.BucketLocker
	RetryDelay time.Duration
}

// Ensure Locker implements BucketLocker
var _ ports.BucketLocker = (*Locker)(nil)

// New creates a cross-process locker. local guards goroutines of this process.
func New(dir string, local ports.BucketLocker) *Locker {
	return &Locker{dir: dir, local: local, RetryDelay: DefaultRetryDelay}
}

// Path returns the lock file of key
func (l *Locker) Path(key domain.BucketKey) string {
	return filepath.Join(l.dir, filepath.FromSlash(key.RelDir())+".lock")
}

// Lock blocks until both the in-process and the file lock are held, or ctx is done
func (l *Locker) Lock(ctx context.Context, key domain.BucketKey) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, key)
	if err != nil {
		return nil, err
	}

	path := l.Path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		unlockLocal()
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(path)
	locked, err := fl.TryLockContext(ctx, l.RetryDelay)
	if err != nil || !locked {
		unlockLocal()
		if err == nil {
			err = fmt.Errorf("could not lock %s", path)
		}
		return nil, err
	}

	return func() {
		_ = fl.Unlock()
		unlockLocal()
	}, nil
}

// Shared is true: other processes may write to the same root
func (l *Locker) Shared() bool {
	return true
}
