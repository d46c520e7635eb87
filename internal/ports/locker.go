package ports

import (
	"context"

	"lexshelf/internal/domain"
)

// BucketLocker serializes placement within one bucket family
type BucketLocker interface {
	// Lock blocks until the bucket is held or ctx is done.
	// The returned func releases the lock.
	Lock(ctx context.Context, key domain.BucketKey) (func(), error)

	// Shared reports whether other processes may write to the same root
	Shared() bool
}
