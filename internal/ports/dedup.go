package ports

import (
	"context"
	"time"

	"lexshelf/internal/domain"
)

// DedupRecord is what the dedup index remembers about a stored document
type DedupRecord struct {
	ID          string
	ContentHash string
	Bucket      domain.BucketKey
	RelPath     string
	StoredAt    time.Time
}

// DedupIndex is a persistent id and content-hash lookup consulted before every write
type DedupIndex interface {
	Lookup(ctx context.Context, id string) (*DedupRecord, bool, error)
	LookupHash(ctx context.Context, hash string) (*DedupRecord, bool, error)
	Put(ctx context.Context, rec DedupRecord) error

	// Reserve records rec unless its id, or its non-empty content hash, is
	// already known, checking and inserting in one atomic step. It returns
	// the conflicting record, or nil when rec was recorded.
	Reserve(ctx context.Context, rec DedupRecord) (*DedupRecord, error)
	// Release forgets a reserved id whose document was never written
	Release(ctx context.Context, id string) error

	Count(ctx context.Context) (int, error)

	// Reset forgets every record, before a resync from the tree
	Reset(ctx context.Context) error
	Close() error
}

// DedupBatcher is implemented by indexes that can insert many records at once
type DedupBatcher interface {
	PutBatch(ctx context.Context, recs []DedupRecord) error
}

// DedupDirtyMarker is implemented by persistent indexes that can flag
// themselves for a resync after an update was lost
type DedupDirtyMarker interface {
	MarkDirty(ctx context.Context) error
}
