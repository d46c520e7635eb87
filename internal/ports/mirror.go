package ports

import (
	"context"
	"time"
)

// MirrorRecord is a copy of a stored document sent to a secondary sink.
// Payload is the document JSON with created_at, embeddings and indexed added.
type MirrorRecord struct {
	ID        string
	RelPath   string
	CreatedAt time.Time
	Payload   []byte
}

// MirrorSink receives best-effort copies of stored documents.
// The file on disk stays canonical; a failed insert never undoes it.
type MirrorSink interface {
	Name() string
	Insert(ctx context.Context, rec MirrorRecord) error
	Close() error
}
