package ports

import (
	"context"

	"lexshelf/internal/domain"
)

// DocumentProducer yields documents from a source: files, an inbox
// directory, a generator or a remote API
type DocumentProducer interface {
	Name() string

	// Produce calls emit for every document until the source is exhausted,
	// ctx is done or emit returns an error.
	Produce(ctx context.Context, emit func(domain.Incoming) error) error
}
