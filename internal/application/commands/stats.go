package commands

import (
	"context"
	"errors"

	"lexshelf/internal/application"
	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// StatsResult contains repository statistics
type StatsResult struct {
	Index *domain.RepositoryIndex
	Fresh bool // true when computed by scanning instead of read from disk
}

// StatsCommand reports repository statistics from the last index, or by
// scanning when no index exists yet or Fresh is set
type StatsCommand struct {
	store   ports.LeafStore
	builder *application.IndexBuilder
	Fresh   bool
}

// NewStatsCommand creates a new StatsCommand
func NewStatsCommand(store ports.LeafStore, builder *application.IndexBuilder, fresh bool) *StatsCommand {
	return &StatsCommand{store: store, builder: builder, Fresh: fresh}
}

// Execute runs the stats command
func (c *StatsCommand) Execute(ctx context.Context) (*StatsResult, error) {
	if !c.Fresh {
		idx, err := application.LoadIndex(c.store)
		if err == nil {
			return &StatsResult{Index: idx}, nil
		}
		if !errors.Is(err, application.ErrNotFound) || c.builder == nil {
			return nil, err
		}
	}

	result, err := c.builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	return &StatsResult{Index: result.Index, Fresh: true}, nil
}
