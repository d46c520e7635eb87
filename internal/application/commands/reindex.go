package commands

import (
	"context"
	"fmt"
	"time"

	"lexshelf/internal/application"
)

// ReindexResult contains the result of an index rebuild
type ReindexResult struct {
	*application.RebuildResult
	Message string
}

// ReindexCommand rebuilds repository_index.json, search_catalog.json and README.md
type ReindexCommand struct {
	builder *application.IndexBuilder
}

// NewReindexCommand creates a new ReindexCommand
func NewReindexCommand(builder *application.IndexBuilder) *ReindexCommand {
	return &ReindexCommand{builder: builder}
}

// Execute runs the reindex command
func (c *ReindexCommand) Execute(ctx context.Context) (*ReindexResult, error) {
	result, err := c.builder.Rebuild(ctx)
	if err != nil {
		return nil, err
	}
	return &ReindexResult{
		RebuildResult: result,
		Message: fmt.Sprintf("Indexed %d documents in %d leaves (%d corrupt skipped) in %s",
			result.Stats.Documents, result.Stats.Leaves, result.Stats.CorruptSkipped, result.Stats.Duration.Round(time.Millisecond)),
	}, nil
}
