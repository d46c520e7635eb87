package commands

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"lexshelf/internal/application"
	"lexshelf/internal/ports"
)

// ReorganizeResult contains the outcome of each reorganize phase
type ReorganizeResult struct {
	Ingest  *IngestReport
	Index   *application.RebuildResult
	Verify  *VerifyResult
	Message string
}

// ReorganizeCommand copies a legacy document tree into the repository
// through the placer, then rebuilds the index and verifies capacity.
// The source tree is left untouched.
type ReorganizeCommand struct {
	placer   *application.Placer
	builder  *application.IndexBuilder
	store    ports.LeafStore
	producer ports.DocumentProducer
	log      logrus.FieldLogger

	Source  string
	Workers int
	Rate    float64
}

// NewReorganizeCommand creates a new ReorganizeCommand. producer reads the
// documents found under source.
func NewReorganizeCommand(placer *application.Placer, builder *application.IndexBuilder, store ports.LeafStore,
	producer ports.DocumentProducer, source string, log logrus.FieldLogger) *ReorganizeCommand {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReorganizeCommand{
		placer:   placer,
		builder:  builder,
		store:    store,
		producer: producer,
		log:      log,
		Source:   source,
		Workers:  4,
	}
}

// Validate checks if the reorganize operation is valid
func (c *ReorganizeCommand) Validate() error {
	if err := application.ValidateRequired("source", c.Source); err != nil {
		return err
	}

	src, err := filepath.Abs(c.Source)
	if err != nil {
		return &application.ValidationError{Field: "source", Message: err.Error()}
	}
	root, err := filepath.Abs(c.store.Root())
	if err != nil {
		return &application.ValidationError{Field: "root", Message: err.Error()}
	}
	if src == root || strings.HasPrefix(root, src+string(filepath.Separator)) ||
		strings.HasPrefix(src, root+string(filepath.Separator)) {
		return &application.ValidationError{
			Field:   "source",
			Message: fmt.Sprintf("source %s and repository %s must not contain each other", src, root),
		}
	}
	return nil
}

// Execute runs the reorganize command
func (c *ReorganizeCommand) Execute(ctx context.Context) (*ReorganizeResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	ingest := NewIngestCommand(c.placer, c.producer, c.log)
	ingest.Workers = c.Workers
	ingest.Rate = c.Rate
	report, err := ingest.Execute(ctx)
	if err != nil {
		return nil, err
	}
	result := &ReorganizeResult{Ingest: report}
	if report.Interrupted {
		result.Message = "Reorganize interrupted: " + report.Message()
		return result, ctx.Err()
	}

	rebuilt, err := c.builder.Rebuild(ctx)
	if err != nil {
		return result, err
	}
	result.Index = rebuilt

	verified, err := NewVerifyCommand(c.store, c.placer.Rules().Capacity).Execute(ctx)
	if err != nil {
		return result, err
	}
	result.Verify = verified

	result.Message = fmt.Sprintf("%s; indexed %d documents; %s",
		report.Message(), rebuilt.Stats.Documents, verified.Message)
	return result, nil
}
