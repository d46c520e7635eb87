package commands

import (
	"context"
	"fmt"

	"lexshelf/internal/application"
	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// ShowResult contains a stored document and where it lives
type ShowResult struct {
	Document *domain.Document
	RelPath  string
	AbsPath  string
}

// ShowCommand loads a stored document by id
type ShowCommand struct {
	store ports.LeafStore
	dedup ports.DedupIndex
	ID    string
}

// NewShowCommand creates a new ShowCommand. dedup may be nil.
func NewShowCommand(store ports.LeafStore, dedup ports.DedupIndex, id string) *ShowCommand {
	return &ShowCommand{store: store, dedup: dedup, ID: id}
}

// Validate checks if the show operation is valid
func (c *ShowCommand) Validate() error {
	return application.ValidateRequired("id", c.ID)
}

// Execute runs the show command. The dedup index is consulted first, then
// the search catalog.
func (c *ShowCommand) Execute(ctx context.Context) (*ShowResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	rel, err := c.locate(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := c.store.ReadDocument(rel)
	if err != nil {
		return nil, &application.CorruptRecordError{Path: rel, Reason: err.Error()}
	}
	return &ShowResult{Document: doc, RelPath: rel, AbsPath: c.store.AbsPath(rel)}, nil
}

func (c *ShowCommand) locate(ctx context.Context) (string, error) {
	if c.dedup != nil {
		rec, found, err := c.dedup.Lookup(ctx, c.ID)
		if err != nil {
			return "", err
		}
		if found && rec.RelPath != "" {
			return rec.RelPath, nil
		}
	}

	catalog, err := application.LoadCatalog(c.store)
	if err != nil {
		return "", err
	}
	for _, entry := range catalog.Documents {
		if entry.ID == c.ID {
			return entry.FilePath, nil
		}
	}
	return "", fmt.Errorf("document %s: %w", c.ID, application.ErrNotFound)
}
