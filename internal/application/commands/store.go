package commands

import (
	"context"
	"fmt"

	"lexshelf/internal/application"
	"lexshelf/internal/domain"
)

// StoreResult contains the result of storing a document
type StoreResult struct {
	Receipt *application.Receipt
	Message string
}

// StoreCommand places a single document into the repository
type StoreCommand struct {
	placer   *application.Placer
	Document *domain.Document
	Hint     string // origin filename, used for year extraction
}

// NewStoreCommand creates a new StoreCommand
func NewStoreCommand(placer *application.Placer, doc *domain.Document, hint string) *StoreCommand {
	return &StoreCommand{
		placer:   placer,
		Document: doc,
		Hint:     hint,
	}
}

// Validate checks if the store operation is valid
func (c *StoreCommand) Validate() error {
	if c.Document == nil {
		return &application.ValidationError{
			Field:   "document",
			Message: "document is required",
		}
	}
	return nil
}

// Execute runs the store command
func (c *StoreCommand) Execute(ctx context.Context) (*StoreResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	receipt, err := c.placer.Store(ctx, c.Document, c.Hint)
	if err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Stored %s at %s", receipt.ID, receipt.RelPath)
	if receipt.Mirrored {
		msg += " (mirrored)"
	}
	return &StoreResult{Receipt: receipt, Message: msg}, nil
}
