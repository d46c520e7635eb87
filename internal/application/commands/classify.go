package commands

import (
	"context"
	"fmt"

	"lexshelf/internal/application"
	"lexshelf/internal/domain"
)

// ClassifyResult contains the placement a document would get
type ClassifyResult struct {
	Plan    *application.Plan
	Message string
}

// ClassifyCommand classifies a document and resolves its leaf without writing
type ClassifyCommand struct {
	placer   *application.Placer
	Document *domain.Document
	Hint     string
}

// NewClassifyCommand creates a new ClassifyCommand
func NewClassifyCommand(placer *application.Placer, doc *domain.Document, hint string) *ClassifyCommand {
	return &ClassifyCommand{placer: placer, Document: doc, Hint: hint}
}

// Validate checks if the classify operation is valid
func (c *ClassifyCommand) Validate() error {
	if c.Document == nil {
		return &application.ValidationError{Field: "document", Message: "document is required"}
	}
	return nil
}

// Execute runs the classify command
func (c *ClassifyCommand) Execute(ctx context.Context) (*ClassifyResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	plan, err := c.placer.Plan(ctx, c.Document, c.Hint)
	if err != nil {
		return nil, err
	}

	year := fmt.Sprintf("%d", plan.Year)
	if !plan.Dated {
		year += " (fallback)"
	}
	msg := fmt.Sprintf("%s -> %s, year %s, leaf %s", displayID(plan.ID), plan.Placement, year, plan.Leaf.RelDir())
	if plan.Exhausted {
		msg = fmt.Sprintf("%s -> %s, year %s, bucket %s is full", displayID(plan.ID), plan.Placement, year, plan.Key)
	}
	return &ClassifyResult{Plan: plan, Message: msg}, nil
}

func displayID(id string) string {
	if id == "" {
		return "(no id)"
	}
	return id
}
