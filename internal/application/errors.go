package application

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateID       = errors.New("duplicate document")
	ErrCapacityExhausted = errors.New("capacity exhausted")
	ErrIO                = errors.New("i/o failure")
	ErrEncoding          = errors.New("encoding failure")
	ErrCorruptRecord     = errors.New("corrupt record")
	ErrInvalidDocument   = errors.New("invalid document")
)

// ValidationError represents a validation failure with details
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidDocument
}

// Reasons a document is considered a duplicate
const (
	DuplicateByID      = "id"
	DuplicateByContent = "content"
)

// DuplicateError reports a document that is already stored
type DuplicateError struct {
	ID         string
	Reason     string // DuplicateByID or DuplicateByContent
	ExistingID string
	Path       string
}

func (e *DuplicateError) Error() string {
	if e.Reason == DuplicateByContent {
		return fmt.Sprintf("duplicate document %s: same content as %s (%s)", e.ID, e.ExistingID, e.Path)
	}
	if e.Path != "" {
		return fmt.Sprintf("duplicate document %s: already stored at %s", e.ID, e.Path)
	}
	return fmt.Sprintf("duplicate document %s", e.ID)
}

func (e *DuplicateError) Is(target error) bool {
	return target == ErrDuplicateID
}

// CapacityError reports a bucket that cannot take another batch
type CapacityError struct {
	Bucket     string
	MaxBatches int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("bucket %s is full: all %d batches at capacity", e.Bucket, e.MaxBatches)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExhausted
}

// IOError wraps a filesystem failure during placement
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func (e *IOError) Is(target error) bool {
	return target == ErrIO
}

// EncodingError reports a document that could not be serialized
type EncodingError struct {
	ID  string
	Err error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("cannot encode document %s: %v", e.ID, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

func (e *EncodingError) Is(target error) bool {
	return target == ErrEncoding
}

// CorruptRecordError reports an unreadable document file found while scanning
type CorruptRecordError struct {
	Path   string
	Reason string
}

func (e *CorruptRecordError) Error() string {
	return fmt.Sprintf("corrupt record %s: %s", e.Path, e.Reason)
}

func (e *CorruptRecordError) Is(target error) bool {
	return target == ErrCorruptRecord
}
