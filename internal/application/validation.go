package application

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"lexshelf/internal/domain"
)

// ValidateRequired checks if a string field is non-empty (after trimming whitespace).
// Returns a ValidationError if the field is empty.
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		displayName := formatFieldName(fieldName)
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("%s is required", displayName),
		}
	}
	return nil
}

// formatFieldName converts field names to space-separated words
// for more readable error messages (e.g., "bucketKey" -> "bucket key")
func formatFieldName(fieldName string) string {
	replacements := map[string]string{
		"id":          "document ID",
		"bucketKey":   "bucket key",
		"query":       "search query",
		"source":      "source path",
		"root":        "repository root",
		"dateRange":   "date range",
		"subcategory": "subcategory",
	}

	if formatted, ok := replacements[fieldName]; ok {
		return formatted
	}
	return fieldName
}

// PrepareDocument assigns an id to documents that have none and checks that
// the id can be used as a file name. The document is modified in place.
func PrepareDocument(doc *domain.Document) error {
	if doc == nil {
		return &ValidationError{Field: "document", Message: "document is required"}
	}
	if strings.TrimSpace(doc.ID) == "" {
		doc.ID = uuid.NewString()
	}
	if err := domain.ValidateID(doc.ID); err != nil {
		return &ValidationError{Field: "id", Message: err.Error()}
	}
	return nil
}

// ValidateBucketKey parses a "date_range/category/subcategory" string
func ValidateBucketKey(value string) (domain.BucketKey, error) {
	if err := ValidateRequired("bucketKey", value); err != nil {
		return domain.BucketKey{}, err
	}
	key, err := domain.ParseBucketKey(value)
	if err != nil {
		return domain.BucketKey{}, &ValidationError{Field: "bucketKey", Message: err.Error()}
	}
	return key, nil
}
