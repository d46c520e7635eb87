package domain

import (
	"path/filepath"
	"regexp"
	"time"
)

// Pattern for a compact date embedded in an identifier or filename (e.g. "case_20210301")
var embeddedDatePattern = regexp.MustCompile(`_(\d{8})`)

// DateBucketer maps filing years to date-range labels
type DateBucketer struct {
	ranges       []DateRange
	openLabel    string
	fallbackYear int
}

// NewDateBucketer creates a bucketer from the given rules
func NewDateBucketer(rules Rules) *DateBucketer {
	ranges := make([]DateRange, len(rules.DateRanges))
	copy(ranges, rules.DateRanges)
	return &DateBucketer{
		ranges:       ranges,
		openLabel:    rules.OpenRangeLabel,
		fallbackYear: rules.FallbackYear,
	}
}

// Bucket returns the label for year. Every int maps to exactly one label.
func (b *DateBucketer) Bucket(year int) string {
	for _, r := range b.ranges {
		if year <= r.UpTo {
			return r.Label
		}
	}
	return b.openLabel
}

// Labels returns every label in range order, open range last
func (b *DateBucketer) Labels() []string {
	labels := make([]string, 0, len(b.ranges)+1)
	for _, r := range b.ranges {
		labels = append(labels, r.Label)
	}
	return append(labels, b.openLabel)
}

// IsLabel reports whether name is one of the configured labels
func (b *DateBucketer) IsLabel(name string) bool {
	for _, l := range b.Labels() {
		if l == name {
			return true
		}
	}
	return false
}

// ExtractYear finds the filing year of doc.
// It tries date_filed, then a _YYYYMMDD stamp in the id, then one in hint,
// and finally falls back to the configured year. The bool is false on fallback.
func (b *DateBucketer) ExtractYear(doc *Document, hint string) (int, bool) {
	if t, err := time.Parse(time.DateOnly, doc.DateFiled); err == nil {
		return t.Year(), true
	}
	if year, ok := embeddedYear(doc.ID); ok {
		return year, true
	}
	if hint != "" {
		if year, ok := embeddedYear(filepath.Base(hint)); ok {
			return year, true
		}
	}
	return b.fallbackYear, false
}

// BucketDocument returns the date-range label for doc
func (b *DateBucketer) BucketDocument(doc *Document, hint string) string {
	year, _ := b.ExtractYear(doc, hint)
	return b.Bucket(year)
}

func embeddedYear(s string) (int, bool) {
	for _, m := range embeddedDatePattern.FindAllStringSubmatch(s, -1) {
		t, err := time.Parse("20060102", m[1])
		if err != nil {
			continue
		}
		return t.Year(), true
	}
	return 0, false
}
