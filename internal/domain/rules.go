package domain

import (
	"fmt"
	"strings"
)

const (
	// DefaultCapacity is the maximum number of documents in a single leaf directory
	DefaultCapacity = 999
	// DefaultFallbackYear is used when a document carries no parseable filing date.
	// Undated documents are filed as current-era material.
	DefaultFallbackYear = 2024
	// DefaultOpenRangeLabel catches every year after the last closed range
	DefaultOpenRangeLabel = "2025-future"
)

// DateRange is a closed date-range bucket: every year <= UpTo (and above the
// previous range) maps to Label.
type DateRange struct {
	UpTo  int
	Label string
}

// Placement is a (category, subcategory) pair
type Placement struct {
	Category    string
	Subcategory string
}

// String returns "category/subcategory"
func (p Placement) String() string {
	return p.Category + "/" + p.Subcategory
}

// Rules parameterizes classification, bucketing and placement.
// A single Rules value is shared by every component that places documents.
type Rules struct {
	Capacity       int
	MaxBatches     int // 0 means unbounded
	FallbackYear   int
	DateRanges     []DateRange
	OpenRangeLabel string
	States         []string
	Domains        map[string]Placement
}

// DefaultDateRanges returns the standard date-range partition
func DefaultDateRanges() []DateRange {
	return []DateRange{
		{UpTo: 2018, Label: "2015-2018"},
		{UpTo: 2020, Label: "2019-2020"},
		{UpTo: 2022, Label: "2021-2022"},
		{UpTo: 2024, Label: "2023-2024"},
	}
}

// DefaultStates returns the state abbreviations that get their own state_courts subcategory
func DefaultStates() []string {
	return []string{"ny", "ca", "tx", "fl", "il"}
}

// DefaultDomains returns the legal_domain -> placement table
func DefaultDomains() map[string]Placement {
	return map[string]Placement{
		"contract_law":          {"contracts", "business"},
		"employment_law":        {"employment_law", "federal"},
		"ip_law":                {"ip_law", "patents"},
		"intellectual_property": {"ip_law", "patents"},
		"constitutional_law":    {"constitutional_law", "federal"},
		"administrative_law":    {"administrative_law", "federal"},
	}
}

// DefaultRules returns the rules used when no configuration overrides them
func DefaultRules() Rules {
	return Rules{
		Capacity:       DefaultCapacity,
		FallbackYear:   DefaultFallbackYear,
		DateRanges:     DefaultDateRanges(),
		OpenRangeLabel: DefaultOpenRangeLabel,
		States:         DefaultStates(),
		Domains:        DefaultDomains(),
	}
}

// Validate checks that the rules describe a total, non-overlapping partition
// and a usable capacity.
func (r Rules) Validate() error {
	if r.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1, got %d", r.Capacity)
	}
	if r.MaxBatches < 0 {
		return fmt.Errorf("max batches must not be negative, got %d", r.MaxBatches)
	}
	if len(r.DateRanges) == 0 {
		return fmt.Errorf("at least one date range is required")
	}
	if strings.TrimSpace(r.OpenRangeLabel) == "" {
		return fmt.Errorf("open range label is required")
	}

	labels := map[string]bool{r.OpenRangeLabel: true}
	for i, dr := range r.DateRanges {
		if err := validateSegment("date range label", dr.Label); err != nil {
			return err
		}
		if i > 0 && dr.UpTo <= r.DateRanges[i-1].UpTo {
			return fmt.Errorf("date ranges must be strictly increasing: %d follows %d", dr.UpTo, r.DateRanges[i-1].UpTo)
		}
		if labels[dr.Label] {
			return fmt.Errorf("duplicate date range label: %s", dr.Label)
		}
		labels[dr.Label] = true
	}
	if err := validateSegment("open range label", r.OpenRangeLabel); err != nil {
		return err
	}

	for name, p := range r.Domains {
		if err := validateSegment("category for "+name, p.Category); err != nil {
			return err
		}
		if err := validateSegment("subcategory for "+name, p.Subcategory); err != nil {
			return err
		}
	}
	for _, s := range r.States {
		if err := validateSegment("state", s); err != nil {
			return err
		}
	}
	return nil
}

// validateSegment rejects values that cannot be used as a single directory name
func validateSegment(field, value string) error {
	if value == "" || value == "." || value == ".." || strings.ContainsAny(value, `/\`) || strings.HasPrefix(value, ".") {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	if IsBatchDir(value) {
		return fmt.Errorf("invalid %s: %q collides with batch directory names", field, value)
	}
	return nil
}
