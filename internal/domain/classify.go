package domain

import (
	"strings"
	"unicode"
)

// Fixed placements produced by the classifier
var (
	PlacementSupremeCourt   = Placement{"federal_courts", "supreme_court"}
	PlacementCircuitCourts  = Placement{"federal_courts", "circuit_courts"}
	PlacementDistrictCourts = Placement{"federal_courts", "district_courts"}
	PlacementStatutes       = Placement{"statutes", "federal"}
	PlacementRegulations    = Placement{"regulations", "cfr"}
	PlacementAcademic       = Placement{"academic", "research_papers"}
	PlacementDefault        = Placement{"case_law", "contracts"}
)

const stateCourtsCategory = "state_courts"

// Classifier maps a document to its (category, subcategory) placement.
// Classification never fails: unknown inputs fall through to PlacementDefault.
type Classifier struct {
	states  []string
	domains map[string]Placement
}

// NewClassifier creates a classifier from the given rules
func NewClassifier(rules Rules) *Classifier {
	states := make([]string, len(rules.States))
	for i, s := range rules.States {
		states[i] = strings.ToLower(s)
	}
	domains := make(map[string]Placement, len(rules.Domains))
	for k, v := range rules.Domains {
		domains[strings.ToLower(k)] = v
	}
	return &Classifier{states: states, domains: domains}
}

// Classify returns the placement for doc. First matching rule wins.
func (c *Classifier) Classify(doc *Document) Placement {
	jurisdiction := strings.ToLower(doc.Jurisdiction)
	court := strings.ToLower(doc.Court)
	docType := strings.ToLower(strings.TrimSpace(doc.DocumentType))
	federal := strings.Contains(jurisdiction, "federal")

	if federal {
		switch {
		case strings.Contains(court, "supreme"):
			return PlacementSupremeCourt
		case strings.Contains(court, "circuit"):
			return PlacementCircuitCourts
		case strings.Contains(court, "district"):
			return PlacementDistrictCourts
		}
		switch docType {
		case "statute":
			return PlacementStatutes
		case "regulation":
			return PlacementRegulations
		}
	}

	if state, ok := c.matchState(jurisdiction); ok {
		return Placement{stateCourtsCategory, state}
	}

	if p, ok := c.domains[strings.ToLower(strings.TrimSpace(doc.LegalDomain))]; ok {
		return p
	}

	source := strings.ToLower(doc.Source)
	if strings.Contains(source, "scholar") || strings.Contains(source, "academic") {
		return PlacementAcademic
	}

	switch docType {
	case "statute":
		return PlacementStatutes
	case "regulation":
		return PlacementRegulations
	}
	return PlacementDefault
}

// matchState looks for a configured state abbreviation among the jurisdiction's
// alphanumeric tokens, so "ny_state" matches "ny" while "albany" does not.
func (c *Classifier) matchState(jurisdiction string) (string, bool) {
	if len(c.states) == 0 || jurisdiction == "" {
		return "", false
	}
	tokens := strings.FieldsFunc(jurisdiction, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, state := range c.states {
		for _, tok := range tokens {
			if tok == state {
				return state, true
			}
		}
	}
	return "", false
}
