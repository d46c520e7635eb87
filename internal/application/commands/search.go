package commands

import (
	"context"
	"sort"
	"strings"

	"lexshelf/internal/application"
	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// SearchResult wraps a catalog entry with a relevance score
type SearchResult struct {
	domain.CatalogEntry
	Score int
}

// SearchCommand searches the catalog with fuzzy matching
type SearchCommand struct {
	store ports.LeafStore
	Query string
	Limit int // 0 for all
}

// NewSearchCommand creates a new SearchCommand
func NewSearchCommand(store ports.LeafStore, query string, limit int) *SearchCommand {
	return &SearchCommand{
		store: store,
		Query: query,
		Limit: limit,
	}
}

// Execute runs the search command and returns scored, sorted results
func (c *SearchCommand) Execute(ctx context.Context) ([]SearchResult, error) {
	if len(c.Query) < 2 {
		return nil, nil
	}

	catalog, err := application.LoadCatalog(c.store)
	if err != nil {
		return nil, err
	}

	results := FuzzySort(catalog.Documents, c.Query)
	if c.Limit > 0 && len(results) > c.Limit {
		results = results[:c.Limit]
	}
	return results, nil
}

// FuzzyScore calculates a relevance score for how well target matches query
func FuzzyScore(target, query string) int {
	target = strings.ToLower(target)
	query = strings.ToLower(query)

	if len(query) == 0 {
		return 0
	}

	// Check for exact substring match first (highest priority)
	if strings.Contains(target, query) {
		score := 100
		// Bonus if it starts with query
		if strings.HasPrefix(target, query) {
			score += 50
		}
		return score
	}

	// Fuzzy match: check if chars appear in order
	score := 0
	queryIdx := 0
	prevMatchIdx := -1

	for i := 0; i < len(target) && queryIdx < len(query); i++ {
		if target[i] == query[queryIdx] {
			if prevMatchIdx == i-1 {
				score += 10 // consecutive chars
			}
			if i == 0 {
				score += 15 // start of string
			}
			if i > 0 && (target[i-1] == ' ' || target[i-1] == '.' || target[i-1] == '-' || target[i-1] == '_') {
				score += 10 // after separator
			}
			score += 1
			prevMatchIdx = i
			queryIdx++
		}
	}

	if queryIdx == len(query) {
		return score
	}
	return 0
}

// FuzzySort scores catalog entries against the query and sorts them by relevance.
// Entries that do not match are dropped.
func FuzzySort(entries []domain.CatalogEntry, query string) []SearchResult {
	scored := make([]SearchResult, 0, len(entries))

	for _, e := range entries {
		best := max(
			FuzzyScore(e.ID, query),
			FuzzyScore(e.Title, query),
			FuzzyScore(e.Jurisdiction, query),
			FuzzyScore(e.LegalDomain, query),
			FuzzyScore(e.DocumentType, query),
		)

		if best > 0 {
			scored = append(scored, SearchResult{
				CatalogEntry: e,
				Score:        best,
			})
		}
	}

	// Sort by score descending, then by path for stable output
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].FilePath < scored[j].FilePath
	})

	return scored
}
