package domain

import (
	"fmt"
	"strings"
)

// ReadmeTemplate renders the repository README from a freshly built index
func ReadmeTemplate(idx *RepositoryIndex, labels []string) string {
	var b strings.Builder
	info := idx.RepositoryInfo

	fmt.Fprintf(&b, `# Legal Document Repository

Generated: %s

- Total documents: %d
- Leaf directories: %d
- Corrupt files skipped: %d
- Capacity per directory: %d

## Layout

Documents live at `+"`{date_range}/{category}/{subcategory}/[batch_NNN/]{id}.json`"+`.
When a directory reaches %d files, new documents for the same bucket go to
`+"`batch_001`"+`, `+"`batch_002`"+`, and so on. Files are never moved once written.

## Documents by date range

| Date range | Documents |
|---|---|
`, info.CreatedAt, info.TotalDocuments, info.Leaves, info.CorruptSkipped, info.Capacity, info.Capacity)

	for _, label := range labels {
		if n, ok := idx.Statistics.ByDateRange[label]; ok {
			fmt.Fprintf(&b, "| %s | %d |\n", label, n)
		}
	}

	b.WriteString("\n## Documents by category\n\n| Category | Documents |\n|---|---|\n")
	for _, cat := range SortedKeys(idx.Statistics.ByCategory) {
		fmt.Fprintf(&b, "| %s | %d |\n", cat, idx.Statistics.ByCategory[cat])
	}

	fmt.Fprintf(&b, "\nSee `%s` for statistics and `%s` for the searchable catalog.\n", IndexFileName, CatalogFileName)
	return b.String()
}
