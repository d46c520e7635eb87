package domain

import (
	"sort"
	"time"
)

// Artifact file names written at the repository root
const (
	IndexFileName   = "repository_index.json"
	CatalogFileName = "search_catalog.json"
	ReadmeFileName  = "README.md"
)

// RepositoryInfo is the header of the repository index
type RepositoryInfo struct {
	CreatedAt      string `json:"created_at"`
	TotalDocuments int    `json:"total_documents"`
	CorruptSkipped int    `json:"corrupt_skipped"`
	Capacity       int    `json:"capacity"`
	Leaves         int    `json:"leaves"`
}

// Statistics groups document counts by attribute
type Statistics struct {
	ByJurisdiction map[string]int `json:"by_jurisdiction"`
	ByLegalDomain  map[string]int `json:"by_legal_domain"`
	ByDocumentType map[string]int `json:"by_document_type"`
	BySource       map[string]int `json:"by_source"`
	ByDateRange    map[string]int `json:"by_date_range"`
	ByCategory     map[string]int `json:"by_category"`
	ByBatch        map[string]int `json:"by_batch"`
}

// NewStatistics returns statistics with every map initialized
func NewStatistics() Statistics {
	return Statistics{
		ByJurisdiction: make(map[string]int),
		ByLegalDomain:  make(map[string]int),
		ByDocumentType: make(map[string]int),
		BySource:       make(map[string]int),
		ByDateRange:    make(map[string]int),
		ByCategory:     make(map[string]int),
		ByBatch:        make(map[string]int),
	}
}

// RepositoryIndex is a derived summary of the leaf tree. It is rebuilt from
// scratch by scanning and is never the source of truth.
type RepositoryIndex struct {
	RepositoryInfo     RepositoryInfo            `json:"repository_info"`
	DirectoryStructure map[string]map[string]int `json:"directory_structure"`
	Statistics         Statistics                `json:"statistics"`
}

// NewRepositoryIndex returns an empty index stamped with createdAt
func NewRepositoryIndex(createdAt time.Time, capacity int) *RepositoryIndex {
	return &RepositoryIndex{
		RepositoryInfo: RepositoryInfo{
			CreatedAt: createdAt.UTC().Format(time.RFC3339),
			Capacity:  capacity,
		},
		DirectoryStructure: make(map[string]map[string]int),
		Statistics:         NewStatistics(),
	}
}

// AddLeaf counts a scanned leaf directory
func (idx *RepositoryIndex) AddLeaf(leaf Leaf) {
	idx.RepositoryInfo.Leaves++
	idx.Statistics.ByBatch[leaf.RelDir()] = leaf.Occupancy
}

// AddDocument counts one readable document stored under key
func (idx *RepositoryIndex) AddDocument(key BucketKey, entry CatalogEntry) {
	idx.RepositoryInfo.TotalDocuments++

	byCat, ok := idx.DirectoryStructure[key.DateRange]
	if !ok {
		byCat = make(map[string]int)
		idx.DirectoryStructure[key.DateRange] = byCat
	}
	byCat[key.CategoryKey()]++

	s := idx.Statistics
	s.ByDateRange[key.DateRange]++
	s.ByCategory[key.Category+"/"+key.Subcategory]++
	s.ByJurisdiction[orUnknown(entry.Jurisdiction)]++
	s.ByLegalDomain[orUnknown(entry.LegalDomain)]++
	s.ByDocumentType[orUnknown(entry.DocumentType)]++
	s.BySource[orUnknown(entry.Source)]++
}

// CatalogEntry is the lightweight per-document record of the search catalog
type CatalogEntry struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Jurisdiction  string `json:"jurisdiction"`
	LegalDomain   string `json:"legal_domain"`
	DocumentType  string `json:"document_type"`
	Source        string `json:"source"`
	FilePath      string `json:"file_path"`
	ContentLength int    `json:"content_length"`
	CreatedAt     string `json:"created_at"`
}

// CatalogMetadata is the footer of the search catalog
type CatalogMetadata struct {
	CreatedAt      string `json:"created_at"`
	TotalDocuments int    `json:"total_documents"`
}

// Catalog is the flat search catalog
type Catalog struct {
	Documents []CatalogEntry  `json:"documents"`
	Metadata  CatalogMetadata `json:"metadata"`
}

// SortEntries orders the catalog by file path
func (c *Catalog) SortEntries() {
	sort.Slice(c.Documents, func(i, j int) bool {
		return c.Documents[i].FilePath < c.Documents[j].FilePath
	})
}

// RebuildStats holds statistics from an index rebuild
type RebuildStats struct {
	FilesScanned   int
	Documents      int
	CorruptSkipped int
	Leaves         int
	Duration       time.Duration
}

// SortedKeys returns the keys of m in ascending order
func SortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
