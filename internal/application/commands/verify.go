package commands

import (
	"context"
	"fmt"
	"sort"

	"lexshelf/internal/ports"
)

// DirCount is a directory and the number of documents directly inside it
type DirCount struct {
	Path  string
	Count int
}

// VerifyResult reports how the tree honors the capacity bound
type VerifyResult struct {
	Capacity     int
	Directories  []DirCount // every directory holding documents, by path
	Files        int
	Violations   []DirCount
	Distribution map[int]int // file count -> number of directories
	Valid        bool
	Message      string
}

// VerifyCommand checks that no directory holds more documents than the capacity
type VerifyCommand struct {
	store    ports.LeafStore
	Capacity int
}

// NewVerifyCommand creates a new VerifyCommand
func NewVerifyCommand(store ports.LeafStore, capacity int) *VerifyCommand {
	return &VerifyCommand{store: store, Capacity: capacity}
}

// Execute walks the tree and counts documents per directory
func (c *VerifyCommand) Execute(ctx context.Context) (*VerifyResult, error) {
	counts, err := c.store.CountPerDir()
	if err != nil {
		return nil, err
	}

	result := &VerifyResult{
		Capacity:     c.Capacity,
		Distribution: make(map[int]int),
	}
	for dir, n := range counts {
		dc := DirCount{Path: dir, Count: n}
		result.Directories = append(result.Directories, dc)
		result.Files += n
		result.Distribution[n]++
		if n > c.Capacity {
			result.Violations = append(result.Violations, dc)
		}
	}
	sort.Slice(result.Directories, func(i, j int) bool {
		return result.Directories[i].Path < result.Directories[j].Path
	})
	sort.Slice(result.Violations, func(i, j int) bool {
		return result.Violations[i].Path < result.Violations[j].Path
	})

	result.Valid = len(result.Violations) == 0
	if result.Valid {
		result.Message = fmt.Sprintf("All %d directories hold at most %d documents (%d documents)",
			len(result.Directories), c.Capacity, result.Files)
	} else {
		result.Message = fmt.Sprintf("%d of %d directories exceed %d documents",
			len(result.Violations), len(result.Directories), c.Capacity)
	}
	return result, nil
}

// DistributionKeys returns the file counts of the distribution, largest first
func (r *VerifyResult) DistributionKeys() []int {
	keys := make([]int, 0, len(r.Distribution))
	for k := range r.Distribution {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(keys)))
	return keys
}
