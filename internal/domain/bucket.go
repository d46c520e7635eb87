package domain

import (
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"
)

var batchDirPattern = regexp.MustCompile(`^batch_(\d{3,})$`)

// BucketKey identifies a group of documents that share placement rules
type BucketKey struct {
	DateRange   string
	Category    string
	Subcategory string
}

// NewBucketKey builds a key from a date-range label and a placement
func NewBucketKey(dateRange string, p Placement) BucketKey {
	return BucketKey{DateRange: dateRange, Category: p.Category, Subcategory: p.Subcategory}
}

// RelDir returns the slash-separated directory of the primary leaf
func (k BucketKey) RelDir() string {
	return path.Join(k.DateRange, k.Category, k.Subcategory)
}

// String returns the key in directory form
func (k BucketKey) String() string {
	return k.RelDir()
}

// CategoryKey returns "category_subcategory", the form used in index summaries
func (k BucketKey) CategoryKey() string {
	return k.Category + "_" + k.Subcategory
}

// ParseBucketKey parses "date/category/subcategory"
func ParseBucketKey(s string) (BucketKey, error) {
	parts := strings.Split(strings.Trim(s, "/"), "/")
	if len(parts) != 3 {
		return BucketKey{}, fmt.Errorf("invalid bucket key %q: expected date_range/category/subcategory", s)
	}
	for _, p := range parts {
		if p == "" {
			return BucketKey{}, fmt.Errorf("invalid bucket key %q: empty segment", s)
		}
	}
	return BucketKey{DateRange: parts[0], Category: parts[1], Subcategory: parts[2]}, nil
}

// Leaf is a physical directory that directly holds document files.
// Batch 0 is the primary leaf; overflow leaves are numbered from 1.
type Leaf struct {
	Key       BucketKey
	Batch     int
	Occupancy int
}

// IsBatch reports whether the leaf is an overflow batch
func (l Leaf) IsBatch() bool {
	return l.Batch > 0
}

// RelDir returns the slash-separated directory of the leaf relative to the root
func (l Leaf) RelDir() string {
	if l.Batch == 0 {
		return l.Key.RelDir()
	}
	return path.Join(l.Key.RelDir(), BatchDirName(l.Batch))
}

// DocumentPath returns the slash-separated path of a document stored in this leaf
func (l Leaf) DocumentPath(id string) string {
	return path.Join(l.RelDir(), DocumentFileName(id))
}

// BatchDirName returns the directory name for batch n (n >= 1)
func BatchDirName(n int) string {
	return fmt.Sprintf("batch_%03d", n)
}

// ParseBatchDir returns the batch index of a batch directory name
func ParseBatchDir(name string) (int, bool) {
	m := batchDirPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// IsBatchDir reports whether name looks like a batch directory
func IsBatchDir(name string) bool {
	_, ok := ParseBatchDir(name)
	return ok
}

// DocumentExt is the extension of every document file
const DocumentExt = ".json"

// DocumentFileName returns the file name for a document id
func DocumentFileName(id string) string {
	return id + DocumentExt
}

// DocumentIDFromFile returns the id stem of a document file name
func DocumentIDFromFile(name string) (string, bool) {
	if !strings.HasSuffix(name, DocumentExt) || strings.HasPrefix(name, ".") {
		return "", false
	}
	id := strings.TrimSuffix(name, DocumentExt)
	return id, id != ""
}

// ValidateID checks that id can be used as a file name stem
func ValidateID(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("id is empty")
	case id == "." || id == "..":
		return fmt.Errorf("id %q is not a valid file name", id)
	case strings.HasPrefix(id, "."):
		return fmt.Errorf("id %q must not start with a dot", id)
	case strings.ContainsAny(id, "/\\\x00"):
		return fmt.Errorf("id %q must not contain path separators", id)
	case len(id) > 200:
		return fmt.Errorf("id is too long (%d bytes)", len(id))
	}
	return nil
}
