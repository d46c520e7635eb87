package domain

import "sort"

// LeafFamily is the set of leaves for one bucket key: the primary leaf plus
// any overflow batches, and the ids of every document stored in them.
type LeafFamily struct {
	Key        BucketKey
	HasPrimary bool
	Primary    int         // occupancy of the primary leaf
	Batches    map[int]int // batch index -> occupancy
	Members    map[string]int

	// Duplicates are files whose id is already a member through a lower
	// leaf. They count towards occupancy but are not documents of their own.
	Duplicates []DocumentRef
}

// DocumentRef locates one document file inside a family
type DocumentRef struct {
	Batch int
	ID    string
}

// Path returns the document path relative to the repository root
func (r DocumentRef) Path(key BucketKey) string {
	return Leaf{Key: key, Batch: r.Batch}.DocumentPath(r.ID)
}

// NewLeafFamily returns an empty family for key
func NewLeafFamily(key BucketKey) *LeafFamily {
	return &LeafFamily{
		Key:     key,
		Batches: make(map[int]int),
		Members: make(map[string]int),
	}
}

// Contains reports whether a document with id exists in any leaf of the family
func (f *LeafFamily) Contains(id string) bool {
	_, ok := f.Members[id]
	return ok
}

// Add records a stored document in the given leaf
func (f *LeafFamily) Add(batch int, id string) {
	if batch == 0 {
		f.HasPrimary = true
		f.Primary++
	} else {
		f.Batches[batch]++
	}
	if first, ok := f.Members[id]; ok {
		if first <= batch {
			f.Duplicates = append(f.Duplicates, DocumentRef{Batch: batch, ID: id})
			return
		}
		f.Duplicates = append(f.Duplicates, DocumentRef{Batch: first, ID: id})
	}
	f.Members[id] = batch
}

// Ensure records that a leaf exists, creating it with zero occupancy if absent
func (f *LeafFamily) Ensure(batch int) {
	if batch == 0 {
		f.HasPrimary = true
		return
	}
	if _, ok := f.Batches[batch]; !ok {
		f.Batches[batch] = 0
	}
}

// Occupancy returns the occupancy of a leaf and whether it exists
func (f *LeafFamily) Occupancy(batch int) (int, bool) {
	if batch == 0 {
		return f.Primary, f.HasPrimary
	}
	n, ok := f.Batches[batch]
	return n, ok
}

// BatchIndices returns the existing batch indices in ascending order
func (f *LeafFamily) BatchIndices() []int {
	indices := make([]int, 0, len(f.Batches))
	for n := range f.Batches {
		indices = append(indices, n)
	}
	sort.Ints(indices)
	return indices
}

// Leaves returns every existing leaf, primary first
func (f *LeafFamily) Leaves() []Leaf {
	var leaves []Leaf
	if f.HasPrimary {
		leaves = append(leaves, Leaf{Key: f.Key, Occupancy: f.Primary})
	}
	for _, n := range f.BatchIndices() {
		leaves = append(leaves, Leaf{Key: f.Key, Batch: n, Occupancy: f.Batches[n]})
	}
	return leaves
}

// Total returns the number of documents across the family
func (f *LeafFamily) Total() int {
	total := f.Primary
	for _, n := range f.Batches {
		total += n
	}
	return total
}

// Clone returns a deep copy
func (f *LeafFamily) Clone() *LeafFamily {
	c := &LeafFamily{
		Key:        f.Key,
		HasPrimary: f.HasPrimary,
		Primary:    f.Primary,
		Batches:    make(map[int]int, len(f.Batches)),
		Members:    make(map[string]int, len(f.Members)),
	}
	for k, v := range f.Batches {
		c.Batches[k] = v
	}
	for k, v := range f.Members {
		c.Members[k] = v
	}
	c.Duplicates = append([]DocumentRef(nil), f.Duplicates...)
	return c
}

// ResolveLeaf picks the leaf that receives the next document of the family.
// The primary leaf is preferred, then the lowest batch with spare capacity,
// then a new batch with the lowest unused index. It returns false when a new
// batch is needed but maxBatches (if positive) is already reached.
// The family is not modified.
func ResolveLeaf(f *LeafFamily, capacity, maxBatches int) (Leaf, bool) {
	if !f.HasPrimary {
		return Leaf{Key: f.Key}, true
	}
	if f.Primary < capacity {
		return Leaf{Key: f.Key, Occupancy: f.Primary}, true
	}
	for _, n := range f.BatchIndices() {
		if occ := f.Batches[n]; occ < capacity {
			return Leaf{Key: f.Key, Batch: n, Occupancy: occ}, true
		}
	}
	next := NextBatchIndex(f)
	if maxBatches > 0 && next > maxBatches {
		return Leaf{}, false
	}
	return Leaf{Key: f.Key, Batch: next}, true
}

// NextBatchIndex returns the lowest batch index >= 1 not yet in use
func NextBatchIndex(f *LeafFamily) int {
	n := 1
	for {
		if _, used := f.Batches[n]; !used {
			return n
		}
		n++
	}
}
