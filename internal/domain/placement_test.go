package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = BucketKey{DateRange: "2015-2018", Category: "case_law", Subcategory: "contracts"}

// place resolves and records one document, returning the chosen leaf
func place(t *testing.T, f *LeafFamily, id string, capacity int) Leaf {
	t.Helper()
	leaf, ok := ResolveLeaf(f, capacity, 0)
	require.True(t, ok)
	require.Less(t, leaf.Occupancy, capacity)
	f.Add(leaf.Batch, id)
	return leaf
}

func TestResolveLeaf_CapacityScenario(t *testing.T) {
	f := NewLeafFamily(testKey)
	ids := []string{"d1", "d2", "d3", "d4", "d5"}

	for _, id := range ids {
		place(t, f, id, 3)
	}

	assert.Equal(t, 3, f.Primary)
	assert.Equal(t, map[int]int{1: 2}, f.Batches)

	sixth := place(t, f, "d6", 3)
	assert.Equal(t, 1, sixth.Batch)
	assert.Equal(t, "2015-2018/case_law/contracts/batch_001", sixth.RelDir())
	assert.Equal(t, 3, f.Batches[1])

	seventh := place(t, f, "d7", 3)
	assert.Equal(t, 2, seventh.Batch)
	assert.Equal(t, "2015-2018/case_law/contracts/batch_002", seventh.RelDir())
}

func TestResolveLeaf_CreatesPrimaryFirst(t *testing.T) {
	f := NewLeafFamily(testKey)

	leaf, ok := ResolveLeaf(f, 3, 0)
	require.True(t, ok)
	assert.Equal(t, 0, leaf.Batch)
	assert.Equal(t, 0, leaf.Occupancy)
	assert.False(t, f.HasPrimary, "resolve must not modify the family")
}

func TestResolveLeaf_PrefersLowestIndexWithSpareCapacity(t *testing.T) {
	f := NewLeafFamily(testKey)
	f.HasPrimary = true
	f.Primary = 3
	f.Batches[1] = 3
	f.Batches[2] = 1
	f.Batches[3] = 0

	leaf, ok := ResolveLeaf(f, 3, 0)
	require.True(t, ok)
	assert.Equal(t, 2, leaf.Batch)
	assert.Equal(t, 1, leaf.Occupancy)
}

func TestResolveLeaf_PrimaryWithSpaceBeatsBatches(t *testing.T) {
	f := NewLeafFamily(testKey)
	f.HasPrimary = true
	f.Primary = 1
	f.Batches[1] = 0

	leaf, ok := ResolveLeaf(f, 3, 0)
	require.True(t, ok)
	assert.Equal(t, 0, leaf.Batch)
}

func TestResolveLeaf_FillsGapInBatchNumbering(t *testing.T) {
	f := NewLeafFamily(testKey)
	f.HasPrimary = true
	f.Primary = 3
	f.Batches[1] = 3
	f.Batches[3] = 3

	leaf, ok := ResolveLeaf(f, 3, 0)
	require.True(t, ok)
	assert.Equal(t, 2, leaf.Batch)
}

func TestResolveLeaf_MaxBatches(t *testing.T) {
	f := NewLeafFamily(testKey)
	f.HasPrimary = true
	f.Primary = 2
	f.Batches[1] = 2

	_, ok := ResolveLeaf(f, 2, 1)
	assert.False(t, ok)

	leaf, ok := ResolveLeaf(f, 2, 2)
	require.True(t, ok)
	assert.Equal(t, 2, leaf.Batch)
}

func TestResolveLeaf_CapacityInvariantAndNoRelocation(t *testing.T) {
	const capacity = 4
	f := NewLeafFamily(testKey)
	placed := make(map[string]string)

	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("doc%02d", i)
		leaf := place(t, f, id, capacity)
		placed[id] = leaf.DocumentPath(id)

		for _, l := range f.Leaves() {
			assert.LessOrEqual(t, l.Occupancy, capacity)
		}
	}

	// Every document is still recorded in the leaf it was placed in
	for id, p := range placed {
		batch := f.Members[id]
		assert.Equal(t, p, Leaf{Key: testKey, Batch: batch}.DocumentPath(id))
	}
	assert.Equal(t, 50, f.Total())
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, f.BatchIndices())
}

func TestLeafFamily_CloneIsIndependent(t *testing.T) {
	f := NewLeafFamily(testKey)
	f.Add(0, "a")

	c := f.Clone()
	c.Add(1, "b")

	assert.False(t, f.Contains("b"))
	assert.Empty(t, f.Batches)
	assert.True(t, c.Contains("a"))
}

func TestLeafFamily_SameIDInTwoLeaves(t *testing.T) {
	// Directory listings can reach a batch before the primary leaf's files
	f := NewLeafFamily(testKey)
	f.Add(1, "x")
	f.Add(0, "x")
	f.Add(2, "x")

	assert.Equal(t, 0, f.Members["x"])
	assert.Equal(t, 3, f.Total())
	assert.ElementsMatch(t, []DocumentRef{{Batch: 1, ID: "x"}, {Batch: 2, ID: "x"}}, f.Duplicates)
	assert.Equal(t, "2015-2018/case_law/contracts/batch_001/x.json", f.Duplicates[0].Path(testKey))

	c := f.Clone()
	c.Add(3, "x")
	assert.Len(t, f.Duplicates, 2)
}
