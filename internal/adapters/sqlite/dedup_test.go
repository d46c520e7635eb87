package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

var testKey = domain.BucketKey{DateRange: "2015-2018", Category: "case_law", Subcategory: "contracts"}

func record(id, hash string, at time.Time) ports.DedupRecord {
	return ports.DedupRecord{
		ID:          id,
		ContentHash: hash,
		Bucket:      testKey,
		RelPath:     testKey.RelDir() + "/" + id + ".json",
		StoredAt:    at,
	}
}

func openTestIndex(t *testing.T) *DedupIndex {
	t.Helper()
	idx, err := OpenDedupIndex(filepath.Join(t.TempDir(), "state", "dedup.db"), t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestDedupIndex_LookupAndPut(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	_, found, err := idx.Lookup(ctx, "a")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, idx.Put(ctx, record("a", "h1", at)))

	rec, found, err := idx.Lookup(ctx, "a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, testKey, rec.Bucket)
	assert.Equal(t, "2015-2018/case_law/contracts/a.json", rec.RelPath)
	assert.True(t, at.Equal(rec.StoredAt))

	_, found, err = idx.LookupHash(ctx, "")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDedupIndex_LookupHashReturnsEarliest(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, idx.Put(ctx, record("late", "same", base.Add(time.Second))))
	require.NoError(t, idx.Put(ctx, record("early", "same", base.Add(500*time.Millisecond))))

	rec, found, err := idx.LookupHash(ctx, "same")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "early", rec.ID)
}

func TestDedupIndex_PersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dedup.db")
	root := t.TempDir()

	idx, err := OpenDedupIndex(path, root)
	require.NoError(t, err)
	assert.False(t, idx.NeedsResync(ctx), "empty index is in sync")
	require.NoError(t, idx.Put(ctx, record("a", "h", time.Now())))
	require.NoError(t, idx.Close())

	idx, err = OpenDedupIndex(path, root)
	require.NoError(t, err)
	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, idx.NeedsResync(ctx))
	require.NoError(t, idx.Close())

	other, err := OpenDedupIndex(path, t.TempDir())
	require.NoError(t, err)
	defer other.Close()
	assert.True(t, other.NeedsResync(ctx), "index was built for another root")
}

func TestDedupIndex_BatchAndReset(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)

	var recs []ports.DedupRecord
	for i := 0; i < 25; i++ {
		recs = append(recs, record(fmt.Sprintf("d%02d", i), fmt.Sprintf("h%02d", i), time.Now()))
	}
	require.NoError(t, idx.PutBatch(ctx, recs))
	require.NoError(t, idx.PutBatch(ctx, nil))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	_, synced := idx.LastSync()
	assert.False(t, synced)

	require.NoError(t, idx.Reset(ctx))
	n, err = idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, synced = idx.LastSync()
	assert.True(t, synced)
}

func TestDedupIndex_ConcurrentPut(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, idx.Put(ctx, record(fmt.Sprintf("c%02d", i), fmt.Sprintf("h%02d", i), time.Now())))
		}(i)
	}
	wg.Wait()

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, n)
}

func TestDedupIndex_InMemory(t *testing.T) {
	ctx := context.Background()
	idx, err := OpenDedupIndex(MemoryPath, "/repo")
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, idx.Put(ctx, record("m", "h", time.Now())))
	_, found, err := idx.LookupHash(ctx, "h")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestDedupIndex_Reserve(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	existing, err := idx.Reserve(ctx, record("a", "h1", at))
	require.NoError(t, err)
	assert.Nil(t, existing)

	existing, err = idx.Reserve(ctx, record("a", "h2", at))
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, "h1", existing.ContentHash)

	existing, err = idx.Reserve(ctx, record("b", "h1", at))
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, "a", existing.ID)

	for _, id := range []string{"c", "d"} {
		existing, err = idx.Reserve(ctx, record(id, "", at))
		require.NoError(t, err)
		assert.Nil(t, existing, id)
	}

	require.NoError(t, idx.Release(ctx, "a"))
	existing, err = idx.Reserve(ctx, record("b", "h1", at))
	require.NoError(t, err)
	assert.Nil(t, existing)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, idx.NeedsResync(ctx))
}

func TestDedupIndex_ConcurrentReserveSameID(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			existing, err := idx.Reserve(ctx, record("dup", fmt.Sprintf("h%02d", i), time.Now()))
			assert.NoError(t, err)
			if existing == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, won)
}

func TestDedupIndex_DirtyUntilReset(t *testing.T) {
	ctx := context.Background()
	idx := openTestIndex(t)

	require.NoError(t, idx.MarkDirty(ctx))
	assert.True(t, idx.NeedsResync(ctx))
	require.NoError(t, idx.Reset(ctx))
	assert.False(t, idx.NeedsResync(ctx))
}
