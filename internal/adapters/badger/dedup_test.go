package badger

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

var testKey = domain.BucketKey{DateRange: "2021-2022", Category: "state_courts", Subcategory: "ny"}

func testRecord(id, hash string) ports.DedupRecord {
	return ports.DedupRecord{
		ID:          id,
		ContentHash: hash,
		Bucket:      testKey,
		RelPath:     testKey.RelDir() + "/" + id + ".json",
		StoredAt:    time.Date(2022, 3, 4, 5, 6, 7, 0, time.UTC),
	}
}

func openMemory(t *testing.T) *DedupIndex {
	t.Helper()
	log, _ := test.NewNullLogger()
	idx, err := Open(Config{InMemory: true, Logger: log})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestDedupIndex_PutAndLookup(t *testing.T) {
	ctx := context.Background()
	idx := openMemory(t)

	require.NoError(t, idx.Put(ctx, testRecord("a", "h1")))

	rec, found, err := idx.Lookup(ctx, "a")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, testRecord("a", "h1"), *rec)

	_, found, err = idx.Lookup(ctx, "b")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDedupIndex_FirstIDWinsForHash(t *testing.T) {
	ctx := context.Background()
	idx := openMemory(t)

	require.NoError(t, idx.PutBatch(ctx, []ports.DedupRecord{testRecord("first", "same"), testRecord("second", "same")}))

	rec, found, err := idx.LookupHash(ctx, "same")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "first", rec.ID)

	_, found, err = idx.LookupHash(ctx, "")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDedupIndex_CountAndReset(t *testing.T) {
	ctx := context.Background()
	idx := openMemory(t)

	for i := 0; i < 10; i++ {
		require.NoError(t, idx.Put(ctx, testRecord(fmt.Sprintf("d%d", i), fmt.Sprintf("h%d", i))))
	}
	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	reads, writes := idx.Operations()
	assert.Zero(t, reads)
	assert.Equal(t, uint64(20), writes)

	require.NoError(t, idx.Reset(ctx))
	n, err = idx.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, found, err := idx.LookupHash(ctx, "h3")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDedupIndex_PersistsOnDisk(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "dedup.badger")

	idx, err := Open(Config{Path: path})
	require.NoError(t, err)
	require.NoError(t, idx.Put(ctx, testRecord("kept", "h")))
	require.NoError(t, idx.Close())

	idx, err = Open(Config{Path: path})
	require.NoError(t, err)
	defer idx.Close()

	_, found, err := idx.Lookup(ctx, "kept")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestDedupIndex_Reserve(t *testing.T) {
	ctx := context.Background()
	idx := openMemory(t)

	existing, err := idx.Reserve(ctx, testRecord("a", "h1"))
	require.NoError(t, err)
	assert.Nil(t, existing)

	existing, err = idx.Reserve(ctx, testRecord("a", "h2"))
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, "h1", existing.ContentHash)

	existing, err = idx.Reserve(ctx, testRecord("b", "h1"))
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, "a", existing.ID)

	// Records without content never collide on the hash
	for _, id := range []string{"c", "d"} {
		existing, err = idx.Reserve(ctx, testRecord(id, ""))
		require.NoError(t, err)
		assert.Nil(t, existing, id)
	}

	require.NoError(t, idx.Release(ctx, "a"))
	_, found, err := idx.LookupHash(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, found)
	existing, err = idx.Reserve(ctx, testRecord("b", "h1"))
	require.NoError(t, err)
	assert.Nil(t, existing)
}

func TestDedupIndex_ConcurrentReserveSameID(t *testing.T) {
	ctx := context.Background()
	idx := openMemory(t)

	var (
		wg  sync.WaitGroup
		won atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			existing, err := idx.Reserve(ctx, testRecord("dup", fmt.Sprintf("h%d", i)))
			if err == nil && existing == nil {
				won.Add(1)
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, int32(1), won.Load())
}

func TestDedupIndex_DirtyUntilReset(t *testing.T) {
	ctx := context.Background()
	idx := openMemory(t)

	assert.False(t, idx.NeedsResync(ctx))
	require.NoError(t, idx.MarkDirty(ctx))
	assert.True(t, idx.NeedsResync(ctx))
	require.NoError(t, idx.Reset(ctx))
	assert.False(t, idx.NeedsResync(ctx))
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}
