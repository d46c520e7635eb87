package application

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexshelf/internal/adapters/filesystem"
	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

func dedupRecord(id, hash string) ports.DedupRecord {
	return ports.DedupRecord{ID: id, ContentHash: hash, RelPath: id + ".json"}
}

func TestResyncDedup(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()

	p := newTestPlacer(t, root, 2)
	for _, doc := range []*domain.Document{
		{ID: "a", Content: "alpha"},
		{ID: "b", Content: "beta"},
		{ID: "c", Content: "gamma"},
	} {
		_, err := p.Store(ctx, doc, "")
		require.NoError(t, err)
	}
	bad := filepath.Join(root, "2023-2024", "case_law", "contracts", "batch_001", "broken.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))

	dedup := NewMemoryDedupIndex()
	require.NoError(t, dedup.Put(ctx, dedupRecord("stale", "x")))

	stats, err := ResyncDedup(ctx, filesystem.NewRepository(root), dedup, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Documents)
	assert.Equal(t, 4, stats.FilesScanned)
	assert.Equal(t, 1, stats.CorruptSkipped)

	n, err := dedup.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	_, found, err := dedup.Lookup(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, found)

	rec, found, err := dedup.LookupHash(ctx, (&domain.Document{Content: "gamma"}).ContentHash())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "c", rec.ID)
	assert.Equal(t, "2023-2024/case_law/contracts/batch_001/c.json", rec.RelPath)
	assert.Equal(t, "2025-01-02T03:04:05Z", rec.StoredAt.Format("2006-01-02T15:04:05Z07:00"))
}
