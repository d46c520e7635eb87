package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexshelf/internal/adapters/filesystem"
	"lexshelf/internal/domain"
)

func TestIndexBuilder_Rebuild(t *testing.T) {
	root := t.TempDir()
	p := newTestPlacer(t, root, 2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := p.Store(ctx, caseDoc(fmt.Sprintf("d%d", i), "2016-01-01"), "")
		require.NoError(t, err)
	}
	_, err := p.Store(ctx, &domain.Document{
		ID: "ny1", Title: "People v. X", Content: "état", Jurisdiction: "ny", Source: "court_listener", DateFiled: "2020-06-01",
	}, "")
	require.NoError(t, err)

	// A corrupt file and a file without id in an existing leaf
	leafDir := filepath.Join(root, "2015-2018", "case_law", "contracts")
	require.NoError(t, os.WriteFile(filepath.Join(leafDir, "broken.json"), []byte(`{"id": "bro`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(leafDir, "batch_002", "noid.json"), []byte(`{"title":"x"}`), 0644))

	log, hook := test.NewNullLogger()
	store := filesystem.NewRepository(root)
	builder := NewIndexBuilder(store, nil, testRules(2), log)

	result, err := builder.Rebuild(ctx)
	require.NoError(t, err)

	idx := result.Index
	assert.Equal(t, 6, idx.RepositoryInfo.TotalDocuments)
	assert.Equal(t, 2, idx.RepositoryInfo.CorruptSkipped)
	assert.Equal(t, 2, idx.RepositoryInfo.Capacity)
	assert.Equal(t, 5, idx.DirectoryStructure["2015-2018"]["case_law_contracts"])
	assert.Equal(t, 1, idx.DirectoryStructure["2019-2020"]["state_courts_ny"])
	assert.Equal(t, 5, idx.Statistics.ByDateRange["2015-2018"])
	assert.Equal(t, 1, idx.Statistics.ByJurisdiction["ny"])
	assert.Equal(t, 5, idx.Statistics.ByJurisdiction["unknown"])
	assert.Equal(t, 1, idx.Statistics.BySource["court_listener"])
	assert.Equal(t, 3, idx.Statistics.ByBatch["2015-2018/case_law/contracts"])
	assert.Equal(t, 2, idx.Statistics.ByBatch["2015-2018/case_law/contracts/batch_002"])

	// total equals files on disk minus corrupt
	counts, err := store.CountPerDir()
	require.NoError(t, err)
	files := 0
	for _, n := range counts {
		files += n
	}
	assert.Equal(t, files-idx.RepositoryInfo.CorruptSkipped, idx.RepositoryInfo.TotalDocuments)

	require.Len(t, result.Catalog.Documents, 6)
	var ny domain.CatalogEntry
	for _, e := range result.Catalog.Documents {
		if e.ID == "ny1" {
			ny = e
		}
	}
	assert.Equal(t, "2019-2020/state_courts/ny/ny1.json", ny.FilePath)
	assert.Equal(t, 4, ny.ContentLength)
	assert.Equal(t, "People v. X", ny.Title)

	warnings := 0
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)

	// Artifacts are written and parse back
	loaded, err := LoadIndex(store)
	require.NoError(t, err)
	assert.Equal(t, 6, loaded.RepositoryInfo.TotalDocuments)

	catalog, err := LoadCatalog(store)
	require.NoError(t, err)
	assert.Equal(t, 6, catalog.Metadata.TotalDocuments)

	var raw map[string]any
	data, err := os.ReadFile(filepath.Join(root, domain.IndexFileName))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "repository_info")
	assert.Contains(t, raw, "directory_structure")
	assert.Contains(t, raw, "statistics")

	readme, err := os.ReadFile(filepath.Join(root, domain.ReadmeFileName))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "Total documents: 6")
	assert.Contains(t, string(readme), "| 2015-2018 | 5 |")
}

func TestIndexBuilder_IsIdempotentAndReadOnly(t *testing.T) {
	root := t.TempDir()
	p := newTestPlacer(t, root, 3)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := p.Store(ctx, caseDoc(fmt.Sprintf("d%d", i), "2022-01-01"), "")
		require.NoError(t, err)
	}

	store := filesystem.NewRepository(root)
	before, err := store.CountPerDir()
	require.NoError(t, err)

	builder := NewIndexBuilder(store, nil, testRules(3), testLogger())
	first, err := builder.Rebuild(ctx)
	require.NoError(t, err)
	second, err := builder.Rebuild(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Index.DirectoryStructure, second.Index.DirectoryStructure)
	assert.Equal(t, first.Catalog.Documents, second.Catalog.Documents)

	after, err := store.CountPerDir()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestIndexBuilder_EmptyRepository(t *testing.T) {
	store := filesystem.NewRepository(filepath.Join(t.TempDir(), "new"))
	builder := NewIndexBuilder(store, nil, testRules(3), testLogger())

	result, err := builder.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Index.RepositoryInfo.TotalDocuments)
	assert.NotNil(t, result.Catalog.Documents)
}

func TestIndexBuilder_SameIDInTwoLeaves(t *testing.T) {
	root := t.TempDir()
	leafDir := filepath.Join(root, "2015-2018", "case_law", "contracts")
	require.NoError(t, os.MkdirAll(filepath.Join(leafDir, "batch_001"), 0755))
	for _, rel := range []string{"x.json", "batch_001/x.json", "batch_001/y.json"} {
		id := filepath.Base(rel[:len(rel)-len(".json")])
		require.NoError(t, os.WriteFile(filepath.Join(leafDir, filepath.FromSlash(rel)), []byte(`{"id":"`+id+`"}`), 0644))
	}

	store := filesystem.NewRepository(root)
	result, err := NewIndexBuilder(store, nil, testRules(3), testLogger()).Build(context.Background())
	require.NoError(t, err)

	info := result.Index.RepositoryInfo
	assert.Equal(t, 2, info.TotalDocuments)
	assert.Equal(t, 1, info.CorruptSkipped)
	assert.Equal(t, 3, result.Stats.FilesScanned)
	require.Len(t, result.Corrupt, 1)
	assert.Equal(t, "2015-2018/case_law/contracts/batch_001/x.json", result.Corrupt[0].Path)

	var paths []string
	for _, e := range result.Catalog.Documents {
		paths = append(paths, e.FilePath)
	}
	assert.ElementsMatch(t, []string{"2015-2018/case_law/contracts/x.json", "2015-2018/case_law/contracts/batch_001/y.json"}, paths)

	// every file is either a document or skipped
	counts, err := store.CountPerDir()
	require.NoError(t, err)
	files := 0
	for _, n := range counts {
		files += n
	}
	assert.Equal(t, files, info.TotalDocuments+info.CorruptSkipped)

	dedup := NewMemoryDedupIndex()
	stats, err := ResyncDedup(context.Background(), store, dedup, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Documents)
	assert.Equal(t, 1, stats.CorruptSkipped)
}

func TestLoadIndex_Missing(t *testing.T) {
	_, err := LoadIndex(filesystem.NewRepository(t.TempDir()))
	assert.True(t, errors.Is(err, ErrNotFound))
}
