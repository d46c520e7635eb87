package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// RebuildResult holds everything produced by one index rebuild
type RebuildResult struct {
	Index   *domain.RepositoryIndex
	Catalog *domain.Catalog
	Stats   domain.RebuildStats
	Corrupt []*CorruptRecordError
}

// IndexBuilder regenerates the derived index artifacts by scanning the leaf tree
type IndexBuilder struct {
	store    ports.LeafStore
	locker   ports.BucketLocker
	bucketer *domain.DateBucketer
	rules    domain.Rules
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewIndexBuilder creates an index builder. locker may be shared with a Placer
// so that each family is listed while no write is in flight.
func NewIndexBuilder(store ports.LeafStore, locker ports.BucketLocker, rules domain.Rules, log logrus.FieldLogger) *IndexBuilder {
	if locker == nil {
		locker = NewKeyedLocker()
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &IndexBuilder{
		store:    store,
		locker:   locker,
		bucketer: domain.NewDateBucketer(rules),
		rules:    rules,
		log:      log,
		now:      time.Now,
	}
}

// Build scans the tree and returns the index and catalog without writing them
func (b *IndexBuilder) Build(ctx context.Context) (*RebuildResult, error) {
	start := time.Now()
	createdAt := b.now().UTC()

	keys, err := b.store.ListBuckets()
	if err != nil {
		return nil, &IOError{Op: "list", Path: b.store.Root(), Err: err}
	}

	idx := domain.NewRepositoryIndex(createdAt, b.rules.Capacity)
	catalog := &domain.Catalog{Documents: []domain.CatalogEntry{}}
	result := &RebuildResult{Index: idx, Catalog: catalog}

	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		family, err := b.scanFamily(ctx, key)
		if err != nil {
			return nil, err
		}

		for _, leaf := range family.Leaves() {
			idx.AddLeaf(leaf)
			result.Stats.Leaves++
		}

		for _, id := range sortedMembers(family) {
			result.Stats.FilesScanned++
			rel := domain.Leaf{Key: key, Batch: family.Members[id]}.DocumentPath(id)

			entry, err := b.store.ReadCatalogEntry(rel)
			if err == nil && entry.ID == "" {
				err = fmt.Errorf("missing id")
			}
			if err != nil {
				corrupt := &CorruptRecordError{Path: rel, Reason: err.Error()}
				result.Corrupt = append(result.Corrupt, corrupt)
				b.log.WithFields(logrus.Fields{"path": rel}).WithError(err).Warn("skipping corrupt record")
				continue
			}

			entry.FilePath = rel
			idx.AddDocument(key, entry)
			catalog.Documents = append(catalog.Documents, entry)
		}

		for _, dup := range family.Duplicates {
			result.Stats.FilesScanned++
			rel := dup.Path(key)
			first := domain.Leaf{Key: key, Batch: family.Members[dup.ID]}.DocumentPath(dup.ID)
			corrupt := &CorruptRecordError{Path: rel, Reason: "duplicate id, also stored at " + first}
			result.Corrupt = append(result.Corrupt, corrupt)
			b.log.WithFields(logrus.Fields{"path": rel, "first": first}).Warn("skipping duplicate record")
		}
	}

	catalog.SortEntries()
	catalog.Metadata = domain.CatalogMetadata{
		CreatedAt:      idx.RepositoryInfo.CreatedAt,
		TotalDocuments: len(catalog.Documents),
	}
	idx.RepositoryInfo.CorruptSkipped = len(result.Corrupt)

	result.Stats.Documents = idx.RepositoryInfo.TotalDocuments
	result.Stats.CorruptSkipped = len(result.Corrupt)
	result.Stats.Duration = time.Since(start)
	return result, nil
}

// Rebuild scans the tree and rewrites the index, the catalog and the README
func (b *IndexBuilder) Rebuild(ctx context.Context) (*RebuildResult, error) {
	result, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}

	artifacts := []struct {
		name  string
		value any
	}{
		{domain.IndexFileName, result.Index},
		{domain.CatalogFileName, result.Catalog},
	}
	for _, a := range artifacts {
		data, err := encodeArtifact(a.value)
		if err != nil {
			return nil, &EncodingError{ID: a.name, Err: err}
		}
		if err := b.store.WriteArtifact(a.name, data); err != nil {
			return nil, &IOError{Op: "write", Path: a.name, Err: err}
		}
	}

	readme := domain.ReadmeTemplate(result.Index, b.bucketer.Labels())
	if err := b.store.WriteArtifact(domain.ReadmeFileName, []byte(readme)); err != nil {
		return nil, &IOError{Op: "write", Path: domain.ReadmeFileName, Err: err}
	}

	b.log.WithFields(logrus.Fields{
		"documents":       result.Stats.Documents,
		"leaves":          result.Stats.Leaves,
		"corrupt_skipped": result.Stats.CorruptSkipped,
		"duration":        result.Stats.Duration.String(),
	}).Info("index rebuilt")
	return result, nil
}

// scanFamily lists a family while holding its bucket lock
func (b *IndexBuilder) scanFamily(ctx context.Context, key domain.BucketKey) (*domain.LeafFamily, error) {
	unlock, err := b.locker.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	family, err := b.store.ScanFamily(key)
	if err != nil {
		return nil, &IOError{Op: "scan", Path: key.RelDir(), Err: err}
	}
	return family, nil
}

// LoadIndex reads the last written repository index
func LoadIndex(store ports.LeafStore) (*domain.RepositoryIndex, error) {
	var idx domain.RepositoryIndex
	if err := loadArtifact(store, domain.IndexFileName, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

// LoadCatalog reads the last written search catalog
func LoadCatalog(store ports.LeafStore) (*domain.Catalog, error) {
	var catalog domain.Catalog
	if err := loadArtifact(store, domain.CatalogFileName, &catalog); err != nil {
		return nil, err
	}
	return &catalog, nil
}

func loadArtifact(store ports.LeafStore, name string, v any) error {
	data, err := store.ReadArtifact(name)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%s: %w (run reindex first)", name, ErrNotFound)
	}
	if err != nil {
		return &IOError{Op: "read", Path: name, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &CorruptRecordError{Path: name, Reason: err.Error()}
	}
	return nil
}

func encodeArtifact(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func sortedMembers(f *domain.LeafFamily) []string {
	ids := make([]string, 0, len(f.Members))
	for id := range f.Members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		bi, bj := f.Members[ids[i]], f.Members[ids[j]]
		if bi != bj {
			return bi < bj
		}
		return ids[i] < ids[j]
	})
	return ids
}
