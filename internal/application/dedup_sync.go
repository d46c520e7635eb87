package application

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// ResyncDedup rebuilds the dedup index from the documents on disk.
// Records are written one bucket at a time, in a single batch when the
// index supports it. Unreadable files are counted and skipped.
func ResyncDedup(ctx context.Context, store ports.LeafStore, dedup ports.DedupIndex, log logrus.FieldLogger) (domain.RebuildStats, error) {
	start := time.Now()
	var stats domain.RebuildStats

	if err := dedup.Reset(ctx); err != nil {
		return stats, err
	}

	keys, err := store.ListBuckets()
	if err != nil {
		return stats, &IOError{Op: "list", Path: store.Root(), Err: err}
	}

	batcher, canBatch := dedup.(ports.DedupBatcher)
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		family, err := store.ScanFamily(key)
		if err != nil {
			return stats, &IOError{Op: "scan", Path: key.RelDir(), Err: err}
		}
		stats.Leaves += len(family.Leaves())

		recs := make([]ports.DedupRecord, 0, len(family.Members))
		for _, id := range sortedMembers(family) {
			stats.FilesScanned++
			rel := domain.Leaf{Key: key, Batch: family.Members[id]}.DocumentPath(id)

			doc, err := store.ReadDocument(rel)
			if err != nil {
				stats.CorruptSkipped++
				log.WithField("path", rel).WithError(err).Warn("skipping corrupt record")
				continue
			}
			recs = append(recs, ports.DedupRecord{
				ID:          id,
				ContentHash: doc.ContentHash(),
				Bucket:      key,
				RelPath:     rel,
				StoredAt:    storedAt(doc, start),
			})
		}

		for _, dup := range family.Duplicates {
			stats.FilesScanned++
			stats.CorruptSkipped++
			log.WithField("path", dup.Path(key)).Warn("skipping duplicate record")
		}

		if canBatch {
			err = batcher.PutBatch(ctx, recs)
		} else {
			for _, rec := range recs {
				if err = dedup.Put(ctx, rec); err != nil {
					break
				}
			}
		}
		if err != nil {
			return stats, err
		}
		stats.Documents += len(recs)
	}

	stats.Duration = time.Since(start)
	log.WithFields(logrus.Fields{
		"documents":       stats.Documents,
		"corrupt_skipped": stats.CorruptSkipped,
		"duration":        stats.Duration.String(),
	}).Info("dedup index rebuilt")
	return stats, nil
}

func storedAt(doc *domain.Document, fallback time.Time) time.Time {
	if t, err := time.Parse(time.RFC3339, doc.CreatedAt); err == nil {
		return t.UTC()
	}
	return fallback.UTC()
}
