package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/sirupsen/logrus"

	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

var (
	idPrefix   = []byte("id/")
	hashPrefix = []byte("hash/")
	dirtyKey   = []byte("meta/dirty")
)

// reserveRetries bounds the retries of a reservation that lost a
// transaction conflict
const reserveRetries = 10

// Config configures the badger dedup index
type Config struct {
	Path     string // empty with InMemory
	InMemory bool
	Logger   logrus.FieldLogger
}

// DedupIndex implements ports.DedupIndex on a badger key-value store.
// Records live under id/<id>; hash/<hash> points at the first id stored
// with that content.
type DedupIndex struct {
	db           *badger.DB
	log          logrus.FieldLogger
	readCounter  uint64
	writeCounter uint64
}

// Ensure DedupIndex implements DedupIndex, DedupBatcher and DedupDirtyMarker
var (
	_ ports.DedupIndex       = (*DedupIndex)(nil)
	_ ports.DedupBatcher     = (*DedupIndex)(nil)
	_ ports.DedupDirtyMarker = (*DedupIndex)(nil)
)

type record struct {
	ID          string    `json:"id"`
	ContentHash string    `json:"content_hash"`
	DateRange   string    `json:"date_range"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	RelPath     string    `json:"rel_path"`
	StoredAt    time.Time `json:"stored_at"`
}

// Open opens or creates the index
func Open(cfg Config) (*DedupIndex, error) {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if !cfg.InMemory && cfg.Path == "" {
		return nil, fmt.Errorf("badger dedup index needs a path")
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil
	opts.ValueLogFileSize = 1024 * 1024 * 64
	opts.SyncWrites = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %s: %w", cfg.Path, err)
	}
	return &DedupIndex{db: db, log: cfg.Logger}, nil
}

// Lookup finds a record by document id
func (d *DedupIndex) Lookup(_ context.Context, id string) (*ports.DedupRecord, bool, error) {
	var rec *ports.DedupRecord
	err := d.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = d.get(txn, id)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return rec, rec != nil, nil
}

// LookupHash finds the first record stored with the given content hash
func (d *DedupIndex) LookupHash(_ context.Context, hash string) (*ports.DedupRecord, bool, error) {
	if hash == "" {
		return nil, false, nil
	}
	var rec *ports.DedupRecord
	err := d.db.View(func(txn *badger.Txn) error {
		atomic.AddUint64(&d.readCounter, 1)
		item, err := txn.Get(hashKey(hash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		id, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		rec, err = d.get(txn, string(id))
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return rec, rec != nil, nil
}

// Put inserts or replaces a record
func (d *DedupIndex) Put(_ context.Context, rec ports.DedupRecord) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return d.set(txn, rec)
	})
}

// Reserve records rec unless its id or content hash is known. Both keys are
// read in the writing transaction, so a concurrent reservation of either one
// fails with a conflict and is retried against the committed state.
func (d *DedupIndex) Reserve(_ context.Context, rec ports.DedupRecord) (*ports.DedupRecord, error) {
	for attempt := 0; ; attempt++ {
		var existing *ports.DedupRecord
		err := d.db.Update(func(txn *badger.Txn) error {
			var err error
			if existing, err = d.get(txn, rec.ID); err != nil || existing != nil {
				return err
			}
			if rec.ContentHash != "" {
				item, err := txn.Get(hashKey(rec.ContentHash))
				switch {
				case err == nil:
					id, err := item.ValueCopy(nil)
					if err != nil {
						return err
					}
					existing, err = d.get(txn, string(id))
					return err
				case !errors.Is(err, badger.ErrKeyNotFound):
					return err
				}
			}
			return d.set(txn, rec)
		})
		if errors.Is(err, badger.ErrConflict) && attempt < reserveRetries {
			continue
		}
		if err != nil {
			return nil, err
		}
		return existing, nil
	}
}

// Release deletes a reserved record and the hash key pointing at it
func (d *DedupIndex) Release(_ context.Context, id string) error {
	return d.db.Update(func(txn *badger.Txn) error {
		rec, err := d.get(txn, id)
		if err != nil || rec == nil {
			return err
		}
		atomic.AddUint64(&d.writeCounter, 1)
		if err := txn.Delete(idKey(id)); err != nil {
			return err
		}
		if rec.ContentHash == "" {
			return nil
		}
		item, err := txn.Get(hashKey(rec.ContentHash))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		owner, err := item.ValueCopy(nil)
		if err != nil || string(owner) != id {
			return err
		}
		return txn.Delete(hashKey(rec.ContentHash))
	})
}

// MarkDirty flags the index for a resync on the next open
func (d *DedupIndex) MarkDirty(_ context.Context) error {
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(dirtyKey, []byte(time.Now().UTC().Format(time.RFC3339)))
	})
}

// NeedsResync reports whether an update was lost since the last resync
func (d *DedupIndex) NeedsResync(_ context.Context) bool {
	err := d.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(dirtyKey)
		return err
	})
	return !errors.Is(err, badger.ErrKeyNotFound)
}

// PutBatch inserts every record in one transaction
func (d *DedupIndex) PutBatch(_ context.Context, recs []ports.DedupRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return d.db.Update(func(txn *badger.Txn) error {
		for _, rec := range recs {
			if err := d.set(txn, rec); err != nil {
				return fmt.Errorf("insert %s: %w", rec.ID, err)
			}
		}
		return nil
	})
}

// Count returns the number of records
func (d *DedupIndex) Count(_ context.Context) (int, error) {
	n := 0
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = idPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Reset drops every record
func (d *DedupIndex) Reset(_ context.Context) error {
	return d.db.DropPrefix(idPrefix, hashPrefix, dirtyKey)
}

// Operations returns the read and write counts since the index was opened
func (d *DedupIndex) Operations() (reads, writes uint64) {
	return atomic.LoadUint64(&d.readCounter), atomic.LoadUint64(&d.writeCounter)
}

// Close flushes and closes the store
func (d *DedupIndex) Close() error {
	reads, writes := d.Operations()
	d.log.WithFields(logrus.Fields{"reads": reads, "writes": writes}).Debug("closing badger dedup index")
	return d.db.Close()
}

func (d *DedupIndex) get(txn *badger.Txn, id string) (*ports.DedupRecord, error) {
	atomic.AddUint64(&d.readCounter, 1)
	item, err := txn.Get(idKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var r record
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &r)
	})
	if err != nil {
		return nil, fmt.Errorf("decode dedup record %s: %w", id, err)
	}
	return &ports.DedupRecord{
		ID:          r.ID,
		ContentHash: r.ContentHash,
		Bucket:      domain.BucketKey{DateRange: r.DateRange, Category: r.Category, Subcategory: r.Subcategory},
		RelPath:     r.RelPath,
		StoredAt:    r.StoredAt,
	}, nil
}

func (d *DedupIndex) set(txn *badger.Txn, rec ports.DedupRecord) error {
	data, err := json.Marshal(record{
		ID:          rec.ID,
		ContentHash: rec.ContentHash,
		DateRange:   rec.Bucket.DateRange,
		Category:    rec.Bucket.Category,
		Subcategory: rec.Bucket.Subcategory,
		RelPath:     rec.RelPath,
		StoredAt:    rec.StoredAt.UTC(),
	})
	if err != nil {
		return err
	}

	atomic.AddUint64(&d.writeCounter, 1)
	if err := txn.Set(idKey(rec.ID), data); err != nil {
		return err
	}
	if rec.ContentHash == "" {
		return nil
	}

	_, err = txn.Get(hashKey(rec.ContentHash))
	if errors.Is(err, badger.ErrKeyNotFound) {
		atomic.AddUint64(&d.writeCounter, 1)
		return txn.Set(hashKey(rec.ContentHash), []byte(rec.ID))
	}
	return err
}

func idKey(id string) []byte {
	return append(append([]byte{}, idPrefix...), id...)
}

func hashKey(hash string) []byte {
	return append(append([]byte{}, hashPrefix...), hash...)
}
