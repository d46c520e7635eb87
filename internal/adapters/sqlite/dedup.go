package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lexshelf/internal/ports"
)

const (
	// timeLayout has a fixed-width fraction so stored times sort as text
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

	metaRootHash = "root_hash"
	metaLastSync = "last_sync_time"
	metaDirty    = "dirty"
)

// DedupIndex implements ports.DedupIndex using SQLite
type DedupIndex struct {
	db       *sql.DB
	path     string
	rootHash string
}

// Ensure DedupIndex implements DedupIndex, DedupBatcher and DedupDirtyMarker
var (
	_ ports.DedupIndex       = (*DedupIndex)(nil)
	_ ports.DedupBatcher     = (*DedupIndex)(nil)
	_ ports.DedupDirtyMarker = (*DedupIndex)(nil)
)

// OpenDedupIndex opens the dedup database at path for the repository at root
func OpenDedupIndex(path, root string) (*DedupIndex, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &DedupIndex{db: db, path: path, rootHash: hashRoot(root)}, nil
}

// NeedsResync reports whether the index was never synced with this root or
// was flagged dirty. A fresh database holding no records is considered in sync.
func (idx *DedupIndex) NeedsResync(ctx context.Context) bool {
	if dirty, err := getMeta(idx.db, metaDirty); err != nil || dirty != "" {
		return true
	}
	stored, err := getMeta(idx.db, metaRootHash)
	if err != nil {
		return true
	}
	if stored == "" {
		n, err := idx.Count(ctx)
		return err != nil || n > 0
	}
	return stored != idx.rootHash
}

// LastSync returns when the index was last rebuilt from the tree
func (idx *DedupIndex) LastSync() (time.Time, bool) {
	value, err := getMeta(idx.db, metaLastSync)
	if err != nil || value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	return t, err == nil
}

// Close closes the database connection
func (idx *DedupIndex) Close() error {
	if idx.db != nil {
		return idx.db.Close()
	}
	return nil
}

const selectRecord = `SELECT id, content_hash, date_range, category, subcategory, rel_path, stored_at FROM documents`

// Lookup finds a record by document id
func (idx *DedupIndex) Lookup(ctx context.Context, id string) (*ports.DedupRecord, bool, error) {
	row := idx.db.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id)
	return scanRecord(row)
}

// LookupHash finds the earliest record with the given content hash
func (idx *DedupIndex) LookupHash(ctx context.Context, hash string) (*ports.DedupRecord, bool, error) {
	if hash == "" {
		return nil, false, nil
	}
	row := idx.db.QueryRowContext(ctx, selectRecord+` WHERE content_hash = ? ORDER BY stored_at, rowid LIMIT 1`, hash)
	return scanRecord(row)
}

// Put inserts or replaces a record
func (idx *DedupIndex) Put(ctx context.Context, rec ports.DedupRecord) error {
	tx, err := idx.begin(ctx)
	if err != nil {
		return err
	}
	if err := tx.Upsert(rec); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.MarkRoot(idx.rootHash); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Reserve inserts rec in one statement that skips known ids and content
// hashes, then reports the record it collided with
func (idx *DedupIndex) Reserve(ctx context.Context, rec ports.DedupRecord) (*ports.DedupRecord, error) {
	tx, err := idx.begin(ctx)
	if err != nil {
		return nil, err
	}
	inserted, err := tx.InsertNew(rec)
	if err == nil && inserted {
		err = tx.MarkRoot(idx.rootHash)
	}
	if err != nil {
		_ = tx.Rollback()
		return nil, err
	}
	if !inserted {
		_ = tx.Rollback()
		return idx.conflicting(ctx, rec)
	}
	return nil, tx.Commit()
}

// conflicting returns the record that kept rec from being reserved
func (idx *DedupIndex) conflicting(ctx context.Context, rec ports.DedupRecord) (*ports.DedupRecord, error) {
	existing, found, err := idx.Lookup(ctx, rec.ID)
	if err != nil || found {
		return existing, err
	}
	existing, found, err = idx.LookupHash(ctx, rec.ContentHash)
	if err != nil || found {
		return existing, err
	}
	return nil, fmt.Errorf("reserve %s: conflicting record disappeared", rec.ID)
}

// Release deletes a reserved record
func (idx *DedupIndex) Release(ctx context.Context, id string) error {
	_, err := idx.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	return err
}

// MarkDirty flags the index for a resync on the next open
func (idx *DedupIndex) MarkDirty(ctx context.Context) error {
	_, err := idx.db.ExecContext(ctx, `INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)`,
		metaDirty, time.Now().UTC().Format(time.RFC3339))
	return err
}

// PutBatch inserts every record in a single transaction
func (idx *DedupIndex) PutBatch(ctx context.Context, recs []ports.DedupRecord) error {
	if len(recs) == 0 {
		return nil
	}
	tx, err := idx.begin(ctx)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if err := tx.Upsert(rec); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert %s: %w", rec.ID, err)
		}
	}
	if err := tx.MarkRoot(idx.rootHash); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Count returns the number of records
func (idx *DedupIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := idx.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// Reset deletes every record and stamps the sync time
func (idx *DedupIndex) Reset(ctx context.Context) error {
	tx, err := idx.begin(ctx)
	if err != nil {
		return err
	}
	if err := tx.DeleteAll(); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.MarkRoot(idx.rootHash); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.ClearDirty(); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.MarkSynced(time.Now()); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func scanRecord(row *sql.Row) (*ports.DedupRecord, bool, error) {
	var rec ports.DedupRecord
	var storedAt string
	err := row.Scan(&rec.ID, &rec.ContentHash, &rec.Bucket.DateRange, &rec.Bucket.Category,
		&rec.Bucket.Subcategory, &rec.RelPath, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if t, err := time.Parse(time.RFC3339Nano, storedAt); err == nil {
		rec.StoredAt = t
	}
	return &rec, true, nil
}
