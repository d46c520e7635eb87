package sqlite

import (
	"context"
	"database/sql"
	"time"

	"lexshelf/internal/ports"
)

// dedupTx groups dedup index writes
type dedupTx struct {
	tx *sql.Tx
}

func (idx *DedupIndex) begin(ctx context.Context) (*dedupTx, error) {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &dedupTx{tx: tx}, nil
}

// Upsert inserts or replaces a record
func (t *dedupTx) Upsert(rec ports.DedupRecord) error {
	_, err := t.tx.Exec(`
		INSERT OR REPLACE INTO documents (id, content_hash, date_range, category, subcategory, rel_path, stored_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.ContentHash, rec.Bucket.DateRange, rec.Bucket.Category, rec.Bucket.Subcategory,
		rec.RelPath, rec.StoredAt.UTC().Format(timeLayout))
	return err
}

// InsertNew inserts rec unless a record has its id or its non-empty
// content hash. It reports whether rec was inserted.
func (t *dedupTx) InsertNew(rec ports.DedupRecord) (bool, error) {
	res, err := t.tx.Exec(`
		INSERT INTO documents (id, content_hash, date_range, category, subcategory, rel_path, stored_at)
		SELECT ?, ?, ?, ?, ?, ?, ?
		WHERE NOT EXISTS (SELECT 1 FROM documents WHERE ? <> '' AND content_hash = ?)
		ON CONFLICT(id) DO NOTHING
	`, rec.ID, rec.ContentHash, rec.Bucket.DateRange, rec.Bucket.Category, rec.Bucket.Subcategory,
		rec.RelPath, rec.StoredAt.UTC().Format(timeLayout), rec.ContentHash, rec.ContentHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ClearDirty drops the resync flag
func (t *dedupTx) ClearDirty() error {
	_, err := t.tx.Exec(`DELETE FROM meta WHERE key = ?`, metaDirty)
	return err
}

// DeleteAll removes every record
func (t *dedupTx) DeleteAll() error {
	_, err := t.tx.Exec(`DELETE FROM documents`)
	return err
}

// MarkRoot records which repository the index describes
func (t *dedupTx) MarkRoot(hash string) error {
	return setMeta(t.tx, metaRootHash, hash)
}

// MarkSynced records the time of the last full resync
func (t *dedupTx) MarkSynced(at time.Time) error {
	return setMeta(t.tx, metaLastSync, at.UTC().Format(time.RFC3339))
}

// Commit commits the transaction
func (t *dedupTx) Commit() error {
	return t.tx.Commit()
}

// Rollback aborts the transaction
func (t *dedupTx) Rollback() error {
	return t.tx.Rollback()
}
