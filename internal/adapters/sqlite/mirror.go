package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lexshelf/internal/ports"
)

// MirrorSink implements ports.MirrorSink with a mirrored_documents table
type MirrorSink struct {
	db   *sql.DB
	path string
}

// Ensure MirrorSink implements MirrorSink
var _ ports.MirrorSink = (*MirrorSink)(nil)

// OpenMirrorSink opens the mirror database at path
func OpenMirrorSink(path string) (*MirrorSink, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	return &MirrorSink{db: db, path: path}, nil
}

// Name identifies the sink in logs
func (m *MirrorSink) Name() string {
	return "sqlite:" + m.path
}

// Insert stores a copy of the document, replacing an earlier copy with the same id
func (m *MirrorSink) Insert(ctx context.Context, rec ports.MirrorRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("mirror record without id")
	}
	_, err := m.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO mirrored_documents (id, rel_path, created_at, payload, indexed)
		VALUES (?, ?, ?, ?, 0)
	`, rec.ID, rec.RelPath, rec.CreatedAt.UTC().Format(timeLayout), string(rec.Payload))
	return err
}

// Get returns the mirrored copy of id
func (m *MirrorSink) Get(ctx context.Context, id string) (*ports.MirrorRecord, bool, error) {
	var rec ports.MirrorRecord
	var createdAt, payload string
	err := m.db.QueryRowContext(ctx, `
		SELECT id, rel_path, created_at, payload FROM mirrored_documents WHERE id = ?
	`, id).Scan(&rec.ID, &rec.RelPath, &createdAt, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if t, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		rec.CreatedAt = t
	}
	rec.Payload = []byte(payload)
	return &rec, true, nil
}

// Pending returns up to limit ids not yet marked as indexed, oldest first
func (m *MirrorSink) Pending(ctx context.Context, limit int) ([]string, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id FROM mirrored_documents WHERE indexed = 0 ORDER BY created_at, id LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkIndexed flags mirrored documents as processed by a downstream indexer
func (m *MirrorSink) MarkIndexed(ctx context.Context, ids ...string) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `UPDATE mirrored_documents SET indexed = 1 WHERE id = ?`, id); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// Count returns the number of mirrored documents
func (m *MirrorSink) Count(ctx context.Context) (int, error) {
	var n int
	err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM mirrored_documents`).Scan(&n)
	return n, err
}

// Close closes the database connection
func (m *MirrorSink) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
