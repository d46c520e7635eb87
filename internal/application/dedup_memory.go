package application

import (
	"context"
	"sync"

	"lexshelf/internal/ports"
)

// MemoryDedupIndex is a DedupIndex that lives for one process only
type MemoryDedupIndex struct {
	mu     sync.RWMutex
	byID   map[string]ports.DedupRecord
	byHash map[string]string
}

// Ensure MemoryDedupIndex implements DedupIndex
var _ ports.DedupIndex = (*MemoryDedupIndex)(nil)

// NewMemoryDedupIndex creates an empty in-memory index
func NewMemoryDedupIndex() *MemoryDedupIndex {
	return &MemoryDedupIndex{
		byID:   make(map[string]ports.DedupRecord),
		byHash: make(map[string]string),
	}
}

func (m *MemoryDedupIndex) Lookup(_ context.Context, id string) (*ports.DedupRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.byID[id]
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

func (m *MemoryDedupIndex) LookupHash(_ context.Context, hash string) (*ports.DedupRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.byHash[hash]
	if !ok {
		return nil, false, nil
	}
	rec := m.byID[id]
	return &rec, true, nil
}

func (m *MemoryDedupIndex) Put(_ context.Context, rec ports.DedupRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[rec.ID] = rec
	if rec.ContentHash != "" {
		if _, taken := m.byHash[rec.ContentHash]; !taken {
			m.byHash[rec.ContentHash] = rec.ID
		}
	}
	return nil
}

func (m *MemoryDedupIndex) Reserve(_ context.Context, rec ports.DedupRecord) (*ports.DedupRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byID[rec.ID]; ok {
		return &existing, nil
	}
	if rec.ContentHash != "" {
		if id, ok := m.byHash[rec.ContentHash]; ok {
			existing := m.byID[id]
			return &existing, nil
		}
		m.byHash[rec.ContentHash] = rec.ID
	}
	m.byID[rec.ID] = rec
	return nil, nil
}

func (m *MemoryDedupIndex) Release(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byID[id]
	if !ok {
		return nil
	}
	delete(m.byID, id)
	if m.byHash[rec.ContentHash] == id {
		delete(m.byHash, rec.ContentHash)
	}
	return nil
}

func (m *MemoryDedupIndex) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byID), nil
}

func (m *MemoryDedupIndex) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID = make(map[string]ports.DedupRecord)
	m.byHash = make(map[string]string)
	return nil
}

func (m *MemoryDedupIndex) Close() error {
	return nil
}
