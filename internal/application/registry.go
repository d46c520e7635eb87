package application

import (
	"sync"

	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// LeafRegistry owns the occupancy counters of every bucket family.
// A family is scanned from disk the first time it is needed and then kept
// up to date by Record. Callers must hold the bucket lock for key while
// using a family returned by Family.
type LeafRegistry struct {
	store    ports.LeafStore
	mu       sync.Mutex
	families map[domain.BucketKey]*domain.LeafFamily
}

// NewLeafRegistry creates a registry backed by store
func NewLeafRegistry(store ports.LeafStore) *LeafRegistry {
	return &LeafRegistry{
		store:    store,
		families: make(map[domain.BucketKey]*domain.LeafFamily),
	}
}

// Family returns the family for key, scanning it from disk when it is not
// loaded yet or when refresh is set.
func (r *LeafRegistry) Family(key domain.BucketKey, refresh bool) (*domain.LeafFamily, error) {
	r.mu.Lock()
	family, ok := r.families[key]
	r.mu.Unlock()
	if ok && !refresh {
		return family, nil
	}

	scanned, err := r.store.ScanFamily(key)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.families[key] = scanned
	r.mu.Unlock()
	return scanned, nil
}

// Record counts a document written to a leaf of key's family
func (r *LeafRegistry) Record(key domain.BucketKey, batch int, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	family, ok := r.families[key]
	if !ok {
		family = domain.NewLeafFamily(key)
		r.families[key] = family
	}
	family.Add(batch, id)
}

// Snapshot returns a copy of a loaded family
func (r *LeafRegistry) Snapshot(key domain.BucketKey) (*domain.LeafFamily, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	family, ok := r.families[key]
	if !ok {
		return nil, false
	}
	return family.Clone(), true
}

// Forget drops a loaded family so the next use rescans it
func (r *LeafRegistry) Forget(key domain.BucketKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.families, key)
}

// Loaded returns the number of families held in memory
func (r *LeafRegistry) Loaded() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.families)
}
