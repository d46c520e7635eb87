package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/sirupsen/logrus"

	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// Receipt describes a stored document
type Receipt struct {
	ID          string
	Key         domain.BucketKey
	Leaf        domain.Leaf
	RelPath     string
	ContentHash string
	StoredAt    time.Time
	Mirrored    bool
}

// Plan is the placement decision for a document, before anything is written
type Plan struct {
	ID        string
	Placement domain.Placement
	Year      int
	Dated     bool // false when the fallback year was used
	Key       domain.BucketKey
	Leaf      domain.Leaf
	Exhausted bool
}

// PlacerConfig holds the collaborators of a Placer.
// Dedup, Mirror and Logger are optional.
type PlacerConfig struct {
	Rules    domain.Rules
	Store    ports.LeafStore
	Registry *LeafRegistry
	Locker   ports.BucketLocker
	Dedup    ports.DedupIndex
	Mirror   ports.MirrorSink
	Logger   logrus.FieldLogger
	Now      func() time.Time
}

// Placer classifies, buckets and stores documents into capacity-bounded leaves
type Placer struct {
	rules      domain.Rules
	classifier *domain.Classifier
	bucketer   *domain.DateBucketer
	store      ports.LeafStore
	registry   *LeafRegistry
	locker     ports.BucketLocker
	dedup      ports.DedupIndex
	mirror     ports.MirrorSink
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewPlacer creates a placer. Rules are validated.
func NewPlacer(cfg PlacerConfig) (*Placer, error) {
	if err := cfg.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("leaf store is required")
	}

	p := &Placer{
		rules:      cfg.Rules,
		classifier: domain.NewClassifier(cfg.Rules),
		bucketer:   domain.NewDateBucketer(cfg.Rules),
		store:      cfg.Store,
		registry:   cfg.Registry,
		locker:     cfg.Locker,
		dedup:      cfg.Dedup,
		mirror:     cfg.Mirror,
		log:        cfg.Logger,
		now:        cfg.Now,
	}
	if p.registry == nil {
		p.registry = NewLeafRegistry(cfg.Store)
	}
	if p.locker == nil {
		p.locker = NewKeyedLocker()
	}
	if p.log == nil {
		p.log = logrus.StandardLogger()
	}
	if p.now == nil {
		p.now = time.Now
	}
	return p, nil
}

// Rules returns the rules the placer was built with
func (p *Placer) Rules() domain.Rules {
	return p.rules
}

// Classifier returns the placer's classifier
func (p *Placer) Classifier() *domain.Classifier {
	return p.classifier
}

// Bucketer returns the placer's date bucketer
func (p *Placer) Bucketer() *domain.DateBucketer {
	return p.bucketer
}

// BucketKey computes the bucket of doc. hint is an optional origin filename
// used for year extraction when the document has no filing date.
func (p *Placer) BucketKey(doc *domain.Document, hint string) domain.BucketKey {
	return domain.NewBucketKey(p.bucketer.BucketDocument(doc, hint), p.classifier.Classify(doc))
}

// Plan classifies doc and resolves the leaf it would be written to, without writing
func (p *Placer) Plan(ctx context.Context, doc *domain.Document, hint string) (*Plan, error) {
	year, dated := p.bucketer.ExtractYear(doc, hint)
	placement := p.classifier.Classify(doc)
	key := domain.NewBucketKey(p.bucketer.Bucket(year), placement)

	unlock, err := p.locker.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	family, err := p.registry.Family(key, p.locker.Shared())
	if err != nil {
		return nil, &IOError{Op: "scan", Path: key.RelDir(), Err: err}
	}
	leaf, ok := domain.ResolveLeaf(family, p.rules.Capacity, p.rules.MaxBatches)

	return &Plan{
		ID:        doc.ID,
		Placement: placement,
		Year:      year,
		Dated:     dated,
		Key:       key,
		Leaf:      leaf,
		Exhausted: !ok,
	}, nil
}

// Store places doc into its bucket and writes it to disk.
// A document without id gets a generated one, visible on doc afterwards.
func (p *Placer) Store(ctx context.Context, doc *domain.Document, hint string) (*Receipt, error) {
	if err := PrepareDocument(doc); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := p.BucketKey(doc, hint)
	log := p.log.WithFields(logrus.Fields{"id": doc.ID, "bucket": key.String()})

	unlock, err := p.locker.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	receipt, payload, err := p.storeLocked(ctx, key, doc)
	unlock()
	if err != nil {
		return nil, err
	}

	if p.mirror != nil && payload != nil {
		rec := ports.MirrorRecord{ID: receipt.ID, RelPath: receipt.RelPath, CreatedAt: receipt.StoredAt, Payload: payload}
		if err := p.mirror.Insert(ctx, rec); err != nil {
			log.WithError(err).WithField("sink", p.mirror.Name()).Warn("mirror insert failed")
		} else {
			receipt.Mirrored = true
		}
	}

	log.WithFields(logrus.Fields{"leaf": receipt.Leaf.RelDir(), "path": receipt.RelPath}).Debug("stored document")
	return receipt, nil
}

// storeLocked runs the capacity check, the write and the occupancy update.
// The caller holds the bucket lock.
func (p *Placer) storeLocked(ctx context.Context, key domain.BucketKey, doc *domain.Document) (*Receipt, []byte, error) {
	family, err := p.registry.Family(key, p.locker.Shared())
	if err != nil {
		return nil, nil, &IOError{Op: "scan", Path: key.RelDir(), Err: err}
	}

	if batch, ok := family.Members[doc.ID]; ok {
		existing := domain.Leaf{Key: key, Batch: batch}
		return nil, nil, &DuplicateError{ID: doc.ID, Reason: DuplicateByID, ExistingID: doc.ID, Path: existing.DocumentPath(doc.ID)}
	}

	leaf, ok := domain.ResolveLeaf(family, p.rules.Capacity, p.rules.MaxBatches)
	if !ok {
		if err := p.checkDedup(ctx, doc.ID, doc.ContentHash()); err != nil {
			return nil, nil, err
		}
		return nil, nil, &CapacityError{Bucket: key.String(), MaxBatches: p.rules.MaxBatches}
	}

	storedAt := p.now().UTC()
	hash := doc.ContentHash()
	release, err := p.reserve(ctx, ports.DedupRecord{
		ID:          doc.ID,
		ContentHash: hash,
		Bucket:      key,
		RelPath:     leaf.DocumentPath(doc.ID),
		StoredAt:    storedAt,
	})
	if err != nil {
		return nil, nil, err
	}

	if doc.CreatedAt == "" {
		doc.CreatedAt = storedAt.Format(time.RFC3339)
	}
	data, err := doc.Encode()
	if err != nil {
		release()
		return nil, nil, &EncodingError{ID: doc.ID, Err: err}
	}

	relPath, err := p.store.WriteDocument(leaf, doc.ID, data)
	if err != nil {
		release()
		if errors.Is(err, fs.ErrExist) {
			p.registry.Forget(key)
			return nil, nil, &DuplicateError{ID: doc.ID, Reason: DuplicateByID, ExistingID: doc.ID, Path: leaf.DocumentPath(doc.ID)}
		}
		return nil, nil, &IOError{Op: "write", Path: leaf.DocumentPath(doc.ID), Err: err}
	}
	p.registry.Record(key, leaf.Batch, doc.ID)

	var payload []byte
	if p.mirror != nil {
		payload, err = MirrorPayload(data, storedAt)
		if err != nil {
			p.log.WithError(err).WithField("id", doc.ID).Warn("cannot build mirror payload")
		}
	}

	leaf.Occupancy++
	return &Receipt{
		ID:          doc.ID,
		Key:         key,
		Leaf:        leaf,
		RelPath:     relPath,
		ContentHash: hash,
		StoredAt:    storedAt,
	}, payload, nil
}

// reserve claims rec's id and content hash in the dedup index before the
// write. The returned func gives the claim back when the write does not happen.
func (p *Placer) reserve(ctx context.Context, rec ports.DedupRecord) (func(), error) {
	if p.dedup == nil {
		return func() {}, nil
	}

	existing, err := p.dedup.Reserve(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("dedup reserve %s: %w", rec.ID, err)
	}
	if existing != nil {
		reason := DuplicateByID
		if existing.ID != rec.ID {
			reason = DuplicateByContent
		}
		return nil, &DuplicateError{ID: rec.ID, Reason: reason, ExistingID: existing.ID, Path: existing.RelPath}
	}

	return func() {
		ctx := context.WithoutCancel(ctx)
		if err := p.dedup.Release(ctx, rec.ID); err != nil {
			p.log.WithError(err).WithField("id", rec.ID).Warn("dedup release failed")
			p.markDirty(ctx)
		}
	}, nil
}

// markDirty flags a persistent dedup index for a resync on next open
func (p *Placer) markDirty(ctx context.Context) {
	m, ok := p.dedup.(ports.DedupDirtyMarker)
	if !ok {
		return
	}
	if err := m.MarkDirty(ctx); err != nil {
		p.log.WithError(err).Error("cannot flag dedup index for resync")
	}
}

// checkDedup reports a duplicate without reserving anything
func (p *Placer) checkDedup(ctx context.Context, id, hash string) error {
	if p.dedup == nil {
		return nil
	}

	rec, found, err := p.dedup.Lookup(ctx, id)
	if err != nil {
		return fmt.Errorf("dedup lookup %s: %w", id, err)
	}
	if found {
		return &DuplicateError{ID: id, Reason: DuplicateByID, ExistingID: rec.ID, Path: rec.RelPath}
	}

	rec, found, err = p.dedup.LookupHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("dedup hash lookup %s: %w", id, err)
	}
	if found {
		return &DuplicateError{ID: id, Reason: DuplicateByContent, ExistingID: rec.ID, Path: rec.RelPath}
	}
	return nil
}

// MirrorPayload adds the mirror bookkeeping fields to an encoded document
func MirrorPayload(data []byte, createdAt time.Time) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	stamp, err := json.Marshal(createdAt.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	fields["created_at"] = stamp
	fields["embeddings"] = json.RawMessage("null")
	fields["indexed"] = json.RawMessage("false")

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(fields); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
