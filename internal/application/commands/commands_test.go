package commands

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"lexshelf/internal/adapters/filesystem"
	"lexshelf/internal/application"
	"lexshelf/internal/domain"
)

// harness wires a placer and an index builder over a temporary repository
type harness struct {
	root    string
	repo    *filesystem.Repository
	dedup   *application.MemoryDedupIndex
	placer  *application.Placer
	builder *application.IndexBuilder
	log     logrus.FieldLogger
}

func newHarness(t *testing.T, capacity int) *harness {
	t.Helper()
	root := t.TempDir()
	repo := filesystem.NewRepository(root)
	dedup := application.NewMemoryDedupIndex()
	log, _ := test.NewNullLogger()

	rules := domain.DefaultRules()
	rules.Capacity = capacity
	locker := application.NewKeyedLocker()

	placer, err := application.NewPlacer(application.PlacerConfig{
		Rules:  rules,
		Store:  repo,
		Locker: locker,
		Dedup:  dedup,
		Logger: log,
	})
	require.NoError(t, err)

	return &harness{
		root:    root,
		repo:    repo,
		dedup:   dedup,
		placer:  placer,
		builder: application.NewIndexBuilder(repo, locker, rules, log),
		log:     log,
	}
}

func (h *harness) store(t *testing.T, doc *domain.Document) *application.Receipt {
	t.Helper()
	res, err := NewStoreCommand(h.placer, doc, "").Execute(context.Background())
	require.NoError(t, err)
	return res.Receipt
}

func (h *harness) reindex(t *testing.T) *ReindexResult {
	t.Helper()
	res, err := NewReindexCommand(h.builder).Execute(context.Background())
	require.NoError(t, err)
	return res
}

// sliceProducer emits a fixed list of documents
type sliceProducer struct {
	items []domain.Incoming
}

func (p *sliceProducer) Name() string { return "slice" }

func (p *sliceProducer) Produce(ctx context.Context, emit func(domain.Incoming) error) error {
	for _, in := range p.items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(in); err != nil {
			return err
		}
	}
	return nil
}
