package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexshelf/internal/domain"
)

func TestReorganizeCommand(t *testing.T) {
	h := newHarness(t, 2)
	source := t.TempDir()

	items := []domain.Incoming{
		{Document: &domain.Document{ID: "a", Content: "1"}, Origin: filepath.Join(source, "x", "a_20160101.json")},
		{Document: &domain.Document{ID: "b", Content: "2"}, Origin: filepath.Join(source, "x", "b_20160102.json")},
		{Document: &domain.Document{ID: "c", Content: "3"}, Origin: filepath.Join(source, "y", "c_20160103.json")},
		{Document: &domain.Document{ID: "d", Content: "4", Jurisdiction: "ny"}, Origin: filepath.Join(source, "d.json")},
	}

	cmd := NewReorganizeCommand(h.placer, h.builder, h.repo, &sliceProducer{items: items}, source, h.log)
	res, err := cmd.Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, res.Ingest.Stored)
	assert.Equal(t, 4, res.Index.Stats.Documents)
	assert.True(t, res.Verify.Valid)
	assert.FileExists(t, filepath.Join(h.root, "2015-2018", "case_law", "contracts", "batch_001", "c.json"))
	assert.FileExists(t, filepath.Join(h.root, "2023-2024", "state_courts", "ny", "d.json"))
	assert.FileExists(t, filepath.Join(h.root, domain.IndexFileName))
	assert.Contains(t, res.Message, "indexed 4 documents")
}

func TestReorganizeCommand_RejectsNestedPaths(t *testing.T) {
	h := newHarness(t, 2)

	inside := filepath.Join(h.root, "legacy")
	require.NoError(t, os.MkdirAll(inside, 0755))

	for _, source := range []string{"", h.root, inside, filepath.Dir(h.root)} {
		cmd := NewReorganizeCommand(h.placer, h.builder, h.repo, &sliceProducer{}, source, h.log)
		assert.Error(t, cmd.Validate(), source)
	}
}
