package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexshelf/internal/application"
	"lexshelf/internal/domain"
)

func TestShowCommand_UsesDedupIndex(t *testing.T) {
	h := newHarness(t, 3)
	h.store(t, &domain.Document{ID: "s1", Title: "Shown", Content: "body", DateFiled: "2022-02-02"})

	res, err := NewShowCommand(h.repo, h.dedup, "s1").Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Shown", res.Document.Title)
	assert.Equal(t, "2021-2022/case_law/contracts/s1.json", res.RelPath)
	assert.FileExists(t, res.AbsPath)
}

func TestShowCommand_FallsBackToCatalog(t *testing.T) {
	h := newHarness(t, 3)
	h.store(t, &domain.Document{ID: "s2", Title: "From catalog", Content: "body"})
	h.reindex(t)

	res, err := NewShowCommand(h.repo, nil, "s2").Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "From catalog", res.Document.Title)

	_, err = NewShowCommand(h.repo, nil, "missing").Execute(context.Background())
	assert.True(t, errors.Is(err, application.ErrNotFound))

	_, err = NewShowCommand(h.repo, nil, "").Execute(context.Background())
	assert.Error(t, err)
}

func TestStatsCommand(t *testing.T) {
	h := newHarness(t, 3)
	h.store(t, &domain.Document{ID: "a", Content: "1", DateFiled: "2016-01-01"})

	// No index yet: stats are computed by scanning
	res, err := NewStatsCommand(h.repo, h.builder, false).Execute(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Fresh)
	assert.Equal(t, 1, res.Index.RepositoryInfo.TotalDocuments)

	h.reindex(t)
	h.store(t, &domain.Document{ID: "b", Content: "2", DateFiled: "2016-01-01"})

	res, err = NewStatsCommand(h.repo, h.builder, false).Execute(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Fresh)
	assert.Equal(t, 1, res.Index.RepositoryInfo.TotalDocuments, "stored index is a cache")

	res, err = NewStatsCommand(h.repo, h.builder, true).Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Index.RepositoryInfo.TotalDocuments)
}
