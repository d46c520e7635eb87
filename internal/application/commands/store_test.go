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

func TestStoreCommand(t *testing.T) {
	h := newHarness(t, 3)

	res, err := NewStoreCommand(h.placer, &domain.Document{ID: "a", Content: "x", LegalDomain: "ip_law", DateFiled: "2024-02-02"}, "").Execute(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2023-2024/ip_law/patents/a.json", res.Receipt.RelPath)
	assert.Contains(t, res.Message, "Stored a at 2023-2024/ip_law/patents/a.json")

	_, err = NewStoreCommand(h.placer, &domain.Document{ID: "a", Content: "y"}, "").Execute(context.Background())
	assert.True(t, errors.Is(err, application.ErrDuplicateID))
}

func TestStoreCommand_Validate(t *testing.T) {
	h := newHarness(t, 3)

	_, err := NewStoreCommand(h.placer, nil, "").Execute(context.Background())
	var valErr *application.ValidationError
	require.True(t, errors.As(err, &valErr))
	assert.Equal(t, "document", valErr.Field)
}

func TestClassifyCommand(t *testing.T) {
	h := newHarness(t, 1)
	h.store(t, &domain.Document{ID: "first", Content: "1", Jurisdiction: "fl", DateFiled: "2018-01-01"})

	res, err := NewClassifyCommand(h.placer, &domain.Document{ID: "second", Jurisdiction: "fl"}, "old/second_20171224.json").Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, domain.Placement{Category: "state_courts", Subcategory: "fl"}, res.Plan.Placement)
	assert.Equal(t, "2015-2018/state_courts/fl/batch_001", res.Plan.Leaf.RelDir())
	assert.Contains(t, res.Message, "year 2017")

	res, err = NewClassifyCommand(h.placer, &domain.Document{}, "").Execute(context.Background())
	require.NoError(t, err)
	assert.Contains(t, res.Message, "(fallback)")
	assert.Contains(t, res.Message, "(no id)")
}
