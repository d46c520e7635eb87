package application

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexshelf/internal/domain"
)

func TestValidateRequired(t *testing.T) {
	tests := []struct {
		name      string
		fieldName string
		value     string
		wantErr   bool
	}{
		{name: "valid value", fieldName: "query", value: "contract", wantErr: false},
		{name: "empty string", fieldName: "query", value: "", wantErr: true},
		{name: "whitespace only", fieldName: "query", value: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRequired(tt.fieldName, tt.value)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			var valErr *ValidationError
			require.True(t, errors.As(err, &valErr), "expected ValidationError, got %T", err)
			assert.Equal(t, tt.fieldName, valErr.Field)
			assert.Contains(t, valErr.Message, "search query")
			assert.ErrorIs(t, err, ErrInvalidDocument)
		})
	}
}

func TestPrepareDocument(t *testing.T) {
	t.Run("generates missing id", func(t *testing.T) {
		doc := &domain.Document{Title: "untitled"}
		require.NoError(t, PrepareDocument(doc))
		assert.Len(t, doc.ID, 36)
	})

	t.Run("keeps existing id", func(t *testing.T) {
		doc := &domain.Document{ID: "case_20210301_x"}
		require.NoError(t, PrepareDocument(doc))
		assert.Equal(t, "case_20210301_x", doc.ID)
	})

	t.Run("rejects unsafe id", func(t *testing.T) {
		err := PrepareDocument(&domain.Document{ID: "../escape"})
		var valErr *ValidationError
		require.True(t, errors.As(err, &valErr))
		assert.Equal(t, "id", valErr.Field)
	})

	t.Run("rejects nil", func(t *testing.T) {
		assert.Error(t, PrepareDocument(nil))
	})
}

func TestValidateBucketKey(t *testing.T) {
	key, err := ValidateBucketKey("2021-2022/ip_law/patents")
	require.NoError(t, err)
	assert.Equal(t, "ip_law", key.Category)

	_, err = ValidateBucketKey("")
	assert.Error(t, err)
	_, err = ValidateBucketKey("a/b")
	assert.Error(t, err)
}
