package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_UnmarshalTreatsNullAsEmpty(t *testing.T) {
	doc, err := DecodeDocument([]byte(`{"id":"a1","title":null,"court":null,"date_filed":"2020-01-02"}`))
	require.NoError(t, err)

	assert.Equal(t, "a1", doc.ID)
	assert.Equal(t, "", doc.Title)
	assert.Equal(t, "", doc.Court)
	assert.Equal(t, "2020-01-02", doc.DateFiled)
	assert.Nil(t, doc.Extra)
}

func TestDocument_PreservesUnknownFields(t *testing.T) {
	input := `{"id":"a1","title":"T","content":"c","citation":"123 U.S. 456","parties":["a","b"]}`

	doc, err := DecodeDocument([]byte(input))
	require.NoError(t, err)
	require.Contains(t, doc.Extra, "citation")

	out, err := doc.Encode()
	require.NoError(t, err)

	var round map[string]any
	require.NoError(t, json.Unmarshal(out, &round))
	assert.Equal(t, "123 U.S. 456", round["citation"])
	assert.Equal(t, []any{"a", "b"}, round["parties"])
}

func TestDocument_EncodeSortsKeysAndKeepsHTML(t *testing.T) {
	doc := &Document{
		ID:           "z",
		Title:        "A <b> & c",
		Content:      "text",
		Jurisdiction: "federal",
		Metadata:     map[string]any{"pages": 3},
	}

	out, err := doc.Encode()
	require.NoError(t, err)
	s := string(out)

	assert.Contains(t, s, "A <b> & c")
	assert.Less(t, strings.Index(s, `"content"`), strings.Index(s, `"id"`))
	assert.Less(t, strings.Index(s, `"id"`), strings.Index(s, `"jurisdiction"`))
	assert.NotContains(t, s, `"court"`, "empty optional fields are omitted")
	assert.True(t, strings.HasSuffix(s, "}\n"))
}

func TestDocument_RejectsWrongFieldType(t *testing.T) {
	_, err := DecodeDocument([]byte(`{"id":42}`))
	assert.Error(t, err)
}

func TestDocument_ContentHashAndLength(t *testing.T) {
	a := &Document{Content: "héllo"}
	b := &Document{Content: "héllo"}
	c := &Document{Content: "hello"}

	assert.Equal(t, a.ContentHash(), b.ContentHash())
	assert.NotEqual(t, a.ContentHash(), c.ContentHash())
	assert.Len(t, a.ContentHash(), 64)
	assert.Equal(t, 5, a.ContentLength())
	assert.Empty(t, (&Document{ID: "only-id"}).ContentHash())
}
