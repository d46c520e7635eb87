package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	log, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)

	log.WithField("id", "doc1").Debug("stored document")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "doc1", entry["id"])
	assert.Equal(t, "stored document", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)

	_, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}
