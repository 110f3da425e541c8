package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter("info", "json", &buf)
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("visible", zap.String("tenant_id", "T1"))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "T1", entry["tenant_id"])
}

func TestNewWithWriterRejectsUnknownSettings(t *testing.T) {
	_, err := NewWithWriter("loud", "json", &bytes.Buffer{})
	assert.Error(t, err)

	_, err = NewWithWriter("info", "xml", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNewWithWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewWithWriter("debug", "console", &buf)
	require.NoError(t, err)

	log.Debug("hello")
	assert.Contains(t, buf.String(), "hello")
}
