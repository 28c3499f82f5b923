package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewWithSinkWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithSink("info", zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("registered tools", zap.Int("count", 8))
	require.NoError(t, logger.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "registered tools", entry["msg"])
	assert.Equal(t, 8.0, entry["count"])
	assert.Contains(t, entry, "time")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("loud")
	assert.ErrorContains(t, err, "'loud'")
}

func TestNewDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithSink("debug", zapcore.AddSync(&buf))
	require.NoError(t, err)
	logger.Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}
