package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONEntryCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("json", "info", &buf)

	logger.Info("scan completed", F("path", "app.log"), F("lines", 12))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "scan completed", entry["msg"])
	assert.Equal(t, "app.log", entry["path"])
	assert.Equal(t, float64(12), entry["lines"])
}

func TestTextEntry(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("text", "info", &buf)

	logger.Warn("file skipped", F("path", "missing.log"))

	line := buf.String()
	assert.Contains(t, line, "level=warn")
	assert.Contains(t, line, `msg="file skipped"`)
	assert.Contains(t, line, "path=missing.log")
}

func TestMinimumLevelFiltersEntries(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("text", "warn", &buf)

	logger.Debug("noise")
	logger.Info("noise")
	logger.Error("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "kept")
}

func TestNilLoggerIsSafe(t *testing.T) {
	var logger *Logger
	logger.Info("ignored")
}
