package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestBracketHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, Options{Level: "info"}).With("system", "engine")

	logger.Info("orders prepared", "valid", 42)

	line := buf.String()
	assert.Contains(t, line, "[INFO] [engine]")
	assert.Contains(t, line, "orders prepared valid=42")
	assert.NotContains(t, line, "system=")
	assert.NotContains(t, line, "\033[", "no colors when not writing to a terminal")
}

func TestBracketHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, Options{Level: "warn"})

	logger.Info("hidden")
	logger.Warn("medium lookup absent")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARN]")
}

func TestBracketHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, Options{}).WithGroup("run").With("id", "abc")

	logger.Info("saved", slog.Group("rows", slog.Int("monthly", 6)))

	assert.Contains(t, buf.String(), "run.id=abc")
	assert.Contains(t, buf.String(), "run.rows.monthly=6")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, Options{Format: "json"})

	logger.Info("done", "orders", 3)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "done", rec["msg"])
	assert.EqualValues(t, 3, rec["orders"])
}

func TestNewProgress_Quiet(t *testing.T) {
	bar := NewProgress(3, "test", false)
	require.NotNil(t, bar)
	assert.NoError(t, bar.Add(3))
}
