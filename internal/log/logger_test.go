package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level Level, jsonOutput bool) (*DefaultLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(LoggerConfig{Level: level, JSONOutput: jsonOutput, Stderr: &buf})
	l.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return l, &buf
}

func TestLoggerText(t *testing.T) {
	l, buf := newTestLogger(InfoLevel, false)

	l.Debug("hidden")
	l.Info("transpiled", "file", "a.py", "loops", 2)

	assert.Equal(t, "[2026-01-02 03:04:05] INFO: transpiled file=a.py loops=2\n", buf.String())
}

func TestLoggerLevel(t *testing.T) {
	l, buf := newTestLogger(WarnLevel, false)

	l.Info("skipped")
	l.Warn("kept")
	l.SetLevel(DebugLevel)
	l.Debug("now visible")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "WARN: kept")
	assert.Contains(t, lines[1], "DEBUG: now visible")
}

func TestLoggerJSON(t *testing.T) {
	l, buf := newTestLogger(DebugLevel, false)
	l.SetJSONOutput(true)

	l.Error("failed", "file", "b.py", "error", errors.New("boom"))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "failed", entry["message"])
	assert.Equal(t, "b.py", entry["file"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "2026-01-02 03:04:05", entry["timestamp"])
}

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  string
		args []interface{}
		want string
	}{
		{"no args", "hello", nil, "hello"},
		{"pairs", "hello", []interface{}{"a", 1, "b", "x"}, "hello a=1 b=x"},
		{"odd leading value", "hello", []interface{}{"lead", "k", "v"}, "hello lead k=v"},
		{"non-string key skipped", "hello", []interface{}{1, 2, "k", "v"}, "hello k=v"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatMessage(tt.msg, tt.args...))
		})
	}
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "ERROR", ErrorLevel.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}
