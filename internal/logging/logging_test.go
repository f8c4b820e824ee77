package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
		hasError bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
		{"", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseLevel(tt.input)
			if tt.hasError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestComponentTagsRecords(t *testing.T) {
	var buf bytes.Buffer
	l := Component(NewWithWriter(&buf, FormatJSON, slog.LevelDebug), "fade")
	l.Info("tick", "retired", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "fade", rec["component"])
	assert.Equal(t, "tick", rec["msg"])
	assert.EqualValues(t, 2, rec["retired"])
}

func TestComponentNilLoggerDiscards(t *testing.T) {
	l := Component(nil, "ink")
	require.NotNil(t, l)
	assert.False(t, l.Enabled(t.Context(), slog.LevelError))
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ink.log")
	l, closer, err := New(Config{Level: "debug", Format: FormatText, Output: path})
	require.NoError(t, err)
	l.Debug("hello")
	require.NoError(t, closer.Close())
	assert.FileExists(t, path)

	_, _, err = New(Config{Level: "nope"})
	assert.Error(t, err)
}
