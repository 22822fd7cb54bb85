// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesBothSinks(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	var console bytes.Buffer

	log, closer, err := New(Options{Dir: dir, Console: &console})
	require.NoError(t, err)
	log.Info("run finished", "output", "12345_Cliente_678.pdf")
	log.Debug("hidden")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "run finished")
	assert.Contains(t, console.String(), "output=12345_Cliente_678.pdf")
	assert.NotContains(t, console.String(), "hidden")
}

func TestNewConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	log, closer, err := New(Options{Console: &console, Level: slog.LevelDebug})
	require.NoError(t, err)
	log.Debug("visible")
	assert.NoError(t, closer.Close())
	assert.Contains(t, console.String(), "visible")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warn", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
