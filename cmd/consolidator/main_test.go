// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-consolidator/internal/consolidate"
	"github.com/pdiddy/pdf-consolidator/internal/merge"
	"github.com/pdiddy/pdf-consolidator/pkg/types"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{consolidate.ErrNoInputFiles, exitNoInput},
		{fmt.Errorf("run: %w", consolidate.ErrNoFilesConverted), exitNoneConverted},
		{merge.ErrNoReadableSources, exitNoneConverted},
		{fmt.Errorf("%w: disk full", merge.ErrWriteFailed), exitWriteFailed},
		{errors.New("other"), exitError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exitCode(tt.err), tt.err.Error())
	}
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", humanSize(512))
	assert.Equal(t, "1.5 KB", humanSize(1536))
	assert.Equal(t, "2.0 MB", humanSize(2<<20))
}

func TestLoadConfigFromFileAndEnv(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Reset()
	setDefaults(viper.GetViper())

	dir := t.TempDir()
	path := filepath.Join(dir, "consolidator.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input_dir: /srv/in
workers: 50
office:
  backend: container
  timeout: 45s
`), 0o644))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	t.Setenv("CONSOLIDATOR_OUTPUT_DIR", "/srv/out")
	viper.SetEnvPrefix("CONSOLIDATOR")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	cfg := loadConfig()
	assert.Equal(t, "/srv/in", cfg.InputDir)
	assert.Equal(t, "/srv/out", cfg.OutputDir)
	assert.Equal(t, "temp", cfg.TempDir)
	assert.Equal(t, types.MaxWorkers, cfg.Workers)
	assert.Equal(t, types.OfficeContainer, cfg.Office.Backend)
	assert.Equal(t, 45*time.Second, cfg.Office.Timeout)
	assert.Equal(t, types.DefaultLaunchRetries, cfg.Office.LaunchRetries)
	assert.True(t, cfg.RequireIdentifiers)
}
