// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"
)

// ExportYAML writes the runs selected by opts to path as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, path string, opts ListOptions) error {
	runs, err := s.exportRuns(ctx, opts)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(runs)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return writeExport(path, data)
}

// ExportJSON writes the runs selected by opts to path as a JSON array.
func (s *Store) ExportJSON(ctx context.Context, path string, opts ListOptions) error {
	runs, err := s.exportRuns(ctx, opts)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(runs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return writeExport(path, data)
}

func (s *Store) exportRuns(ctx context.Context, opts ListOptions) ([]RunRecord, error) {
	runs, err := s.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	if runs == nil {
		runs = []RunRecord{}
	}
	return runs, nil
}

func writeExport(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
