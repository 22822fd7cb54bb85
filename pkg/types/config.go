// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"time"
)

// OfficeBackend identifies the tool used to export office documents to PDF.
type OfficeBackend string

const (
	// OfficeSoffice runs a local LibreOffice installation.
	OfficeSoffice OfficeBackend = "soffice"
	// OfficeContainer runs LibreOffice inside a docker or podman container.
	OfficeContainer OfficeBackend = "container"
	// OfficeNone disables office conversion; word and spreadsheet files fail
	// with a runtime-unavailable error.
	OfficeNone OfficeBackend = "none"
)

// OfficeConfig holds settings for the office-document export stage.
type OfficeConfig struct {
	// Backend selects the export tool: soffice, container, or none.
	Backend OfficeBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// SofficePath is the LibreOffice binary used by the soffice backend.
	SofficePath string `json:"soffice_path" yaml:"soffice_path" mapstructure:"soffice_path"`

	// Image is the container image used by the container backend. It must
	// provide a soffice binary on PATH.
	Image string `json:"image" yaml:"image" mapstructure:"image"`

	// Timeout bounds a single document export (default 120s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// LaunchRetries is the number of extra attempts made when starting an
	// office instance fails (default 3).
	LaunchRetries int `json:"launch_retries" yaml:"launch_retries" mapstructure:"launch_retries"`
}

// Config groups the settings for a consolidation run.
type Config struct {
	// InputDir is scanned for source documents (default data/input).
	InputDir string `json:"input_dir" yaml:"input_dir" mapstructure:"input_dir"`

	// OutputDir receives the merged PDF (default data/output).
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`

	// TempDir is the scratch workspace holding one PDF per source during a
	// run (default temp). It is wiped before and after every run.
	TempDir string `json:"temp_dir" yaml:"temp_dir" mapstructure:"temp_dir"`

	// LogDir holds the rotating application log (default logs).
	LogDir string `json:"log_dir" yaml:"log_dir" mapstructure:"log_dir"`

	// HistoryDir holds the run history database (default data/history).
	HistoryDir string `json:"history_dir" yaml:"history_dir" mapstructure:"history_dir"`

	// Workers bounds concurrent conversions (default 2).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// RequireIdentifiers rejects runs with an empty identifier or one that
	// contains characters invalid in filenames (default true).
	RequireIdentifiers bool `json:"require_identifiers" yaml:"require_identifiers" mapstructure:"require_identifiers"`

	Office OfficeConfig `json:"office" yaml:"office" mapstructure:"office"`
}

const (
	DefaultWorkers       = 2
	MaxWorkers           = 8
	DefaultOfficeTimeout = 120 * time.Second
	DefaultLaunchRetries = 3
	DefaultOfficeImage   = "consolidator-office:latest"
)

// DefaultConfig returns the configuration used when no file or environment
// override is present. Paths are relative to the working directory.
func DefaultConfig() Config {
	return Config{
		InputDir:           "data/input",
		OutputDir:          "data/output",
		TempDir:            "temp",
		LogDir:             "logs",
		HistoryDir:         "data/history",
		Workers:            DefaultWorkers,
		RequireIdentifiers: true,
		Office: OfficeConfig{
			Backend:       OfficeSoffice,
			SofficePath:   "soffice",
			Image:         DefaultOfficeImage,
			Timeout:       DefaultOfficeTimeout,
			LaunchRetries: DefaultLaunchRetries,
		},
	}
}

// Normalize clamps out-of-range values and fills empty settings with
// their defaults.
func (c *Config) Normalize() {
	d := DefaultConfig()
	fill(&c.InputDir, d.InputDir)
	fill(&c.OutputDir, d.OutputDir)
	fill(&c.TempDir, d.TempDir)
	fill(&c.LogDir, d.LogDir)
	fill(&c.HistoryDir, d.HistoryDir)
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Workers > MaxWorkers {
		c.Workers = MaxWorkers
	}
	if c.Office.Timeout <= 0 {
		c.Office.Timeout = DefaultOfficeTimeout
	}
	if c.Office.LaunchRetries < 0 {
		c.Office.LaunchRetries = 0
	}
	if c.Office.Backend == "" {
		c.Office.Backend = OfficeSoffice
	}
	if c.Office.SofficePath == "" {
		c.Office.SofficePath = "soffice"
	}
	if c.Office.Image == "" {
		c.Office.Image = DefaultOfficeImage
	}
}

// fill sets *v to def when it is blank.
func fill(v *string, def string) {
	if strings.TrimSpace(*v) == "" {
		*v = def
	}
}
