// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the consolidator CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pdf-consolidator/internal/consolidate"
	"github.com/pdiddy/pdf-consolidator/internal/logging"
	"github.com/pdiddy/pdf-consolidator/internal/merge"
	"github.com/pdiddy/pdf-consolidator/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Exit codes for run failures the caller may want to tell apart.
const (
	exitError         = 1
	exitNoInput       = 2
	exitNoneConverted = 3
	exitWriteFailed   = 4
)

// envKeyReplacer maps nested keys such as office.backend to
// CONSOLIDATOR_OFFICE_BACKEND.
var envKeyReplacer = strings.NewReplacer(".", "_")

var (
	logger    = slog.New(slog.DiscardHandler)
	logCloser io.Closer
)

// rootCmd is the base command for the consolidator CLI.
var rootCmd = &cobra.Command{
	Use:   "consolidator",
	Short: "Convert a folder of documents to PDF and merge them into one file",
	Long: `consolidator converts every document in the input folder (images, Word
and Excel files, existing PDFs) to PDF and merges the pages, in filename
order, into a single PDF named after the identification number, client name
and reimbursement number.

Word and Excel documents are exported with LibreOffice, either installed
locally or run in a container. Files that fail to convert are reported and
left out; the rest are still merged.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		levelName, _ := cmd.Flags().GetString("log-level")
		level, err := logging.ParseLevel(levelName)
		if err != nil {
			return err
		}
		l, closer, err := logging.New(logging.Options{Dir: cfg.LogDir, Level: level})
		if err != nil {
			return err
		}
		logger, logCloser = l, closer
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLog()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./consolidator.yaml or ~/.config/consolidator/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, or error")

	setDefaults(viper.GetViper())
}

// setDefaults registers every config key so environment variables and
// Unmarshal see them even when no config file exists.
func setDefaults(v *viper.Viper) {
	d := types.DefaultConfig()
	v.SetDefault("input_dir", d.InputDir)
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("temp_dir", d.TempDir)
	v.SetDefault("log_dir", d.LogDir)
	v.SetDefault("history_dir", d.HistoryDir)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("require_identifiers", d.RequireIdentifiers)
	v.SetDefault("office.backend", string(d.Office.Backend))
	v.SetDefault("office.soffice_path", d.Office.SofficePath)
	v.SetDefault("office.image", d.Office.Image)
	v.SetDefault("office.timeout", d.Office.Timeout)
	v.SetDefault("office.launch_retries", d.Office.LaunchRetries)
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("consolidator")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "consolidator"))
		}
	}

	viper.SetEnvPrefix("CONSOLIDATOR")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig decodes the merged flag, env, file and default values.
func loadConfig() types.Config {
	cfg := types.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: invalid configuration, using defaults: %v\n", err)
		cfg = types.DefaultConfig()
	}
	cfg.Normalize()
	return cfg
}

func closeLog() {
	if logCloser != nil {
		logCloser.Close()
		logCloser = nil
	}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, consolidate.ErrNoInputFiles):
		return exitNoInput
	case errors.Is(err, consolidate.ErrNoFilesConverted), errors.Is(err, merge.ErrNoReadableSources):
		return exitNoneConverted
	case errors.Is(err, merge.ErrWriteFailed):
		return exitWriteFailed
	}
	return exitError
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		if hint := consolidate.Remediation(err); hint != "" && exitCode(err) != exitError {
			fmt.Fprintln(os.Stderr, hint)
		}
		closeLog()
		os.Exit(exitCode(err))
	}
}
