// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-consolidator/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or export past consolidation runs",
	Long: `History reads the local SQLite run history. Every run is recorded with
its identifiers, output file, per-file outcomes and any error.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent runs, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store, err := history.Open(cfg.HistoryDir)
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := historyOptsFromFlags(cmd)
	if err != nil {
		return err
	}
	runs, err := store.List(context.Background(), opts)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	return formatHistory(runs)
}

func formatHistory(runs []history.RunRecord) error {
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-5s  %-19s  %-9s  %-40s  %5s  %s\n",
		"ID", "Started", "Status", "Output", "Pages", "Files (ok/failed)")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, r := range runs {
		output := filepath.Base(r.OutputPath)
		if r.OutputPath == "" {
			output = r.Error
		}
		if len(output) > 40 {
			output = output[:37] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-5d  %-19s  %-9s  %-40s  %5d  %d/%d\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.Status, output, r.Pages, r.Converted, r.Failed)
	}
	fmt.Fprintf(os.Stdout, "\n%d run(s)\n", len(runs))
	return nil
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the run history to YAML or JSON",
	Long: `Export writes the run history (or a filtered subset) to
<history_dir>/export.yaml or export.json, or to --output.`,
	RunE: runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	store, err := history.Open(cfg.HistoryDir)
	if err != nil {
		return err
	}
	defer store.Close()

	opts, err := historyOptsFromFlags(cmd)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		path = filepath.Join(cfg.HistoryDir, "export."+format)
	}

	ctx := context.Background()
	switch format {
	case "yaml":
		err = store.ExportYAML(ctx, path, opts)
	case "json":
		err = store.ExportJSON(ctx, path, opts)
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Exported to %s\n", path)
	return nil
}

func historyOptsFromFlags(cmd *cobra.Command) (history.ListOptions, error) {
	limit, _ := cmd.Flags().GetInt("limit")
	status, _ := cmd.Flags().GetString("status")
	opts := history.ListOptions{Limit: limit, Status: history.Status(status)}
	switch opts.Status {
	case "", history.StatusSucceeded, history.StatusFailed:
		return opts, nil
	}
	return opts, fmt.Errorf("unknown status %q: use %s or %s", status, history.StatusSucceeded, history.StatusFailed)
}

func init() {
	historyListCmd.Flags().Int("limit", 20, "maximum number of runs to show (0 for all)")
	historyListCmd.Flags().String("status", "", "only runs with this status (succeeded, failed)")
	historyListCmd.Flags().Bool("json", false, "output as JSON")

	historyExportCmd.Flags().String("format", "yaml", "export format: yaml or json")
	historyExportCmd.Flags().String("output", "", "destination file (default: <history_dir>/export.<format>)")
	historyExportCmd.Flags().Int("limit", 0, "maximum number of runs to export (0 for all)")
	historyExportCmd.Flags().String("status", "", "only runs with this status (succeeded, failed)")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}
