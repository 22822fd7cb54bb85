// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-consolidator/internal/source"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the documents in the input folder in merge order",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		files, err := source.List(cfg.InputDir)
		if err != nil {
			return err
		}

		if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(files)
		}

		if len(files) == 0 {
			fmt.Printf("No supported files in %s\n", cfg.InputDir)
			fmt.Println(source.SupportedDisplay())
			return nil
		}
		fmt.Fprintf(os.Stdout, "%-4s  %-50s  %-12s  %s\n", "#", "File", "Format", "Size")
		fmt.Fprintln(os.Stdout, strings.Repeat("-", 80))
		for i, f := range files {
			name := f.Name
			if len(name) > 50 {
				name = name[:47] + "..."
			}
			fmt.Fprintf(os.Stdout, "%-4d  %-50s  %-12s  %s\n", i+1, name, f.Format, humanSize(f.Size))
		}
		fmt.Fprintf(os.Stdout, "\n%d file(s)\n", len(files))
		return nil
	},
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

func init() {
	listCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(listCmd)
}
