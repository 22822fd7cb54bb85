// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pdf-consolidator/internal/consolidate"
	"github.com/pdiddy/pdf-consolidator/internal/naming"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Convert and merge the input folder into one PDF",
	Long: `Run converts every supported document in the input folder to PDF and
merges them, in case-insensitive filename order, into
<output_dir>/<id>_<client>_<reimbursement>.pdf.

Files that cannot be converted are listed and left out. The input folder is
cleared after a successful run unless --keep-input is given; it is never
touched when the run fails.

Exit status: 2 when the input folder is empty, 3 when no file could be
converted, 4 when the output PDF could not be written.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	ids := naming.Identifiers{}
	ids.ID, _ = cmd.Flags().GetString("id")
	ids.Client, _ = cmd.Flags().GetString("client")
	ids.Reimbursement, _ = cmd.Flags().GetString("reimbursement")
	keep, _ := cmd.Flags().GetBool("keep-input")
	if cmd.Flags().Changed("workers") {
		cfg.Workers, _ = cmd.Flags().GetInt("workers")
		cfg.Normalize()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := newService(cfg, os.Stdout)
	svc.clearInput = !keep
	out, err := svc.Consolidate(ctx, ids)
	if err != nil {
		return err
	}
	printOutcome(out)
	return nil
}

func printOutcome(out consolidate.Outcome) {
	fmt.Printf("\nCreated %s\n", out.OutputPath)
	fmt.Printf("  %d page(s) from %d file(s) in %s\n", out.Pages, out.Converted-out.SkippedAtMerge, out.Total.Round(time.Millisecond))
	if out.Failed > 0 || out.SkippedAtMerge > 0 {
		fmt.Printf("  %d file(s) left out:\n", out.Failed+out.SkippedAtMerge)
		for _, f := range out.Failures {
			fmt.Printf("    %s: %v\n", f.Source.Name, f.Err)
		}
		for _, s := range out.Skipped {
			fmt.Printf("    %v\n", s.Err)
		}
	}
	if out.CleanupWarning != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", out.CleanupWarning)
	}
}

func init() {
	runCmd.Flags().String("id", "", "identification number")
	runCmd.Flags().String("client", "", "client name")
	runCmd.Flags().String("reimbursement", "", "reimbursement number")
	runCmd.Flags().Bool("keep-input", false, "do not clear the input folder after a successful run")
	runCmd.Flags().Int("workers", 0, "concurrent conversions (1-8, default from config)")

	rootCmd.AddCommand(runCmd)
}
