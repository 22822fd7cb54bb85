// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package consolidate runs one consolidation end to end: convert every
// source file to PDF in a locked scratch workspace, merge the results in
// input order into the named output document, and record the run.
package consolidate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pdiddy/pdf-consolidator/internal/convert"
	"github.com/pdiddy/pdf-consolidator/internal/history"
	"github.com/pdiddy/pdf-consolidator/internal/merge"
	"github.com/pdiddy/pdf-consolidator/internal/naming"
	"github.com/pdiddy/pdf-consolidator/internal/office"
	"github.com/pdiddy/pdf-consolidator/internal/workspace"
	"github.com/pdiddy/pdf-consolidator/pkg/types"
)

var (
	// ErrNoInputFiles means the run was given nothing to consolidate.
	ErrNoInputFiles = errors.New("no input files")

	// ErrNoFilesConverted means every source failed conversion.
	ErrNoFilesConverted = errors.New("no files could be converted")
)

// Recorder persists run records. *history.Store implements it.
type Recorder interface {
	Record(ctx context.Context, rec history.RunRecord) (int64, error)
}

// Outcome summarizes a successful run.
type Outcome struct {
	// OutputPath is the absolute path of the merged PDF.
	OutputPath string `json:"output_path"`

	Converted      int `json:"converted"`
	Failed         int `json:"failed"`
	SkippedAtMerge int `json:"skipped_at_merge"`
	Pages          int `json:"pages"`

	Failures []convert.Failure `json:"-"`
	Skipped  []merge.Skip      `json:"-"`

	ConvertTime time.Duration `json:"convert_time"`
	MergeTime   time.Duration `json:"merge_time"`
	Total       time.Duration `json:"total"`

	// CleanupWarning is set when the input folder could not be fully
	// cleared after the merge. The run still succeeded.
	CleanupWarning error `json:"-"`
}

// Runner holds everything a run needs besides its inputs.
type Runner struct {
	Config types.Config

	// Exporter is the office backend. Nil disables office conversion.
	Exporter office.Exporter

	// History records each run when set. Failures to record are logged.
	History Recorder

	// ClearInput empties the input folder after a successful run.
	ClearInput bool

	Log *slog.Logger
	// Out receives per-file progress lines. Nil discards them.
	Out io.Writer

	now func() time.Time
}

// Run consolidates files into OutputDir/<identifiers>.pdf. Per-file
// conversion failures are reported in the outcome; the returned error is
// set only when no output document was written.
func (r *Runner) Run(ctx context.Context, files []types.SourceFile, ids naming.Identifiers) (Outcome, error) {
	log := r.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	now := r.now
	if now == nil {
		now = time.Now
	}
	cfg := r.Config
	cfg.Normalize()

	start := now()
	if len(files) == 0 {
		return Outcome{}, ErrNoInputFiles
	}
	if cfg.RequireIdentifiers {
		if err := naming.Validate(ids); err != nil {
			return Outcome{}, err
		}
	}

	rec := history.RunRecord{
		StartedAt:     start,
		Identifier:    ids.ID,
		Client:        ids.Client,
		Reimbursement: ids.Reimbursement,
	}
	out, err := r.run(ctx, cfg, log, files, ids, &rec)
	rec.FinishedAt = now()
	out.Total = rec.FinishedAt.Sub(start)
	if err != nil {
		rec.Status = history.StatusFailed
		rec.Error = err.Error()
		log.Error("consolidation failed", "error", err, "elapsed", out.Total.Round(time.Millisecond))
	} else {
		rec.Status = history.StatusSucceeded
		log.Info("consolidation finished", "output", out.OutputPath, "pages", out.Pages,
			"converted", out.Converted, "failed", out.Failed, "elapsed", out.Total.Round(time.Millisecond))
	}
	r.record(ctx, log, rec)

	if err != nil {
		return Outcome{}, err
	}
	if r.ClearInput {
		if cerr := workspace.ClearInput(cfg.InputDir); cerr != nil {
			log.Warn("input folder not cleared", "dir", cfg.InputDir, "error", cerr)
			out.CleanupWarning = cerr
		}
	}
	return out, nil
}

func (r *Runner) run(ctx context.Context, cfg types.Config, log *slog.Logger, files []types.SourceFile, ids naming.Identifiers, rec *history.RunRecord) (Outcome, error) {
	ws, err := workspace.Acquire(cfg.TempDir, log, cfg.InputDir, cfg.OutputDir, cfg.HistoryDir, cfg.LogDir)
	if err != nil {
		return Outcome{}, err
	}
	defer func() {
		if err := ws.Release(); err != nil {
			log.Warn("releasing workspace", "error", err)
		}
	}()

	sess := office.NewSession(r.Exporter, office.SessionConfig{
		Timeout:       cfg.Office.Timeout,
		LaunchRetries: cfg.Office.LaunchRetries,
	}, log)
	defer sess.Close()

	p := &convert.Pipeline{
		Images:  convert.NewImageConverter(log),
		Office:  sess,
		Workers: cfg.Workers,
		Log:     log,
		Out:     r.Out,
	}
	log.Info("converting", "files", len(files), "workers", cfg.Workers)
	batch, err := p.Run(ctx, files, ws)
	if err != nil {
		return Outcome{}, err
	}

	out := Outcome{
		Converted:   batch.Converted(),
		Failed:      batch.Failed(),
		Failures:    batch.Failures,
		ConvertTime: batch.Elapsed,
	}
	rec.Converted, rec.Failed = out.Converted, out.Failed
	rec.Files = fileOutcomes(files, batch)

	if batch.Converted() == 0 {
		return out, fmt.Errorf("%w: %d of %d failed", ErrNoFilesConverted, batch.Failed(), len(files))
	}

	outDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return out, fmt.Errorf("%w: resolving %s: %w", merge.ErrWriteFailed, cfg.OutputDir, err)
	}
	dst := filepath.Join(outDir, naming.FinalPDFName(ids))

	paths := make([]string, len(batch.Artifacts))
	for i, a := range batch.Artifacts {
		paths[i] = a.Path
	}
	mergeStart := time.Now()
	res, err := merge.Merge(ctx, paths, dst, merge.Options{Log: log})
	out.MergeTime = time.Since(mergeStart)
	markSkipped(rec.Files, batch.Artifacts, res.Skipped)
	out.SkippedAtMerge = len(res.Skipped)
	out.Skipped = res.Skipped
	rec.Skipped = out.SkippedAtMerge
	if err != nil {
		return out, err
	}

	out.OutputPath = dst
	out.Pages = res.Pages
	rec.OutputPath = dst
	rec.Pages = res.Pages
	return out, nil
}

func (r *Runner) record(ctx context.Context, log *slog.Logger, rec history.RunRecord) {
	if r.History == nil {
		return
	}
	// A cancelled run is still recorded.
	ctx = context.WithoutCancel(ctx)
	if _, err := r.History.Record(ctx, rec); err != nil {
		log.Warn("recording run history", "error", err)
	}
}

// fileOutcomes lists every source in input order with its conversion
// result.
func fileOutcomes(files []types.SourceFile, batch convert.BatchResult) []history.FileOutcome {
	failed := make(map[string]error, len(batch.Failures))
	for _, f := range batch.Failures {
		failed[f.Source.Path] = f.Err
	}
	outcomes := make([]history.FileOutcome, len(files))
	for i, f := range files {
		outcomes[i] = history.FileOutcome{Name: f.Name, Format: f.Format.String(), Status: history.FileConverted}
		if err, ok := failed[f.Path]; ok {
			outcomes[i].Status = history.FileFailed
			outcomes[i].Error = err.Error()
		}
	}
	return outcomes
}

// markSkipped flags sources whose artifact was left out of the merge.
func markSkipped(outcomes []history.FileOutcome, artifacts []types.Artifact, skipped []merge.Skip) {
	if len(skipped) == 0 {
		return
	}
	bySource := make(map[string]string, len(artifacts))
	for _, a := range artifacts {
		bySource[a.Path] = a.Source.Name
	}
	for _, s := range skipped {
		name := bySource[s.Path]
		for i := range outcomes {
			if outcomes[i].Name == name && outcomes[i].Status == history.FileConverted {
				outcomes[i].Status = history.FileSkipped
				outcomes[i].Error = s.Err.Error()
				break
			}
		}
	}
}
