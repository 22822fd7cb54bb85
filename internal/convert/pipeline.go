// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert turns heterogeneous source files into one PDF each.
// Route maps a file extension to a format; the Pipeline dispatches every
// file to the converter for its format and collects the artifacts in input
// order.
package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/pdiddy/pdf-consolidator/pkg/types"
)

// errNoOfficeConverter is returned for office files when the pipeline has
// no office converter.
var errNoOfficeConverter = errors.New("no office converter configured")

// OfficeConverter exports word-processor and spreadsheet documents.
// *office.Session implements it.
type OfficeConverter interface {
	Convert(ctx context.Context, format types.Format, src, dst string) error
}

// Workspace hands out artifact paths in the scratch area.
type Workspace interface {
	ArtifactPath(src string) (string, error)
}

// Failure records a source file that produced no artifact.
type Failure struct {
	Source types.SourceFile
	Err    error
}

// BatchResult holds the outcome of a pipeline run. Artifacts are in the
// order of the input files.
type BatchResult struct {
	Artifacts []types.Artifact
	Failures  []Failure
	Elapsed   time.Duration
}

// Converted returns the number of files that produced an artifact.
func (r BatchResult) Converted() int { return len(r.Artifacts) }

// Failed returns the number of files that produced no artifact.
func (r BatchResult) Failed() int { return len(r.Failures) }

// Total returns the total number of files processed.
func (r BatchResult) Total() int { return r.Converted() + r.Failed() }

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool { return len(r.Failures) > 0 }

// Pipeline converts a batch of source files with a bounded worker pool.
type Pipeline struct {
	Images  *ImageConverter
	Office  OfficeConverter
	Workers int
	Log     *slog.Logger
	Out     io.Writer
}

type slotResult struct {
	dst string
	err error
}

// Run converts files into ws. A failure on one file is logged, recorded in
// the result and does not stop the others. The only error Run returns is
// ctx.Err() when the run is cancelled.
func (p *Pipeline) Run(ctx context.Context, files []types.SourceFile, ws Workspace) (BatchResult, error) {
	log := p.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	out := p.Out
	if out == nil {
		out = io.Discard
	}
	images := p.Images
	if images == nil {
		images = NewImageConverter(log)
	}

	start := time.Now()
	results := make([]slotResult, len(files))
	var outMu sync.Mutex

	report := func(f types.SourceFile, err error) {
		outMu.Lock()
		defer outMu.Unlock()
		if err != nil {
			log.Error("conversion failed", "file", f.Name, "error", err)
			fmt.Fprintf(out, "failed:    %s (%v)\n", f.Name, err)
			return
		}
		log.Info("converted", "file", f.Name, "format", f.Format)
		fmt.Fprintf(out, "converted: %s\n", f.Name)
	}

	wp := pool.New().WithMaxGoroutines(clampWorkers(p.Workers))
	for i, f := range files {
		if ctx.Err() != nil {
			break
		}
		// Paths are assigned here, in input order, so stem suffixes do not
		// depend on scheduling.
		dst, err := ws.ArtifactPath(f.Path)
		if err != nil {
			results[i].err = fmt.Errorf("allocating output for %s: %w", f.Name, err)
			report(f, results[i].err)
			continue
		}
		results[i].dst = dst
		wp.Go(func() {
			if err := ctx.Err(); err != nil {
				results[i].err = err
				return
			}
			err := p.convertOne(ctx, images, f, dst)
			results[i].err = err
			report(f, err)
		})
	}
	wp.Wait()

	if err := ctx.Err(); err != nil {
		for _, r := range results {
			if r.dst != "" {
				os.Remove(r.dst)
			}
		}
		return BatchResult{}, err
	}

	res := BatchResult{Elapsed: time.Since(start)}
	for i, r := range results {
		if r.err != nil {
			res.Failures = append(res.Failures, Failure{Source: files[i], Err: r.err})
			continue
		}
		res.Artifacts = append(res.Artifacts, types.Artifact{Source: files[i], Path: r.dst})
	}
	fmt.Fprintf(out, "\nBatch summary: %d converted, %d failed (total: %d)\n",
		res.Converted(), res.Failed(), res.Total())
	return res, nil
}

// convertOne routes f and writes its PDF to dst. A partial output is
// removed on failure, including when a converter panics on malformed input.
func (p *Pipeline) convertOne(ctx context.Context, images *ImageConverter, f types.SourceFile, dst string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			os.Remove(dst)
			err = fmt.Errorf("%w: %s: %v", ErrConverterPanic, f.Name, r)
		}
	}()
	format, err := Route(f.Path)
	if err != nil {
		return err
	}
	switch format {
	case types.FormatImage:
		err = images.Convert(ctx, f.Path, dst)
	case types.FormatWord, types.FormatSpreadsheet:
		if p.Office == nil {
			return fmt.Errorf("%w: %s", errNoOfficeConverter, f.Name)
		}
		err = p.Office.Convert(ctx, format, f.Path, dst)
	case types.FormatPDF:
		err = CopyPDF(f.Path, dst)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		os.Remove(dst)
	}
	return err
}

func clampWorkers(n int) int {
	switch {
	case n <= 0:
		return types.DefaultWorkers
	case n > types.MaxWorkers:
		return types.MaxWorkers
	}
	return n
}
