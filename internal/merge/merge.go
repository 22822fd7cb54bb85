// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge concatenates the pages of several PDFs into one document.
// Sources that cannot be parsed are skipped; the destination is written
// through a temporary file so it is never observed half-written.
package merge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/pdiddy/pdf-consolidator/internal/pdfcfg"
)

var (
	// ErrSourceUnreadable is recorded for a source that is missing,
	// unparseable or has no pages.
	ErrSourceUnreadable = errors.New("source PDF unreadable")

	// ErrNoReadableSources means every source was skipped.
	ErrNoReadableSources = errors.New("no readable source PDFs")

	// ErrWriteFailed means the destination could not be created, written
	// or moved into place.
	ErrWriteFailed = errors.New("writing merged PDF failed")
)

// Options configures Merge.
type Options struct {
	// Log receives one warning per skipped source. Nil discards.
	Log *slog.Logger
}

// Skip is a source left out of the merged document.
type Skip struct {
	Path string
	Err  error
}

// Result describes a merged document.
type Result struct {
	// Pages is the page count of the destination.
	Pages int
	// Merged lists the sources that made it into the output, in order.
	Merged []string
	// Skipped lists the sources left out.
	Skipped []Skip
}

// Merge writes the pages of paths, in order, to dst. Unreadable sources are
// skipped and reported in the result. Errors from the destination wrap
// ErrWriteFailed.
func Merge(ctx context.Context, paths []string, dst string, opts Options) (Result, error) {
	log := opts.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	conf := pdfcfg.New()

	var (
		res     Result
		sources [][]byte
	)
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		data, pages, err := readSource(p)
		if err != nil {
			err = fmt.Errorf("%w: %s: %w", ErrSourceUnreadable, filepath.Base(p), err)
			log.Warn("skipping unreadable source", "file", filepath.Base(p), "error", err)
			res.Skipped = append(res.Skipped, Skip{Path: p, Err: err})
			continue
		}
		sources = append(sources, data)
		res.Merged = append(res.Merged, p)
		res.Pages += pages
	}
	if len(sources) == 0 {
		return res, ErrNoReadableSources
	}

	var out []byte
	if len(sources) == 1 {
		out = sources[0]
	} else {
		rsc := make([]io.ReadSeeker, len(sources))
		for i, data := range sources {
			rsc[i] = bytes.NewReader(data)
		}
		var buf bytes.Buffer
		err := safely("merging", func() error { return api.MergeRaw(rsc, &buf, false, conf) })
		if err != nil {
			return res, fmt.Errorf("merging %d sources: %w", len(sources), err)
		}
		out = buf.Bytes()
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := writeAtomic(dst, out); err != nil {
		return res, fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	log.Info("merged PDF written", "path", dst, "pages", res.Pages,
		"sources", len(res.Merged), "skipped", len(res.Skipped))
	return res, nil
}

// readSource loads a PDF and returns its bytes and page count after
// validating it in relaxed mode.
func readSource(path string) ([]byte, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}
	conf := pdfcfg.New()
	var n int
	err = safely("validating", func() error {
		if err := api.Validate(bytes.NewReader(data), conf); err != nil {
			return err
		}
		n, err = api.PageCount(bytes.NewReader(data), conf)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	if n == 0 {
		return nil, 0, errors.New("document has no pages")
	}
	return data, n, nil
}

// safely runs fn and turns a panic raised while parsing malformed input
// into an error.
func safely(op string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: malformed PDF: %v", op, r)
		}
	}()
	return fn()
}

// writeAtomic writes data to a temporary file beside dst and renames it
// into place.
func writeAtomic(dst string, data []byte) error {
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(name)
		return fmt.Errorf("syncing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Chmod(name, 0o644); err != nil {
		os.Remove(name)
		return fmt.Errorf("setting permissions on %s: %w", name, err)
	}
	if err := os.Rename(name, dst); err != nil {
		os.Remove(name)
		return fmt.Errorf("moving into place: %w", err)
	}
	return nil
}
