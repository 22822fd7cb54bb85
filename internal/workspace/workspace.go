// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workspace owns the scratch directory where converted artifacts
// live during a run, and the post-success cleanup of the input folder.
package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

var (
	// ErrBusy means another run holds the scratch area.
	ErrBusy = errors.New("workspace is in use by another run")

	// ErrUnsafeDir means the scratch base would overlap the working
	// directory, a filesystem root, or a folder holding user documents.
	ErrUnsafeDir = errors.New("unsafe workspace directory")

	// ErrCleanupWarning wraps failures to clear the input folder. The run
	// itself has succeeded; callers report it as a warning.
	ErrCleanupWarning = errors.New("input folder not fully cleared")
)

const (
	runPrefix = "run-"
	lockName  = ".consolidator.lock"
)

// Workspace is a scratch directory created under an exclusively locked
// base. Every path it hands out is inside Dir. Release removes Dir and
// drops the lock; the base itself is never removed.
type Workspace struct {
	base string
	dir  string
	lock *flock.Flock
	log  *slog.Logger

	mu   sync.Mutex
	used map[string]bool

	releaseOnce sync.Once
	releaseErr  error
}

// Acquire locks base for this run and creates a fresh run directory inside
// it. Run directories left by an earlier crash are removed; nothing else in
// base is touched. base must not be empty, a filesystem root, the working
// directory, or equal to or a parent of any of the protected paths.
func Acquire(base string, log *slog.Logger, protected ...string) (*Workspace, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	abs, err := checkBase(base, protected)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", abs, err)
	}

	lock := flock.New(filepath.Join(abs, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking workspace %s: %w", abs, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBusy, abs)
	}

	removeStale(abs, log)
	dir, err := os.MkdirTemp(abs, runPrefix)
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("creating workspace in %s: %w", abs, err)
	}
	log.Debug("workspace acquired", "dir", dir)
	return &Workspace{base: abs, dir: dir, lock: lock, log: log, used: map[string]bool{}}, nil
}

// checkBase resolves base and rejects locations whose cleanup could reach
// user files.
func checkBase(base string, protected []string) (string, error) {
	if strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("%w: empty path", ErrUnsafeDir)
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolving workspace %s: %w", base, err)
	}
	if filepath.Dir(abs) == abs {
		return "", fmt.Errorf("%w: %s is a filesystem root", ErrUnsafeDir, abs)
	}
	if wd, err := os.Getwd(); err == nil && within(wd, abs) {
		return "", fmt.Errorf("%w: %s contains the working directory", ErrUnsafeDir, abs)
	}
	for _, p := range protected {
		if strings.TrimSpace(p) == "" {
			continue
		}
		pa, err := filepath.Abs(p)
		if err != nil {
			return "", fmt.Errorf("resolving %s: %w", p, err)
		}
		if within(pa, abs) {
			return "", fmt.Errorf("%w: %s contains %s", ErrUnsafeDir, abs, pa)
		}
	}
	return abs, nil
}

// within reports whether path equals dir or lies below it.
func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// removeStale deletes run directories left behind by an interrupted run.
// The caller holds the lock, so none of them belongs to a live run.
func removeStale(base string, log *slog.Logger) {
	entries, err := os.ReadDir(base)
	if err != nil {
		log.Warn("reading workspace base", "dir", base, "error", err)
		return
	}
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), runPrefix) {
			continue
		}
		stale := filepath.Join(base, e.Name())
		if err := os.RemoveAll(stale); err != nil {
			log.Warn("removing stale workspace", "dir", stale, "error", err)
		}
	}
}

// Dir returns the absolute scratch directory of this run.
func (w *Workspace) Dir() string { return w.dir }

// Base returns the absolute locked base directory.
func (w *Workspace) Base() string { return w.base }

// ArtifactPath returns the path for the PDF converted from src. The name is
// the source stem with a .pdf extension; a stem seen before in this run
// gets a -2, -3, ... suffix.
func (w *Workspace) ArtifactPath(src string) (string, error) {
	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return "", fmt.Errorf("no artifact name for %q", src)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	name := stem + ".pdf"
	for n := 2; w.used[strings.ToLower(name)]; n++ {
		name = stem + "-" + strconv.Itoa(n) + ".pdf"
	}
	w.used[strings.ToLower(name)] = true
	return filepath.Join(w.dir, name), nil
}

// Release removes the run directory and unlocks the base. It is safe to
// call more than once.
func (w *Workspace) Release() error {
	w.releaseOnce.Do(func() {
		if err := os.RemoveAll(w.dir); err != nil {
			w.log.Warn("removing workspace", "dir", w.dir, "error", err)
			w.releaseErr = fmt.Errorf("removing workspace %s: %w", w.dir, err)
		}
		if err := w.lock.Unlock(); err != nil && w.releaseErr == nil {
			w.releaseErr = fmt.Errorf("unlocking workspace %s: %w", w.dir, err)
		}
		w.log.Debug("workspace released", "dir", w.dir)
	})
	return w.releaseErr
}

// ClearInput removes every entry inside dir and keeps dir itself. A missing
// directory is not an error. Entries that cannot be removed are reported
// together under ErrCleanupWarning.
func ClearInput(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrCleanupWarning, err)
	}
	var errs []error
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrCleanupWarning, errors.Join(errs...))
	}
	return nil
}
