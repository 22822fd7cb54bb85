// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package office

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pdiddy/pdf-consolidator/pkg/types"
)

// SessionConfig bounds the work a Session does per document.
type SessionConfig struct {
	// Timeout bounds one export. Zero means types.DefaultOfficeTimeout.
	Timeout time.Duration

	// LaunchRetries is the number of extra launch attempts.
	LaunchRetries int
}

// slot holds the instance for one kind. mu is held for the whole export, so
// at most one document is in flight per instance.
type slot struct {
	mu   sync.Mutex
	inst Instance
}

// Session is the run-scoped owner of office instances. Create one per run
// and Close it on every exit path.
type Session struct {
	exp Exporter
	cfg SessionConfig
	log *slog.Logger

	availOnce sync.Once
	availErr  error

	slots [numKinds]slot

	mu     sync.Mutex
	closed bool
}

// NewSession returns a Session backed by exp. A nil exporter yields a session
// whose conversions all fail with ErrRuntimeUnavailable.
func NewSession(exp Exporter, cfg SessionConfig, log *slog.Logger) *Session {
	if cfg.Timeout <= 0 {
		cfg.Timeout = types.DefaultOfficeTimeout
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Session{exp: exp, cfg: cfg, log: log}
}

// Available reports whether the office runtime can be used. The check runs
// once; later calls return the memoized result.
func (s *Session) Available(ctx context.Context) error {
	s.availOnce.Do(func() {
		if s.exp == nil {
			s.availErr = fmt.Errorf("%w: office conversion is disabled", ErrRuntimeUnavailable)
			return
		}
		if err := s.exp.Available(ctx); err != nil {
			if !errors.Is(err, ErrRuntimeUnavailable) {
				err = fmt.Errorf("%w: %w", ErrRuntimeUnavailable, err)
			}
			s.availErr = err
			return
		}
		s.log.Info("office runtime available", "backend", s.exp.Name())
	})
	return s.availErr
}

// Convert exports the office document at src to dst. Errors are per file:
// ErrRuntimeUnavailable when the runtime is missing, ErrConversionFailed for
// everything else.
func (s *Session) Convert(ctx context.Context, format types.Format, src, dst string) error {
	kind, ok := KindFor(format)
	if !ok {
		return fmt.Errorf("%w: %s is not an office format", ErrConversionFailed, format)
	}
	if err := s.Available(ctx); err != nil {
		return err
	}

	name := filepath.Base(src)
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConversionFailed, name, err)
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConversionFailed, name, err)
	}
	if err := preflight(absSrc); err != nil {
		s.log.Error("office preflight failed", "file", name, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrConversionFailed, name, err)
	}

	sl := &s.slots[kind]
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if s.isClosed() {
		return fmt.Errorf("%w: %s: session closed", ErrConversionFailed, name)
	}
	if sl.inst == nil {
		inst, err := launchWithRetry(ctx, s.cfg.LaunchRetries, func(ctx context.Context) (Instance, error) {
			return s.exp.Launch(ctx, kind)
		})
		if err != nil {
			s.log.Error("launching office instance", "kind", kind, "error", err)
			return fmt.Errorf("%w: %s: launching %s: %w", ErrConversionFailed, name, kind, err)
		}
		s.log.Info("office instance started", "kind", kind, "backend", s.exp.Name())
		sl.inst = inst
	}

	ectx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	start := time.Now()
	err = sl.inst.Export(ectx, absSrc, absDst)
	if err == nil {
		err = checkOutput(absDst)
	}
	if err != nil {
		if errors.Is(ectx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", s.cfg.Timeout, err)
		}
		if ectx.Err() != nil || errors.Is(err, ErrInstanceDead) {
			s.teardown(kind, sl)
		}
		os.Remove(absDst)
		s.log.Error("office export failed", "file", name, "kind", kind, "error", err)
		return fmt.Errorf("%w: %s: %w", ErrConversionFailed, name, err)
	}

	s.log.Info("office export done", "file", name, "kind", kind, "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// Close quits every running instance. Quit failures are logged and
// swallowed: the outcome of a run never depends on a clean shutdown.
func (s *Session) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	for k := range s.slots {
		sl := &s.slots[k]
		sl.mu.Lock()
		s.teardown(Kind(k), sl)
		sl.mu.Unlock()
	}
	return nil
}

func (s *Session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// teardown quits the instance in sl. The caller holds sl.mu.
func (s *Session) teardown(kind Kind, sl *slot) {
	if sl.inst == nil {
		return
	}
	if err := sl.inst.Quit(); err != nil {
		s.log.Warn("office instance did not quit cleanly", "kind", kind, "error", err)
	} else {
		s.log.Info("office instance stopped", "kind", kind)
	}
	sl.inst = nil
}

// checkOutput verifies that the export left a non-empty file at dst.
func checkOutput(dst string) error {
	info, err := os.Stat(dst)
	if err != nil {
		return fmt.Errorf("no output produced: %w", err)
	}
	if info.Size() == 0 {
		return errors.New("empty output produced")
	}
	return nil
}
