// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package launch opens folders in the desktop file manager.
package launch

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Start(name string, args ...string) error
}

type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) { return exec.LookPath(file) }

func (osExecutor) Start(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	// The file manager outlives us; reap it in the background.
	go cmd.Wait()
	return nil
}

// Opener opens folders with the platform's file manager.
type Opener struct {
	goos string
	exec executor
}

// NewOpener returns an Opener for the running platform.
func NewOpener() *Opener {
	return &Opener{goos: runtime.GOOS, exec: osExecutor{}}
}

// OpenFolder creates path if needed and opens it in the file manager. It
// returns the absolute path that was opened.
func (o *Opener) OpenFolder(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", abs, err)
	}

	bin := opener(o.goos)
	if _, err := o.exec.LookPath(bin); err != nil {
		return abs, fmt.Errorf("no file manager launcher (%s) on PATH: %w", bin, err)
	}
	if err := o.exec.Start(bin, abs); err != nil {
		return abs, fmt.Errorf("opening %s with %s: %w", abs, bin, err)
	}
	return abs, nil
}

func opener(goos string) string {
	switch goos {
	case "windows":
		return "explorer"
	case "darwin":
		return "open"
	}
	return "xdg-open"
}
