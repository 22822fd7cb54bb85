// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package office

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// probeTimeout bounds the availability check. A first start of LibreOffice
// can take a while to build its profile.
var probeTimeout = 30 * time.Second

// Soffice exports documents with a local LibreOffice installation. Each
// launched instance runs headless with a private profile; conversions are
// submitted with the same profile so the running instance handles them
// instead of a fresh process starting per document.
type Soffice struct {
	bin  string
	exec executor
}

// NewSoffice returns an exporter that runs the LibreOffice binary bin
// ("soffice" when empty).
func NewSoffice(bin string) *Soffice {
	if bin == "" {
		bin = "soffice"
	}
	return &Soffice{bin: bin, exec: osExecutor{}}
}

func (s *Soffice) Name() string { return "soffice" }

func (s *Soffice) Available(ctx context.Context) error {
	if _, err := s.exec.LookPath(s.bin); err != nil {
		return fmt.Errorf("%w: %s not found: %w", ErrRuntimeUnavailable, s.bin, err)
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if out, err := s.exec.Output(ctx, s.bin, "--version"); err != nil {
		return fmt.Errorf("%w: %s --version: %w: %s", ErrRuntimeUnavailable, s.bin, err, tail(out))
	}
	return nil
}

func (s *Soffice) Launch(ctx context.Context, kind Kind) (Instance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	profile, err := os.MkdirTemp("", "consolidator-"+kind.String()+"-")
	if err != nil {
		return nil, fmt.Errorf("creating office profile: %w", err)
	}
	inst := &sofficeInstance{
		bin:     s.bin,
		exec:    s.exec,
		kind:    kind,
		profile: profile,
		env:     "-env:UserInstallation=" + fileURL(profile),
	}
	proc, err := s.exec.Start(s.bin, inst.env,
		"--headless", "--invisible", "--nologo", "--norestore", "--nodefault", "--nolockcheck")
	if err != nil {
		os.RemoveAll(profile)
		return nil, fmt.Errorf("starting %s: %w", s.bin, err)
	}
	inst.proc = proc
	return inst, nil
}

type sofficeInstance struct {
	bin     string
	exec    executor
	kind    Kind
	profile string
	env     string
	proc    process
}

func (i *sofficeInstance) Export(ctx context.Context, src, dst string) error {
	if i.proc.Exited() {
		return fmt.Errorf("%w: %s exited", ErrInstanceDead, i.bin)
	}
	stage, err := stageDir(dst, i.kind)
	if err != nil {
		return err
	}
	out, err := i.exec.Output(ctx, i.bin, i.env, "--headless",
		"--convert-to", i.kind.filter(), "--outdir", stage, src)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if i.proc.Exited() {
			return fmt.Errorf("%w: %s exited during export: %w", ErrInstanceDead, i.bin, err)
		}
		return fmt.Errorf("%s: %w: %s", i.bin, err, tail(out))
	}
	return collect(stage, src, dst)
}

func (i *sofficeInstance) Quit() error {
	err := i.proc.Stop()
	if rmErr := os.RemoveAll(i.profile); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

// stageDir returns a private output directory next to dst. LibreOffice names
// its output after the source, which could collide with another artifact in
// the scratch area, so the file is written here first and then moved.
func stageDir(dst string, kind Kind) (string, error) {
	dir := filepath.Join(filepath.Dir(dst), ".office-"+kind.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating staging directory: %w", err)
	}
	return dir, nil
}

// collect moves the PDF LibreOffice wrote for src from stage to dst.
func collect(stage, src, dst string) error {
	base := filepath.Base(src)
	produced := filepath.Join(stage, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
	if _, err := os.Stat(produced); err != nil {
		return fmt.Errorf("no PDF produced for %s", base)
	}
	if err := os.Rename(produced, dst); err != nil {
		return fmt.Errorf("moving exported PDF: %w", err)
	}
	return nil
}

// fileURL renders an absolute path as a file:// URL, which is the form
// LibreOffice expects for UserInstallation on every platform.
func fileURL(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// tail returns the last line of command output for error messages.
func tail(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return s
}
