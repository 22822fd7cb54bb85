// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package office

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockExecutor simulates LibreOffice: a --convert-to call writes
// <stem>.pdf into the --outdir directory.
type mockExecutor struct {
	lookErr   error
	versionOK bool
	hang      bool
	convErr   error
	exitOnRun bool

	started [][]string
	outputs [][]string
	proc    *mockProcess
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.lookErr != nil {
		return "", m.lookErr
	}
	return "/usr/bin/" + file, nil
}

func (m *mockExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.outputs = append(m.outputs, append([]string{name}, args...))
	if len(args) == 1 && args[0] == "--version" {
		if m.hang {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		if m.versionOK {
			return []byte("LibreOffice 24.2.0.3"), nil
		}
		return []byte("error while loading shared libraries"), errors.New("exit status 127")
	}
	if m.convErr != nil {
		if m.exitOnRun {
			m.proc.exited = true
		}
		return []byte("Error: source file could not be loaded"), m.convErr
	}
	var outdir, src string
	for i, a := range args {
		if a == "--outdir" && i+1 < len(args) {
			outdir = args[i+1]
		}
	}
	src = args[len(args)-1]
	base := filepath.Base(src)
	out := filepath.Join(outdir, strings.TrimSuffix(base, filepath.Ext(base))+".pdf")
	return []byte("convert " + src), os.WriteFile(out, []byte("%PDF-1.7"), 0o644)
}

func (m *mockExecutor) Start(name string, args ...string) (process, error) {
	m.started = append(m.started, append([]string{name}, args...))
	m.proc = &mockProcess{}
	return m.proc, nil
}

type mockProcess struct {
	exited  bool
	stopped bool
}

func (p *mockProcess) Exited() bool { return p.exited }

func (p *mockProcess) Stop() error {
	p.stopped = true
	p.exited = true
	return nil
}

func TestSofficeAvailable(t *testing.T) {
	tests := []struct {
		name    string
		exec    *mockExecutor
		wantErr bool
	}{
		{"installed", &mockExecutor{versionOK: true}, false},
		{"missing binary", &mockExecutor{lookErr: errors.New("not found")}, true},
		{"broken install", &mockExecutor{}, true},
		{"hung binary", &mockExecutor{hang: true}, true},
	}
	saved := probeTimeout
	probeTimeout = 20 * time.Millisecond
	t.Cleanup(func() { probeTimeout = saved })
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Soffice{bin: "soffice", exec: tt.exec}
			err := s.Available(context.Background())
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrRuntimeUnavailable)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSofficeLaunchAndExport(t *testing.T) {
	dir := t.TempDir()
	m := &mockExecutor{versionOK: true}
	s := &Soffice{bin: "soffice", exec: m}

	inst, err := s.Launch(context.Background(), Calc)
	require.NoError(t, err)
	require.Len(t, m.started, 1)
	assert.Contains(t, m.started[0], "--headless")
	env := m.started[0][1]
	assert.True(t, strings.HasPrefix(env, "-env:UserInstallation=file://"), env)

	src := filepath.Join(dir, "budget.xlsx")
	dst := filepath.Join(dir, "scratch", "0001.pdf")
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, inst.Export(context.Background(), src, dst))
	assert.FileExists(t, dst)

	call := m.outputs[len(m.outputs)-1]
	assert.Contains(t, call, "pdf:calc_pdf_Export")
	assert.Equal(t, env, call[1], "export must reuse the instance profile")

	profile := strings.TrimPrefix(env, "-env:UserInstallation=file://")
	require.NoError(t, inst.Quit())
	assert.True(t, m.proc.stopped)
	assert.NoDirExists(t, filepath.FromSlash(profile))
}

func TestSofficeExportFailures(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "out.pdf")
	src := filepath.Join(dir, "memo.docx")

	t.Run("conversion error", func(t *testing.T) {
		m := &mockExecutor{convErr: errors.New("exit status 1")}
		inst, err := (&Soffice{bin: "soffice", exec: m}).Launch(context.Background(), Writer)
		require.NoError(t, err)
		defer inst.Quit()

		err = inst.Export(context.Background(), src, dst)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInstanceDead)
		assert.Contains(t, err.Error(), "could not be loaded")
	})

	t.Run("process died", func(t *testing.T) {
		m := &mockExecutor{convErr: errors.New("signal: killed"), exitOnRun: true}
		inst, err := (&Soffice{bin: "soffice", exec: m}).Launch(context.Background(), Writer)
		require.NoError(t, err)
		defer inst.Quit()

		err = inst.Export(context.Background(), src, dst)
		assert.ErrorIs(t, err, ErrInstanceDead)
	})

	t.Run("already exited", func(t *testing.T) {
		m := &mockExecutor{}
		inst, err := (&Soffice{bin: "soffice", exec: m}).Launch(context.Background(), Writer)
		require.NoError(t, err)
		defer inst.Quit()
		m.proc.exited = true

		err = inst.Export(context.Background(), src, dst)
		assert.ErrorIs(t, err, ErrInstanceDead)
	})
}

func TestCollectMissingOutput(t *testing.T) {
	stage := t.TempDir()
	err := collect(stage, "/in/report.docx", filepath.Join(stage, "x.pdf"))
	assert.ErrorContains(t, err, "no PDF produced for report.docx")
}

func TestFileURL(t *testing.T) {
	assert.Equal(t, "file:///tmp/lo%20profile", fileURL("/tmp/lo profile"))
}

func TestKindFilter(t *testing.T) {
	assert.Equal(t, "pdf:writer_pdf_Export", Writer.filter())
	assert.Equal(t, "pdf:calc_pdf_Export", Calc.filter())
	assert.Equal(t, "writer", Writer.String())
	assert.Equal(t, "calc", Calc.String())
}
