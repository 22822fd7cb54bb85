// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workspace

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireClearsLeftovers(t *testing.T) {
	base := filepath.Join(t.TempDir(), "temp")
	stale := filepath.Join(base, "run-123")
	require.NoError(t, os.MkdirAll(stale, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(stale, "stale.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(base, "notes.txt"), []byte("x"), 0o644))

	ws, err := Acquire(base, nil)
	require.NoError(t, err)
	defer ws.Release()

	assert.NoDirExists(t, stale)
	assert.FileExists(t, filepath.Join(base, "notes.txt"), "only run directories are removed")
	entries, err := os.ReadDir(ws.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.True(t, filepath.IsAbs(ws.Dir()))
	assert.Equal(t, ws.Base(), filepath.Dir(ws.Dir()))
}

func TestAcquireRejectsUnsafeBase(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "data", "input")
	output := filepath.Join(root, "data", "output")
	require.NoError(t, os.MkdirAll(input, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(input, "a.pdf"), []byte("x"), 0o644))
	wd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name string
		base string
	}{
		{"empty", ""},
		{"blank", "  "},
		{"working directory", "."},
		{"parent of working directory", filepath.Dir(wd)},
		{"filesystem root", string(filepath.Separator)},
		{"input folder", input},
		{"parent of input", filepath.Join(root, "data")},
		{"output folder", output},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ws, err := Acquire(tt.base, nil, input, output)
			if ws != nil {
				ws.Release()
			}
			assert.ErrorIs(t, err, ErrUnsafeDir)
			assert.FileExists(t, filepath.Join(input, "a.pdf"))
		})
	}

	ws, err := Acquire(filepath.Join(root, "temp"), nil, input, output)
	require.NoError(t, err)
	require.NoError(t, ws.Release())

	inside, err := Acquire(filepath.Join(input, "scratch"), nil, input, output)
	require.NoError(t, err, "a base below a protected folder cannot reach it")
	require.NoError(t, inside.Release())
	assert.FileExists(t, filepath.Join(input, "a.pdf"))
}

func TestAcquireBusy(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "temp")
	first, err := Acquire(dir, nil)
	require.NoError(t, err)

	_, err = Acquire(dir, nil)
	assert.ErrorIs(t, err, ErrBusy)

	require.NoError(t, first.Release())
	second, err := Acquire(dir, nil)
	require.NoError(t, err)
	require.NoError(t, second.Release())
}

func TestArtifactPathDedupes(t *testing.T) {
	ws, err := Acquire(filepath.Join(t.TempDir(), "temp"), nil)
	require.NoError(t, err)
	defer ws.Release()

	tests := []struct {
		src  string
		want string
	}{
		{"/in/a.jpg", "a.pdf"},
		{"/in/a.pdf", "a-2.pdf"},
		{"/in/A.docx", "A-3.pdf"},
		{"/in/b.tiff", "b.pdf"},
		{"/in/a-2.png", "a-2-2.pdf"},
	}
	for _, tt := range tests {
		got, err := ws.ArtifactPath(tt.src)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(ws.Dir(), tt.want), got, tt.src)
	}

	_, err = ws.ArtifactPath("/in/.pdf")
	assert.Error(t, err)
}

func TestReleaseRemovesScratch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "temp")
	ws, err := Acquire(dir, nil)
	require.NoError(t, err)
	p, err := ws.ArtifactPath("x.png")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(p, []byte("%PDF"), 0o644))

	require.NoError(t, ws.Release())
	assert.NoDirExists(t, ws.Dir())
	assert.DirExists(t, dir, "the base is kept")
	require.NoError(t, ws.Release())
}

func TestClearInput(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested", "deep"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "deep", "b.png"), []byte("x"), 0o644))

	require.NoError(t, ClearInput(dir))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.DirExists(t, dir)

	assert.NoError(t, ClearInput(filepath.Join(dir, "missing")))
}

func TestClearInputWarning(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}
	dir := t.TempDir()
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.MkdirAll(locked, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(locked, "f.pdf"), []byte("x"), 0o644))
	require.NoError(t, os.Chmod(locked, 0o555))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	err := ClearInput(dir)
	assert.ErrorIs(t, err, ErrCleanupWarning)
}
