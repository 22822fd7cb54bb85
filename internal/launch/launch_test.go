// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package launch

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockExecutor struct {
	missing bool
	started [][]string
}

func (m *mockExecutor) LookPath(file string) (string, error) {
	if m.missing {
		return "", errors.New("not found: " + file)
	}
	return "/usr/bin/" + file, nil
}

func (m *mockExecutor) Start(name string, args ...string) error {
	m.started = append(m.started, append([]string{name}, args...))
	return nil
}

func TestOpenFolder(t *testing.T) {
	tests := []struct {
		goos string
		want string
	}{
		{"linux", "xdg-open"},
		{"darwin", "open"},
		{"windows", "explorer"},
		{"freebsd", "xdg-open"},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			m := &mockExecutor{}
			dir := filepath.Join(t.TempDir(), "data", "output")
			o := &Opener{goos: tt.goos, exec: m}

			got, err := o.OpenFolder(dir)
			require.NoError(t, err)
			assert.Equal(t, dir, got)
			assert.DirExists(t, dir)
			assert.Equal(t, [][]string{{tt.want, dir}}, m.started)
		})
	}
}

func TestOpenFolderNoLauncher(t *testing.T) {
	m := &mockExecutor{missing: true}
	dir := t.TempDir()
	got, err := (&Opener{goos: "linux", exec: m}).OpenFolder(dir)
	assert.Error(t, err)
	assert.Equal(t, dir, got)
	assert.Empty(t, m.started)
}
