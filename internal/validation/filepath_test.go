package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathValidator_Clean(t *testing.T) {
	v := NewPermissivePathValidator()
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	wd, err := os.Getwd()
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
		errMsg   string
	}{
		{name: "absolute", input: "/var/lib/kiosk/kiosk.db", expected: "/var/lib/kiosk/kiosk.db"},
		{name: "tilde", input: "~/.kiosk/kiosk.db", expected: filepath.Join(home, ".kiosk", "kiosk.db")},
		{name: "relative", input: "data/kiosk.db", expected: filepath.Join(wd, "data", "kiosk.db")},
		{name: "redundant slashes", input: "/tmp//kiosk/./x", expected: "/tmp/kiosk/x"},
		{name: "empty", input: "", errMsg: "cannot be empty"},
		{name: "traversal", input: "/tmp/../etc/passwd", errMsg: "traversal"},
		{name: "null byte", input: "/tmp/a\x00b", errMsg: "control characters"},
		{name: "newline", input: "/tmp/a\nb", errMsg: "control characters"},
		{name: "other user", input: "~root/.kiosk", errMsg: "only ~/"},
		{name: "too long", input: "/" + strings.Repeat("a", 5000), errMsg: "too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Clean(tt.input)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPathValidator_BaseDirs(t *testing.T) {
	base := t.TempDir()
	v := &PathValidator{AllowedBaseDirs: []string{base}, MaxPathLength: 4096}

	got, err := v.Clean(filepath.Join(base, "index.bleve"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "index.bleve"), got)

	_, err = v.Clean(base)
	assert.NoError(t, err)

	_, err = v.Clean(filepath.Dir(base))
	assert.ErrorContains(t, err, "not within allowed directories")

	_, err = v.Clean(base + "-sibling")
	assert.ErrorContains(t, err, "not within allowed directories")
}

func TestPathValidator_SecureDefaults(t *testing.T) {
	v := NewPathValidator()
	require.Len(t, v.AllowedBaseDirs, 3)

	_, err := v.Clean(filepath.Join(os.TempDir(), "kiosk-test.db"))
	assert.NoError(t, err)

	_, err = v.Clean("/etc/kiosk.db")
	assert.Error(t, err)
}

func TestPathValidator_EnsureDir(t *testing.T) {
	v := NewPermissivePathValidator()
	dir := filepath.Join(t.TempDir(), "a", "b")

	got, err := v.EnsureDir(dir)
	require.NoError(t, err)
	assert.DirExists(t, got)

	// existing directory is fine
	_, err = v.EnsureDir(dir)
	assert.NoError(t, err)

	file := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = v.EnsureDir(file)
	assert.ErrorContains(t, err, "not a directory")
}

func TestPathValidator_File(t *testing.T) {
	v := NewPermissivePathValidator()
	root := t.TempDir()

	got, err := v.File(filepath.Join(root, "nested", "kiosk.db"))
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(root, "nested"))
	assert.Equal(t, filepath.Join(root, "nested", "kiosk.db"), got)

	_, err = v.File(root)
	assert.ErrorContains(t, err, "is a directory")
}
