package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// FileHelpers provides utilities for working with test files
type FileHelpers struct{}

// NewFileHelpers creates a new file helpers instance
func NewFileHelpers() *FileHelpers {
	return &FileHelpers{}
}

// CreateTempFile creates a temporary file with given content
func (f *FileHelpers) CreateTempFile(t *testing.T, filename, content string) string {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, filename)

	err := os.WriteFile(filePath, []byte(content), 0644)
	require.NoError(t, err, "Should create temp file successfully")

	return filePath
}

// CreateTempDir creates a temporary directory structure. Keys ending in "/"
// create empty directories.
func (f *FileHelpers) CreateTempDir(t *testing.T, files map[string]string) string {
	tmpDir := t.TempDir()
	populate(t, afero.NewOsFs(), tmpDir, files)
	return tmpDir
}

// CreateMemTree builds the same structure in an in-memory file system rooted at root.
func (f *FileHelpers) CreateMemTree(t *testing.T, root string, files map[string]string) afero.Fs {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(root, 0755))
	populate(t, fs, root, files)
	return fs
}

func populate(t *testing.T, fs afero.Fs, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, name)
		if name[len(name)-1] == '/' {
			require.NoError(t, fs.MkdirAll(path, 0755), "Should create directory %s", path)
			continue
		}
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755), "Should create directory for %s", name)
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0644), "Should create file %s", name)
	}
}
