package services

import (
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"hostkit/pkg/hosttypes"
)

// FileSystemService is the local-file capability backed by an afero filesystem.
type FileSystemService struct {
	fs afero.Fs
}

// NewFileSystemService wraps fs. A nil fs means the OS filesystem.
func NewFileSystemService(fs afero.Fs) *FileSystemService {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &FileSystemService{fs: fs}
}

// Name returns the service name "local-file" for registration.
func (s *FileSystemService) Name() string {
	return "local-file"
}

// Initialize is a no-op.
func (s *FileSystemService) Initialize() error {
	return nil
}

// Fs returns the underlying filesystem.
func (s *FileSystemService) Fs() afero.Fs {
	return s.fs
}

// Stat follows symlinks.
func (s *FileSystemService) Stat(path string) (os.FileInfo, error) {
	return s.fs.Stat(path)
}

// Lstat does not follow symlinks when the filesystem supports it.
func (s *FileSystemService) Lstat(path string) (os.FileInfo, error) {
	if l, ok := s.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return s.fs.Stat(path)
}

// OpenFile opens path with os.O_* flags.
func (s *FileSystemService) OpenFile(path string, flag int, perm os.FileMode) (hosttypes.File, error) {
	f, err := s.fs.OpenFile(path, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Mkdir creates a single directory.
func (s *FileSystemService) Mkdir(path string, perm os.FileMode) error {
	return s.fs.Mkdir(path, perm)
}

// MkdirAll creates path and any missing parents.
func (s *FileSystemService) MkdirAll(path string, perm os.FileMode) error {
	return s.fs.MkdirAll(path, perm)
}

// Remove deletes a file or empty directory.
func (s *FileSystemService) Remove(path string) error {
	return s.fs.Remove(path)
}

// RemoveAll deletes path and its children.
func (s *FileSystemService) RemoveAll(path string) error {
	return s.fs.RemoveAll(path)
}

// ReadDir lists a directory sorted by name.
func (s *FileSystemService) ReadDir(path string) ([]os.FileInfo, error) {
	return afero.ReadDir(s.fs, path)
}

// Abs returns an absolute, cleaned path.
func (s *FileSystemService) Abs(path string) (string, error) {
	if _, ok := s.fs.(*afero.MemMapFs); ok {
		if filepath.IsAbs(path) {
			return filepath.Clean(path), nil
		}
		return filepath.Join(string(filepath.Separator), path), nil
	}
	return filepath.Abs(path)
}
