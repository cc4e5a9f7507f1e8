package hostkit

import (
	"os"
	"path/filepath"
	"strings"

	"hostkit/pkg/hosttypes"
)

// Entry is one node of a directory listing. Children is set for directories
// that were descended into.
type Entry struct {
	Path     string
	IsDir    bool
	Children []Entry
}

// Dir wraps directory operations of the local-file capability.
type Dir struct {
	k *Kit
}

func (d *Dir) file() *File {
	return d.k.File
}

// GetFile returns the directory at path. With autoCreate a missing directory
// and its parents are created with DirDefaultPerms.
func (d *Dir) GetFile(path string, autoCreate bool) (*LocalFile, error) {
	const op = "Dir.GetFile"
	path = cleanPath(path)
	if path == "" {
		return nil, invalid(op, "path is required")
	}

	f := d.file()
	info, err := f.stat(op, path)
	if err == nil {
		if !info.IsDir() {
			return nil, hosttypes.NewError(op, hosttypes.KindNotADirectory, "not a directory").WithPath(path)
		}
		return &LocalFile{Path: path, Info: info}, nil
	}
	if !autoCreate || hosttypes.KindOf(err) != hosttypes.KindNotFound {
		return nil, err
	}
	return d.Create(path)
}

// Create makes path and any missing parents.
func (d *Dir) Create(path string) (*LocalFile, error) {
	const op = "Dir.Create"
	path = cleanPath(path)
	if path == "" {
		return nil, invalid(op, "path is required")
	}
	f := d.file()
	fsys, err := f.fs(op)
	if err != nil {
		return nil, err
	}
	if err := tryDo(op, func() error { return fsys.MkdirAll(path, hosttypes.DirDefaultPerms) }); err != nil {
		return nil, d.k.fail(op, err).WithPath(path)
	}
	info, err := f.stat(op, path)
	if err != nil {
		return nil, err
	}
	return &LocalFile{Path: path, Info: info}, nil
}

// Remove deletes the directory at path. Without recursive it must be empty.
func (d *Dir) Remove(path string, recursive bool) error {
	const op = "Dir.Remove"
	path = cleanPath(path)
	if path == "" {
		return invalid(op, "path is required")
	}
	f := d.file()
	info, err := f.stat(op, path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return hosttypes.NewError(op, hosttypes.KindNotADirectory, "not a directory").WithPath(path)
	}
	fsys, err := f.fs(op)
	if err != nil {
		return err
	}
	remove := fsys.Remove
	if recursive {
		remove = fsys.RemoveAll
	}
	if err := tryDo(op, func() error { return remove(path) }); err != nil {
		return d.k.fail(op, err).WithPath(path)
	}
	return nil
}

// Contains reports whether child lies strictly inside the directory parent.
// Both paths must exist.
func (d *Dir) Contains(parent, child string) bool {
	const op = "Dir.Contains"
	f := d.file()
	p, err := f.Normalize(parent)
	if err != nil || !f.IsDir(p) {
		return false
	}
	c, err := f.Normalize(child)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(p, c)
	if err != nil {
		d.k.fail(op, err)
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (d *Dir) list(op, path string) ([]os.FileInfo, error) {
	path = cleanPath(path)
	if path == "" {
		return nil, invalid(op, "path is required")
	}
	f := d.file()
	info, err := f.stat(op, path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, hosttypes.NewError(op, hosttypes.KindNotADirectory, "not a directory").WithPath(path)
	}
	fsys, err := f.fs(op)
	if err != nil {
		return nil, err
	}
	infos, err := try(op, func() ([]os.FileInfo, error) { return fsys.ReadDir(path) })
	if err != nil {
		return nil, d.k.fsFail(op, path, err)
	}
	return infos, nil
}

// ReadDir lists path sorted by name, directories included as entries. With
// recursive each subdirectory carries its own listing in Children.
func (d *Dir) ReadDir(path string, recursive bool) ([]Entry, error) {
	const op = "Dir.ReadDir"
	infos, err := d.list(op, path)
	if err != nil {
		return []Entry{}, err
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		e := Entry{Path: filepath.Join(cleanPath(path), info.Name()), IsDir: info.IsDir()}
		if e.IsDir && recursive {
			children, err := d.ReadDir(e.Path, true)
			if err != nil {
				return []Entry{}, err
			}
			e.Children = children
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ReadDirTree always recurses. Files are leaf entries and every directory is
// an entry whose Children hold its content.
func (d *Dir) ReadDirTree(path string) ([]Entry, error) {
	const op = "Dir.ReadDirTree"
	infos, err := d.list(op, path)
	if err != nil {
		return []Entry{}, err
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		p := filepath.Join(cleanPath(path), info.Name())
		if !info.IsDir() {
			entries = append(entries, Entry{Path: p})
			continue
		}
		children, err := d.ReadDirTree(p)
		if err != nil {
			return []Entry{}, err
		}
		entries = append(entries, Entry{Path: p, IsDir: true, Children: children})
	}
	return entries, nil
}
