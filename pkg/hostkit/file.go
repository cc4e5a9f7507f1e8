package hostkit

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hostkit/pkg/hosttypes"
)

// Process start results returned by File.Run.
const (
	RunNotFound    = -1
	RunIsDirectory = -2
	RunHostFailure = -3
)

// LocalFile is a path that was checked against the local-file capability.
type LocalFile struct {
	Path string
	Info os.FileInfo
}

// IsDir reports whether the file is a directory.
func (l *LocalFile) IsDir() bool {
	return l.Info != nil && l.Info.IsDir()
}

// File wraps the local-file capability.
type File struct {
	k *Kit
}

func (f *File) fs(op string) (hosttypes.FileSystem, error) {
	return use[hosttypes.FileSystem](f.k, op, hosttypes.CapLocalFile)
}

// stat returns info for path. A missing path yields KindNotFound without logging.
func (f *File) stat(op, path string) (os.FileInfo, error) {
	fsys, err := f.fs(op)
	if err != nil {
		return nil, err
	}
	info, err := try(op, func() (os.FileInfo, error) { return fsys.Stat(path) })
	if err != nil {
		return nil, f.k.fsFail(op, path, err)
	}
	return info, nil
}

func (f *File) lstat(op, path string) (os.FileInfo, error) {
	fsys, err := f.fs(op)
	if err != nil {
		return nil, err
	}
	info, err := try(op, func() (os.FileInfo, error) { return fsys.Lstat(path) })
	if err != nil {
		return nil, f.k.fsFail(op, path, err)
	}
	return info, nil
}

func cleanPath(path string) string {
	return hosttypes.StripFileScheme(strings.TrimSpace(path))
}

// GetFile checks path and returns it. With autoCreate a missing file is
// created empty with FileDefaultPerms.
func (f *File) GetFile(path string, autoCreate bool) (*LocalFile, error) {
	const op = "File.GetFile"
	path = cleanPath(path)
	if path == "" {
		return nil, invalid(op, "path is required")
	}

	info, err := f.stat(op, path)
	if err == nil {
		return &LocalFile{Path: path, Info: info}, nil
	}
	if !autoCreate || hosttypes.KindOf(err) != hosttypes.KindNotFound {
		return nil, err
	}

	fsys, err := f.fs(op)
	if err != nil {
		return nil, err
	}
	err = tryDo(op, func() error {
		fh, err := fsys.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, hosttypes.FileDefaultPerms)
		if err != nil {
			return err
		}
		return fh.Close()
	})
	if err != nil {
		return nil, f.k.fail(op, err).WithPath(path)
	}
	info, err = f.stat(op, path)
	if err != nil {
		return nil, err
	}
	return &LocalFile{Path: path, Info: info}, nil
}

// GetURL parses raw. A bare path becomes an absolute file URL.
func (f *File) GetURL(raw string) (*url.URL, error) {
	const op = "File.GetURL"
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, invalid(op, "url is required")
	}
	if u, err := url.Parse(raw); err == nil && len(u.Scheme) > 1 {
		return u, nil
	}

	fsys, err := f.fs(op)
	if err != nil {
		return nil, err
	}
	abs, err := try(op, func() (string, error) { return fsys.Abs(raw) })
	if err != nil {
		return nil, f.k.fail(op, err).WithPath(raw)
	}
	return &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}, nil
}

// PathToURL converts a local path to its file URL string, "" on failure.
func (f *File) PathToURL(path string) string {
	u, err := f.GetURL(cleanPath(path))
	if err != nil {
		return ""
	}
	return u.String()
}

// URLToPath converts a file URL to a local path, "" when raw is not a file URL.
func (f *File) URLToPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "file" {
		return ""
	}
	return filepath.FromSlash(u.Path)
}

// GetOutputStream opens path for writing. Mode "a" appends, "w" or ""
// truncates; other modes are rejected. A missing file is created with perm,
// FileDefaultPerms when zero.
func (f *File) GetOutputStream(path, mode string, perm os.FileMode) (io.WriteCloser, error) {
	const op = "File.GetOutputStream"
	path = cleanPath(path)
	if path == "" {
		return nil, invalid(op, "path is required")
	}
	mask, ok := hosttypes.ModeFlags(mode)
	if !ok || mask&hosttypes.FileRDONLY != 0 {
		return nil, invalid(op, "unsupported output mode %q", mode)
	}
	if perm == 0 {
		perm = hosttypes.FileDefaultPerms
	}

	fsys, err := f.fs(op)
	if err != nil {
		return nil, err
	}
	fh, err := try(op, func() (hosttypes.File, error) { return fsys.OpenFile(path, hosttypes.OpenFlags(mask), perm) })
	if err != nil {
		return nil, f.k.fsFail(op, path, err)
	}
	return fh, nil
}

// GetInputStream opens an existing file for reading. mode must be "r" or "rb".
func (f *File) GetInputStream(path, mode string) (io.ReadCloser, error) {
	const op = "File.GetInputStream"
	path = cleanPath(path)
	if path == "" {
		return nil, invalid(op, "path is required")
	}
	if mask, ok := hosttypes.ModeFlags(mode); !ok || mask != hosttypes.FileRDONLY {
		return nil, invalid(op, "unsupported input mode %q", mode)
	}

	fsys, err := f.fs(op)
	if err != nil {
		return nil, err
	}
	fh, err := try(op, func() (hosttypes.File, error) { return fsys.OpenFile(path, os.O_RDONLY, 0) })
	if err != nil {
		return nil, f.k.fsFail(op, path, err)
	}
	return fh, nil
}

// GetLineInputStream returns a line scanner over path and the closer for it.
func (f *File) GetLineInputStream(path string) (*bufio.Scanner, io.Closer, error) {
	r, err := f.GetInputStream(path, hosttypes.ModeRead)
	if err != nil {
		return nil, nil, err
	}
	return bufio.NewScanner(r), r, nil
}

// ReadAllBytes returns the whole content of path.
func (f *File) ReadAllBytes(path string) ([]byte, error) {
	const op = "File.ReadAllBytes"
	r, err := f.GetInputStream(path, hosttypes.ModeRead+hosttypes.ModeBinary)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data, err := try(op, func() ([]byte, error) { return io.ReadAll(r) })
	if err != nil {
		return nil, f.k.fail(op, err).WithPath(path)
	}
	return data, nil
}

// ReadAllLine splits path on "\n", dropping a "\r" before each newline. A
// trailing newline yields a final empty line.
func (f *File) ReadAllLine(path string) ([]string, error) {
	data, err := f.ReadAllBytes(path)
	if err != nil {
		return []string{}, err
	}
	lines := strings.Split(string(data), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines, nil
}

// GetURLContents fetches an http(s) URL through the xmlhttprequest
// capability; file URLs and bare paths are read from disk.
func (f *File) GetURLContents(raw string) (string, error) {
	const op = "File.GetURLContents"
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", invalid(op, "url is required")
	}

	if u, err := url.Parse(raw); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		client, err := use[hosttypes.HTTPClient](f.k, op, hosttypes.CapHTTP)
		if err != nil {
			return "", err
		}
		data, err := try(op, func() ([]byte, error) { return client.Fetch(f.k.ctx, raw) })
		if err != nil {
			return "", f.k.fail(op, err).WithPath(raw)
		}
		return string(data), nil
	}

	data, err := f.ReadAllBytes(raw)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteAllLine writes each line followed by "\n", replacing the file.
func (f *File) WriteAllLine(path string, lines []string) error {
	var buf bytes.Buffer
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	return f.write("File.WriteAllLine", path, buf.Bytes())
}

// WriteAllBytes replaces the content of path with data.
func (f *File) WriteAllBytes(path string, data []byte) error {
	return f.write("File.WriteAllBytes", path, data)
}

func (f *File) write(op, path string, data []byte) error {
	w, err := f.GetOutputStream(path, hosttypes.ModeWrite, 0)
	if err != nil {
		return err
	}
	if _, err := try(op, func() (int, error) { return w.Write(data) }); err != nil {
		_ = w.Close()
		return f.k.fail(op, err).WithPath(path)
	}
	if err := w.Close(); err != nil {
		return f.k.fail(op, err).WithPath(path)
	}
	return nil
}

// Run starts the executable at path and returns its pid, or RunNotFound,
// RunIsDirectory or RunHostFailure.
func (f *File) Run(path string, args []string, blocking bool) (int, error) {
	const op = "File.Run"
	path = cleanPath(path)
	if path == "" {
		return RunNotFound, invalid(op, "path is required")
	}

	info, err := f.stat(op, path)
	if err != nil {
		if hosttypes.KindOf(err) == hosttypes.KindNotFound {
			return RunNotFound, err
		}
		return RunHostFailure, err
	}
	if info.IsDir() {
		return RunIsDirectory, hosttypes.NewError(op, hosttypes.KindIsADirectory, "cannot run a directory").WithPath(path)
	}

	launcher, err := use[hosttypes.ProcessLauncher](f.k, op, hosttypes.CapProcess)
	if err != nil {
		return RunHostFailure, err
	}
	pid, err := try(op, func() (int, error) { return launcher.Start(f.k.ctx, path, args, blocking) })
	if err != nil {
		return RunHostFailure, f.k.fail(op, err).WithPath(path)
	}
	return pid, nil
}

// Exec is Run without the result.
func (f *File) Exec(path string, args []string, blocking bool) {
	_, _ = f.Run(path, args, blocking)
}

// Exists reports whether path exists.
func (f *File) Exists(path string) bool {
	path = cleanPath(path)
	if path == "" {
		return false
	}
	_, err := f.stat("File.Exists", path)
	return err == nil
}

// Remove deletes a file. Directories are left alone.
func (f *File) Remove(path string) bool {
	const op = "File.Remove"
	path = cleanPath(path)
	info, err := f.stat(op, path)
	if err != nil || info.IsDir() {
		return false
	}
	fsys, err := f.fs(op)
	if err != nil {
		return false
	}
	if err := tryDo(op, func() error { return fsys.Remove(path) }); err != nil {
		f.k.fail(op, err)
		return false
	}
	return true
}

// Copy copies the file src to dst. An existing directory dst receives a
// file with the same name; otherwise the parent of dst must exist. Existing
// files are never overwritten.
func (f *File) Copy(src, dst string) bool {
	const op = "File.Copy"
	src, dst = cleanPath(src), cleanPath(dst)
	if src == "" || dst == "" {
		return false
	}

	srcInfo, err := f.stat(op, src)
	if err != nil || srcInfo.IsDir() {
		return false
	}

	if dstInfo, err := f.stat(op, dst); err == nil {
		if !dstInfo.IsDir() {
			return false
		}
		dst = filepath.Join(dst, filepath.Base(src))
	} else if parent, err := f.stat(op, filepath.Dir(dst)); err != nil || !parent.IsDir() {
		return false
	}

	data, err := f.ReadAllBytes(src)
	if err != nil {
		return false
	}
	fsys, err := f.fs(op)
	if err != nil {
		return false
	}
	mask := hosttypes.FileWRONLY | hosttypes.FileCreateFile | hosttypes.FileExcl
	w, err := try(op, func() (hosttypes.File, error) {
		return fsys.OpenFile(dst, hosttypes.OpenFlags(mask), srcInfo.Mode().Perm())
	})
	if errors.Is(err, os.ErrExist) {
		return false
	}
	if err != nil {
		f.k.fsFail(op, dst, err)
		return false
	}
	if err := tryDo(op, func() error { _, err := w.Write(data); return err }); err != nil {
		_ = w.Close()
		f.k.fail(op, err)
		return false
	}
	if err := w.Close(); err != nil {
		f.k.fail(op, err)
		return false
	}
	return true
}

// Append joins name onto dir when dir is an existing directory, "" otherwise.
func (f *File) Append(dir, name string) string {
	dir = cleanPath(dir)
	info, err := f.stat("File.Append", dir)
	if err != nil || !info.IsDir() {
		return ""
	}
	return filepath.Join(dir, name)
}

// Permissions returns the permission bits in octal, such as "644", or "0".
func (f *File) Permissions(path string) string {
	info, err := f.stat("File.Permissions", cleanPath(path))
	if err != nil {
		return "0"
	}
	return fmt.Sprintf("%o", info.Mode().Perm())
}

// DateModified returns the modification time of path.
func (f *File) DateModified(path string) (time.Time, error) {
	info, err := f.stat("File.DateModified", cleanPath(path))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// Size returns the size of path in bytes, -1 on failure.
func (f *File) Size(path string) int64 {
	info, err := f.stat("File.Size", cleanPath(path))
	if err != nil {
		return -1
	}
	return info.Size()
}

// Ext returns the text after the last dot of the leaf name, "" when there is none.
func (f *File) Ext(path string) string {
	leaf := filepath.Base(cleanPath(path))
	i := strings.LastIndex(leaf, ".")
	if i < 0 {
		return ""
	}
	return leaf[i+1:]
}

// Parent returns the directory containing path. A directory is its own parent.
func (f *File) Parent(path string) string {
	path = cleanPath(path)
	info, err := f.stat("File.Parent", path)
	if err != nil {
		return ""
	}
	if info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}

func (f *File) is(op, path string, test func(os.FileInfo) bool) bool {
	path = cleanPath(path)
	if path == "" {
		return false
	}
	info, err := f.stat(op, path)
	return err == nil && test(info)
}

// IsDir reports whether path is a directory.
func (f *File) IsDir(path string) bool {
	return f.is("File.IsDir", path, func(i os.FileInfo) bool { return i.IsDir() })
}

// IsFile reports whether path is a regular file.
func (f *File) IsFile(path string) bool {
	return f.is("File.IsFile", path, func(i os.FileInfo) bool { return i.Mode().IsRegular() })
}

// IsExecutable reports whether any execute bit is set.
func (f *File) IsExecutable(path string) bool {
	return f.is("File.IsExecutable", path, func(i os.FileInfo) bool { return !i.IsDir() && i.Mode().Perm()&0o111 != 0 })
}

// IsWritable reports whether any write bit is set.
func (f *File) IsWritable(path string) bool {
	return f.is("File.IsWritable", path, func(i os.FileInfo) bool { return i.Mode().Perm()&0o222 != 0 })
}

// IsReadable reports whether any read bit is set.
func (f *File) IsReadable(path string) bool {
	return f.is("File.IsReadable", path, func(i os.FileInfo) bool { return i.Mode().Perm()&0o444 != 0 })
}

// IsHidden reports whether the leaf name of an existing path starts with a dot.
func (f *File) IsHidden(path string) bool {
	return f.is("File.IsHidden", path, func(i os.FileInfo) bool { return strings.HasPrefix(i.Name(), ".") })
}

// IsSymlink reports whether path itself is a symbolic link.
func (f *File) IsSymlink(path string) bool {
	path = cleanPath(path)
	if path == "" {
		return false
	}
	info, err := f.lstat("File.IsSymlink", path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

// IsSpecial reports whether path is neither a regular file, a directory nor a symlink.
func (f *File) IsSpecial(path string) bool {
	path = cleanPath(path)
	if path == "" {
		return false
	}
	info, err := f.lstat("File.IsSpecial", path)
	if err != nil {
		return false
	}
	m := info.Mode()
	return !m.IsRegular() && !m.IsDir() && m&os.ModeSymlink == 0
}

// Normalize returns the absolute, cleaned form of an existing path.
func (f *File) Normalize(path string) (string, error) {
	const op = "File.Normalize"
	path = cleanPath(path)
	if path == "" {
		return "", invalid(op, "path is required")
	}
	if _, err := f.stat(op, path); err != nil {
		return "", err
	}
	fsys, err := f.fs(op)
	if err != nil {
		return "", err
	}
	abs, err := try(op, func() (string, error) { return fsys.Abs(path) })
	if err != nil {
		return "", f.k.fail(op, err).WithPath(path)
	}
	return filepath.Clean(abs), nil
}
