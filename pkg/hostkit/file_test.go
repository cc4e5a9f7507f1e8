package hostkit

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostkit/internal/services"
	"hostkit/internal/testutils"
	"hostkit/pkg/hosttypes"
)

var sampleTree = map[string]string{
	"a.txt":          "alpha",
	"lines.txt":      "one\r\ntwo\nthree\n",
	"sub/b.json":     `{"name":"b"}`,
	"sub/deep/c.txt": "c",
	".hidden":        "h",
	"empty/":         "",
}

func TestFile_GetFile(t *testing.T) {
	tk := newTestKit(t, kitOptions{files: sampleTree})

	lf, err := tk.File.GetFile("/data/a.txt", false)
	require.NoError(t, err)
	assert.Equal(t, "/data/a.txt", lf.Path)
	assert.False(t, lf.IsDir())

	_, err = tk.File.GetFile("/data/new.txt", false)
	assert.True(t, errors.Is(err, hosttypes.ErrNotFound))

	lf, err = tk.File.GetFile("file:///data/new.txt", true)
	require.NoError(t, err)
	assert.Equal(t, "/data/new.txt", lf.Path)
	assert.Equal(t, int64(0), tk.File.Size("/data/new.txt"))
	assert.Equal(t, "644", tk.File.Permissions("/data/new.txt"))

	_, err = tk.File.GetFile("", true)
	assert.True(t, errors.Is(err, hosttypes.ErrInvalidArgument))
	assert.Empty(t, tk.errorLines())
}

func TestFile_ReadWrite(t *testing.T) {
	tk := newTestKit(t, kitOptions{files: sampleTree})

	lines, err := tk.File.ReadAllLine("/data/lines.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three", ""}, lines)

	lines, err = tk.File.ReadAllLine("/data/missing.txt")
	assert.Error(t, err)
	assert.NotNil(t, lines)
	assert.Empty(t, lines)

	require.NoError(t, tk.File.WriteAllLine("/data/out.txt", []string{"x", "y"}))
	data, err := tk.File.ReadAllBytes("/data/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "x\ny\n", string(data))

	require.NoError(t, tk.File.WriteAllBytes("/data/out.txt", []byte("z")))
	data, err = tk.File.ReadAllBytes("file:///data/out.txt")
	require.NoError(t, err)
	assert.Equal(t, "z", string(data))
}

func TestFile_OutputStreamModes(t *testing.T) {
	tk := newTestKit(t, kitOptions{files: sampleTree})

	write := func(mode, s string) {
		w, err := tk.File.GetOutputStream("/data/log.txt", mode, 0)
		require.NoError(t, err)
		_, err = io.WriteString(w, s)
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}

	write(hosttypes.ModeWrite, "first")
	write(hosttypes.ModeAppend, "+second")
	got, err := tk.File.ReadAllBytes("/data/log.txt")
	require.NoError(t, err)
	assert.Equal(t, "first+second", string(got))

	write("wb", "reset")
	got, err = tk.File.ReadAllBytes("/data/log.txt")
	require.NoError(t, err)
	assert.Equal(t, "reset", string(got))

	scanner, closer, err := tk.File.GetLineInputStream("/data/lines.txt")
	require.NoError(t, err)
	defer closer.Close()
	var count int
	for scanner.Scan() {
		count++
	}
	assert.Equal(t, 3, count)
}

func TestFile_Copy(t *testing.T) {
	tk := newTestKit(t, kitOptions{files: sampleTree})

	tests := []struct {
		name string
		src  string
		dst  string
		want bool
	}{
		{"into directory keeps leaf name", "/data/a.txt", "/data/empty", true},
		{"new file name", "/data/a.txt", "/data/sub/a-copy.txt", true},
		{"never overwrites", "/data/a.txt", "/data/lines.txt", false},
		{"missing parent", "/data/a.txt", "/data/nope/a.txt", false},
		{"missing source", "/data/zzz.txt", "/data/empty", false},
		{"directory source", "/data/sub", "/data/empty", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tk.File.Copy(tt.src, tt.dst))
		})
	}

	data, err := tk.File.ReadAllBytes("/data/empty/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))
	assert.False(t, tk.File.Copy("/data/a.txt", "/data/empty"), "second copy into the same directory")
}

// racingFS creates the target of an exclusive open just before the open
// reaches the underlying file system.
type racingFS struct {
	hosttypes.FileSystem
	fs afero.Fs
}

func (r *racingFS) OpenFile(path string, flag int, perm os.FileMode) (hosttypes.File, error) {
	if flag&os.O_EXCL != 0 {
		if err := afero.WriteFile(r.fs, path, []byte("theirs"), 0o644); err != nil {
			return nil, err
		}
	}
	return r.FileSystem.OpenFile(path, flag, perm)
}

func TestFile_CopyNeverOverwritesConcurrentWriter(t *testing.T) {
	k, host, console := newMockKit(t)
	mem := testutils.NewFileHelpers().CreateMemTree(t, "/data", sampleTree)
	host.RegisterCapability(hosttypes.CapLocalFile, &racingFS{FileSystem: services.NewFileSystemService(mem), fs: mem})

	assert.False(t, k.File.Copy("/data/a.txt", "/data/b.txt"))

	data, err := afero.ReadFile(mem, "/data/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "theirs", string(data))
	assert.Empty(t, console.Messages())
}

func TestFile_StreamModesRejected(t *testing.T) {
	tk := newTestKit(t, kitOptions{files: sampleTree})

	tests := []struct {
		name string
		open func() error
	}{
		{"output r+", func() error { _, err := tk.File.GetOutputStream("/data/a.txt", "r+", 0); return err }},
		{"output read mode", func() error { _, err := tk.File.GetOutputStream("/data/a.txt", hosttypes.ModeRead, 0); return err }},
		{"input write mode", func() error { _, err := tk.File.GetInputStream("/data/a.txt", hosttypes.ModeWrite); return err }},
		{"input unknown", func() error { _, err := tk.File.GetInputStream("/data/a.txt", "rw"); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.open()
			require.Error(t, err)
			assert.True(t, errors.Is(err, hosttypes.ErrInvalidArgument))
		})
	}

	data, err := tk.File.ReadAllBytes("/data/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))
	assert.Empty(t, tk.errorLines())
}

func TestFile_PathHelpers(t *testing.T) {
	tk := newTestKit(t, kitOptions{files: sampleTree})

	assert.Equal(t, "/data/sub/x.txt", tk.File.Append("/data/sub", "x.txt"))
	assert.Equal(t, "", tk.File.Append("/data/a.txt", "x.txt"))
	assert.Equal(t, "", tk.File.Append("/data/none", "x.txt"))

	assert.Equal(t, "/data/sub", tk.File.Parent("/data/sub/b.json"))
	assert.Equal(t, "/data/sub", tk.File.Parent("/data/sub"))
	assert.Equal(t, "", tk.File.Parent("/data/none/b.json"))

	exts := map[string]string{
		"/data/a.txt":       "txt",
		"archive.tar.gz":    "gz",
		"/data/noext":       "",
		"file:///x/.bashrc": "bashrc",
	}
	for path, want := range exts {
		assert.Equal(t, want, tk.File.Ext(path), path)
	}

	norm, err := tk.File.Normalize("/data/sub/../a.txt")
	require.NoError(t, err)
	assert.Equal(t, "/data/a.txt", norm)
	_, err = tk.File.Normalize("/data/none")
	assert.True(t, errors.Is(err, hosttypes.ErrNotFound))

	u, err := tk.File.GetURL("/data/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "file:///data/a.txt", u.String())
	u, err = tk.File.GetURL("https://example.com/x?y=1")
	require.NoError(t, err)
	assert.Equal(t, "example.com", u.Host)

	assert.Equal(t, "file:///data/a.txt", tk.File.PathToURL("/data/a.txt"))
	assert.Equal(t, "/data/a.txt", tk.File.URLToPath("file:///data/a.txt"))
	assert.Equal(t, "", tk.File.URLToPath("https://example.com/a.txt"))
}

func TestFile_Stat(t *testing.T) {
	tk := newTestKit(t, kitOptions{files: sampleTree})
	require.NoError(t, tk.native.Files.Fs().Chmod("/data/sub/deep/c.txt", 0o755))

	assert.Equal(t, int64(5), tk.File.Size("/data/a.txt"))
	assert.Equal(t, int64(-1), tk.File.Size("/data/none"))
	assert.Equal(t, "644", tk.File.Permissions("/data/a.txt"))
	assert.Equal(t, "0", tk.File.Permissions("/data/none"))

	mod, err := tk.File.DateModified("/data/a.txt")
	require.NoError(t, err)
	assert.False(t, mod.IsZero())

	tests := []struct {
		name string
		fn   func(string) bool
		path string
		want bool
	}{
		{"exists file", tk.File.Exists, "/data/a.txt", true},
		{"exists file url", tk.File.Exists, "file:///data/a.txt", true},
		{"exists missing", tk.File.Exists, "/data/none", false},
		{"exists empty", tk.File.Exists, "", false},
		{"isdir dir", tk.File.IsDir, "/data/sub", true},
		{"isdir file", tk.File.IsDir, "/data/a.txt", false},
		{"isfile file", tk.File.IsFile, "/data/a.txt", true},
		{"isfile dir", tk.File.IsFile, "/data/sub", false},
		{"hidden", tk.File.IsHidden, "/data/.hidden", true},
		{"not hidden", tk.File.IsHidden, "/data/a.txt", false},
		{"readable", tk.File.IsReadable, "/data/a.txt", true},
		{"writable", tk.File.IsWritable, "/data/a.txt", true},
		{"executable", tk.File.IsExecutable, "/data/sub/deep/c.txt", true},
		{"not executable", tk.File.IsExecutable, "/data/a.txt", false},
		{"directory is not executable", tk.File.IsExecutable, "/data/sub", false},
		{"not symlink", tk.File.IsSymlink, "/data/a.txt", false},
		{"not special", tk.File.IsSpecial, "/data/a.txt", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fn(tt.path))
		})
	}
	assert.Empty(t, tk.errorLines(), "missing paths are not host failures")
}

func TestFile_Remove(t *testing.T) {
	tk := newTestKit(t, kitOptions{files: sampleTree})

	assert.True(t, tk.File.Remove("/data/a.txt"))
	assert.False(t, tk.File.Exists("/data/a.txt"))
	assert.False(t, tk.File.Remove("/data/a.txt"))
	assert.False(t, tk.File.Remove("/data/sub"))
	assert.True(t, tk.File.IsDir("/data/sub"))
}

func TestFile_Run(t *testing.T) {
	tk := newTestKit(t, kitOptions{files: sampleTree})

	pid, err := tk.File.Run("/data/none", nil, true)
	assert.Equal(t, RunNotFound, pid)
	assert.True(t, errors.Is(err, hosttypes.ErrNotFound))

	pid, err = tk.File.Run("/data/sub", nil, true)
	assert.Equal(t, RunIsDirectory, pid)
	assert.True(t, errors.Is(err, hosttypes.ErrIsADirectory))
}

func TestFile_Run_HostFailure(t *testing.T) {
	k, host, console := newMockKit(t)
	host.RegisterCapability(hosttypes.CapLocalFile, &testutils.FaultyFileSystem{})

	pid, err := k.File.Run("/bin/true", nil, false)
	assert.Equal(t, RunHostFailure, pid)
	assert.True(t, errors.Is(err, hosttypes.ErrHostFault))
	assert.Len(t, console.Messages(), 1)
}

func TestFile_GetURLContents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, "remote body")
	}))
	defer srv.Close()

	tk := newTestKit(t, kitOptions{files: sampleTree})

	body, err := tk.File.GetURLContents(srv.URL + "/doc")
	require.NoError(t, err)
	assert.Equal(t, "remote body", body)

	body, err = tk.File.GetURLContents("file:///data/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "alpha", body)

	body, err = tk.File.GetURLContents(srv.URL + "/missing")
	assert.Error(t, err)
	assert.Equal(t, "", body)
	assert.Len(t, tk.errorLines(), 1)
}
