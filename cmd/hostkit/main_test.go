package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostkit/internal/testutils"
	"hostkit/pkg/hosttypes"
)

func newTestFs(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/work/a.txt":     "alpha",
		"/work/doc.json":  `{"users":[{"name":"ann"},{"name":"bob"}]}`,
		"/work/sub/b.txt": "b",
	}
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

// runCLI executes one hostkit invocation against fs and returns its stdout.
func runCLI(t *testing.T, fs afero.Fs, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := newCLI(strings.NewReader(stdin), &out)
	c.fs = fs
	c.configDirs = []string{t.TempDir()}

	root := newRootCmd(c)
	root.SetArgs(append([]string{"--test-mode"}, args...))
	err := root.Execute()
	require.NoError(t, c.close())
	return out.String(), err
}

func TestCLI_Version(t *testing.T) {
	out, err := runCLI(t, newTestFs(t), "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hostkit")

	out, err = runCLI(t, newTestFs(t), "", "--json", "version")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Contains(t, info, "version")
}

func TestCLI_Services(t *testing.T) {
	out, err := runCLI(t, newTestFs(t), "", "services")
	require.NoError(t, err)
	assert.Contains(t, out, hosttypes.CapLocalFile.String())
	assert.Contains(t, out, hosttypes.CapHTTP.String())
}

func TestCLI_ServicesWithTOMLDescriptorTable(t *testing.T) {
	table := filepath.Join(t.TempDir(), "table.toml")
	require.NoError(t, os.WriteFile(table, []byte("[hash]\ncomponent = \"@vendor/hash;9\"\ninterface = \"vendor.Hash\"\n"), 0o644))

	out, err := runCLI(t, newTestFs(t), "", "--descriptor-table", table, "services")
	require.NoError(t, err)
	assert.Contains(t, out, "@vendor/hash;9")
	assert.Contains(t, out, "vendor.Hash")
}

func TestCLI_FailingCommandReleasesHost(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"file cat", []string{"file", "cat", "/work/missing.txt"}},
		{"dir ls", []string{"dir", "ls", "/work/missing"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := newCLI(strings.NewReader(""), &out)
			c.fs = newTestFs(t)
			c.configDirs = []string{t.TempDir()}

			root := newRootCmd(c)
			root.SetArgs(append([]string{"--test-mode"}, tt.args...))
			require.Error(t, root.Execute())
			assert.Nil(t, c.kit)
			assert.Nil(t, c.native)
		})
	}
}

func TestCLI_Hash(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"md5 text", []string{"hash", "abc"}, "900150983cd24fb0d6963f7d28e17f72"},
		{"sha1 text", []string{"hash", "-a", "SHA1", "abc"}, "a9993e364706816aba3e25717850c26c9cd0d89d"},
		{"md5 file", []string{"hash", "--file", "/work/a.txt"}, "2c1743a391305fbf367df8e4f069f9f9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, newTestFs(t), "", tt.args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, strings.TrimSpace(out))
		})
	}
}

func TestCLI_HashErrors(t *testing.T) {
	_, err := runCLI(t, newTestFs(t), "", "hash")
	assert.Error(t, err)

	_, err = runCLI(t, newTestFs(t), "", "hash", "--file", "/work/missing.txt")
	require.Error(t, err)
	assert.Equal(t, hosttypes.KindNotFound, hosttypes.KindOf(err))
}

func TestCLI_Charset(t *testing.T) {
	out, err := runCLI(t, newTestFs(t), "", "charset", "encode", "ISO-8859-1", "café")
	require.NoError(t, err)
	assert.Equal(t, "636166e9", strings.TrimSpace(out))

	out, err = runCLI(t, newTestFs(t), "", "charset", "decode", "ISO-8859-1", "636166e9")
	require.NoError(t, err)
	assert.Equal(t, "café", strings.TrimSpace(out))

	_, err = runCLI(t, newTestFs(t), "", "charset", "decode", "ISO-8859-1", "zz")
	assert.Error(t, err)
}

func TestCLI_JSON(t *testing.T) {
	fs := newTestFs(t)

	out, err := runCLI(t, fs, "", "json", "query", "/work/doc.json", "users.#.name")
	require.NoError(t, err)
	assert.JSONEq(t, `["ann","bob"]`, out)

	out, err = runCLI(t, fs, "", "json", "query", "/work/doc.json", "users.1.name")
	require.NoError(t, err)
	assert.Equal(t, "bob", strings.TrimSpace(out))

	_, err = runCLI(t, fs, "", "json", "set", "/work/doc.json", "users.0.age", "41")
	require.NoError(t, err)
	data, err := afero.ReadFile(fs, "/work/doc.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"users":[{"name":"ann","age":41},{"name":"bob"}]}`, string(data))

	_, err = runCLI(t, fs, "", "json", "query", "/work/doc.json", "users.5.name")
	assert.Equal(t, hosttypes.KindNotFound, hosttypes.KindOf(err))
}

func TestCLI_Gzip(t *testing.T) {
	fs := newTestFs(t)

	encoded, err := runCLI(t, fs, "", "gzip", "deflate", "a b+c")
	require.NoError(t, err)
	out, err := runCLI(t, fs, "", "gzip", "inflate", strings.TrimSpace(encoded))
	require.NoError(t, err)
	assert.Equal(t, "a b+c", strings.TrimSpace(out))

	_, err = runCLI(t, fs, "", "gzip", "compress", "/work/a.txt")
	require.NoError(t, err)
	gz, err := afero.ReadFile(fs, "/work/a.txt.gz")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, gz[:2])

	out, err = runCLI(t, fs, "", "gzip", "decompress", "/work/a.txt.gz")
	require.NoError(t, err)
	assert.Equal(t, "alpha", strings.TrimSpace(out))
}

func TestCLI_File(t *testing.T) {
	fs := newTestFs(t)

	out, err := runCLI(t, fs, "", "--json", "file", "info", "/work/a.txt")
	require.NoError(t, err)
	var info map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.EqualValues(t, 5, info["size"])
	assert.Equal(t, "644", info["permissions"])
	assert.Equal(t, "txt", info["extension"])
	assert.Equal(t, "file:///work/a.txt", info["url"])

	_, err = runCLI(t, fs, "", "file", "copy", "/work/a.txt", "/work/copy.txt")
	require.NoError(t, err)
	out, err = runCLI(t, fs, "", "file", "cat", "/work/copy.txt")
	require.NoError(t, err)
	assert.Equal(t, "alpha\n", out)

	_, err = runCLI(t, fs, "", "file", "info", "/work/nope")
	assert.Equal(t, hosttypes.KindNotFound, hosttypes.KindOf(err))
}

func TestCLI_DirLs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		present []string
		absent  []string
	}{
		{"flat", []string{"dir", "ls", "/work"}, []string{"/work/a.txt", "/work/sub"}, []string{"/work/sub/b.txt"}},
		{"recursive", []string{"dir", "ls", "-r", "/work"}, []string{"/work/sub/b.txt"}, nil},
		{"tree", []string{"dir", "ls", "--tree", "/work"}, []string{"/work/sub/b.txt"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, newTestFs(t), "", tt.args...)
			require.NoError(t, err)
			for _, p := range tt.present {
				assert.Contains(t, out, p)
			}
			for _, p := range tt.absent {
				assert.NotContains(t, out, p)
			}
		})
	}
}

func TestCLI_DirLsRecursiveSetting(t *testing.T) {
	t.Setenv("HOSTKIT_READDIR_RECURSIVE", "true")

	out, err := runCLI(t, newTestFs(t), "", "dir", "ls", "/work")
	require.NoError(t, err)
	assert.Contains(t, out, "/work/sub/b.txt")

	out, err = runCLI(t, newTestFs(t), "", "dir", "ls", "-r=false", "/work")
	require.NoError(t, err)
	assert.NotContains(t, out, "/work/sub/b.txt")
}

func TestCLI_Pref(t *testing.T) {
	fs := newTestFs(t)
	prefs := "--prefs-file=/work/prefs.yaml"

	_, err := runCLI(t, fs, "", prefs, "pref", "set", "net.timeout", "30")
	require.NoError(t, err)
	_, err = runCLI(t, fs, "", prefs, "pref", "set", "net.proxy", "none")
	require.NoError(t, err)

	data, err := afero.ReadFile(fs, "/work/prefs.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 30")

	out, err := runCLI(t, fs, "", prefs, "pref", "get", "net.timeout")
	require.NoError(t, err)
	assert.Equal(t, "30", strings.TrimSpace(out))

	out, err = runCLI(t, fs, "", prefs, "--json", "pref", "list", "net")
	require.NoError(t, err)
	assert.JSONEq(t, `{"timeout":30,"proxy":"none"}`, out)

	_, err = runCLI(t, fs, "", prefs, "pref", "get", "net.missing")
	assert.Error(t, err)
}

func TestCLI_PrefValue(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"false", false},
		{"12", 12},
		{"twelve", "twelve"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, prefValue(tt.in))
		})
	}
}

func TestCLI_UUID(t *testing.T) {
	testutils.ResetTestCounters()
	out, err := runCLI(t, newTestFs(t), "", "uuid")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f-]{36}$`), strings.TrimSpace(out))
}

func TestCLI_Ask(t *testing.T) {
	out, err := runCLI(t, newTestFs(t), "blue\n", "ask", "Color", "Favourite color?")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(out, "blue\n"))

	_, err = runCLI(t, newTestFs(t), "", "ask", "Color", "Favourite color?")
	assert.Error(t, err)
}

func TestCLI_Include(t *testing.T) {
	fs := newTestFs(t)
	require.NoError(t, afero.WriteFile(fs, "/work/greet.js", []byte(`var greeting = "hello " + who;`), 0o644))

	out, err := runCLI(t, fs, "", "--json", "include", "/work/greet.js", "--set", "who=world")
	require.NoError(t, err)
	var scope map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &scope))
	assert.Equal(t, "hello world", scope["greeting"])
	assert.Equal(t, "world", scope["who"])
}

func TestCLI_InvalidWindowVariant(t *testing.T) {
	_, err := runCLI(t, newTestFs(t), "", "--window-variant=sideways", "version")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window-variant")
}
