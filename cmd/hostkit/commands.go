package main

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"hostkit/internal/version"
	"hostkit/pkg/hostkit"
	"hostkit/pkg/hosttypes"
	"hostkit/pkg/namespace"
)

func newVersionCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if c.asJSON {
				info, err := version.GetInfo()
				if err != nil {
					return err
				}
				return c.printer.value(info)
			}
			return c.printer.value(version.GetFormattedVersion(c.settings.AppName))
		},
	}
}

func newServicesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "services",
		Short: "List capabilities and the components they resolve to",
		Args:  cobra.NoArgs,
		RunE: c.run(func(k *hostkit.Kit, _ []string) error {
			reg := k.Registry()
			var rows [][]string
			for _, capability := range reg.Capabilities() {
				d, _ := reg.Descriptor(capability)
				status := "ok"
				if _, err := reg.Resolve(k.Context(), capability); err != nil {
					status = string(hosttypes.KindOf(err))
				}
				rows = append(rows, []string{capability.String(), d.ComponentID, d.InterfaceID, status})
			}
			return c.printer.rows(rows)
		}),
	}
}

func newHashCmd(c *cli) *cobra.Command {
	var algorithm, file string
	cmd := &cobra.Command{
		Use:   "hash [text]",
		Short: "Print the hex digest of text or a file",
		Args:  cobra.MaximumNArgs(1),
		RunE: c.run(func(k *hostkit.Kit, args []string) error {
			var (
				sum string
				err error
			)
			switch {
			case file != "":
				sum, err = k.CryptoHash.CryptFromStream(file, algorithm)
			case len(args) == 1:
				sum, err = k.CryptoHash.Crypt(args[0], algorithm)
			default:
				return fmt.Errorf("either text or --file is required")
			}
			if err != nil {
				return err
			}
			return c.printer.value(sum)
		}),
	}
	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "MD5", "Digest algorithm (MD5, SHA1, SHA256, SHA384, SHA512, ...)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Hash the contents of this file")
	return cmd
}

func newCharsetCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "charset",
		Short: "Convert text between Unicode and other charsets",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "encode <charset> <text>",
			Short: "Encode text in charset and print the bytes as hex",
			Args:  cobra.ExactArgs(2),
			RunE: c.run(func(k *hostkit.Kit, args []string) error {
				data, err := k.Charset.ConvertFromUnicode(args[1], args[0])
				if err != nil {
					return err
				}
				return c.printer.value(k.CryptoHash.ArrayToHexString(data))
			}),
		},
		&cobra.Command{
			Use:   "decode <charset> <hex>",
			Short: "Decode hex bytes in charset to text",
			Args:  cobra.ExactArgs(2),
			RunE: c.run(func(k *hostkit.Kit, args []string) error {
				data, err := hex.DecodeString(args[1])
				if err != nil {
					return fmt.Errorf("invalid hex input: %w", err)
				}
				text, err := k.Charset.ConvertToUnicode(data, args[0])
				if err != nil {
					return err
				}
				return c.printer.value(text)
			}),
		},
	)
	return cmd
}

func newJSONCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "json",
		Short: "Query and edit JSON documents",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "query <file-or-url> <path>",
			Short: "Print the value at a dotted path",
			Args:  cobra.ExactArgs(2),
			RunE: c.run(func(k *hostkit.Kit, args []string) error {
				doc, err := k.File.GetURLContents(args[0])
				if err != nil {
					return err
				}
				v, err := k.JSON.Query(doc, args[1])
				if err != nil {
					return err
				}
				if _, ok := v.(string); ok || c.asJSON {
					return c.printer.value(v)
				}
				encoded, err := k.JSON.Encode(v)
				if err != nil {
					return err
				}
				return c.printer.value(encoded)
			}),
		},
		&cobra.Command{
			Use:   "set <file> <path> <value>",
			Short: "Set the value at a dotted path and rewrite the file",
			Long: `Set the value at a dotted path. The value is parsed as JSON when it is
valid JSON and stored as a string otherwise.`,
			Args: cobra.ExactArgs(3),
			RunE: c.run(func(k *hostkit.Kit, args []string) error {
				path := args[0]
				data, err := k.File.ReadAllBytes(path)
				if err != nil {
					return err
				}
				var value any = args[2]
				if v, derr := k.JSON.Decode(args[2]); derr == nil {
					value = v
				}
				doc, err := k.JSON.Set(string(data), args[1], value)
				if err != nil {
					return err
				}
				if err := k.File.WriteAllBytes(path, []byte(doc)); err != nil {
					return err
				}
				return c.printer.success(fmt.Sprintf("updated %s in %s", args[1], path))
			}),
		},
	)
	return cmd
}

func newGzipCmd(c *cli) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "gzip",
		Short: "Compress and decompress data",
	}
	deflate := &cobra.Command{
		Use:   "deflate <text>",
		Short: "URI-escape and zlib-compress text, printing base64",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(k *hostkit.Kit, args []string) error {
			data, err := k.Gzip.Deflate(args[0])
			if err != nil {
				return err
			}
			return c.printer.value(k.App.Base64Encode(string(data)))
		}),
	}
	inflate := &cobra.Command{
		Use:   "inflate <base64>",
		Short: "Reverse deflate",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(k *hostkit.Kit, args []string) error {
			raw, err := k.App.Base64Decode(args[0])
			if err != nil {
				return err
			}
			text, err := k.Gzip.Inflate([]byte(raw))
			if err != nil {
				return err
			}
			return c.printer.value(text)
		}),
	}
	compress := &cobra.Command{
		Use:   "compress <file>",
		Short: "Write a gzip copy of file",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(k *hostkit.Kit, args []string) error {
			data, err := k.File.ReadAllBytes(args[0])
			if err != nil {
				return err
			}
			gz, err := k.Gzip.Gzip(data)
			if err != nil {
				return err
			}
			dst := out
			if dst == "" {
				dst = args[0] + ".gz"
			}
			if err := k.File.WriteAllBytes(dst, gz); err != nil {
				return err
			}
			return c.printer.success(fmt.Sprintf("wrote %s (%d bytes)", dst, len(gz)))
		}),
	}
	compress.Flags().StringVarP(&out, "out", "o", "", "Output file [default: <file>.gz]")
	decompress := &cobra.Command{
		Use:   "decompress <file.gz>",
		Short: "Print the contents of a gzip file",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(k *hostkit.Kit, args []string) error {
			data, err := k.File.ReadAllBytes(args[0])
			if err != nil {
				return err
			}
			plain, err := k.Gzip.Gunzip(data)
			if err != nil {
				return err
			}
			return c.printer.value(string(plain))
		}),
	}
	cmd.AddCommand(deflate, inflate, compress, decompress)
	return cmd
}

func newFileCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Inspect and copy files",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "info <path>",
			Short: "Show file attributes",
			Args:  cobra.ExactArgs(1),
			RunE: c.run(func(k *hostkit.Kit, args []string) error {
				f := k.File
				path := args[0]
				if !f.Exists(path) {
					return hosttypes.NewError("file info", hosttypes.KindNotFound, "no such file").WithPath(path)
				}
				modified, err := f.DateModified(path)
				if err != nil {
					return err
				}
				return c.printer.fields(map[string]any{
					"path":        path,
					"url":         f.PathToURL(path),
					"size":        f.Size(path),
					"permissions": f.Permissions(path),
					"modified":    modified.Format("2006-01-02 15:04:05"),
					"extension":   f.Ext(path),
					"directory":   f.IsDir(path),
					"hidden":      f.IsHidden(path),
					"symlink":     f.IsSymlink(path),
					"executable":  f.IsExecutable(path),
				})
			}),
		},
		&cobra.Command{
			Use:   "cat <path-or-url>",
			Short: "Print a local file or remote URL",
			Args:  cobra.ExactArgs(1),
			RunE: c.run(func(k *hostkit.Kit, args []string) error {
				s, err := k.File.GetURLContents(args[0])
				if err != nil {
					return err
				}
				return c.printer.value(strings.TrimSuffix(s, "\n"))
			}),
		},
		&cobra.Command{
			Use:   "copy <src> <dst>",
			Short: "Copy a file",
			Args:  cobra.ExactArgs(2),
			RunE: c.run(func(k *hostkit.Kit, args []string) error {
				if !k.File.Copy(args[0], args[1]) {
					return fmt.Errorf("failed to copy %s to %s", args[0], args[1])
				}
				return c.printer.success(fmt.Sprintf("copied %s to %s", args[0], args[1]))
			}),
		},
	)
	return cmd
}

func newDirCmd(c *cli) *cobra.Command {
	var recursive, tree bool
	ls := &cobra.Command{
		Use:   "ls [dir]",
		Short: "List a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: c.runCmd(func(cmd *cobra.Command, k *hostkit.Kit, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if !cmd.Flags().Changed("recursive") {
				recursive = k.Settings().ReadDirRecurse
			}
			var (
				entries []hostkit.Entry
				err     error
			)
			if tree {
				entries, err = k.Dir.ReadDirTree(dir)
			} else {
				entries, err = k.Dir.ReadDir(dir, recursive)
			}
			if err != nil {
				return err
			}
			if c.asJSON {
				return c.printer.value(entries)
			}
			var rows [][]string
			flatten(entries, func(e hostkit.Entry) {
				kind := "file"
				if e.IsDir {
					kind = "dir"
				}
				rows = append(rows, []string{kind, e.Path})
			})
			return c.printer.rows(rows)
		}),
	}
	ls.Flags().BoolVarP(&recursive, "recursive", "r", false, "Descend into subdirectories [default: readdir-recursive setting]")
	ls.Flags().BoolVar(&tree, "tree", false, "List the whole tree sorted by path")

	mkdir := &cobra.Command{
		Use:   "mkdir <dir>",
		Short: "Create a directory and its parents",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(k *hostkit.Kit, args []string) error {
			d, err := k.Dir.Create(args[0])
			if err != nil {
				return err
			}
			return c.printer.success("created " + d.Path)
		}),
	}

	cmd := &cobra.Command{
		Use:   "dir",
		Short: "List and create directories",
	}
	cmd.AddCommand(ls, mkdir)
	return cmd
}

func flatten(entries []hostkit.Entry, fn func(hostkit.Entry)) {
	for _, e := range entries {
		fn(e)
		flatten(e.Children, fn)
	}
}

func newPrefCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pref",
		Short: "Read and write preferences",
	}
	var add bool
	set := &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Set a preference and save the preferences file",
		Args:  cobra.ExactArgs(2),
		RunE: c.run(func(k *hostkit.Kit, args []string) error {
			value := prefValue(args[1])
			var err error
			if add {
				err = k.Pref.AddPref(args[0], value, nil)
			} else {
				err = k.Pref.SetPref(args[0], value, nil)
			}
			if err != nil {
				return err
			}
			prefs, err := k.Pref.GetPrefService()
			if err != nil {
				return err
			}
			if err := prefs.Save(); err != nil {
				return fmt.Errorf("failed to save preferences: %w", err)
			}
			return c.printer.success(fmt.Sprintf("%s = %v", args[0], value))
		}),
	}
	set.Flags().BoolVar(&add, "add", false, "Replace the stored type with the type of value")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <name>",
			Short: "Print a preference",
			Args:  cobra.ExactArgs(1),
			RunE: c.run(func(k *hostkit.Kit, args []string) error {
				v, err := k.Pref.GetPref(args[0], nil)
				if err != nil {
					return err
				}
				return c.printer.value(v)
			}),
		},
		set,
		&cobra.Command{
			Use:   "list [branch]",
			Short: "List preferences, optionally below a branch",
			Args:  cobra.MaximumNArgs(1),
			RunE: c.run(func(k *hostkit.Kit, args []string) error {
				prefs, err := k.Pref.GetPrefService()
				if err != nil {
					return err
				}
				if len(args) == 1 {
					prefs = prefs.Branch(args[0])
				}
				names := prefs.Names()
				sort.Strings(names)
				values := make(map[string]any, len(names))
				for _, name := range names {
					v, err := k.Pref.GetPref(name, prefs)
					if err != nil {
						return err
					}
					values[name] = v
				}
				return c.printer.fields(values)
			}),
		},
	)
	return cmd
}

// prefValue picks the preference type for a command line value.
func prefValue(s string) any {
	switch s {
	case "true", "false":
		return s == "true"
	}
	if n, err := cast.ToIntE(s); err == nil {
		return n
	}
	return s
}

func newRunCmd(c *cli) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "run <path> [args...]",
		Short: "Start an executable and print its pid",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.run(func(k *hostkit.Kit, args []string) error {
			pid, err := k.File.Run(args[0], args[1:], wait)
			if err != nil {
				return err
			}
			return c.printer.value(pid)
		}),
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the process to exit")
	return cmd
}

func newSoundCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "beep [sound-or-file]",
		Short: "Play the alert sound, a named system sound or a WAV file",
		Args:  cobra.MaximumNArgs(1),
		RunE: c.run(func(k *hostkit.Kit, args []string) error {
			switch {
			case len(args) == 0:
				return k.Sound.Beep()
			case k.File.Exists(args[0]):
				return k.Sound.Play(args[0])
			default:
				return k.Sound.PlaySystemSound(args[0])
			}
		}),
	}
}

func newUUIDCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "uuid",
		Short: "Generate a UUID",
		Args:  cobra.NoArgs,
		RunE: c.run(func(k *hostkit.Kit, _ []string) error {
			id := k.App.UUID()
			if id == "" {
				return hosttypes.NewError("uuid", hosttypes.KindUnavailable, "no uuid generator")
			}
			return c.printer.value(id)
		}),
	}
}

func newIncludeCmd(c *cli) *cobra.Command {
	var vars map[string]string
	cmd := &cobra.Command{
		Use:   "include <script>",
		Short: "Run a script and print the globals it leaves in scope",
		Args:  cobra.ExactArgs(1),
		RunE: c.run(func(k *hostkit.Kit, args []string) error {
			scope := namespace.Node{}
			for name, v := range vars {
				scope[name] = v
			}
			if err := k.App.Include(args[0], scope); err != nil {
				return err
			}
			out := make(map[string]any, len(scope))
			for name, v := range scope {
				if printable(v) {
					out[name] = v
				}
			}
			return c.printer.fields(out)
		}),
	}
	cmd.Flags().StringToStringVar(&vars, "set", nil, "Predefine a global (name=value)")
	return cmd
}

// printable drops functions and host objects from script results.
func printable(v any) bool {
	switch v.(type) {
	case nil, string, bool, int, int64, float64, []any, map[string]any:
		return true
	}
	return false
}

func newAskCmd(c *cli) *cobra.Command {
	var initial string
	cmd := &cobra.Command{
		Use:   "ask <title> <text>",
		Short: "Prompt for a line of input",
		Args:  cobra.ExactArgs(2),
		RunE: c.run(func(k *hostkit.Kit, args []string) error {
			value, ok, err := k.Dialog.Prompt(args[0], args[1], initial)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("prompt cancelled")
			}
			return c.printer.value(value)
		}),
	}
	cmd.Flags().StringVar(&initial, "initial", "", "Value used when the answer is empty")
	return cmd
}
