// Package main provides the hostkit command line: a thin shell over the
// hostkit facades running against the native host.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"hostkit/internal/config"
	"hostkit/internal/logger"
	"hostkit/internal/services"
	"hostkit/pkg/hostkit"
)

// cli holds the state shared by every subcommand of one invocation.
type cli struct {
	v          *viper.Viper
	in         io.Reader
	out        io.Writer
	fs         afero.Fs
	configDirs []string

	asJSON   bool
	settings config.Settings
	printer  *printer

	native *services.Native
	kit    *hostkit.Kit
}

func newCLI(in io.Reader, out io.Writer) *cli {
	return &cli{v: viper.New(), in: in, out: out}
}

// open builds the native host and the Kit on first use.
func (c *cli) open() (*hostkit.Kit, error) {
	if c.kit != nil {
		return c.kit, nil
	}
	opts := []services.NativeOption{services.WithPromptIO(c.in, c.out)}
	if c.fs != nil {
		opts = append(opts, services.WithFs(c.fs))
	}
	native, err := services.NewNativeHost(c.settings, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start native host: %w", err)
	}
	k, err := hostkit.New(native, hostkit.WithSettings(c.settings), hostkit.WithLogger(logger.NewStyledLogger("hostkit")))
	if err != nil {
		_ = native.Close()
		return nil, err
	}
	c.native, c.kit = native, k
	return k, nil
}

func (c *cli) close() error {
	if c.kit == nil {
		return nil
	}
	err := c.kit.Close()
	if cerr := c.native.Close(); err == nil {
		err = cerr
	}
	c.kit, c.native = nil, nil
	return err
}

// run adapts a Kit function into a cobra RunE.
func (c *cli) run(fn func(k *hostkit.Kit, args []string) error) func(*cobra.Command, []string) error {
	return c.runCmd(func(_ *cobra.Command, k *hostkit.Kit, args []string) error { return fn(k, args) })
}

// runCmd is run for commands that need to inspect their flags. The Kit and
// the native host are closed when fn returns, whether or not it failed.
func (c *cli) runCmd(fn func(cmd *cobra.Command, k *hostkit.Kit, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		k, err := c.open()
		if err != nil {
			return err
		}
		defer func() {
			if cerr := c.close(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd, k, args)
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "hostkit",
		Short: "hostkit - convenience layer over a host component system",
		Long: `hostkit exposes file, directory, codec, sound, dialog, preference, thread
and application helpers over a host component registry. This command runs
them against the built-in native host.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			s, err := config.Load(c.v, c.configDirs...)
			if err != nil {
				return err
			}
			if err := logger.Configure(s.LogLevel, s.LogFile, s.TestMode); err != nil {
				return fmt.Errorf("error configuring logger: %w", err)
			}
			c.settings = s
			c.printer = newPrinter(cmd.OutOrStdout(), c.asJSON)
			return nil
		},
	}
	root.SetOut(c.out)
	root.SetIn(c.in)

	flags := root.PersistentFlags()
	flags.String("log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	flags.String("log-file", "", "Write logs to file instead of stderr")
	flags.Bool("test-mode", false, "Run in deterministic test mode")
	flags.String("base-dir", "", "Directory relative script paths resolve against")
	flags.String("prefs-file", "", "Preferences file (.yaml, .toml or .json)")
	flags.String("descriptor-table", "", "YAML or TOML file overriding capability descriptors")
	flags.String("window-variant", "", "Parent handling for new windows (ignore-parent|forward-parent)")
	flags.BoolVar(&c.asJSON, "json", false, "Print results as JSON")
	for _, name := range []string{"log-level", "log-file", "test-mode", "base-dir", "prefs-file", "descriptor-table", "window-variant"} {
		if err := c.v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding %s flag: %v", name, err))
		}
	}

	root.AddCommand(
		newVersionCmd(c),
		newServicesCmd(c),
		newHashCmd(c),
		newCharsetCmd(c),
		newJSONCmd(c),
		newGzipCmd(c),
		newFileCmd(c),
		newDirCmd(c),
		newPrefCmd(c),
		newRunCmd(c),
		newSoundCmd(c),
		newUUIDCmd(c),
		newIncludeCmd(c),
		newAskCmd(c),
	)
	return root
}

func main() {
	c := newCLI(os.Stdin, os.Stdout)
	if err := newRootCmd(c).Execute(); err != nil {
		if c.printer != nil {
			c.printer.failure(err.Error())
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		_ = c.close()
		os.Exit(1)
	}
}
