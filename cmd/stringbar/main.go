// Command `stringbar` renders a configurable system status line and publishes
// it to the window manager's bar.
//
// Usage:
//
//	stringbar                      - Run the status bar daemon (same as "stringbar run")
//	stringbar once                 - Render and publish a single status line
//	stringbar preview              - Show each configured section and its current output
//	stringbar config path|show|check|reset
//	stringbar version
//
// The configuration lives in $XDG_CONFIG_HOME/stringbar/config.yaml and is
// created with defaults on first start. Edits are picked up while running.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lc/stringbar/internal/buildinfo"
	"github.com/lc/stringbar/internal/config"
	"github.com/lc/stringbar/internal/engine"
	"github.com/lc/stringbar/internal/filesys"
	"github.com/lc/stringbar/internal/log"
	"github.com/lc/stringbar/internal/metrics"
	"github.com/lc/stringbar/internal/render"
	"github.com/lc/stringbar/internal/sink"
	"github.com/lc/stringbar/internal/store"
)

func main() {
	defer log.Sync()

	opts, err := loadOptions()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	root := newRootCmd(opts)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:   "stringbar",
		Short: "Configurable system status line",
		Long: `stringbar renders memory, swap, CPU, process, disk and clock readings into
a single line and publishes it to your bar, by default through "xsetroot -name".
Sections, separator and refresh interval come from a YAML file that is reloaded
whenever it changes.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDaemon(opts)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", opts.ConfigPath, "configuration file (default $XDG_CONFIG_HOME/stringbar/config.yaml)")
	flags.StringVar(&opts.Sink, "sink", opts.Sink, "command the status line is appended to and run")
	flags.BoolVar(&opts.Stdout, "stdout", opts.Stdout, "write status lines to stdout instead of running --sink")
	flags.DurationVar(&opts.Debounce, "debounce", opts.Debounce, "collapse config file changes within this window into one reload")

	// ---- run command ----
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the status bar daemon",
		Long: `Render the status line on the configured interval and publish it to the sink.
The configuration file is watched and reloaded on change; a broken edit is
logged and the previous configuration stays in effect.`,
		Example: "stringbar run --stdout | lemonbar",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runDaemon(opts)
		},
	}

	// ---- version command ----
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("version: %s\n", buildinfo.Version)
			fmt.Printf("commit: %s\n", buildinfo.Commit)
		},
	}

	root.AddCommand(runCmd, newOnceCmd(opts), newPreviewCmd(opts), newConfigCmd(opts), versionCmd)
	return root
}

func stdoutSink() sink.Sink { return sink.NewWriter(os.Stdout) }

// openStore resolves the configuration file and performs the initial load.
// Failures here are fatal: there is no configuration to run with.
func openStore(opts *options) (*store.Store, string) {
	path, err := opts.configPath()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	st, err := store.New(config.NewWithPath(filesys.OS(), path))
	if err != nil {
		log.Fatal("stringbar: cannot load configuration", "path", path, "err", err)
	}
	return st, path
}

func runDaemon(opts *options) error {
	out, err := opts.newSink(stdoutSink)
	if err != nil {
		return err
	}
	st, path := openStore(opts)

	eng := engine.New(st, render.New(metrics.NewSystem()), out)
	watcher := store.NewWatcher(st, path, store.WithDebounce(opts.Debounce))

	g, gctx := errgroup.WithContext(context.Background())
	g.Go(func() error {
		if err := watcher.Run(gctx); err != nil {
			log.Error("stringbar: config watcher stopped, changes will not be reloaded", "path", path, "err", err)
		}
		return nil
	})
	g.Go(func() error {
		return eng.Run(gctx)
	})

	log.Info("stringbar: running",
		"version", buildinfo.Version,
		"config", path,
		"interval", st.Snapshot().Interval().String(),
	)
	return g.Wait()
}

func newOnceCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Render and publish a single status line",
		Long: `Render the configured sections once, publish the result to the sink and exit.
Useful for checking a sink command or driving stringbar from another scheduler.`,
		Example: "stringbar once --stdout",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			out, err := opts.newSink(stdoutSink)
			if err != nil {
				return err
			}
			st, _ := openStore(opts)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			status := render.New(metrics.NewSystem()).Render(ctx, st.Snapshot())
			return out.Publish(ctx, status)
		},
	}
}
