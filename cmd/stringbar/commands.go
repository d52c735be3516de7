package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/lc/stringbar/internal/config"
	"github.com/lc/stringbar/internal/filesys"
	"github.com/lc/stringbar/internal/metrics"
	"github.com/lc/stringbar/internal/render"
)

func newPreviewCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Show each configured section and its current output",
		Long: `Render every section once and print them as a table, followed by the
assembled status line. Nothing is published to the sink.`,
		Example: "stringbar preview --config ./bar.yaml",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			st, path := openStore(opts)
			cfg := st.Snapshot()

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			sections := render.New(metrics.NewSystem()).Sections(ctx, cfg)

			color.New(color.Bold).Printf("CONFIG: ")
			color.New(color.FgHiWhite).Println(path)
			if len(sections) == 0 {
				color.Yellow("No sections configured.")
				return nil
			}
			writePreview(os.Stdout, cfg, sections)

			color.New(color.Bold).Println("STATUS LINE:")
			fmt.Println(render.Join(sections, cfg.Separator))
			return nil
		},
	}
}

func writePreview(w io.Writer, cfg *config.Config, sections []string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Module", "Output"})
	table.SetHeaderColor(
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
		tablewriter.Colors{tablewriter.Bold, tablewriter.FgHiCyanColor},
	)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetColumnColor(
		tablewriter.Colors{tablewriter.FgHiWhiteColor},
		tablewriter.Colors{tablewriter.FgGreenColor},
		tablewriter.Colors{tablewriter.FgYellowColor},
	)
	for i, s := range cfg.Sections {
		table.Append([]string{strconv.Itoa(i + 1), describe(s.Module), sections[i]})
	}
	table.Render()
}

// describe names a module together with its settings, e.g. "disk_usage /dev/sda".
func describe(m config.Module) string {
	switch m := m.(type) {
	case config.Timestamp:
		return m.Kind() + " " + strconv.Quote(m.Template)
	case config.DiskUsage:
		return m.Kind() + " " + m.Name
	case config.DiskUsageTotal:
		if m.IncludeRemovables {
			return m.Kind() + " +removables"
		}
		return m.Kind()
	case nil:
		return "?"
	default:
		return m.Kind()
	}
}

func newConfigCmd(opts *options) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or reset the configuration file",
	}

	// ---- config path ----
	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := opts.configPath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	}

	// ---- config show ----
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the configuration in effect",
		Long: `Load the configuration file, creating the default if it is missing, and
print it in canonical form.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			st, _ := openStore(opts)
			return config.Encode(os.Stdout, st.Snapshot())
		},
	}

	// ---- config check ----
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration file without running",
		Long: `Parse and validate the configuration file and report every problem found.
Unlike the other commands, check never creates a missing file.`,
		Example: "stringbar config check --config ./bar.yaml",
		Args:    cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := opts.configPath()
			if err != nil {
				return err
			}
			cfg, err := checkFile(filesys.OS(), path)
			if err != nil {
				color.Red("✖ %s", path)
				for _, line := range strings.Split(err.Error(), "; ") {
					color.New(color.FgYellow).Printf("  %s\n", line)
				}
				return errors.New("configuration is invalid")
			}
			color.New(color.FgGreen, color.Bold).Printf("✓ %s ", path)
			color.New(color.FgGreen).Printf("is valid (%d sections, every %s)\n", len(cfg.Sections), cfg.Interval())
			return nil
		},
	}

	// ---- config reset ----
	var yes bool
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Overwrite the configuration file with the defaults",
		Long: `Replace the configuration file with the built-in default. The file is
written atomically, so a running daemon reloads it in one step.`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path, err := opts.configPath()
			if err != nil {
				return err
			}
			if !yes {
				color.New(color.FgHiRed, color.Bold).Print("WARNING: ")
				color.New(color.FgYellow).Printf("This replaces ")
				color.New(color.FgHiYellow, color.Bold).Printf("%s\n", path)
				color.New(color.FgYellow).Println("with the default configuration. Your sections will be lost.")
				color.New(color.FgHiWhite).Print("Are you sure you want to proceed? (y/yes/n/no): ")

				var response string
				if _, err := fmt.Scanln(&response); err != nil {
					return fmt.Errorf("failed to read input: %w", err)
				}
				response = strings.ToLower(response)
				if response != "y" && response != "yes" {
					return fmt.Errorf("operation aborted")
				}
			}
			if err := resetFile(filesys.OS(), path); err != nil {
				return err
			}
			color.New(color.FgGreen, color.Bold).Printf("✓ Wrote default configuration to ")
			color.New(color.FgHiGreen, color.Bold).Println(path)
			return nil
		},
	}
	resetCmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")

	configCmd.AddCommand(pathCmd, showCmd, checkCmd, resetCmd)
	return configCmd
}

func checkFile(fsys filesys.ReadWriteFS, path string) (*config.Config, error) {
	data, err := fsys.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, config.ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return config.Decode(data)
}

func resetFile(fsys filesys.FileOps, path string) error {
	var buf bytes.Buffer
	if err := config.Encode(&buf, config.Default()); err != nil {
		return fmt.Errorf("encoding default config: %w", err)
	}
	if err := filesys.AtomicWrite(fsys, path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
