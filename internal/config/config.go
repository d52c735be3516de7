// Package config provides configuration loading and validation for stringbar.
// It handles reading the configuration file, writing a default when none
// exists, and ensuring all required settings are properly set.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"
	"go.uber.org/multierr"

	"github.com/lc/stringbar/internal/bytesize"
	"github.com/lc/stringbar/internal/filesys"
	"github.com/lc/stringbar/internal/log"
)

var (
	// ErrInvalidConfig is returned when the configuration cannot be parsed or is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")
	// ErrNoConfig is returned when the configuration file is not found.
	ErrNoConfig = errors.New("configuration file not found")
)

const (
	// AppName names the per-user configuration directory.
	AppName = "stringbar"
	// FileName is the configuration file inside that directory.
	FileName = "config.yaml"
	// DefaultSeparator is placed between rendered sections.
	DefaultSeparator = " | "
	// DefaultUpdateIntervalMS is the default render cadence.
	DefaultUpdateIntervalMS = 1000
)

// Config holds the render configuration. A loaded Config is never mutated;
// reloads replace it with a new value.
type Config struct {
	Separator        string    `yaml:"separator"`
	UpdateIntervalMS uint64    `yaml:"update_interval_ms"`
	DecimalDataUnits bool      `yaml:"decimal_data_units"`
	Sections         []Section `yaml:"sections"`
}

// Section is one slot of the status line.
type Section struct {
	Module     Module
	Decoration Decoration
}

// Decoration is optional text placed around a section's output.
type Decoration struct {
	Before *string `yaml:"before,omitempty"`
	After  *string `yaml:"after,omitempty"`
}

// Interval returns the pause between two renders.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.UpdateIntervalMS) * time.Millisecond
}

// System returns the numbering system byte-sized modules are formatted in.
func (c *Config) System() bytesize.System {
	if c.DecimalDataUnits {
		return bytesize.Decimal
	}
	return bytesize.Binary
}

// Default returns the built-in configuration written on first start.
func Default() *Config {
	return &Config{
		Separator:        DefaultSeparator,
		UpdateIntervalMS: DefaultUpdateIntervalMS,
		DecimalDataUnits: false,
		Sections: []Section{
			{Module: MemoryUsage{}, Decoration: Decoration{Before: ptr("dram ")}},
			{Module: DiskUsage{Name: "/dev/sda"}, Decoration: Decoration{Before: ptr("sda ")}},
			{Module: DiskUsageTotal{IncludeRemovables: false}, Decoration: Decoration{Before: ptr("total ")}},
			{Module: Timestamp{Template: "%d/%m/%Y %H:%M"}},
		},
	}
}

func ptr(s string) *string { return &s }

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var err error
	if c.UpdateIntervalMS == 0 {
		err = multierr.Append(err, errors.New("update_interval_ms must be greater than 0"))
	}
	for i, s := range c.Sections {
		if s.Module == nil {
			err = multierr.Append(err, fmt.Errorf("sections[%d]: module is required", i))
			continue
		}
		v := &validator{}
		s.Module.Accept(v)
		if v.err != nil {
			err = multierr.Append(err, fmt.Errorf("sections[%d] %s: %w", i, s.Module.Kind(), v.err))
		}
	}
	return err
}

var _ Visitor = (*validator)(nil)

type validator struct{ err error }

func (v *validator) VisitTimestamp(m Timestamp) {
	if strings.TrimSpace(m.Template) == "" {
		v.err = errors.New("template cannot be empty")
		return
	}
	if _, err := strftime.New(m.Template); err != nil {
		v.err = fmt.Errorf("template %q: %w", m.Template, err)
	}
}

func (v *validator) VisitDiskUsage(m DiskUsage) {
	if strings.TrimSpace(m.Name) == "" {
		v.err = errors.New("name cannot be empty")
	}
}

func (*validator) VisitMemoryUsage(MemoryUsage)       {}
func (*validator) VisitSwapUsage(SwapUsage)           {}
func (*validator) VisitCPUUsage(CPUUsage)             {}
func (*validator) VisitProcessCount(ProcessCount)     {}
func (*validator) VisitDiskUsageTotal(DiskUsageTotal) {}

// DefaultPath returns the per-user configuration file path,
// e.g. ~/.config/stringbar/config.yaml on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving config directory: %w", err)
	}
	return filepath.Join(dir, AppName, FileName), nil
}

// Provider defines the interface for loading configuration.
type Provider interface {
	// Load reads the configuration, writing the default first if no file exists.
	Load() (*Config, error)
	// Path returns the file the provider reads.
	Path() string
}

// FSProvider implements Provider using the local filesystem.
type FSProvider struct {
	fs   filesys.ReadWriteFS
	path string
}

// Verify FSProvider implements Provider interface.
var _ Provider = (*FSProvider)(nil)

// NewWithPath creates a new provider with a specific config path.
// It allows specifying both the filesystem implementation and the path to use.
func NewWithPath(fs filesys.ReadWriteFS, path string) *FSProvider {
	return &FSProvider{
		fs:   fs,
		path: path,
	}
}

// Path returns the configuration file path.
func (p *FSProvider) Path() string { return p.path }

// Load loads the configuration from the provider's path. A missing file is
// created exclusively with the default configuration, which is then returned.
func (p *FSProvider) Load() (*Config, error) {
	if err := p.ensureConfigDir(); err != nil {
		return nil, err
	}

	cfg, err := p.loadAndParse()
	if errors.Is(err, ErrNoConfig) {
		return p.createDefault()
	}
	return cfg, err
}

func (p *FSProvider) ensureConfigDir() error {
	dir := filepath.Dir(p.path)
	if _, err := p.fs.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		if err := p.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	return nil
}

func (p *FSProvider) loadAndParse() (*Config, error) {
	data, err := p.fs.ReadFile(p.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoConfig
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Decode(data)
}

func (p *FSProvider) createDefault() (*Config, error) {
	cfg := Default()
	var buf bytes.Buffer
	if err := Encode(&buf, cfg); err != nil {
		return nil, fmt.Errorf("encoding default config: %w", err)
	}

	err := filesys.CreateExclusive(p.fs, p.path, buf.Bytes(), 0o644)
	if errors.Is(err, fs.ErrExist) {
		// Lost the race against another writer: use what it wrote.
		return p.loadAndParse()
	}
	if err != nil {
		return nil, fmt.Errorf("creating config file: %w", err)
	}

	log.Info("config: wrote default config file", "path", p.path)
	return cfg, nil
}

// LoadOutcome classifies the result of a load attempt.
type LoadOutcome int

const (
	OutcomeParsedOK LoadOutcome = iota
	OutcomeMissing
	OutcomeParseFailed
	OutcomeIOFailed
)

func (o LoadOutcome) String() string {
	switch o {
	case OutcomeParsedOK:
		return "parsed"
	case OutcomeMissing:
		return "missing"
	case OutcomeParseFailed:
		return "parse_failed"
	default:
		return "io_failed"
	}
}

// Outcome maps an error returned by Load to its LoadOutcome.
func Outcome(err error) LoadOutcome {
	switch {
	case err == nil:
		return OutcomeParsedOK
	case errors.Is(err, ErrNoConfig):
		return OutcomeMissing
	case errors.Is(err, ErrInvalidConfig):
		return OutcomeParseFailed
	default:
		return OutcomeIOFailed
	}
}
