package config_test

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/lc/stringbar/internal/bytesize"
	"github.com/lc/stringbar/internal/config"
	"github.com/lc/stringbar/internal/filesys"
	"github.com/lc/stringbar/internal/mocks"
)

type ConfigTestSuite struct {
	suite.Suite
	dir      string
	path     string
	provider *config.FSProvider
}

func (s *ConfigTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.path = filepath.Join(s.dir, "stringbar", "config.yaml")
	s.provider = config.NewWithPath(filesys.OS(), s.path)
}

func (s *ConfigTestSuite) write(content string) {
	s.Require().NoError(os.MkdirAll(filepath.Dir(s.path), 0o755))
	s.Require().NoError(os.WriteFile(s.path, []byte(content), 0o644))
}

func (s *ConfigTestSuite) TestLoadWritesDefaultWhenNoFile() {
	// When loading configuration with no file present
	cfg, err := s.provider.Load()

	// Then the default configuration is returned and persisted
	s.Require().NoError(err)
	s.Equal(config.Default(), cfg)

	data, err := os.ReadFile(s.path)
	s.Require().NoError(err)
	s.Contains(string(data), "# stringbar configuration.")

	reloaded, err := config.Decode(data)
	s.Require().NoError(err)
	s.Equal(config.Default(), reloaded)
}

func (s *ConfigTestSuite) TestLoadDoesNotOverwriteExistingFile() {
	// Given a file that appears between the read and the exclusive create
	m := new(mocks.MockOsFS)
	dir := filepath.Dir(s.path)
	m.On("Stat", dir).Return(nil, nil)
	m.On("ReadFile", s.path).Return(nil, fs.ErrNotExist).Once()
	m.On("OpenFile", s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, os.FileMode(0o644)).Return(nil, fs.ErrExist)
	m.On("ReadFile", s.path).Return([]byte("separator: \" / \"\nupdate_interval_ms: 250\nsections: []\n"), nil).Once()

	// When loading
	cfg, err := config.NewWithPath(m, s.path).Load()

	// Then the concurrently written file wins
	s.Require().NoError(err)
	s.Equal(" / ", cfg.Separator)
	s.Equal(250*time.Millisecond, cfg.Interval())
	m.AssertExpectations(s.T())
}

func (s *ConfigTestSuite) TestLoadFailsWhenDefaultCannotBeWritten() {
	m := new(mocks.MockOsFS)
	m.On("Stat", filepath.Dir(s.path)).Return(nil, nil)
	m.On("ReadFile", s.path).Return(nil, fs.ErrNotExist)
	m.On("OpenFile", s.path, mock.Anything, mock.Anything).Return(nil, fs.ErrPermission)

	_, err := config.NewWithPath(m, s.path).Load()

	s.Require().Error(err)
	s.ErrorIs(err, fs.ErrPermission)
	s.Contains(err.Error(), "creating config file")
	s.Equal(config.OutcomeIOFailed, config.Outcome(err))
}

func (s *ConfigTestSuite) TestLoadFailsWhenDirectoryCannotBeCreated() {
	m := new(mocks.MockOsFS)
	dir := filepath.Dir(s.path)
	m.On("Stat", dir).Return(nil, fs.ErrNotExist)
	m.On("MkdirAll", dir, os.FileMode(0o755)).Return(errors.New("read-only file system"))

	_, err := config.NewWithPath(m, s.path).Load()

	s.Require().Error(err)
	s.Contains(err.Error(), "creating config directory")
	m.AssertNotCalled(s.T(), "ReadFile", mock.Anything)
}

func (s *ConfigTestSuite) TestLoadValidConfig() {
	// Given a valid config file
	s.write(`
separator: " :: "
update_interval_ms: 500
decimal_data_units: true
sections:
  - module:
      type: cpu_usage
    decoration:
      before: "cpu "
      after: "!"
  - module:
      type: disk_usage
      name: /dev/nvme0n1p2
  - module:
      type: disk_usage_total
      include_removables: true
  - module:
      type: process_count
  - module:
      type: swap_usage
`)
	// When loading configuration
	cfg, err := s.provider.Load()

	// Then custom values should be loaded in order
	s.Require().NoError(err)
	s.Equal(" :: ", cfg.Separator)
	s.Equal(500*time.Millisecond, cfg.Interval())
	s.Equal(bytesize.Decimal, cfg.System())
	s.Require().Len(cfg.Sections, 5)
	s.Equal(config.CPUUsage{}, cfg.Sections[0].Module)
	s.Equal("cpu ", *cfg.Sections[0].Decoration.Before)
	s.Equal("!", *cfg.Sections[0].Decoration.After)
	s.Equal(config.DiskUsage{Name: "/dev/nvme0n1p2"}, cfg.Sections[1].Module)
	s.Nil(cfg.Sections[1].Decoration.Before)
	s.Equal(config.DiskUsageTotal{IncludeRemovables: true}, cfg.Sections[2].Module)
	s.Equal(config.ProcessCount{}, cfg.Sections[3].Module)
	s.Equal(config.SwapUsage{}, cfg.Sections[4].Module)
}

func (s *ConfigTestSuite) TestLoadAppliesScalarDefaults() {
	s.write("sections:\n  - module:\n      type: memory_usage\n")

	cfg, err := s.provider.Load()

	s.Require().NoError(err)
	s.Equal(config.DefaultSeparator, cfg.Separator)
	s.Equal(uint64(config.DefaultUpdateIntervalMS), cfg.UpdateIntervalMS)
	s.Equal(bytesize.Binary, cfg.System())
}

func (s *ConfigTestSuite) TestLoadInvalid() {
	testCases := []struct {
		name        string
		content     string
		expectedErr string
	}{
		{
			name:        "malformed yaml",
			content:     "separator: [invalid: yaml\n",
			expectedErr: "decoding config file",
		},
		{
			name:        "empty file",
			content:     "",
			expectedErr: "config file is empty",
		},
		{
			name:        "unknown top-level key",
			content:     "separatr: \" | \"\n",
			expectedErr: "field separatr not found",
		},
		{
			name:        "unknown module type",
			content:     "sections:\n  - module:\n      type: gpu_usage\n",
			expectedErr: `unknown module type "gpu_usage"`,
		},
		{
			name:        "missing module",
			content:     "sections:\n  - decoration:\n      before: x\n",
			expectedErr: "section is missing a module",
		},
		{
			name:        "missing module type",
			content:     "sections:\n  - module:\n      name: /dev/sda\n",
			expectedErr: "module type is required",
		},
		{
			name:        "unknown module key",
			content:     "sections:\n  - module:\n      type: disk_usage_total\n      include_removable: true\n",
			expectedErr: `unknown field "include_removable"`,
		},
		{
			name:        "unknown decoration key",
			content:     "sections:\n  - module:\n      type: cpu_usage\n    decoration: {befor: \"ram \"}\n",
			expectedErr: `unknown field "befor"`,
		},
		{
			name:        "unknown section key",
			content:     "sections:\n  - module:\n      type: cpu_usage\n    decorations: {}\n",
			expectedErr: `unknown field "decorations"`,
		},
		{
			name:        "negative interval",
			content:     "update_interval_ms: -5\n",
			expectedErr: "decoding config file",
		},
		{
			name:        "zero interval",
			content:     "update_interval_ms: 0\n",
			expectedErr: "update_interval_ms must be greater than 0",
		},
		{
			name:        "empty disk name",
			content:     "sections:\n  - module:\n      type: disk_usage\n",
			expectedErr: "sections[0] disk_usage: name cannot be empty",
		},
		{
			name:        "empty template",
			content:     "sections:\n  - module:\n      type: timestamp\n",
			expectedErr: "sections[0] timestamp: template cannot be empty",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.SetupTest()
			s.write(tc.content)

			_, err := s.provider.Load()

			s.Require().Error(err)
			s.ErrorIs(err, config.ErrInvalidConfig)
			s.Contains(err.Error(), tc.expectedErr)
			s.Equal(config.OutcomeParseFailed, config.Outcome(err))
		})
	}
}

func (s *ConfigTestSuite) TestLoadUnreadableFile() {
	m := new(mocks.MockOsFS)
	m.On("Stat", filepath.Dir(s.path)).Return(nil, nil)
	m.On("ReadFile", s.path).Return(nil, fs.ErrPermission)

	_, err := config.NewWithPath(m, s.path).Load()

	s.Require().Error(err)
	s.Contains(err.Error(), "reading config file")
	s.Equal(config.OutcomeIOFailed, config.Outcome(err))
	m.AssertNotCalled(s.T(), "OpenFile", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ConfigTestSuite) TestValidationCollectsEveryProblem() {
	cfg := &config.Config{
		UpdateIntervalMS: 0,
		Sections: []config.Section{
			{Module: config.Timestamp{}},
			{Module: config.MemoryUsage{}},
			{Module: config.DiskUsage{Name: "  "}},
			{},
		},
	}

	err := cfg.Validate()

	s.Require().Error(err)
	s.Contains(err.Error(), "update_interval_ms must be greater than 0")
	s.Contains(err.Error(), "sections[0] timestamp: template cannot be empty")
	s.Contains(err.Error(), "sections[2] disk_usage: name cannot be empty")
	s.Contains(err.Error(), "sections[3]: module is required")
	s.NotContains(err.Error(), "sections[1]")
}

func (s *ConfigTestSuite) TestDefaultRoundTrip() {
	var buf bytes.Buffer
	s.Require().NoError(config.Encode(&buf, config.Default()))

	cfg, err := config.Decode(buf.Bytes())

	s.Require().NoError(err)
	s.Equal(config.Default(), cfg)
	s.Require().Len(cfg.Sections, 4)
	s.Equal(config.KindMemoryUsage, cfg.Sections[0].Module.Kind())
	s.Equal(config.KindDiskUsage, cfg.Sections[1].Module.Kind())
	s.Equal(config.KindDiskUsageTotal, cfg.Sections[2].Module.Kind())
	s.Equal(config.KindTimestamp, cfg.Sections[3].Module.Kind())
}

func (s *ConfigTestSuite) TestEncodeDocumentsEveryModuleType() {
	var buf bytes.Buffer
	s.Require().NoError(config.Encode(&buf, config.Default()))

	out := buf.String()
	for _, kind := range config.Kinds {
		s.Contains(out, kind)
	}
	s.Contains(out, "include_removables: false")
}

func (s *ConfigTestSuite) TestEncodeRejectsSectionWithoutModule() {
	var buf bytes.Buffer
	err := config.Encode(&buf, &config.Config{UpdateIntervalMS: 1, Sections: []config.Section{{}}})
	s.Error(err)
}

func (s *ConfigTestSuite) TestOutcome() {
	s.Equal(config.OutcomeParsedOK, config.Outcome(nil))
	s.Equal(config.OutcomeMissing, config.Outcome(config.ErrNoConfig))
	s.Equal("parse_failed", config.OutcomeParseFailed.String())
	s.Equal("io_failed", config.Outcome(errors.New("disk on fire")).String())
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
