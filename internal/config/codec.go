package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// moduleDoc is the on-disk form of a Module.
type moduleDoc struct {
	Type              string `yaml:"type"`
	Template          string `yaml:"template,omitempty"`
	Name              string `yaml:"name,omitempty"`
	IncludeRemovables *bool  `yaml:"include_removables,omitempty"`
}

type sectionDoc struct {
	Module     *moduleDoc `yaml:"module"`
	Decoration Decoration `yaml:"decoration"`
}

// MarshalYAML implements yaml.Marshaler.
func (s Section) MarshalYAML() (any, error) {
	if s.Module == nil {
		return nil, errors.New("section has no module")
	}
	enc := &encoder{}
	s.Module.Accept(enc)
	return sectionDoc{Module: &enc.doc, Decoration: s.Decoration}, nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Section) UnmarshalYAML(value *yaml.Node) error {
	// value.Decode starts a decoder without KnownFields, so nested keys are
	// checked here.
	if err := checkKeys(value, _sectionKeys); err != nil {
		return err
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		var allowed []string
		switch value.Content[i].Value {
		case "module":
			allowed = _moduleKeys
		case "decoration":
			allowed = _decorationKeys
		}
		if err := checkKeys(value.Content[i+1], allowed); err != nil {
			return err
		}
	}

	var doc sectionDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	if doc.Module == nil {
		return fmt.Errorf("line %d: section is missing a module", value.Line)
	}
	m, err := doc.Module.module()
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	s.Module = m
	s.Decoration = doc.Decoration
	return nil
}

var (
	_sectionKeys    = []string{"module", "decoration"}
	_moduleKeys     = []string{"type", "template", "name", "include_removables"}
	_decorationKeys = []string{"before", "after"}
)

// checkKeys rejects mapping keys of node outside allowed. Non-mapping nodes
// are left to the decoder.
func checkKeys(node *yaml.Node, allowed []string) error {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i < len(node.Content); i += 2 {
		key := node.Content[i]
		if !slices.Contains(allowed, key.Value) {
			return fmt.Errorf("line %d: unknown field %q (want one of %s)", key.Line, key.Value, strings.Join(allowed, ", "))
		}
	}
	return nil
}

func (d *moduleDoc) module() (Module, error) {
	switch d.Type {
	case KindTimestamp:
		return Timestamp{Template: d.Template}, nil
	case KindMemoryUsage:
		return MemoryUsage{}, nil
	case KindSwapUsage:
		return SwapUsage{}, nil
	case KindCPUUsage:
		return CPUUsage{}, nil
	case KindProcessCount:
		return ProcessCount{}, nil
	case KindDiskUsage:
		return DiskUsage{Name: d.Name}, nil
	case KindDiskUsageTotal:
		return DiskUsageTotal{IncludeRemovables: d.IncludeRemovables != nil && *d.IncludeRemovables}, nil
	case "":
		return nil, errors.New("module type is required")
	default:
		return nil, fmt.Errorf("unknown module type %q (want one of %s)", d.Type, strings.Join(Kinds, ", "))
	}
}

var _ Visitor = (*encoder)(nil)

type encoder struct{ doc moduleDoc }

func (e *encoder) VisitTimestamp(m Timestamp) {
	e.doc = moduleDoc{Type: KindTimestamp, Template: m.Template}
}
func (e *encoder) VisitMemoryUsage(MemoryUsage)   { e.doc = moduleDoc{Type: KindMemoryUsage} }
func (e *encoder) VisitSwapUsage(SwapUsage)       { e.doc = moduleDoc{Type: KindSwapUsage} }
func (e *encoder) VisitCPUUsage(CPUUsage)         { e.doc = moduleDoc{Type: KindCPUUsage} }
func (e *encoder) VisitProcessCount(ProcessCount) { e.doc = moduleDoc{Type: KindProcessCount} }
func (e *encoder) VisitDiskUsage(m DiskUsage) {
	e.doc = moduleDoc{Type: KindDiskUsage, Name: m.Name}
}
func (e *encoder) VisitDiskUsageTotal(m DiskUsageTotal) {
	include := m.IncludeRemovables
	e.doc = moduleDoc{Type: KindDiskUsageTotal, IncludeRemovables: &include}
}

// Decode parses and validates a configuration document. Scalar fields that
// are absent keep their default values; sections do not.
func Decode(data []byte) (*Config, error) {
	cfg := &Config{
		Separator:        DefaultSeparator,
		UpdateIntervalMS: DefaultUpdateIntervalMS,
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: config file is empty", ErrInvalidConfig)
		}
		return nil, fmt.Errorf("%w: decoding config file: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return cfg, nil
}

const _header = `stringbar configuration.

The file is reloaded automatically whenever it is saved. A file that fails
to parse is ignored and the previous configuration stays active.`

var _keyComments = map[string]string{
	"separator":          "Text placed between two sections.",
	"update_interval_ms": "Milliseconds between two renders.",
	"decimal_data_units": "true renders sizes in KB/MB/GB (1000-based), false in KiB/MiB/GiB (1024-based).",
	"sections": `Rendered in order. Each section has a module and an optional decoration
with before/after text. Module types:
  timestamp         template: strftime format, e.g. "%d/%m/%Y %H:%M"
  memory_usage
  swap_usage
  cpu_usage
  process_count
  disk_usage        name: device name, e.g. /dev/sda
  disk_usage_total  include_removables: true|false`,
}

// Encode writes cfg as a commented YAML document.
func Encode(w io.Writer, cfg *Config) error {
	var root yaml.Node
	if err := root.Encode(cfg); err != nil {
		return err
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if c, ok := _keyComments[root.Content[i].Value]; ok {
			root.Content[i].HeadComment = comment(c)
		}
	}
	doc := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: comment(_header),
		Content:     []*yaml.Node{&root},
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func comment(text string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		if l == "" {
			lines[i] = "#"
			continue
		}
		lines[i] = "# " + l
	}
	return strings.Join(lines, "\n")
}
