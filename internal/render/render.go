// Package render turns a configuration snapshot into the status line.
package render

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"

	"github.com/lc/stringbar/internal/bytesize"
	"github.com/lc/stringbar/internal/config"
	"github.com/lc/stringbar/internal/log"
	"github.com/lc/stringbar/internal/metrics"
)

// NotAvailable is rendered for a section whose value cannot be determined.
const NotAvailable = "N/A"

// Renderer evaluates configured sections against a metrics provider.
type Renderer struct {
	metrics metrics.Provider
	now     func() time.Time
}

// Opt is a function option for configuring the Renderer.
type Opt func(r *Renderer)

// WithClock overrides the time source used by timestamp modules.
func WithClock(now func() time.Time) Opt {
	return func(r *Renderer) { r.now = now }
}

// New creates a Renderer backed by provider.
func New(provider metrics.Provider, opts ...Opt) *Renderer {
	r := &Renderer{metrics: provider, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render produces the status line for cfg.
func (r *Renderer) Render(ctx context.Context, cfg *config.Config) string {
	return Join(r.Sections(ctx, cfg), cfg.Separator)
}

// Join concatenates rendered sections. The separator is written before a
// section whenever something has already been written, even when that
// section is empty.
func Join(sections []string, separator string) string {
	var b strings.Builder
	for _, out := range sections {
		if b.Len() > 0 {
			b.WriteString(separator)
		}
		b.WriteString(out)
	}
	return b.String()
}

// Sections evaluates every section of cfg, decoration included, in order.
// All sections share one sample of the disk list.
func (r *Renderer) Sections(ctx context.Context, cfg *config.Config) []string {
	t := &tick{ctx: ctx, r: r, system: cfg.System()}
	out := make([]string, 0, len(cfg.Sections))
	for _, s := range cfg.Sections {
		var b strings.Builder
		if s.Decoration.Before != nil {
			b.WriteString(*s.Decoration.Before)
		}
		b.WriteString(t.eval(s.Module))
		if s.Decoration.After != nil {
			b.WriteString(*s.Decoration.After)
		}
		out = append(out, b.String())
	}
	return out
}

// FormatUsage renders "used/total unit", scaling both against the unit that
// fits total, e.g. "3.20/15.54 GiB".
func FormatUsage(used, total uint64, system bytesize.System) string {
	f := bytesize.Fit(total, system)
	return f.Quotient(used) + "/" + f.Format(total)
}

var _ config.Visitor = (*tick)(nil)

// tick holds the state of one render pass.
type tick struct {
	ctx    context.Context
	r      *Renderer
	system bytesize.System
	out    string

	disksLoaded bool
	disks       []metrics.Disk
	disksErr    error
}

func (t *tick) eval(m config.Module) string {
	if m == nil {
		return NotAvailable
	}
	t.out = ""
	m.Accept(t)
	return t.out
}

func (t *tick) fail(kind string, err error) {
	log.Debug("render: module unavailable", "module", kind, "err", err)
	t.out = NotAvailable
}

// diskList samples the disks at most once per tick, failures included.
func (t *tick) diskList() ([]metrics.Disk, error) {
	if !t.disksLoaded {
		t.disks, t.disksErr = t.r.metrics.Disks(t.ctx)
		t.disksLoaded = true
	}
	return t.disks, t.disksErr
}

func (t *tick) VisitTimestamp(m config.Timestamp) {
	s, err := strftime.Format(m.Template, t.r.now())
	if err != nil {
		t.fail(m.Kind(), err)
		return
	}
	t.out = s
}

func (t *tick) VisitMemoryUsage(m config.MemoryUsage) {
	u, err := t.r.metrics.Memory(t.ctx)
	if err != nil {
		t.fail(m.Kind(), err)
		return
	}
	t.out = FormatUsage(u.Used, u.Total, t.system)
}

func (t *tick) VisitSwapUsage(m config.SwapUsage) {
	u, err := t.r.metrics.Swap(t.ctx)
	if err != nil {
		t.fail(m.Kind(), err)
		return
	}
	t.out = FormatUsage(u.Used, u.Total, t.system)
}

func (t *tick) VisitCPUUsage(m config.CPUUsage) {
	pct, err := t.r.metrics.CPUPercent(t.ctx)
	if err != nil {
		t.fail(m.Kind(), err)
		return
	}
	t.out = fmt.Sprintf("%.2f%%", pct)
}

func (t *tick) VisitProcessCount(m config.ProcessCount) {
	n, err := t.r.metrics.ProcessCount(t.ctx)
	if err != nil {
		t.fail(m.Kind(), err)
		return
	}
	t.out = strconv.Itoa(n)
}

func (t *tick) VisitDiskUsage(m config.DiskUsage) {
	disks, err := t.diskList()
	if err != nil {
		t.fail(m.Kind(), err)
		return
	}
	for _, d := range disks {
		if d.Name == m.Name {
			t.out = FormatUsage(d.Used(), d.Total, t.system)
			return
		}
	}
	t.out = NotAvailable
}

func (t *tick) VisitDiskUsageTotal(m config.DiskUsageTotal) {
	disks, err := t.diskList()
	if err != nil {
		t.fail(m.Kind(), err)
		return
	}
	var used, total uint64
	for _, d := range disks {
		if d.Removable && !m.IncludeRemovables {
			continue
		}
		total += d.Total
		used += d.Used()
	}
	t.out = FormatUsage(used, total, t.system)
}
