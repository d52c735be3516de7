// Package metrics samples the host figures a status line can show: memory,
// swap, CPU load, process count and disk usage.
package metrics

import (
	"context"
	"fmt"

	"github.com/mitchellh/go-ps"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

// Usage is a used/total pair in bytes.
type Usage struct {
	Used  uint64
	Total uint64
}

// Disk describes one mounted block device.
type Disk struct {
	Name      string // device path, e.g. /dev/sda1
	Mount     string
	Total     uint64
	Available uint64
	Removable bool
}

// Used returns the bytes not available to unprivileged users.
func (d Disk) Used() uint64 {
	if d.Available > d.Total {
		return 0
	}
	return d.Total - d.Available
}

// Provider is the capability the renderer samples from.
type Provider interface {
	Memory(ctx context.Context) (Usage, error)
	Swap(ctx context.Context) (Usage, error)
	CPUPercent(ctx context.Context) (float64, error)
	ProcessCount(ctx context.Context) (int, error)
	Disks(ctx context.Context) ([]Disk, error)
}

var _ Provider = (*System)(nil)

// System samples the local host through gopsutil and go-ps.
type System struct {
	// removable reports whether a device is removable media.
	removable func(device string) bool
}

// NewSystem returns a Provider for the local host.
func NewSystem() *System {
	return &System{removable: isRemovable}
}

// Memory returns physical memory usage.
func (s *System) Memory(ctx context.Context) (Usage, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Usage{}, fmt.Errorf("reading memory: %w", err)
	}
	return Usage{Used: vm.Used, Total: vm.Total}, nil
}

// Swap returns swap usage.
func (s *System) Swap(ctx context.Context) (Usage, error) {
	sw, err := mem.SwapMemoryWithContext(ctx)
	if err != nil {
		return Usage{}, fmt.Errorf("reading swap: %w", err)
	}
	return Usage{Used: sw.Used, Total: sw.Total}, nil
}

// CPUPercent returns the global CPU load since the previous call.
// The first call measures since boot.
func (s *System) CPUPercent(ctx context.Context) (float64, error) {
	pct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, fmt.Errorf("reading cpu: %w", err)
	}
	if len(pct) == 0 {
		return 0, fmt.Errorf("reading cpu: no samples")
	}
	return pct[0], nil
}

// ProcessCount returns the number of running processes.
func (s *System) ProcessCount(_ context.Context) (int, error) {
	procs, err := ps.Processes()
	if err != nil {
		return 0, fmt.Errorf("listing processes: %w", err)
	}
	return len(procs), nil
}

// Disks lists mounted physical partitions. A device mounted more than once
// is reported once, and partitions whose usage cannot be read are skipped.
func (s *System) Disks(ctx context.Context) ([]Disk, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("listing partitions: %w", err)
	}

	seen := make(map[string]struct{}, len(parts))
	disks := make([]Disk, 0, len(parts))
	for _, p := range parts {
		if _, dup := seen[p.Device]; dup {
			continue
		}
		u, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil {
			continue
		}
		seen[p.Device] = struct{}{}
		disks = append(disks, Disk{
			Name:      p.Device,
			Mount:     p.Mountpoint,
			Total:     u.Total,
			Available: u.Free,
			Removable: s.removable(p.Device),
		})
	}
	return disks, nil
}
