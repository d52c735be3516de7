package metrics

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskUsed(t *testing.T) {
	assert.Equal(t, uint64(60), Disk{Total: 100, Available: 40}.Used())
	assert.Equal(t, uint64(0), Disk{Total: 100, Available: 140}.Used())
}

func TestSystemSamplesHost(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("host sampling is only checked on linux")
	}
	s := NewSystem()
	ctx := context.Background()

	m, err := s.Memory(ctx)
	require.NoError(t, err)
	assert.Positive(t, m.Total)
	assert.LessOrEqual(t, m.Used, m.Total)

	n, err := s.ProcessCount(ctx)
	require.NoError(t, err)
	assert.Positive(t, n)

	pct, err := s.CPUPercent(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pct, 0.0)

	disks, err := s.Disks(ctx)
	require.NoError(t, err)
	seen := map[string]bool{}
	for _, d := range disks {
		assert.False(t, seen[d.Name], "device %s reported twice", d.Name)
		seen[d.Name] = true
	}
}

func TestDisksUsesRemovableProbe(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("host sampling is only checked on linux")
	}
	s := &System{removable: func(string) bool { return true }}

	disks, err := s.Disks(context.Background())
	require.NoError(t, err)
	for _, d := range disks {
		assert.True(t, d.Removable)
	}
}
