package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lc/stringbar/internal/metrics"
)

var _ metrics.Provider = (*MockProvider)(nil)

// MockProvider is a testify mock of metrics.Provider.
type MockProvider struct {
	mock.Mock
}

// Memory mocks the Memory method.
func (m *MockProvider) Memory(ctx context.Context) (metrics.Usage, error) {
	args := m.Called(ctx)
	return args.Get(0).(metrics.Usage), args.Error(1)
}

// Swap mocks the Swap method.
func (m *MockProvider) Swap(ctx context.Context) (metrics.Usage, error) {
	args := m.Called(ctx)
	return args.Get(0).(metrics.Usage), args.Error(1)
}

// CPUPercent mocks the CPUPercent method.
func (m *MockProvider) CPUPercent(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

// ProcessCount mocks the ProcessCount method.
func (m *MockProvider) ProcessCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// Disks mocks the Disks method.
func (m *MockProvider) Disks(ctx context.Context) ([]metrics.Disk, error) {
	args := m.Called(ctx)
	// Need to handle potential nil slice return
	var disks []metrics.Disk
	if args.Get(0) != nil {
		disks = args.Get(0).([]metrics.Disk)
	}
	return disks, args.Error(1)
}
