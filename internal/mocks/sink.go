package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/lc/stringbar/internal/sink"
)

var _ sink.Sink = (*MockSink)(nil)

// MockSink is a testify mock of sink.Sink.
type MockSink struct {
	mock.Mock
}

// Publish mocks the Publish method.
func (m *MockSink) Publish(ctx context.Context, status string) error {
	args := m.Called(ctx, status)
	return args.Error(0)
}
