package mocks

import (
	"context"

	"github.com/brettbedarf/webfiles"
	"github.com/brettbedarf/webfiles/config"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
)

// MockProvider implements adapters.Provider for testing across packages.
// adapters is not imported here to keep its tests free of an import cycle.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) NewFs(cfg *config.Config) (afero.Fs, error) {
	args := m.Called(cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(afero.Fs), args.Error(1)
}

// MockSubscriber implements webfiles.Subscriber for testing across packages
type MockSubscriber struct {
	mock.Mock
}

func (m *MockSubscriber) Notify(ctx context.Context, ev webfiles.Event) error {
	args := m.Called(ctx, ev)

	// Handle function return types (for ordering/panic tests)
	if fn, ok := args.Get(0).(func(context.Context, webfiles.Event) error); ok {
		return fn(ctx, ev)
	}
	return args.Error(0)
}

var _ webfiles.Subscriber = (*MockSubscriber)(nil)

// MockPublisher records published events
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ev webfiles.Event) {
	m.Called(ev)
}

var _ webfiles.Publisher = (*MockPublisher)(nil)
