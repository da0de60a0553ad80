package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/brettbedarf/shellfs/archive"
)

// MockArchive implements archive.Archive for testing across packages
type MockArchive struct {
	mock.Mock
}

var _ archive.Archive = (*MockArchive)(nil)

func (m *MockArchive) Names() []string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockArchive) ReadFile(name string) ([]byte, error) {
	args := m.Called(name)

	// Handle function return types (for content derived from the name)
	if fn, ok := args.Get(0).(func(string) []byte); ok {
		return fn(name), args.Error(1)
	}

	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockArchive) Size(name string) (int64, error) {
	args := m.Called(name)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockArchive) Close() error {
	args := m.Called()
	return args.Error(0)
}
