package mocks

import (
	"context"

	"github.com/benmeehan/device-locations/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockPositionCache is a mock implementation of the PositionCache interface
type MockPositionCache struct {
	mock.Mock
}

func (m *MockPositionCache) Write(ctx context.Context, deviceID int64, entry models.CacheEntry) error {
	args := m.Called(ctx, deviceID, entry)
	return args.Error(0)
}

func (m *MockPositionCache) ReadAll(ctx context.Context, deviceID int64) (models.CacheEntry, bool, error) {
	args := m.Called(ctx, deviceID)
	entry, _ := args.Get(0).(models.CacheEntry)
	return entry, args.Bool(1), args.Error(2)
}

func (m *MockPositionCache) ReadField(ctx context.Context, deviceID int64, field string) (string, bool, error) {
	args := m.Called(ctx, deviceID, field)
	return args.String(0), args.Bool(1), args.Error(2)
}
