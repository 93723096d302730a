package mocks

import (
	"context"

	"github.com/benmeehan/device-locations/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockLatestPublisher is a mock implementation of the LatestPublisher interface
type MockLatestPublisher struct {
	mock.Mock
}

func (m *MockLatestPublisher) PublishLatest(ctx context.Context, rec models.LatestRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
