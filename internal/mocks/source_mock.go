package mocks

import (
	"context"

	"github.com/benmeehan/device-locations/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockSource is a mock implementation of the dataset Source interface
type MockSource struct {
	mock.Mock
}

func (m *MockSource) Fetch(ctx context.Context) ([]models.LocationSample, error) {
	args := m.Called(ctx)
	samples, _ := args.Get(0).([]models.LocationSample)
	return samples, args.Error(1)
}
