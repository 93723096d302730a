package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/benmeehan/device-locations/internal/constants"
	"github.com/benmeehan/device-locations/internal/mocks"
	"github.com/benmeehan/device-locations/internal/models"
	"github.com/benmeehan/device-locations/internal/services"
	"github.com/benmeehan/device-locations/pkg/cache"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func cachedEntry(lat, lng, ts string) models.CacheEntry {
	return models.CacheEntry{
		constants.FieldLatitude:  lat,
		constants.FieldLongitude: lng,
		constants.FieldTimestamp: ts,
	}
}

func windowRequest(startDate, startTime, endDate, endTime string) models.LocationPointsRequest {
	return models.LocationPointsRequest{
		StartDate: strPtr(startDate),
		StartTime: strPtr(startTime),
		EndDate:   strPtr(endDate),
		EndTime:   strPtr(endTime),
	}
}

// TestQueryService_Latest_Hit tests that a cached entry is returned with its device id.
func TestQueryService_Latest_Hit(t *testing.T) {
	memCache := cache.NewMemoryCache()
	require.NoError(t, memCache.Write(context.Background(), 7, cachedEntry("1.5", "2.5", "2024-01-01T00:00:00Z")))
	q := services.NewQueryService(memCache, new(mocks.MockSource), zerolog.Nop())

	info, err := q.Latest(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, models.CacheEntry{
		constants.FieldLatitude:  "1.5",
		constants.FieldLongitude: "2.5",
		constants.FieldTimestamp: "2024-01-01T00:00:00Z",
		constants.FieldDeviceID:  "7",
	}, info)

	// the stored entry is not modified
	stored, _, _ := memCache.ReadAll(context.Background(), 7)
	assert.NotContains(t, stored, constants.FieldDeviceID)
}

// TestQueryService_Latest_Miss tests that a missing entry is NotFound and the dataset is not read.
func TestQueryService_Latest_Miss(t *testing.T) {
	mockSource := new(mocks.MockSource)
	q := services.NewQueryService(cache.NewMemoryCache(), mockSource, zerolog.Nop())

	_, err := q.Latest(context.Background(), 99)

	assert.True(t, errors.Is(err, services.ErrNotFound))
	mockSource.AssertNotCalled(t, "Fetch", mock.Anything)
}

// TestQueryService_Latest_EmptyCoordinates tests that a populated entry with empty
// coordinates is a hit, not a NotFound.
func TestQueryService_Latest_EmptyCoordinates(t *testing.T) {
	memCache := cache.NewMemoryCache()
	require.NoError(t, memCache.Write(context.Background(), 99, cachedEntry("", "", "2024-01-01T00:00:00Z")))
	q := services.NewQueryService(memCache, new(mocks.MockSource), zerolog.Nop())

	info, err := q.Latest(context.Background(), 99)

	require.NoError(t, err)
	assert.Equal(t, "", info[constants.FieldLatitude])
}

// TestQueryService_Latest_CacheError tests that cache failures are not reported as NotFound.
func TestQueryService_Latest_CacheError(t *testing.T) {
	mockCache := new(mocks.MockPositionCache)
	mockCache.On("ReadAll", mock.Anything, int64(1)).Return(nil, false, errors.New("dial tcp: refused"))
	q := services.NewQueryService(mockCache, new(mocks.MockSource), zerolog.Nop())

	_, err := q.Latest(context.Background(), 1)

	require.Error(t, err)
	assert.False(t, errors.Is(err, services.ErrNotFound))
	assert.Contains(t, err.Error(), "dial tcp: refused")
}

// TestQueryService_StartEnd_FallsBackToDataset tests that without start_location the
// earliest dataset sample is used as the start.
func TestQueryService_StartEnd_FallsBackToDataset(t *testing.T) {
	memCache := cache.NewMemoryCache()
	require.NoError(t, memCache.Write(context.Background(), 1, cachedEntry("3", "4", "2024-01-03T00:00:00Z")))
	mockSource := new(mocks.MockSource)
	mockSource.On("Fetch", mock.Anything).Return([]models.LocationSample{
		sample(1, 2, 2, "2024-01-02T00:00:00Z"),
		sample(2, 0, 0, "2023-01-01T00:00:00Z"),
		sample(1, 1, 1, "1704067200"),
	}, nil)
	q := services.NewQueryService(memCache, mockSource, zerolog.Nop())

	result, err := q.StartEnd(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, models.StartEndLocation{
		DeviceID:      1,
		StartLocation: models.Coordinates{Latitude: 1, Longitude: 1},
		EndLocation:   models.Coordinates{Latitude: 3, Longitude: 4},
	}, result)
}

// TestQueryService_StartEnd_UsesCachedStart tests that a cached start_location avoids the dataset.
func TestQueryService_StartEnd_UsesCachedStart(t *testing.T) {
	mockCache := new(mocks.MockPositionCache)
	mockCache.On("ReadAll", mock.Anything, int64(1)).Return(cachedEntry("3", "4", "2024-01-03T00:00:00Z"), true, nil)
	mockCache.On("ReadField", mock.Anything, int64(1), constants.FieldStartLocation).
		Return(`{"latitude":5.5,"longitude":6.5}`, true, nil)
	mockSource := new(mocks.MockSource)
	q := services.NewQueryService(mockCache, mockSource, zerolog.Nop())

	result, err := q.StartEnd(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, models.Coordinates{Latitude: 5.5, Longitude: 6.5}, result.StartLocation)
	assert.Equal(t, models.Coordinates{Latitude: 3, Longitude: 4}, result.EndLocation)
	mockSource.AssertNotCalled(t, "Fetch", mock.Anything)
}

// TestQueryService_StartEnd_UnreadableStart tests that a corrupt start_location falls back to the dataset.
func TestQueryService_StartEnd_UnreadableStart(t *testing.T) {
	mockCache := new(mocks.MockPositionCache)
	mockCache.On("ReadAll", mock.Anything, int64(1)).Return(cachedEntry("3", "4", "2024-01-03T00:00:00Z"), true, nil)
	mockCache.On("ReadField", mock.Anything, int64(1), constants.FieldStartLocation).Return("(5.5, 6.5)", true, nil)
	mockSource := new(mocks.MockSource)
	mockSource.On("Fetch", mock.Anything).Return([]models.LocationSample{sample(1, 7, 8, "2024-01-01T00:00:00Z")}, nil)
	q := services.NewQueryService(mockCache, mockSource, zerolog.Nop())

	result, err := q.StartEnd(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, models.Coordinates{Latitude: 7, Longitude: 8}, result.StartLocation)
}

// TestQueryService_StartEnd_NoEntry tests that a missing cache entry is NotFound
// and the dataset is never read, even when it is unavailable.
func TestQueryService_StartEnd_NoEntry(t *testing.T) {
	mockSource := new(mocks.MockSource)
	mockSource.On("Fetch", mock.Anything).Return(nil, errors.New("open data/locations.csv: no such file"))
	q := services.NewQueryService(cache.NewMemoryCache(), mockSource, zerolog.Nop())

	for i := 0; i < 100; i++ {
		_, err := q.StartEnd(context.Background(), 1)

		require.Error(t, err)
		assert.True(t, errors.Is(err, services.ErrNotFound))
		assert.False(t, errors.Is(err, services.ErrSourceUnavailable))
	}
	mockSource.AssertNotCalled(t, "Fetch", mock.Anything)
}

// TestQueryService_StartEnd_SourceUnavailable tests that a failed fallback scan is a source error.
func TestQueryService_StartEnd_SourceUnavailable(t *testing.T) {
	memCache := cache.NewMemoryCache()
	require.NoError(t, memCache.Write(context.Background(), 1, cachedEntry("3", "4", "2024-01-03T00:00:00Z")))
	mockSource := new(mocks.MockSource)
	mockSource.On("Fetch", mock.Anything).Return(nil, errors.New("bucket not found"))
	q := services.NewQueryService(memCache, mockSource, zerolog.Nop())

	_, err := q.StartEnd(context.Background(), 1)

	assert.True(t, errors.Is(err, services.ErrSourceUnavailable))
}

// TestQueryService_StartEnd_NoDatasetSamples tests that a device cached but absent
// from the dataset reports a missing start location rather than missing device data.
func TestQueryService_StartEnd_NoDatasetSamples(t *testing.T) {
	memCache := cache.NewMemoryCache()
	require.NoError(t, memCache.Write(context.Background(), 1, cachedEntry("3", "4", "2024-01-03T00:00:00Z")))
	mockSource := new(mocks.MockSource)
	mockSource.On("Fetch", mock.Anything).Return([]models.LocationSample{sample(2, 1, 1, "2024-01-01T00:00:00Z")}, nil)
	q := services.NewQueryService(memCache, mockSource, zerolog.Nop())

	_, err := q.StartEnd(context.Background(), 1)

	assert.True(t, errors.Is(err, services.ErrStartLocationNotFound))
	assert.False(t, errors.Is(err, services.ErrNotFound))
}

// TestQueryService_RangePoints tests a window query over the dataset without touching the cache.
func TestQueryService_RangePoints(t *testing.T) {
	mockCache := new(mocks.MockPositionCache)
	mockSource := new(mocks.MockSource)
	mockSource.On("Fetch", mock.Anything).Return([]models.LocationSample{
		sample(1, 1.5, 2.5, "2024-01-01T06:00:00Z"),
		sample(1, 3.5, 4.5, "2024-01-02T00:00:00Z"),
	}, nil)
	q := services.NewQueryService(mockCache, mockSource, zerolog.Nop())

	points, err := q.RangePoints(context.Background(), 1, windowRequest("2024-01-01", "00:00:00", "2024-01-01", "12:00:00"))

	require.NoError(t, err)
	assert.Equal(t, []models.RangePoint{{Latitude: 1.5, Longitude: 2.5, Timestamp: "2024-01-01T06:00:00Z"}}, points)
	mockCache.AssertNotCalled(t, "ReadAll", mock.Anything, mock.Anything)
	mockCache.AssertNotCalled(t, "ReadField", mock.Anything, mock.Anything, mock.Anything)
}

// TestQueryService_RangePoints_ValidationFirst tests that an invalid request never reads the dataset.
func TestQueryService_RangePoints_ValidationFirst(t *testing.T) {
	mockSource := new(mocks.MockSource)
	q := services.NewQueryService(new(mocks.MockPositionCache), mockSource, zerolog.Nop())

	_, err := q.RangePoints(context.Background(), 1, models.LocationPointsRequest{
		StartDate: strPtr("2024-01-01"),
	})

	var validationErr *services.ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, []string{"start_time", "end_date", "end_time"}, validationErr.Fields)
	mockSource.AssertNotCalled(t, "Fetch", mock.Anything)
}

// TestQueryService_RangePoints_SourceUnavailable tests that dataset failures are surfaced.
func TestQueryService_RangePoints_SourceUnavailable(t *testing.T) {
	mockSource := new(mocks.MockSource)
	mockSource.On("Fetch", mock.Anything).Return(nil, errors.New("timeout"))
	q := services.NewQueryService(new(mocks.MockPositionCache), mockSource, zerolog.Nop())

	_, err := q.RangePoints(context.Background(), 1, windowRequest("2024-01-01", "00:00:00", "2024-01-01", "12:00:00"))

	assert.True(t, errors.Is(err, services.ErrSourceUnavailable))
	assert.Contains(t, err.Error(), "timeout")
}
