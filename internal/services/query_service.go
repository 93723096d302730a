package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/benmeehan/device-locations/internal/constants"
	"github.com/benmeehan/device-locations/internal/metrics"
	"github.com/benmeehan/device-locations/internal/models"
	"github.com/benmeehan/device-locations/pkg/cache"
	"github.com/benmeehan/device-locations/pkg/dataset"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/benmeehan/device-locations/internal/services")

// QueryService answers position queries, reading through the cache to the dataset.
type QueryService struct {
	cache  cache.PositionCache
	source dataset.Source
	logger zerolog.Logger
}

// NewQueryService creates a new QueryService.
func NewQueryService(positionCache cache.PositionCache, source dataset.Source, logger zerolog.Logger) *QueryService {
	return &QueryService{
		cache:  positionCache,
		source: source,
		logger: logger,
	}
}

// Latest returns the cached entry of a device with device_id added.
// It never falls back to the dataset; a cache miss is ErrNotFound.
func (q *QueryService) Latest(ctx context.Context, deviceID int64) (info models.CacheEntry, err error) {
	ctx, span := startSpan(ctx, "QueryService.Latest", deviceID)
	defer func() { endSpan(span, err) }()

	entry, found, err := q.cache.ReadAll(ctx, deviceID)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("latest", "error").Inc()
		return nil, fmt.Errorf("failed to read cache entry for device %d: %w", deviceID, err)
	}
	if !found {
		metrics.CacheLookups.WithLabelValues("latest", "miss").Inc()
		return nil, ErrNotFound
	}
	metrics.CacheLookups.WithLabelValues("latest", "hit").Inc()

	info = entry.Clone()
	info[constants.FieldDeviceID] = strconv.FormatInt(deviceID, 10)
	return info, nil
}

// StartEnd returns the first and last known positions of a device.
//
// The end position always comes from the cached entry; without one the call
// fails with ErrNotFound and the dataset is not read. The start position comes
// from the entry's start_location field when present, otherwise from the
// earliest dataset sample of the device. A cached device with no dataset
// samples fails with ErrStartLocationNotFound.
func (q *QueryService) StartEnd(ctx context.Context, deviceID int64) (result models.StartEndLocation, err error) {
	ctx, span := startSpan(ctx, "QueryService.StartEnd", deviceID)
	defer func() { endSpan(span, err) }()

	end, err := q.endLocation(ctx, deviceID)
	if err != nil {
		return models.StartEndLocation{}, err
	}

	start, err := q.startLocation(ctx, deviceID)
	if err != nil {
		return models.StartEndLocation{}, err
	}

	return models.StartEndLocation{
		DeviceID:      deviceID,
		StartLocation: start,
		EndLocation:   end,
	}, nil
}

func (q *QueryService) endLocation(ctx context.Context, deviceID int64) (models.Coordinates, error) {
	entry, found, err := q.cache.ReadAll(ctx, deviceID)
	if err != nil {
		metrics.CacheLookups.WithLabelValues("start_end", "error").Inc()
		return models.Coordinates{}, fmt.Errorf("failed to read cache entry for device %d: %w", deviceID, err)
	}
	if !found {
		metrics.CacheLookups.WithLabelValues("start_end", "miss").Inc()
		return models.Coordinates{}, ErrNotFound
	}
	metrics.CacheLookups.WithLabelValues("start_end", "hit").Inc()

	coords, err := entry.Coordinates()
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("corrupt cache entry for device %d: %w", deviceID, err)
	}
	return coords, nil
}

func (q *QueryService) startLocation(ctx context.Context, deviceID int64) (models.Coordinates, error) {
	raw, found, err := q.cache.ReadField(ctx, deviceID, constants.FieldStartLocation)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("failed to read start location for device %d: %w", deviceID, err)
	}
	if found {
		coords, err := models.DecodeStartLocation(raw)
		if err == nil {
			return coords, nil
		}
		q.logger.Warn().Err(err).Int64("device_id", deviceID).Msg("Ignoring unreadable start_location field")
	}

	samples, err := q.fetch(ctx, "start_end")
	if err != nil {
		return models.Coordinates{}, err
	}

	earliest, ok := EarliestSample(NormalizeSamples(samples), deviceID)
	if !ok {
		return models.Coordinates{}, ErrStartLocationNotFound
	}
	return models.Coordinates{Latitude: earliest.Latitude, Longitude: earliest.Longitude}, nil
}

// RangePoints validates req into a window and returns the device's samples
// inside it, in dataset order. The cache is not consulted.
func (q *QueryService) RangePoints(ctx context.Context, deviceID int64, req models.LocationPointsRequest) (points []models.RangePoint, err error) {
	ctx, span := startSpan(ctx, "QueryService.RangePoints", deviceID)
	defer func() { endSpan(span, err) }()

	window, err := BuildWindow(req)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("window.start", window.Start.String()),
		attribute.String("window.end", window.End.String()),
	)

	samples, err := q.fetch(ctx, "range")
	if err != nil {
		return nil, err
	}

	return FilterRange(NormalizeSamples(samples), deviceID, window), nil
}

func (q *QueryService) fetch(ctx context.Context, operation string) ([]models.LocationSample, error) {
	metrics.DatasetFallbacks.WithLabelValues(operation).Inc()

	samples, err := q.source.Fetch(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		q.logger.Error().Err(err).Str("operation", operation).Msg("Failed to fetch location dataset")
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return samples, nil
}

// BuildWindow validates a location-points request. Missing fields are reported
// together, in request order; malformed values are reported only when nothing
// is missing.
func BuildWindow(req models.LocationPointsRequest) (models.TimeWindow, error) {
	fields := []struct {
		name   string
		value  *string
		layout string
	}{
		{"start_date", req.StartDate, dateLayout},
		{"start_time", req.StartTime, clockLayout},
		{"end_date", req.EndDate, dateLayout},
		{"end_time", req.EndTime, clockLayout},
	}

	var fe fieldErrors
	for _, f := range fields {
		if f.value == nil || *f.value == "" {
			fe.addMissing(f.name)
			continue
		}
		if !matchesLayout(*f.value, f.layout) {
			fe.addInvalid(f.name)
		}
	}
	if err := fe.err(); err != nil {
		return models.TimeWindow{}, err
	}

	start, err := models.NewTimestamp(*req.StartDate, *req.StartTime)
	if err != nil {
		return models.TimeWindow{}, &ValidationError{Reason: "invalid fields", Fields: []string{"start_date", "start_time"}}
	}
	end, err := models.NewTimestamp(*req.EndDate, *req.EndTime)
	if err != nil {
		return models.TimeWindow{}, &ValidationError{Reason: "invalid fields", Fields: []string{"end_date", "end_time"}}
	}

	return models.TimeWindow{Start: start, End: end}, nil
}

func startSpan(ctx context.Context, name string, deviceID int64) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.Int64("device.id", deviceID)))
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrStartLocationNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
