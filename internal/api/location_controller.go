package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/benmeehan/device-locations/internal/models"
	"github.com/benmeehan/device-locations/internal/services"
	"github.com/labstack/echo/v4"
)

// LocationQuerier is the read side used by the location endpoints.
type LocationQuerier interface {
	Latest(ctx context.Context, deviceID int64) (models.CacheEntry, error)
	StartEnd(ctx context.Context, deviceID int64) (models.StartEndLocation, error)
	RangePoints(ctx context.Context, deviceID int64, req models.LocationPointsRequest) ([]models.RangePoint, error)
}

type LocationController interface {
	LatestInfo(c echo.Context) error
	StartEndLocation(c echo.Context) error
	LocationPoints(c echo.Context) error
}

type locationController struct {
	querier LocationQuerier
}

func newLocationController(querier LocationQuerier) LocationController {
	return &locationController{
		querier: querier,
	}
}

func (l *locationController) LatestInfo(c echo.Context) error {
	deviceID, err := deviceIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	info, err := l.querier.Latest(c.Request().Context(), deviceID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Device data retrieved successfully.", info)
}

func (l *locationController) StartEndLocation(c echo.Context) error {
	deviceID, err := deviceIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	location, err := l.querier.StartEnd(c.Request().Context(), deviceID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Start and end locations retrieved successfully.", location)
}

func (l *locationController) LocationPoints(c echo.Context) error {
	deviceID, err := deviceIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	req, err := decodePointsRequest(c)
	if err != nil {
		return respondError(c, err)
	}

	points, err := l.querier.RangePoints(c.Request().Context(), deviceID, req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "Location points retrieved successfully.", points)
}

func deviceIDParam(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("device_id"), 10, 64)
	if err != nil {
		return 0, &services.ValidationError{Reason: "invalid fields", Fields: []string{"device_id"}}
	}
	return id, nil
}

// decodePointsRequest reads the window from the JSON body. A request without
// a body falls back to query parameters.
func decodePointsRequest(c echo.Context) (models.LocationPointsRequest, error) {
	var req models.LocationPointsRequest

	err := json.NewDecoder(c.Request().Body).Decode(&req)
	switch {
	case err == nil:
		return req, nil
	case errors.Is(err, io.EOF):
		return pointsRequestFromQuery(c), nil
	default:
		return req, &services.ValidationError{Reason: "malformed request body", Fields: []string{"body"}}
	}
}

func pointsRequestFromQuery(c echo.Context) models.LocationPointsRequest {
	query := c.QueryParams()
	param := func(name string) *string {
		if !query.Has(name) {
			return nil
		}
		v := query.Get(name)
		return &v
	}
	return models.LocationPointsRequest{
		StartDate: param("start_date"),
		StartTime: param("start_time"),
		EndDate:   param("end_date"),
		EndTime:   param("end_time"),
	}
}
