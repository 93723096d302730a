package api

import (
	"errors"
	"net/http"

	"github.com/benmeehan/device-locations/internal/services"
	"github.com/labstack/echo/v4"
)

// contextKeyError carries an internal error to the request logger.
const contextKeyError = "api.error"

// Response is the envelope of every API reply.
type Response struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Response{
		StatusCode: status,
		Message:    message,
		Data:       data,
	})
}

// respondError maps service errors onto the status taxonomy:
// validation 400, not found 404, everything else 500 with the error text.
func respondError(c echo.Context, err error) error {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return respond(c, http.StatusBadRequest, "Invalid request.", map[string]any{
			"error":  validationErr.Reason,
			"fields": validationErr.Fields,
		})
	case errors.Is(err, services.ErrStartLocationNotFound):
		return respond(c, http.StatusNotFound, "Start location not found", map[string]string{
			"error": "Start location not found",
		})
	case errors.Is(err, services.ErrNotFound):
		return respond(c, http.StatusNotFound, "Device data not found", map[string]string{
			"error": "Device data not found",
		})
	default:
		c.Set(contextKeyError, err)
		return respond(c, http.StatusInternalServerError, "Internal server error.", err.Error())
	}
}

// httpErrorHandler renders echo's own errors (unknown route, wrong method)
// in the same envelope.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		_ = respondError(c, err)
		return
	}

	message := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok {
		message = m
	}
	_ = respond(c, he.Code, message, nil)
}
