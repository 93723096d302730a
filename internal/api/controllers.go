package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Controllers interface {
	Location() LocationController
	Info() InfoController

	Route(e *echo.Echo)
}

type controllers struct {
	locationController LocationController
	infoController     InfoController
}

func NewControllers(querier LocationQuerier) (Controllers, error) {
	infoController, err := defaultInfoController()
	if err != nil {
		return nil, err
	}
	return &controllers{
		locationController: newLocationController(querier),
		infoController:     infoController,
	}, nil
}

func (c controllers) Location() LocationController {
	return c.locationController
}

func (c controllers) Info() InfoController {
	return c.infoController
}

func (c controllers) Route(e *echo.Echo) {
	e.GET("/", c.infoController.Info)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.GET("/latest-info/:device_id", c.locationController.LatestInfo)
	e.GET("/start-end-location/:device_id", c.locationController.StartEndLocation)
	e.Match([]string{"GET", "POST"}, "/location-points/:device_id", c.locationController.LocationPoints)
}
