package api

import (
	"fmt"
	"net/http"

	"github.com/Masterminds/semver/v3"
	"github.com/benmeehan/device-locations/internal/constants"
	"github.com/labstack/echo/v4"
)

type InfoController interface {
	Info(c echo.Context) error
}

type infoController struct {
	name    string
	version *semver.Version
}

func newInfoController(name, version string) (InfoController, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("invalid service version %q: %w", version, err)
	}
	return &infoController{
		name:    name,
		version: v,
	}, nil
}

func (i *infoController) Info(c echo.Context) error {
	return respond(c, http.StatusOK, "OK", map[string]string{
		"name":    i.name,
		"version": i.version.String(),
	})
}

func defaultInfoController() (InfoController, error) {
	return newInfoController(constants.ServiceName, constants.Version)
}
