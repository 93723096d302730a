package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// HTTPService serves the location API.
type HTTPService struct {
	// Configuration fields
	address         string
	shutdownTimeout time.Duration

	// Dependencies
	echo   *echo.Echo
	logger zerolog.Logger

	// Internal state management
	mu      sync.Mutex
	wg      sync.WaitGroup
	running bool
}

// NewHTTPService builds the echo server and registers every route.
func NewHTTPService(address string, readTimeout, writeTimeout, shutdownTimeout time.Duration,
	querier LocationQuerier, logger zerolog.Logger) (*HTTPService, error) {
	ctrls, err := NewControllers(querier)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpErrorHandler
	e.Server.ReadTimeout = readTimeout
	e.Server.WriteTimeout = writeTimeout

	useMiddlewares(e, logger)
	ctrls.Route(e)

	return &HTTPService{
		address:         address,
		shutdownTimeout: shutdownTimeout,
		echo:            e,
		logger:          logger,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (h *HTTPService) Handler() http.Handler {
	return h.echo
}

// Start binds the listen address and serves in the background.
func (h *HTTPService) Start() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.running {
		h.logger.Warn().Msg("HTTPService is already running")
		return errors.New("http service is already running")
	}

	listener, err := net.Listen("tcp", h.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", h.address, err)
	}
	h.echo.Listener = listener
	h.running = true

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		if err := h.echo.Start(h.address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error().Err(err).Msg("HTTP server stopped unexpectedly")
		}
	}()

	h.logger.Info().Str("address", listener.Addr().String()).Msg("HTTPService started")
	return nil
}

// Stop drains in-flight requests within the shutdown timeout.
func (h *HTTPService) Stop() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.running {
		h.logger.Warn().Msg("HTTPService is not running")
		return errors.New("http service is not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.shutdownTimeout)
	defer cancel()

	err := h.echo.Shutdown(ctx)
	h.wg.Wait()
	h.running = false

	if err != nil {
		h.logger.Error().Err(err).Msg("HTTP server shutdown failed")
		return err
	}
	h.logger.Info().Msg("HTTPService stopped")
	return nil
}
