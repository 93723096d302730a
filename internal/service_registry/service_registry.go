package service_registry

import (
	"errors"
	"fmt"

	"github.com/benmeehan/device-locations/internal/api"
	"github.com/benmeehan/device-locations/internal/registry"
	"github.com/benmeehan/device-locations/internal/services"
	"github.com/benmeehan/device-locations/internal/utils"
	"github.com/benmeehan/device-locations/pkg/cache"
	"github.com/benmeehan/device-locations/pkg/dataset"
	"github.com/rs/zerolog"
)

// ServiceRegistry manages the lifecycle of various services in the system.
type ServiceRegistry struct {
	services      map[string]registry.Service // Stores registered services
	serviceKeys   []string                    // Maintains order of service registration
	source        dataset.Source
	positionCache cache.PositionCache
	publisher     services.LatestPublisher
	Logger        zerolog.Logger
}

// NewServiceRegistry initializes a new service registry with dependencies.
// publisher may be nil.
func NewServiceRegistry(source dataset.Source, positionCache cache.PositionCache, publisher services.LatestPublisher,
	logger zerolog.Logger) *ServiceRegistry {
	return &ServiceRegistry{
		services:      make(map[string]registry.Service),
		source:        source,
		positionCache: positionCache,
		publisher:     publisher,
		Logger:        logger,
	}
}

// RegisterService adds a new service to the registry.
func (sr *ServiceRegistry) RegisterService(name string, svc registry.Service) {
	if _, exists := sr.services[name]; exists {
		sr.Logger.Warn().Msgf("Service %s is already registered", name)
		return
	}
	sr.services[name] = svc
	sr.serviceKeys = append(sr.serviceKeys, name)
	sr.Logger.Info().Msgf("Registered service: %s", name)
}

// StartServices initiates all registered services in order.
// If a service fails to start, it stops already started services.
func (sr *ServiceRegistry) StartServices() error {
	startedServices := []string{}

	for _, name := range sr.serviceKeys {
		svc := sr.services[name]
		sr.Logger.Info().Msgf("Starting service: %s", name)
		if err := svc.Start(); err != nil {
			sr.Logger.Error().Err(err).Msgf("Failed to start service: %s", name)

			// Stop already started services before returning
			sr.Logger.Warn().Msg("Stopping already started services due to startup failure...")
			for i := len(startedServices) - 1; i >= 0; i-- {
				_ = sr.services[startedServices[i]].Stop()
			}
			return fmt.Errorf("failed to start %s: %w", name, err)
		}
		startedServices = append(startedServices, name)
	}

	return nil
}

// StopServices stops all services in reverse order.
func (sr *ServiceRegistry) StopServices() error {
	var stopErrors []error
	for i := len(sr.serviceKeys) - 1; i >= 0; i-- {
		name := sr.serviceKeys[i]
		if err := sr.services[name].Stop(); err != nil {
			stopErrors = append(stopErrors, fmt.Errorf("failed to stop %s: %w", name, err))
		}
	}
	if len(stopErrors) > 0 {
		for _, e := range stopErrors {
			sr.Logger.Error().Err(e).Msg("Service stop failure")
		}
		return errors.Join(stopErrors...)
	}
	return nil
}

// RegisterServices initializes and registers enabled services based on configuration.
func (sr *ServiceRegistry) RegisterServices(config *utils.Config) error {
	// Ordered service definitions with inline constructors
	servicesInOrder := []struct {
		name        string
		enabled     bool
		constructor func() (registry.Service, error)
	}{
		{
			name:    "populator",
			enabled: config.Populator.Enabled,
			constructor: func() (registry.Service, error) {
				return services.NewPopulatorService(
					config.Populator.Schedule,
					config.Populator.RunOnStart,
					config.Populator.Workers,
					config.Populator.Timeout,
					sr.source,
					sr.positionCache,
					sr.publisher,
					sr.Logger.With().Str("service", "populator").Logger(),
				), nil
			},
		},
		{
			name:    "http",
			enabled: true,
			constructor: func() (registry.Service, error) {
				querier := services.NewQueryService(
					sr.positionCache,
					sr.source,
					sr.Logger.With().Str("service", "query").Logger(),
				)
				httpService, err := api.NewHTTPService(
					config.Server.Address,
					config.Server.ReadTimeout,
					config.Server.WriteTimeout,
					config.Server.ShutdownTimeout,
					querier,
					sr.Logger.With().Str("service", "http").Logger(),
				)
				if err != nil {
					return nil, err
				}
				return httpService, nil
			},
		},
	}

	// Register services in the predefined order
	registeredServices := []string{}
	for _, svc := range servicesInOrder {
		if svc.enabled {
			serviceInstance, err := svc.constructor()
			if err != nil {
				sr.Logger.Error().Err(err).Msgf("Failed to create %s service", svc.name)
				return err
			}
			sr.RegisterService(svc.name, serviceInstance)
			registeredServices = append(registeredServices, svc.name)
		}
	}

	sr.Logger.Info().Msgf("Registered services in order: %v", registeredServices)
	return nil
}
