package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/benmeehan/device-locations/internal/constants"
	"github.com/benmeehan/device-locations/internal/service_registry"
	"github.com/benmeehan/device-locations/internal/utils"
	"github.com/benmeehan/device-locations/pkg/file"
	"github.com/rs/zerolog"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// Bootstrap logger until the configured one is available
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := utils.LoadEnvFiles(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to load environment files")
	}

	// Load configuration from file
	fileClient := file.NewFileService()
	config, err := utils.LoadConfig(*configPath, fileClient)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load configuration")
	}

	logger = utils.NewLogger(config.Logging.Level, config.Logging.JSON).
		With().Str("service", constants.ServiceName).Logger()
	logger.Info().Str("version", constants.Version).Msg("Starting")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := service_registry.BuildDependencies(ctx, config, fileClient, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize dependencies")
	}

	// Create a new service registry to manage services
	serviceRegistry := service_registry.NewServiceRegistry(deps.Source, deps.Cache, deps.Publisher, logger)

	// Register all services based on the configuration
	if err := serviceRegistry.RegisterServices(config); err != nil {
		_ = deps.Close()
		logger.Fatal().Err(err).Msg("Failed to register services")
	}

	// Start all registered services in the registry
	if err := serviceRegistry.StartServices(); err != nil {
		_ = deps.Close()
		logger.Fatal().Err(err).Msg("Failed to start services")
	}
	logger.Info().Msg("All services started successfully")

	// Handle graceful shutdown
	<-ctx.Done()
	logger.Info().Msg("Shutting down gracefully...")

	exitCode := 0
	if err := serviceRegistry.StopServices(); err != nil {
		exitCode = 1
	}
	if err := deps.Close(); err != nil {
		logger.Error().Err(err).Msg("Failed to close clients")
		exitCode = 1
	}
	os.Exit(exitCode)
}
